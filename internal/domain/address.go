package domain

// Address адрес доставки пользователя, таблица addresses.
type Address struct {
	ID          int64  `json:"addressId" gorm:"primaryKey;column:id"`
	UserID      int64  `json:"userId" gorm:"column:user_id"`
	AddressName string `json:"addressName" gorm:"column:address_name"`
	Country     string `json:"country" gorm:"column:country"`
	City        string `json:"city" gorm:"column:city"`
	District    string `json:"district" gorm:"column:district"`
	PostalCode  string `json:"postalCode" gorm:"column:postal_code"`
	AddressLine string `json:"addressLine" gorm:"column:address_line"`
}

func (Address) TableName() string {
	return "addresses"
}

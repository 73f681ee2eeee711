package domain

// MaskedCVV значение, которое отдается клиенту вместо CVV.
const MaskedCVV = "***"

// CreditCard платежная карта пользователя, таблица credit_cards.
type CreditCard struct {
	ID              int64  `json:"cardId" gorm:"primaryKey;column:id"`
	UserID          int64  `json:"userId" gorm:"column:user_id"`
	CardName        string `json:"cardName" gorm:"column:card_name"`
	CardNumber      string `json:"cardNumber" gorm:"column:card_number"`
	CardHolderName  string `json:"cardHolderName" gorm:"column:card_holder_name"`
	ExpirationMonth int    `json:"expirationMonth" gorm:"column:expiration_month"`
	ExpirationYear  int    `json:"expirationYear" gorm:"column:expiration_year"`
	CVV             string `json:"cvv" gorm:"column:cvv"`
}

func (CreditCard) TableName() string {
	return "credit_cards"
}

// Masked возвращает копию карты со скрытым CVV.
func (c CreditCard) Masked() CreditCard {
	c.CVV = MaskedCVV
	return c
}

// LastFour последние четыре цифры номера карты.
func LastFour(number string) string {
	if len(number) <= 4 {
		return number
	}
	return number[len(number)-4:]
}

package domain

import (
	"time"
)

// User представляет пользователя системы.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID           int64     `json:"userId" gorm:"primaryKey;column:id"`
	Name         string    `json:"name" gorm:"column:name"`
	Surname      string    `json:"surname" gorm:"column:surname"`
	Email        string    `json:"email" gorm:"column:email"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	DateOfBirth  time.Time `json:"dateOfBirth" gorm:"column:date_of_birth;type:date"`
	IsAdmin      bool      `json:"isAdmin" gorm:"column:is_admin"`
	CreatedAt    time.Time `json:"createdAt" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Age возвращает полный возраст пользователя на дату now.
func Age(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

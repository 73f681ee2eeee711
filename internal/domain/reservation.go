package domain

import (
	"fmt"
	"time"
)

// MaxRentalDays максимальная длительность аренды в днях.
const MaxRentalDays = 30

// Reservation запись аренды книги, таблица reservations.
// ReturnedAt заполняется при возврате книги.
type Reservation struct {
	ID         int64      `json:"reservationId" db:"id"`
	ISBN       string     `json:"isbn" db:"isbn"`
	UserID     int64      `json:"userId" db:"user_id"`
	AddressID  int64      `json:"addressId" db:"address_id"`
	CardID     int64      `json:"cardId" db:"card_id"`
	StartDate  time.Time  `json:"startDate" db:"start_date"`
	EndDate    time.Time  `json:"endDate" db:"end_date"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	ReturnedAt *time.Time `json:"returnedAt,omitempty" db:"returned_at"`
}

// IsOpen сообщает, что книга по этой записи еще не возвращена.
func (r Reservation) IsOpen() bool {
	return r.ReturnedAt == nil
}

// Overlaps проверяет пересечение интервала [start, end] с арендой.
// Границы включительные.
func (r Reservation) Overlaps(start, end time.Time) bool {
	startInside := !start.Before(r.StartDate) && !start.After(r.EndDate)
	endInside := !end.Before(r.StartDate) && !end.After(r.EndDate)
	encloses := !start.After(r.StartDate) && !end.Before(r.EndDate)
	return startInside || endInside || encloses
}

// FindConflict возвращает первую открытую аренду, пересекающуюся с [start, end].
func FindConflict(existing []Reservation, start, end time.Time) *Reservation {
	for i := range existing {
		if !existing[i].IsOpen() {
			continue
		}
		if existing[i].Overlaps(start, end) {
			return &existing[i]
		}
	}
	return nil
}

// Truncate приводит время к началу дня в UTC.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateRentalWindow проверяет даты аренды относительно текущего дня.
func ValidateRentalWindow(start, end, now time.Time) error {
	start, end, today := Truncate(start), Truncate(end), Truncate(now)

	if start.Before(today) {
		return NewValidationError("Start date cannot be in the past")
	}
	if !end.After(start) {
		return NewValidationError("End date must be after start date")
	}
	if end.Sub(start) > MaxRentalDays*24*time.Hour {
		return NewValidationError(fmt.Sprintf("Rental period cannot exceed %d days", MaxRentalDays))
	}
	return nil
}

// RentalStatus статус аренды для отображения пользователю.
type RentalStatus string

const (
	RentalActive  RentalStatus = "Active"
	RentalOverdue RentalStatus = "Overdue"
)

// StatusAt вычисляет статус аренды и оставшиеся дни на момент now.
func (r Reservation) StatusAt(now time.Time) (RentalStatus, int) {
	today := Truncate(now)
	end := Truncate(r.EndDate)
	remaining := int(end.Sub(today).Hours() / 24)
	if today.After(end) {
		return RentalOverdue, remaining
	}
	return RentalActive, remaining
}

// UserBook аренда пользователя вместе с книгой, адресом и картой.
type UserBook struct {
	ReservationID  int64        `json:"reservationId" db:"reservation_id"`
	ISBN           string       `json:"isbn" db:"isbn"`
	BookTitle      string       `json:"bookTitle" db:"title"`
	BookAuthor     string       `json:"bookAuthor" db:"author"`
	Year           int          `json:"yearOfPublication" db:"year"`
	Publisher      string       `json:"publisher" db:"publisher"`
	ImageURLSmall  string       `json:"imageUrlSmall" db:"image_url_small"`
	ImageURLMedium string       `json:"imageUrlMedium" db:"image_url_medium"`
	ImageURLLarge  string       `json:"imageUrlLarge" db:"image_url_large"`
	StartDate      time.Time    `json:"startDate" db:"start_date"`
	EndDate        time.Time    `json:"endDate" db:"end_date"`
	ReturnedAt     *time.Time   `json:"returnedAt,omitempty" db:"returned_at"`
	AddressName    string       `json:"addressName" db:"address_name"`
	AddressLine    string       `json:"addressLine" db:"address_line"`
	City           string       `json:"city" db:"city"`
	District       string       `json:"district" db:"district"`
	CardName       string       `json:"cardName" db:"card_name"`
	CardNumber     string       `json:"cardNumber" db:"card_number"`
	CardHolderName string       `json:"cardHolderName" db:"card_holder_name"`
	Status         RentalStatus `json:"status" db:"-"`
	RemainingDays  int          `json:"remainingDays" db:"-"`
}

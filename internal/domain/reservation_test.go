package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GoArmGo/BookWave/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func Test_Overlaps(t *testing.T) {
	existing := domain.Reservation{StartDate: date("2024-01-01"), EndDate: date("2024-01-10")}

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"start inside", "2024-01-05", "2024-01-15", true},
		{"end inside", "2023-12-25", "2024-01-02", true},
		{"encloses", "2023-12-30", "2024-01-12", true},
		{"inside", "2024-01-03", "2024-01-04", true},
		{"touches end", "2024-01-10", "2024-01-12", true},
		{"after", "2024-02-01", "2024-02-05", false},
		{"before", "2023-12-01", "2023-12-31", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, existing.Overlaps(date(tc.start), date(tc.end)))
		})
	}
}

func Test_FindConflict_SkipsReturnedReservations(t *testing.T) {
	// arrange
	returned := date("2024-01-08")
	existing := []domain.Reservation{
		{ID: 1, StartDate: date("2024-01-01"), EndDate: date("2024-01-10"), ReturnedAt: &returned},
		{ID: 2, StartDate: date("2024-03-01"), EndDate: date("2024-03-10")},
	}

	// act
	noConflict := domain.FindConflict(existing, date("2024-01-05"), date("2024-01-15"))
	conflict := domain.FindConflict(existing, date("2024-03-09"), date("2024-03-20"))

	// assert
	assert.Nil(t, noConflict)
	if assert.NotNil(t, conflict) {
		assert.Equal(t, int64(2), conflict.ID)
	}
}

func Test_ValidateRentalWindow(t *testing.T) {
	now := date("2024-01-01").Add(15 * time.Hour)

	assert.NoError(t, domain.ValidateRentalWindow(date("2024-01-01"), date("2024-01-02"), now))
	assert.NoError(t, domain.ValidateRentalWindow(date("2024-01-05"), date("2024-02-04"), now))

	for name, window := range map[string][2]string{
		"start in past":   {"2023-12-31", "2024-01-05"},
		"end before":      {"2024-01-05", "2024-01-04"},
		"same day":        {"2024-01-05", "2024-01-05"},
		"longer than 30d": {"2024-01-05", "2024-02-05"},
	} {
		err := domain.ValidateRentalWindow(date(window[0]), date(window[1]), now)
		assert.Truef(t, errors.Is(err, domain.ErrValidation), "%s: expected validation error, got %v", name, err)
	}
}

func Test_StatusAt(t *testing.T) {
	r := domain.Reservation{StartDate: date("2024-01-01"), EndDate: date("2024-01-10")}

	status, remaining := r.StatusAt(date("2024-01-07").Add(10 * time.Hour))
	assert.Equal(t, domain.RentalActive, status)
	assert.Equal(t, 3, remaining)

	status, remaining = r.StatusAt(date("2024-01-12"))
	assert.Equal(t, domain.RentalOverdue, status)
	assert.Equal(t, -2, remaining)
}

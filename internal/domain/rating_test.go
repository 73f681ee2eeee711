package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/GoArmGo/BookWave/internal/domain"
)

func Test_AverageRating(t *testing.T) {
	assert.Equal(t, 3.0, domain.AverageRating([]int{4, 6, 8}))
	assert.Equal(t, 0.0, domain.AverageRating(nil))
	assert.Equal(t, 5.0, domain.AverageRating([]int{10}))
	// (7+8)/2/2 = 3.75 -> 3.8
	assert.Equal(t, 3.8, domain.AverageRating([]int{7, 8}))
}

func Test_SortOption_IsValid(t *testing.T) {
	assert.True(t, domain.SortRatingDesc.IsValid())
	assert.False(t, domain.SortOption("price_asc").IsValid())
}

func Test_CreditCard_Masked(t *testing.T) {
	card := domain.CreditCard{CardNumber: "4111111111111111", CVV: "123"}

	masked := card.Masked()

	assert.Equal(t, domain.MaskedCVV, masked.CVV)
	assert.Equal(t, "123", card.CVV)
	assert.Equal(t, "1111", domain.LastFour(card.CardNumber))
	assert.Equal(t, "12", domain.LastFour("12"))
}

func Test_Age(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 24, domain.Age(time.Date(2000, 6, 15, 0, 0, 0, 0, time.UTC), now))
	assert.Equal(t, 23, domain.Age(time.Date(2000, 6, 16, 0, 0, 0, 0, time.UTC), now))
}

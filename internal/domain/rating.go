package domain

import "math"

const (
	MinRatingScore = 1
	MaxRatingScore = 10
)

// Rating оценка книги пользователем по шкале 1-10,
// одна на пару (user_id, isbn).
type Rating struct {
	ID     int64  `json:"ratingId" db:"id" gorm:"primaryKey;column:id"`
	UserID int64  `json:"userId" db:"user_id" gorm:"column:user_id"`
	ISBN   string `json:"isbn" db:"isbn" gorm:"column:isbn"`
	Score  int    `json:"bookRating" db:"score" gorm:"column:score"`
}

func (Rating) TableName() string {
	return "ratings"
}

// AverageRating переводит оценки 1-10 в шкалу 0-5 и округляет до десятых.
// Без оценок возвращает 0.
func AverageRating(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores)) / 2
	return math.Round(mean*10) / 10
}

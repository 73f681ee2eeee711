package domain

// Book представляет книгу каталога, соответствует таблице books в бд.
// ISBN служит первичным ключом.
type Book struct {
	ISBN           string `json:"isbn" db:"isbn" gorm:"primaryKey;column:isbn"`
	Title          string `json:"bookTitle" db:"title" gorm:"column:title"`
	Author         string `json:"bookAuthor" db:"author" gorm:"column:author"`
	Year           int    `json:"yearOfPublication" db:"year" gorm:"column:year"`
	Publisher      string `json:"publisher" db:"publisher" gorm:"column:publisher"`
	ImageURLSmall  string `json:"imageUrlSmall" db:"image_url_small" gorm:"column:image_url_small"`
	ImageURLMedium string `json:"imageUrlMedium" db:"image_url_medium" gorm:"column:image_url_medium"`
	ImageURLLarge  string `json:"imageUrlLarge" db:"image_url_large" gorm:"column:image_url_large"`
	IsAvailable    bool   `json:"isAvailable" db:"is_available" gorm:"column:is_available;default:true"`
}

func (Book) TableName() string {
	return "books"
}

// BookWithRating книга вместе со средней оценкой (шкала 0-5).
type BookWithRating struct {
	Book
	AverageRating float64 `json:"averageRating" db:"average_rating"`
}

// SortOption порядок сортировки результатов поиска.
type SortOption string

const (
	SortTitleAsc         SortOption = "title_asc"
	SortTitleDesc        SortOption = "title_desc"
	SortRatingAsc        SortOption = "rating_asc"
	SortRatingDesc       SortOption = "rating_desc"
	SortAvailabilityAsc  SortOption = "availability_asc"
	SortAvailabilityDesc SortOption = "availability_desc"
)

var validSortOptions = map[SortOption]bool{
	SortTitleAsc:         true,
	SortTitleDesc:        true,
	SortRatingAsc:        true,
	SortRatingDesc:       true,
	SortAvailabilityAsc:  true,
	SortAvailabilityDesc: true,
}

// IsValid сообщает, известен ли вариант сортировки.
func (s SortOption) IsValid() bool {
	return validSortOptions[s]
}

// SearchQuery параметры поиска по каталогу после валидации.
type SearchQuery struct {
	Term          string
	Sort          SortOption
	AvailableOnly bool
	Page          int
	PageSize      int
}

// Offset возвращает число пропускаемых строк для текущей страницы.
func (q SearchQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// SearchResult одна страница результатов поиска.
type SearchResult struct {
	Items      []BookWithRating `json:"items"`
	TotalCount int              `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
}

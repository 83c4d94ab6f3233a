package domain

// RatingSummary — денормализованная сводка рейтинга товара
type RatingSummary struct {
	Ratings      float64 `json:"ratings"`
	NumOfReviews int     `json:"numOfReviews"`
}

// NewRatingSummary считает среднее арифметическое оценок. Без отзывов сводка нулевая.
func NewRatingSummary(sum, count int64) RatingSummary {
	if count <= 0 {
		return RatingSummary{}
	}

	return RatingSummary{
		Ratings:      float64(sum) / float64(count),
		NumOfReviews: int(count),
	}
}


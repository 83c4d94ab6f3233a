package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reviewer отображаемые данные автора отзыва
type Reviewer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Review описывает отзыв пользователя о товаре. На пару (user, product) допускается один отзыв.
type Review struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"-"`
	User      Reviewer  `json:"user"`
	ProductID string    `json:"product"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewReview(userID, productID string, rating int, comment string) *Review {
	return &Review{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: productID,
		Rating:    rating,
		Comment:   comment,
	}
}

// User минимальная проекция пользователя
type User struct {
	ID    string
	Name  string
	Photo string
}

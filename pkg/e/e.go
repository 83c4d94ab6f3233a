package e

import (
	"errors"
	"fmt"
)

var (
	// Классы ошибок. Граница приложения отображает их в статус ответа.
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInternal          = errors.New("internal server error")

	// Внутренние ошибки
	ErrTransactionNotFound  = fmt.Errorf("transaction not found")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrCacheMiss            = fmt.Errorf("cache miss")

	// 404 Not Found
	ErrProductNotFound = Classify(ErrNotFound, "Product Not Found")
	ErrOrderNotFound   = Classify(ErrNotFound, "Order Not Found")
	ErrReviewNotFound  = Classify(ErrNotFound, "Review Not Found")
	ErrUserNotFound    = Classify(ErrNotFound, "Not Logged In")

	// 401 Unauthorized
	ErrNotReviewAuthor = Classify(ErrUnauthorized, "Not Authorized")

	// 400 Bad Request
	ErrMissingFields        = Classify(ErrValidation, "Please Add All Fields")
	ErrNoPhotos             = Classify(ErrValidation, "Please add atleast 1 photo")
	ErrTooManyPhotos        = Classify(ErrValidation, "Please add only 5 photo")
	ErrInvalidPrice         = Classify(ErrValidation, "price must not be negative")
	ErrInvalidStock         = Classify(ErrValidation, "stock must not be negative")
	ErrInvalidQuantity      = Classify(ErrValidation, "quantity must be positive")
	ErrInvalidAmount        = Classify(ErrValidation, "order amounts must not be negative")
	ErrInvalidRating        = Classify(ErrValidation, "rating must be between 1 and 5")
	ErrInvalidPage          = Classify(ErrValidation, "page must be positive")
	ErrInvalidSort          = Classify(ErrValidation, "sort must be asc or desc")
	ErrInvalidID            = Classify(ErrValidation, "invalid identifier")
	ErrUnsupportedMediaType = Classify(ErrValidation, "unsupported media type")
)

// classifiedError: ошибка с человекочитаемым сообщением, относящаяся к одному из классов.
type classifiedError struct {
	class error
	msg   string
}

func (c *classifiedError) Error() string {
	return c.msg
}

func (c *classifiedError) Unwrap() error {
	return c.class
}

// Classify создаёт ошибку класса class с сообщением msg.
func Classify(class error, msg string) error {
	return &classifiedError{class: class, msg: msg}
}

// InsufficientStockError возвращается, когда заказанное количество превышает остаток товара.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		i.ProductID, i.Requested, i.Available)
}

func (i *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// Message возвращает сообщение, пригодное для показа клиенту.
// Для неклассифицированных ошибок детали скрываются.
func Message(err error) string {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error()
	}

	var c *classifiedError
	if errors.As(err, &c) {
		return c.msg
	}

	for _, class := range []error{ErrValidation, ErrNotFound, ErrUnauthorized, ErrInsufficientStock} {
		if errors.Is(err, class) {
			return class.Error()
		}
	}

	return ErrInternal.Error()
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

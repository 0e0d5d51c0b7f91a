package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCartInvalid         = errors.New("cart is empty or invalid")
	ErrInsufficientWallet  = errors.New("insufficient wallet balance")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateReturn     = errors.New("a return already exists for this item")
	ErrReturnWindowExpired = errors.New("return window has expired")
)

// OutOfStockError names every product that blocked the cart so the buyer
// sees the full list at once.
type OutOfStockError struct {
	ProductTitles []string
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: %s", strings.Join(e.ProductTitles, ", "))
}

type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicate         = errors.New("record already exists")
)

// InsufficientStockError carries enough detail for the storefront to tell the
// shopper which sweet ran short and by how much. It unwraps to
// ErrInsufficientStock so callers can still match with errors.Is.
type InsufficientStockError struct {
	SweetID   uuid.UUID
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: available %d, requested %d",
		e.Name, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// SweetNotFoundError identifies the missing catalog entry by id. Unwraps to
// ErrNotFound.
type SweetNotFoundError struct {
	SweetID uuid.UUID
}

func (e *SweetNotFoundError) Error() string {
	return fmt.Sprintf("sweet %s not found", e.SweetID)
}

func (e *SweetNotFoundError) Unwrap() error {
	return ErrNotFound
}

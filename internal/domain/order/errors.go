package order

import (
	"fmt"
	"strings"

	"github.com/xenking/wildgarden/internal/domain/validate"
)

// ErrEmptyCart is returned when no usable cart line remains after dropping
// lines without a product id or with a non-positive quantity.
var ErrEmptyCart = &validate.Error{Field: "cart_items", Message: "cart is empty"}

// ProductNotFoundError lists every cart product id absent from the catalog.
type ProductNotFoundError struct {
	IDs []string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.IDs, ", "))
}

// StorageError wraps a failed read or write against the product or order
// store. Nothing has been persisted when it is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

package stock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownItem         = errors.New("item not found")
	ErrUnknownLocation     = errors.New("location not found")
	ErrUnknownTransaction  = errors.New("transaction not found")
	ErrInvalidQuantity     = errors.New("quantities must not be negative")
	ErrCascadedTransaction = errors.New("cascaded transactions change only through their bundle")
	ErrDuplicateKey        = errors.New("a transaction already exists for this item, location and day")
)

// CountWarning rejects a count that exceeds what the stream could hold. The
// caller may resubmit with Force to accept it.
type CountWarning struct {
	CountedUnits   int
	AvailableUnits int
	Messages       []string
}

func (w *CountWarning) Error() string {
	return fmt.Sprintf("count needs confirmation: %s", strings.Join(w.Messages, "; "))
}

// Package validate holds the pure input checks applied to form input
// before a mutation request may be built. Reasons are user-facing
// messages rather than internal codes.
package validate

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"finbot/ledger"
)

// User-facing validation messages.
const (
	MsgEmptyDetails = "Input cannot be empty. Please provide the details."
	MsgEmptyID      = "Input cannot be empty. Please provide the ID."
	MsgBadPair      = "Invalid format. Please provide both amount and description."
	MsgBadAmount    = "Invalid amount. Please enter a numeric value."
	MsgBadTriplet   = "Invalid format. Please use 'ID Amount Description'."
	MsgUserNotFound = "User not found. Please register."
)

// CeilingMessage is the reply for amounts outside (0, ceiling].
func CeilingMessage(ceiling decimal.Decimal) string {
	return fmt.Sprintf("Amount cannot exceed %s.", ceiling.String())
}

// RecordNotFoundMessage is the reply for an unknown record ID.
func RecordNotFoundMessage(kind ledger.Kind) string {
	return fmt.Sprintf("%s ID not found. Please check and try again.", kind.Title())
}

// Result reports whether an input passed and, if not, why.
type Result struct {
	OK     bool
	Reason string
}

func ok() Result                { return Result{OK: true} }
func fail(reason string) Result { return Result{Reason: reason} }

// Lookup answers existence questions against the external read-only
// store. Implementations must be safe for concurrent use.
type Lookup interface {
	UserExists(ctx context.Context, username string) (bool, error)
	RecordExists(ctx context.Context, kind ledger.Kind, id string) (bool, error)
}

// NotEmpty reports whether the trimmed input is non-empty.
func NotEmpty(raw string) bool {
	return strings.TrimSpace(raw) != ""
}

// splitFirst cuts the input at the first whitespace run. The head never
// contains whitespace; the tail keeps its internal spacing.
func splitFirst(raw string) (head, tail string, found bool) {
	raw = strings.TrimSpace(raw)
	i := strings.IndexFunc(raw, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	head = raw[:i]
	tail = strings.TrimLeftFunc(raw[i:], unicode.IsSpace)
	if tail == "" {
		return "", "", false
	}
	return head, tail, true
}

// ParseAmountDescription splits input into amount and description on
// the first whitespace run. A missing part is a format error; a head
// that is not a finite decimal is an amount error.
func ParseAmountDescription(raw string) (decimal.Decimal, string, Result) {
	head, description, found := splitFirst(raw)
	if !found {
		return decimal.Decimal{}, "", fail(MsgBadPair)
	}
	amount, err := decimal.NewFromString(head)
	if err != nil {
		return decimal.Decimal{}, "", fail(MsgBadAmount)
	}
	return amount, description, ok()
}

// ParseUpdateTriplet splits input into ID, amount, and description.
// Fewer than three parts is a format error.
func ParseUpdateTriplet(raw string) (id string, amount decimal.Decimal, description string, res Result) {
	id, rest, found := splitFirst(raw)
	if !found {
		return "", decimal.Decimal{}, "", fail(MsgBadTriplet)
	}
	amountStr, description, found := splitFirst(rest)
	if !found {
		return "", decimal.Decimal{}, "", fail(MsgBadTriplet)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return "", decimal.Decimal{}, "", fail(MsgBadAmount)
	}
	return id, amount, description, ok()
}

// WithinCeiling reports whether 0 < amount <= ceiling.
func WithinCeiling(amount, ceiling decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(ceiling)
}

// Package ledger defines the mutation vocabulary of the remote finance
// ledger API: record kinds, operations, and the request value relayed
// for one intended write.
package ledger

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

// Kind identifies the record family a mutation targets.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

// Valid reports whether the kind is one of the known record families.
func (k Kind) Valid() bool {
	return k == KindExpense || k == KindIncome
}

// Title returns the user-facing capitalized name ("Expense", "Income").
func (k Kind) Title() string {
	switch k {
	case KindExpense:
		return "Expense"
	case KindIncome:
		return "Income"
	}
	return string(k)
}

// Op identifies the write operation of a mutation.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Verb returns the infinitive used in user-facing failure messages.
func (o Op) Verb() string {
	switch o {
	case OpCreate:
		return "add"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return string(o)
}

// PastVerb returns the past participle used in success messages.
func (o Op) PastVerb() string {
	switch o {
	case OpCreate:
		return "added"
	case OpUpdate:
		return "updated"
	case OpDelete:
		return "deleted"
	}
	return string(o)
}

// MutationRequest is one intended write against the remote ledger.
// It is built only after every field has passed validation, consumed
// exactly once by the relay, and never persisted.
type MutationRequest struct {
	Kind        Kind
	Op          Op
	RecordID    string
	Amount      decimal.Decimal
	Description string
	ChatID      int64
}

// Method maps the operation to its HTTP method.
func (r MutationRequest) Method() string {
	switch r.Op {
	case OpUpdate:
		return http.MethodPut
	case OpDelete:
		return http.MethodDelete
	}
	return http.MethodPost
}

// Endpoint derives the API path: "/expense/" for creates,
// "/expense/{id}/" for updates and deletes (income mirrors).
func (r MutationRequest) Endpoint() string {
	base := "/" + string(r.Kind) + "/"
	if r.Op == OpCreate {
		return base
	}
	return base + url.PathEscape(r.RecordID) + "/"
}

// Query returns the query parameters; every mutation carries chat_id.
func (r MutationRequest) Query() url.Values {
	q := url.Values{}
	q.Set("chat_id", strconv.FormatInt(r.ChatID, 10))
	return q
}

// Body returns the JSON body for the request, or nil for deletes.
// The amount is emitted as a bare JSON number.
func (r MutationRequest) Body() any {
	if r.Op == OpDelete {
		return nil
	}
	return map[string]any{
		"amount":      json.RawMessage(r.Amount.String()),
		"description": r.Description,
	}
}

package validate

import (
	"testing"

	"github.com/shopspring/decimal"

	"finbot/ledger"
)

func TestParseAmountDescription(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		wantAmount string
		wantDesc   string
		wantReason string
	}{
		{name: "valid", in: "100 Lunch", wantAmount: "100", wantDesc: "Lunch"},
		{name: "multi word description", in: "42.50 coffee with milk", wantAmount: "42.50", wantDesc: "coffee with milk"},
		{name: "tab separator", in: "100\tLunch", wantAmount: "100", wantDesc: "Lunch"},
		{name: "leading and trailing space", in: "  100 Lunch  ", wantAmount: "100", wantDesc: "Lunch"},
		{name: "single token", in: "100", wantReason: MsgBadPair},
		{name: "blank", in: "   ", wantReason: MsgBadPair},
		{name: "trailing space only", in: "100   ", wantReason: MsgBadPair},
		{name: "non numeric amount", in: "abc Lunch", wantReason: MsgBadAmount},
		{name: "infinity rejected", in: "Inf Lunch", wantReason: MsgBadAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			amount, desc, res := ParseAmountDescription(tc.in)
			if tc.wantReason != "" {
				if res.OK {
					t.Fatalf("expected failure, got amount=%s desc=%q", amount, desc)
				}
				if res.Reason != tc.wantReason {
					t.Fatalf("reason = %q, want %q", res.Reason, tc.wantReason)
				}
				return
			}
			if !res.OK {
				t.Fatalf("unexpected failure: %q", res.Reason)
			}
			if want := decimal.RequireFromString(tc.wantAmount); !amount.Equal(want) {
				t.Errorf("amount = %s, want %s", amount, want)
			}
			if desc != tc.wantDesc {
				t.Errorf("description = %q, want %q", desc, tc.wantDesc)
			}
		})
	}
}

func TestParseUpdateTriplet(t *testing.T) {
	cases := []struct {
		name       string
		in         string
		wantID     string
		wantAmount string
		wantDesc   string
		wantReason string
	}{
		{name: "valid", in: "5 100 Lunch", wantID: "5", wantAmount: "100", wantDesc: "Lunch"},
		{name: "description keeps spaces", in: "5 100 Lunch at work", wantID: "5", wantAmount: "100", wantDesc: "Lunch at work"},
		{name: "two tokens", in: "5 100", wantReason: MsgBadTriplet},
		{name: "one token", in: "5", wantReason: MsgBadTriplet},
		{name: "blank", in: "", wantReason: MsgBadTriplet},
		{name: "non numeric amount", in: "5 abc Lunch", wantReason: MsgBadAmount},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, amount, desc, res := ParseUpdateTriplet(tc.in)
			if tc.wantReason != "" {
				if res.OK {
					t.Fatalf("expected failure, got id=%q amount=%s desc=%q", id, amount, desc)
				}
				if res.Reason != tc.wantReason {
					t.Fatalf("reason = %q, want %q", res.Reason, tc.wantReason)
				}
				return
			}
			if !res.OK {
				t.Fatalf("unexpected failure: %q", res.Reason)
			}
			if id != tc.wantID {
				t.Errorf("id = %q, want %q", id, tc.wantID)
			}
			if want := decimal.RequireFromString(tc.wantAmount); !amount.Equal(want) {
				t.Errorf("amount = %s, want %s", amount, want)
			}
			if desc != tc.wantDesc {
				t.Errorf("description = %q, want %q", desc, tc.wantDesc)
			}
		})
	}
}

func TestWithinCeiling(t *testing.T) {
	ceiling := decimal.RequireFromString("10000000")
	cases := []struct {
		amount string
		want   bool
	}{
		{"1", true},
		{"0.01", true},
		{"10000000", true},
		{"10000000.01", false},
		{"0", false},
		{"-5", false},
	}
	for _, tc := range cases {
		got := WithinCeiling(decimal.RequireFromString(tc.amount), ceiling)
		if got != tc.want {
			t.Errorf("WithinCeiling(%s) = %v, want %v", tc.amount, got, tc.want)
		}
	}
}

func TestNotEmpty(t *testing.T) {
	if NotEmpty("   ") {
		t.Error("whitespace-only input should be empty")
	}
	if NotEmpty("") {
		t.Error("empty input should be empty")
	}
	if !NotEmpty(" x ") {
		t.Error("non-blank input should not be empty")
	}
}

func TestRecordNotFoundMessage(t *testing.T) {
	if got := RecordNotFoundMessage(ledger.KindExpense); got != "Expense ID not found. Please check and try again." {
		t.Errorf("unexpected message: %q", got)
	}
	if got := RecordNotFoundMessage(ledger.KindIncome); got != "Income ID not found. Please check and try again." {
		t.Errorf("unexpected message: %q", got)
	}
}

func TestCeilingMessage(t *testing.T) {
	ceiling := decimal.RequireFromString("10000000")
	if got := CeilingMessage(ceiling); got != "Amount cannot exceed 10000000." {
		t.Errorf("unexpected message: %q", got)
	}
}

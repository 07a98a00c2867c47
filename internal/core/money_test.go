package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"150000", 15000000, true},
		{"99999999.99", 9_999_999_999, true},
		{"99999999.995", 0, false}, // rounds past the cap
		{"100000000", 0, false},
		{"184467440737095517.16", 0, false},
		{"1e17", 0, false},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.001", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents() != tc.cents {
				t.Fatalf("%q expected %d cents, got %d (err=%v)", tc.in, tc.cents, got.Cents(), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	sum := Zero
	for i := 0; i < 10; i++ {
		sum = sum.Add(MoneyFromCents(10))
	}
	if !sum.Equal(MoneyFromInt(1)) {
		t.Fatalf("ten times 0.10 should be exactly 1.00, got %s", sum)
	}
	if got := MoneyFromCents(5000).Sub(MoneyFromCents(7550)).String(); got != "-25.50" {
		t.Fatalf("unexpected difference %s", got)
	}
}

func TestMoneyStringAndCents(t *testing.T) {
	if Zero.String() != "0.00" {
		t.Fatalf("zero should format as 0.00, got %s", Zero.String())
	}
	m := MoneyFromCents(123456)
	if m.String() != "1234.56" || m.Cents() != 123456 {
		t.Fatalf("unexpected money %s / %d", m.String(), m.Cents())
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{MoneyFromCents(1230)})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":"12.30"}` {
		t.Fatalf("unexpected json %s", b)
	}

	for _, in := range []string{`{"amount":"12.30"}`, `{"amount":12.3}`} {
		var v struct {
			Amount Money `json:"amount"`
		}
		if err := json.Unmarshal([]byte(in), &v); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if v.Amount.Cents() != 1230 {
			t.Fatalf("%s: expected 1230 cents, got %d", in, v.Amount.Cents())
		}
	}
}

func TestMoneyUpperBound(t *testing.T) {
	if err := MaxAmount.Validate(); err != nil {
		t.Fatalf("max amount should validate: %v", err)
	}
	if err := MaxAmount.Add(MoneyFromCents(1)).Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above the cap, got %v", err)
	}

	tests := []struct {
		in string
		ok bool
	}{
		{`{"amount":"99999999.99"}`, true},
		{`{"amount":"-99999999.99"}`, true},
		{`{"amount":"100000000.00"}`, false},
		{`{"amount":"184467440737095517.16"}`, false},
		{`{"amount":1e17}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var v struct {
				Amount Money `json:"amount"`
			}
			err := json.Unmarshal([]byte(tt.in), &v)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
		})
	}
}

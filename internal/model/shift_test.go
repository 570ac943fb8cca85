package model

import "testing"

func TestShiftDiscrepancy(t *testing.T) {
	cases := []struct {
		name                  string
		counted, float, sales string
		want                  string
	}{
		{"balanced", "150.00", "50.00", "100.00", "0.00"},
		{"drawer over", "155.00", "50.00", "100.00", "5.00"},
		{"drawer short", "148.50", "50.00", "100.00", "-1.50"},
		{"no sales", "50.00", "50.00", "0.00", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ShiftDiscrepancy(dec(tc.counted), dec(tc.float), dec(tc.sales))
			if got.StringFixed(2) != tc.want {
				t.Fatalf("discrepancy = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSaleTotals(t *testing.T) {
	lines := []DirectSaleLine{
		{Subtotal: dec("7.00")},
		{Subtotal: dec("3.25")},
	}
	subtotal, total := SaleTotals(lines, dec("0.25"))
	if subtotal.StringFixed(2) != "10.25" {
		t.Fatalf("subtotal = %s, want 10.25", subtotal)
	}
	if total.StringFixed(2) != "10.00" {
		t.Fatalf("total = %s, want 10.00", total)
	}

	subtotal, total = SaleTotals(nil, dec("0"))
	if !subtotal.IsZero() || !total.IsZero() {
		t.Fatalf("empty sale = %s/%s, want zero", subtotal, total)
	}
}

func TestNewConsumptionLine(t *testing.T) {
	l := NewConsumptionLine(1, 2, 3, dec("3.00"), 9)
	if l.Subtotal.StringFixed(2) != "9.00" {
		t.Fatalf("subtotal = %s, want 9.00", l.Subtotal)
	}
	if l.SessionID != 1 || l.ProductID != 2 || l.Quantity != 3 || l.OperatorID != 9 {
		t.Fatalf("unexpected line %+v", l)
	}
}

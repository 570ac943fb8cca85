package model

import (
	"testing"
	"time"
)

func TestElapsedMinutes(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	s := RentalSession{StartedAt: start, State: SessionActive}

	if got := s.ElapsedMinutes(start.Add(time.Second)); got != 1 {
		t.Fatalf("one second in = %d, want 1", got)
	}
	if got := s.ElapsedMinutes(start.Add(10 * time.Minute)); got != 10 {
		t.Fatalf("ten minutes in = %d, want 10", got)
	}

	// once closed the end timestamp wins over now
	end := start.Add(45 * time.Minute)
	s.EndedAt = &end
	if got := s.ElapsedMinutes(start.Add(3 * time.Hour)); got != 45 {
		t.Fatalf("closed session = %d, want 45", got)
	}
}

func TestRemainingMinutes(t *testing.T) {
	start := time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)
	sched := start.Add(30 * time.Minute)
	s := RentalSession{
		StartedAt:      start,
		ScheduledEndAt: &sched,
		Mode:           ModeFixed,
		State:          SessionActive,
	}

	if got := s.RemainingMinutes(start.Add(10 * time.Minute)); got != 20 {
		t.Fatalf("after 10 of 30 = %d, want 20", got)
	}
	if got := s.RemainingMinutes(start.Add(9*time.Minute + 30*time.Second)); got != 21 {
		t.Fatalf("partial minute rounds up = %d, want 21", got)
	}
	if got := s.RemainingMinutes(sched); got != 0 {
		t.Fatalf("at scheduled end = %d, want 0", got)
	}
	if got := s.RemainingMinutes(sched.Add(time.Hour)); got != 0 {
		t.Fatalf("past scheduled end = %d, want 0", got)
	}

	open := RentalSession{StartedAt: start, Mode: ModeOpen, State: SessionActive}
	if got := open.RemainingMinutes(start.Add(5 * time.Minute)); got != 0 {
		t.Fatalf("open-ended session = %d, want 0", got)
	}

	s.State = SessionFinished
	if got := s.RemainingMinutes(start.Add(10 * time.Minute)); got != 0 {
		t.Fatalf("terminal session = %d, want 0", got)
	}
}

func TestGrandTotalAndFullyPaid(t *testing.T) {
	// allotted 60 min at $2 per 15-minute block -> $8; consumption 2 x $3
	s := RentalSession{RentalAmount: dec("8.00"), Discount: dec("0")}
	total := s.GrandTotal(dec("6.00"))
	if total.StringFixed(2) != "14.00" {
		t.Fatalf("grand total = %s, want 14.00", total)
	}

	if FullyPaid(dec("13.99"), total) {
		t.Fatal("13.99 should not settle a 14.00 bill")
	}
	if !FullyPaid(dec("14.00"), total) {
		t.Fatal("14.00 should settle a 14.00 bill")
	}
	if !FullyPaid(dec("20.00"), total) {
		t.Fatal("overpayment counts as paid")
	}
	// rounding happens at two decimals on both sides
	if !FullyPaid(dec("13.999"), total) {
		t.Fatal("13.999 rounds to 14.00 and settles the bill")
	}

	withDiscount := RentalSession{RentalAmount: dec("8.00"), Discount: dec("2.50")}
	if got := withDiscount.GrandTotal(dec("6.00")); got.StringFixed(2) != "11.50" {
		t.Fatalf("discounted total = %s, want 11.50", got)
	}
}

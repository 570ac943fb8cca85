package model

import (
	"testing"
	"time"
)

func TestCeilMinutes(t *testing.T) {
	cases := []struct {
		name string
		d    time.Duration
		want int
	}{
		{"zero", 0, 0},
		{"negative", -30 * time.Second, 0},
		{"one second rounds up", time.Second, 1},
		{"exact minute", time.Minute, 1},
		{"minute and a second", time.Minute + time.Second, 2},
		{"ten minutes", 10 * time.Minute, 10},
		{"just under an hour", 59*time.Minute + 59*time.Second, 60},
		{"exact hour", time.Hour, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CeilMinutes(tc.d); got != tc.want {
				t.Fatalf("CeilMinutes(%v) = %d, want %d", tc.d, got, tc.want)
			}
		})
	}
}

func TestCeilBlocks(t *testing.T) {
	cases := []struct {
		name    string
		minutes int
		block   int
		want    int
	}{
		{"zero minutes", 0, 15, 0},
		{"negative minutes", -5, 15, 0},
		{"one minute one block", 1, 15, 1},
		{"exact block", 15, 15, 1},
		{"one over", 16, 15, 2},
		{"hour in quarter blocks", 60, 15, 4},
		{"zero block size", 30, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CeilBlocks(tc.minutes, tc.block); got != tc.want {
				t.Fatalf("CeilBlocks(%d, %d) = %d, want %d", tc.minutes, tc.block, got, tc.want)
			}
		})
	}
}

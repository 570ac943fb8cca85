package model

import "time"

// CeilMinutes converts a duration to whole minutes, rounding up.
// Billing always charges a started minute in full: a session open for
// one second owes one minute. Non-positive durations yield 0.
func CeilMinutes(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}

// CeilBlocks returns how many billing blocks of blockMinutes are needed
// to cover minutes, rounding up to the next full block. A zero or
// negative block size is treated as a single block covering everything.
func CeilBlocks(minutes, blockMinutes int) int {
	if minutes <= 0 {
		return 0
	}
	if blockMinutes <= 0 {
		return 1
	}
	return (minutes + blockMinutes - 1) / blockMinutes
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package policy

import "time"

// StampLayout is the fixed-width sortable form used for AMI names and the
// DeleteOn tag. Lexicographic comparison of two stamps is equivalent to
// comparing the instants because every component is zero-padded.
const StampLayout = "20060102150405"

// Stamp formats t in the fixed-width sortable layout.
func Stamp(t time.Time) string {
	return t.Format(StampLayout)
}

// ComputeDeleteOn returns the DeleteOn stamp for an image created at now
// and retained for days. Retention is day-granular: the stamp is the
// calendar date of now plus days with a zeroed time-of-day, even though
// expiry later compares against a full timestamp. An image therefore
// becomes eligible at midnight of its expiry day, not at the anniversary
// of its creation instant.
func ComputeDeleteOn(now time.Time, days int) string {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return Stamp(midnight.AddDate(0, 0, days))
}

// Expired reports whether an image carrying deleteOn is eligible for
// deletion at now. An empty deleteOn (tag present but value unreadable)
// is never expired; deletion must stay conservative on malformed input.
func Expired(deleteOn string, now time.Time) bool {
	if deleteOn == "" {
		return false
	}
	return deleteOn <= Stamp(now)
}

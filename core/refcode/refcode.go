// Package refcode allocates the sequential, human-readable reference codes
// issued on elite giveaway passes and influencer profiles.
package refcode

import "strconv"

// Allocator hands out consecutive reference numbers for a fixed prefix.
// It is seeded once from the persisted set of codes and then counts in
// memory; numbers are never reused within an allocator.
type Allocator struct {
	prefix string
	next   int
}

// NewAllocator seeds an allocator from the codes already issued.
// Codes that do not match `prefix<digits>` are ignored. The sequence never
// restarts below floor: the last number issued before allocation moved to
// this system.
func NewAllocator(prefix string, floor int, existing []string) *Allocator {
	max := floor
	for _, code := range existing {
		if n, ok := Parse(prefix, code); ok && n > max {
			max = n
		}
	}
	return &Allocator{prefix: prefix, next: max + 1}
}

// Next returns the next number in the sequence and its formatted code.
// Two allocators seeded from the same store can hand out the same number;
// the unique index on the code column is the backstop.
func (a *Allocator) Next() (int, string) {
	n := a.next
	a.next++
	return n, Format(a.prefix, n)
}

// Format renders a reference code, no leading zeros.
func Format(prefix string, n int) string {
	return prefix + strconv.Itoa(n)
}

// Parse extracts the numeric suffix of a reference code.
// It reports false for codes with a different prefix or a non-numeric
// suffix; such codes are treated as absent, never as an error.
func Parse(prefix, code string) (int, bool) {
	if len(code) <= len(prefix) || code[:len(prefix)] != prefix {
		return 0, false
	}
	suffix := code[len(prefix):]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return n, true
}

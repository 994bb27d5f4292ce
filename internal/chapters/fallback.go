package chapters

import (
	"fmt"
	"time"
)

// Fallback produces k evenly spaced chapters over duration d:
// chapter i starts at floor(i*d/k) whole seconds.
//
// It never fails. A non-positive d yields a single chapter at 0, k < 1 is
// treated as 1, and when d holds fewer whole seconds than k the count is
// reduced so that chapter times stay strictly increasing.
func Fallback(d time.Duration, k int, mode Mode) Set {
	if d <= 0 {
		return Set{{Time: 0, Title: IntroTitle}}
	}
	if k < 1 {
		k = 1
	}
	if whole := int(d / time.Second); whole < k {
		k = max(whole, 1)
	}

	out := make(Set, k)
	for i := 0; i < k; i++ {
		at := time.Duration(int64(i) * int64(d) / int64(k)).Truncate(time.Second)
		out[i] = Chapter{Time: at, Title: fallbackTitle(i, k, mode)}
	}
	return out
}

func fallbackTitle(i, k int, mode Mode) string {
	if i == 0 {
		return IntroTitle
	}
	if mode == ModeQA {
		if i == k-1 {
			return "Closing Remarks"
		}
		return fmt.Sprintf("Question %d", i)
	}
	return fmt.Sprintf("Chapter %d", i+1)
}

package transcript

import "errors"

// ErrBudgetExceeded is returned by Sample when even the first and last
// segments alone do not fit the budget.
var ErrBudgetExceeded = errors.New("transcript exceeds processing budget")

// Sample reduces t so that its serialized size (see Size) is at most budget
// characters.
//
// A transcript that already fits is returned unchanged (as a copy). Otherwise
// the first and last segments are always kept and the interior is walked with
// the smallest stride s >= 2 for which segments at indices s, 2s, 3s, ... fit
// alongside them. Segment times are never modified. The output depends only on
// t and budget.
func Sample(t Transcript, budget int) (Transcript, error) {
	n := len(t.Segments)
	if n == 0 {
		return Transcript{}, nil
	}

	sizes := make([]int, n)
	total := 0
	for i, s := range t.Segments {
		sizes[i] = LineSize(s)
		total += sizes[i]
	}
	if total <= budget {
		return t.Clone(), nil
	}
	if n <= 2 {
		return Transcript{}, ErrBudgetExceeded
	}

	base := sizes[0] + sizes[n-1]
	if base > budget {
		return Transcript{}, ErrBudgetExceeded
	}

	// Terminates: once stride >= n-1 no interior index is selected and base fits.
	for stride := 2; ; stride++ {
		sum := base
		fits := true
		for i := stride; i < n-1; i += stride {
			sum += sizes[i]
			if sum > budget {
				fits = false
				break
			}
		}
		if fits {
			return pick(t, stride), nil
		}
	}
}

func pick(t Transcript, stride int) Transcript {
	n := len(t.Segments)
	segs := make([]Segment, 0, 2+(n-2)/stride)
	segs = append(segs, t.Segments[0])
	for i := stride; i < n-1; i += stride {
		segs = append(segs, t.Segments[i])
	}
	segs = append(segs, t.Segments[n-1])
	return Transcript{Segments: segs}
}

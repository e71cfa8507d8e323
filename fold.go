package signalzip

// Run is a value repeated Count times in a row. Count is at least 1; runs
// of one are plain tokens.
type Run[T comparable] struct {
	Value T
	Count int
}

// Fold collapses consecutive equal values into runs.
func Fold[T comparable](seq []T) []Run[T] {
	out := make([]Run[T], 0, len(seq))
	for _, v := range seq {
		if n := len(out); n > 0 && out[n-1].Value == v {
			out[n-1].Count++
			continue
		}
		out = append(out, Run[T]{Value: v, Count: 1})
	}
	return out
}

// Unfold expands runs back into the original sequence.
func Unfold[T comparable](runs []Run[T]) []T {
	total := 0
	for _, r := range runs {
		total += r.Count
	}
	out := make([]T, 0, total)
	for _, r := range runs {
		for i := 0; i < r.Count; i++ {
			out = append(out, r.Value)
		}
	}
	return out
}

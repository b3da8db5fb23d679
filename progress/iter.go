package progress

import "iter"

// Seq wraps a sequence with a progress bar gated on verbose. With verbose
// false the sequence is returned untouched, so quiet loops cost nothing.
// With verbose true each yielded element advances a bar by one, and the
// bar is closed when the loop ends, including early breaks.
//
// total is the expected element count for percentage display; pass 0 when
// unknown. A nil sequence is a caller error and panics immediately rather
// than being coerced.
func Seq[T any](seq iter.Seq[T], total int, verbose bool, opts ...BarOption) iter.Seq[T] {
	if seq == nil {
		panic("progress: Seq called with a nil sequence")
	}
	if !verbose {
		return seq
	}

	return func(yield func(T) bool) {
		bar, err := NewBar(float64(total), opts...)
		if err != nil {
			panic("progress: " + err.Error())
		}
		defer bar.Close()
		for v := range seq {
			if !yield(v) {
				return
			}
			bar.Add(1)
		}
	}
}

// Slice is a convenience form of Seq over a slice.
func Slice[T any](s []T, verbose bool, opts ...BarOption) iter.Seq[T] {
	return Seq(func(yield func(T) bool) {
		for _, v := range s {
			if !yield(v) {
				return
			}
		}
	}, len(s), verbose, opts...)
}

// Package slice adds the generic transforms that [slices] leaves out.
package slice

// Map applies transform to every element. A nil input stays nil.
func Map[T, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}
	out := make([]U, 0, len(input))
	for _, item := range input {
		out = append(out, transform(item))
	}
	return out
}

// Filter keeps the elements for which keep reports true, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	var out []T
	for _, item := range input {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Reduce folds input into a single value starting from initial.
func Reduce[T, U any](input []T, initial U, fold func(U, T) U) U {
	acc := initial
	for _, item := range input {
		acc = fold(acc, item)
	}
	return acc
}

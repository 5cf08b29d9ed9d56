// Package pointer builds pointers to literals for optional fields such as
// patch values and override dimensions.
package pointer

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

package models

import "time"

// Result is implemented by the four persisted task results.
type Result interface {
	// Validate checks field ranges and fills defaults. It returns an
	// *errs.ValidationError (or several combined) on failure.
	Validate() error
	// Stamp clears any client-supplied identity and sets the completion time.
	Stamp(at time.Time)
}

// Ptr returns a pointer to v. Required scalar fields are pointers so that an
// absent JSON field can be told apart from an explicit zero.
func Ptr[T any](v T) *T { return &v }

// Value dereferences p, treating nil as zero.
func Value[T int | float64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}

var (
	_ Result = (*PVTResult)(nil)
	_ Result = (*FlankerResult)(nil)
	_ Result = (*EFSIResult)(nil)
	_ Result = (*VASResult)(nil)
)

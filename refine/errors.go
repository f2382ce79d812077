package refine

import "errors"

// The error taxonomy of spec.md §7.
var (
	// ErrInput wraps a missing or ill-formed grid/function/CSG file, or
	// CSG mode selected without a CSG tree file.
	ErrInput = errors.New("refine: input error")

	// ErrPrecondition wraps an invalid mode. Mesh-level precondition
	// violations are reported with mtet.ErrPrecondition instead.
	ErrPrecondition = errors.New("refine: precondition violated")
)

package rewrite

import "errors"

var (
	// ErrUnsupported marks functions the pipeline cannot process: closures,
	// anonymous functions, methods, generic functions, non-function values.
	ErrUnsupported = errors.New("unsupported function")

	// ErrNoSource marks functions whose source text cannot be recovered.
	ErrNoSource = errors.New("source not available")

	// ErrMalformed marks a pipeline defect: the tree no longer contains a
	// recognizable declaration of the original function, or the recompiled
	// result is not a function of the original signature.
	ErrMalformed = errors.New("malformed rewrite")
)

package numerics

import "errors"

var (
	// ErrNonConvergence is returned when an iterative method exhausts its budget
	// or a bracket search finds no sign change.
	ErrNonConvergence = errors.New("numerical non-convergence")

	// ErrSingularSystem is returned when the Thomas algorithm meets a zero pivot.
	ErrSingularSystem = errors.New("singular tridiagonal system")

	// ErrNotPositiveDefinite is returned for correlation matrices that admit no
	// Cholesky factorization.
	ErrNotPositiveDefinite = errors.New("matrix is not positive definite")

	ErrTooFewPoints = errors.New("too few points for fit")
)

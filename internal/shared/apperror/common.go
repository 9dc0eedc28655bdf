package apperror

import "net/http"

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"An unexpected error occurred",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	// ErrDependencyUnavailable covers failures of the directory, identity and
	// persistence collaborators. Callers may retry; the failed operation left
	// no partial state behind.
	ErrDependencyUnavailable = New(
		CodeServiceUnavailable,
		"A required dependency is unavailable",
		http.StatusInternalServerError,
	)
)

// DependencyUnavailable wraps a collaborator failure so it surfaces with the
// SERVICE_UNAVAILABLE code instead of a generic internal error.
func DependencyUnavailable(err error) *AppError {
	return Wrap(err, CodeServiceUnavailable, "A required dependency is unavailable", http.StatusInternalServerError)
}

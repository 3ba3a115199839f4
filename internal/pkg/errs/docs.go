// Package errs holds the typed errors shared by the domain, the use cases
// and the adapters.
//
// Every kind pairs a sentinel (ErrObjectNotFound, ErrInvalidTransition, ...)
// with a struct carrying the details. The struct unwraps to its sentinel, so
// callers branch with errors.Is and read the details with errors.As:
//
//	var rejected *errs.InvalidTransitionError
//	if errors.As(err, &rejected) {
//	    // rejected.Precondition, rejected.Current
//	}
//
// Input errors: ValueIsRequiredError, ValueIsInvalidError,
// ValueIsOutOfRangeError, ObjectNotFoundError.
//
// Lifecycle rejections: InvalidTransitionError, AlreadyAssignedError.
//
// Side-effect and store failures: PaymentGatewayError,
// RoutingUnavailableError, InsufficientStockError, SchemaMismatchError,
// StaleWriteError.
package errs

// Package errors provides structured error types for static-config.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries the module item involved, a detail
// message, the offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseResolve, errors.KindUnsupportedGlobalKind).
//		Item("CONFIG").
//		Detail("global is mutable").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport("CONFIG")
//	err := errors.StackExhausted(size, sp)
//
// Match by kind with the package sentinels:
//
//	if errors.Is(err, errors.ErrMissingExport) { ... }
package errors

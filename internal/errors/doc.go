// Package errors provides structured error handling for the expedition-api project.
//
// Errors carry a Code, a human-readable message, optional metadata, and an
// optional wrapped cause. Codes map onto both gRPC status codes and HTTP
// status codes so the same taxonomy serves the RPC surface and the thin HTTP
// boundary.
//
// Creating errors:
//
//	err := errors.NotFound("run not found")
//	err := errors.InvalidArgumentf("invalid seed: %q", seed)
//
// Adding metadata:
//
//	err := errors.AlreadyExists("heroes locked").
//	    WithMeta("locked_heroes", lockedIDs)
//
// Wrapping:
//
//	if err := repo.Get(ctx, id); err != nil {
//	    return errors.Wrap(err, "failed to load run")
//	}
//
// Checking:
//
//	if errors.IsNotFound(err) { ... }
//
// The taxonomy used by the expedition core:
//   - InvalidArgument: malformed or missing input, no side effects (400)
//   - AlreadyExists: resource conflict, e.g. hero already locked (409)
//   - QuotaExceeded: daily free-run quota spent, payment required (402)
//   - NotFound: unknown run or dungeon (404)
//   - Unavailable: no eligible dungeon to resolve (503)
//   - Internal: store or queue failure (500)
package errors

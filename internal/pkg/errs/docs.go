// Package errs provides the error vocabulary of the shipping core.
//
// Validation and lookup failures use typed errors (ValueIsRequiredError,
// ValueIsInvalidError, ValueIsOutOfRangeError, ObjectNotFoundError,
// VersionIsInvalidError), each unwrapping to a package sentinel so callers
// can use errors.Is. Carrier gateway failures are CarrierError values whose
// kind selects one of the carrier sentinels.
//
// Every operation exposed upward reports failures through ReasonOf, which
// turns any error chain into a stable ReasonCode that web handlers and
// schedulers branch on.
package errs

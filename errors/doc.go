/*
Package errors provides the error taxonomy shared by every StoragePort adapter.

Each kind has a sentinel for errors.Is() and a typed error carrying detail:

	var (
	    ErrNotFound            = errors.New("row not found")
	    ErrConstraintViolation = errors.New("constraint violation")
	    ErrStorageUnavailable  = errors.New("storage unavailable")
	    ErrInvalidInput        = errors.New("invalid input")
	)

Constraint and not-found failures are recoverable and left to the caller.
Unavailable errors wrap the transport cause so callers can apply their own
retry policy; adapters never retry internally.

Usage:

	err := port.UpdateRow(ctx, "tx_blog_post", row)
	switch {
	case errors.IsNotFound(err):
	    // the row was removed concurrently
	case errors.IsConstraintViolation(err):
	    log.Printf("rejected: rule %s", errors.RuleOf(err))
	case errors.IsUnavailable(err):
	    // back off and retry
	}
*/
package errors

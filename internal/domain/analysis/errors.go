package analysis

import "errors"

// ErrNotFound indicates the record id does not exist.
var ErrNotFound = errors.New("analysis record not found")

// ErrNotOwner indicates a mutation attempt by someone other than the record owner.
var ErrNotOwner = errors.New("not the record owner")

// ErrPartialPersistence indicates the analysis succeeded but the final
// save-and-deduct commit failed. The assessment is still returned to the
// caller; the record stays in its draft state for retry.
var ErrPartialPersistence = errors.New("analysis completed but persistence failed")

package repos

import "errors"

// ErrConflict means a guarded (compare-and-swap) update found the row in an
// unexpected state: the transition already happened or is not allowed yet.
var ErrConflict = errors.New("conflicting state change")

package repos

import "errors"

// ErrNotFound is returned by lookups that require ownership: the caller
// cannot tell a missing row from somebody else's row.
var ErrNotFound = errors.New("record not found")

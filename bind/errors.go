package bind

import "errors"

// ErrLengthMismatch is the LengthMismatch error kind of spec.md §7,
// surfaced when ExplicitInit's index arrays differ in length.
var ErrLengthMismatch = errors.New("explicit-init index arrays have different lengths")

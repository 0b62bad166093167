package core

import "errors"

// ErrInvalidConfiguration marks structurally invalid inputs (non-positive
// speed, mismatched vector lengths, out-of-range reference index). These are
// surfaced immediately and never retried.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ErrNumericInstability marks NaN or overflow in distance or residual
// computation. The affected solve is abandoned; a numeric result is never
// propagated silently.
var ErrNumericInstability = errors.New("numeric instability")

package mtet

import "errors"

// ErrPrecondition is the sentinel wrapped by every precondition
// violation the mesh can report: a stale edge passed to SplitEdge, or
// a non-positive oriented volume passed to AddTet.
var ErrPrecondition = errors.New("mtet: precondition violated")

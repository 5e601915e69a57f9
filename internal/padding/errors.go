package padding

import "errors"

// ErrNegativePad marks a requested target size that is not large enough to
// pad into without corrupting the container. Callers are not required to
// check for it — HTML and Object never return it and degrade gracefully
// (unchanged content or a nil slice); it names the condition for callers
// that want to report it.
var ErrNegativePad = errors.New("padding: target size below current size")

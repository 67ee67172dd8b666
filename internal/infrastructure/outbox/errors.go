package outbox

import "errors"

// ErrClosed is returned by Publish after Stop.
var ErrClosed = errors.New("outbox: bus stopped")

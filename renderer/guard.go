package renderer

import (
	"fmt"

	"github.com/go-logr/logr"
)

// Guard applies a single native mutation under the resilience policy: any
// notification blocking imposed on the node is lifted on every exit path,
// and a panicking backend is reported through the log side channel instead
// of aborting the reconciliation pass.
func Guard(log logr.Logger, node any, op string, fn func()) {
	if b, ok := node.(NotificationBlocker); ok {
		release := b.BlockNotifications()
		defer release()
	}
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%v", r)
			}
			log.Error(err, "renderer operation failed", "op", op)
		}
	}()
	fn()
}

// Package safego launches goroutines with panic recovery so that
// fire-and-forget side effects can never crash the process.
package safego

import (
	"runtime/debug"

	"go.uber.org/zap"
)

// Go runs fn on a new goroutine. A panic is caught and logged with its
// stack trace instead of propagating.
func Go(logger *zap.Logger, name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("goroutine panicked",
					zap.String("goroutine", name),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
			}
		}()
		fn()
	}()
}

package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck flags a goroutine leak: the probe fails once the live
// goroutine count passes max.
func GoroutineCountCheck(max int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("%d goroutines, max %d", n, max)
		}
		return nil
	}
}

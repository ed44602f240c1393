package journal

import (
	"context"
	"time"

	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/internal/logger"
)

// Recorder returns an observer that appends every recorded call to store.
// Append failures are logged and never reach the faked caller.
func Recorder(store Store, timeout time.Duration) fake.Observer {
	log := logger.Component("journal")
	return fake.ObserverFunc(func(call *fake.Call) {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		fakeID := ""
		if m := call.Manager(); m != nil {
			fakeID = m.ID()
		}
		if err := store.Append(ctx, NewEntry(fakeID, call)); err != nil {
			logger.Warn("journal append failed", "fake", fakeID, "call", call.String(), "error", err)
			return
		}
		log.Debug("call journaled", "fake", fakeID, "sequence", call.Sequence())
	})
}

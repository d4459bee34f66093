package audit

import (
	"context"
	"sync"
	"time"
)

// writeTimeout bounds a single asynchronous audit write.
const writeTimeout = 5 * time.Second

// AsyncLogger runs LogEvent of the wrapped logger in a goroutine so request handlers are not
// blocked on the audit store. Request cancellation does not abort an in-flight write.
type AsyncLogger struct {
	next    AuditLogger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewAsyncLogger wraps next. A nil next makes LogEvent a no-op.
func NewAsyncLogger(next AuditLogger) *AsyncLogger {
	return &AsyncLogger{next: next, timeout: writeTimeout}
}

// LogEvent schedules the write and returns immediately.
func (a *AsyncLogger) LogEvent(ctx context.Context, recipient, challengeID, action, outcome, metadata string) {
	if a == nil || a.next == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
		defer cancel()
		a.next.LogEvent(writeCtx, recipient, challengeID, action, outcome, metadata)
	}()
}

// Drain waits for in-flight writes until ctx is done. It reports ctx.Err() if writes were still pending.
func (a *AsyncLogger) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

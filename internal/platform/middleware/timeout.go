package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

var timeoutBody, _ = json.Marshal(map[string]string{
	"error": "request processing exceeded the allowed time limit",
})

// RequestTimeout bounds every request with a context deadline and answers
// 504 if the handler has not started its response by then. The handler keeps
// the echo.Context until it returns, so the middleware waits for it; anything
// it writes after the deadline is discarded. Handlers that call slow backends
// should pass the request context down so they stop promptly.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			res := c.Response()
			tw := newTimeoutWriter(res.Writer)
			res.Writer = tw
			defer func() { res.Writer = tw.w }()

			done := make(chan error, 1)
			go func() {
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) || !tw.expire() {
					// Client went away, or the handler already began
					// responding: let it finish on its own terms.
					return <-done
				}
				<-done
				res.Status = http.StatusGatewayTimeout
				res.Committed = true
				return nil
			}
		}
	}
}

// timeoutWriter buffers headers until the handler writes its status, and
// drops every write once the deadline response has gone out.
type timeoutWriter struct {
	w http.ResponseWriter
	h http.Header

	mu          sync.Mutex
	wroteHeader bool
	timedOut    bool
}

func newTimeoutWriter(w http.ResponseWriter) *timeoutWriter {
	return &timeoutWriter{w: w, h: w.Header().Clone()}
}

func (tw *timeoutWriter) Header() http.Header { return tw.h }

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	tw.writeHeaderLocked(code)
}

func (tw *timeoutWriter) writeHeaderLocked(code int) {
	if tw.timedOut || tw.wroteHeader {
		return
	}
	tw.wroteHeader = true
	dst := tw.w.Header()
	for k, v := range tw.h {
		dst[k] = v
	}
	tw.w.WriteHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	tw.writeHeaderLocked(http.StatusOK)
	return tw.w.Write(b)
}

func (tw *timeoutWriter) Flush() {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if f, ok := tw.w.(http.Flusher); ok && !tw.timedOut {
		f.Flush()
	}
}

// expire sends the 504 unless the handler has already written its status.
// It reports whether the 504 was sent.
func (tw *timeoutWriter) expire() bool {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.wroteHeader {
		return false
	}
	tw.timedOut = true
	tw.w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	tw.w.WriteHeader(http.StatusGatewayTimeout)
	_, _ = tw.w.Write(timeoutBody)
	return true
}

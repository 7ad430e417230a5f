package middleware

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// statusRecorder captures what the handler sent so middleware can report it.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w}
}

// code is the status sent to the client; handlers that only write a body get 200.
func (rec *statusRecorder) code() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

func (rec *statusRecorder) WriteHeader(code int) {
	if rec.status != 0 {
		return
	}
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.WriteHeader(http.StatusOK)
	}
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n
	return n, err
}

// Logging writes one access line per request. Inside Tracing the line
// carries the trace id so it can be matched to the request's span.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := newStatusRecorder(w)
		next.ServeHTTP(rec, r)

		log.Print(accessLine(r, rec.code(), rec.bytes, time.Since(start)))
	})
}

func accessLine(r *http.Request, status, bytes int, elapsed time.Duration) string {
	line := fmt.Sprintf("%s %s %d %dB %s", r.Method, r.URL.Path, status, bytes, elapsed.Round(time.Microsecond))
	if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
		line += " trace=" + sc.TraceID().String()
	}
	return line
}

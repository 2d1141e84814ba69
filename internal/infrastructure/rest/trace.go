package rest

import (
	"context"
	"net/http/httptrace"
	"sync"
	"time"

	"epages-rest-layer/internal/domain"
)

// tracer collects the phase timings of one exchange. Callbacks may fire on
// transport goroutines, hence the lock.
type tracer struct {
	mu           sync.Mutex
	start        time.Time
	dnsStart     time.Time
	dnsDone      time.Time
	connectStart time.Time
	connectDone  time.Time
	gotConn      time.Time
	firstByte    time.Time
}

func newTracer() *tracer {
	return &tracer{start: time.Now()}
}

func (t *tracer) mark(dst *time.Time) {
	t.mu.Lock()
	*dst = time.Now()
	t.mu.Unlock()
}

func (t *tracer) context(ctx context.Context) context.Context {
	return httptrace.WithClientTrace(ctx, &httptrace.ClientTrace{
		DNSStart:             func(httptrace.DNSStartInfo) { t.mark(&t.dnsStart) },
		DNSDone:              func(httptrace.DNSDoneInfo) { t.mark(&t.dnsDone) },
		ConnectStart:         func(string, string) { t.mark(&t.connectStart) },
		ConnectDone:          func(string, string, error) { t.mark(&t.connectDone) },
		GotConn:              func(httptrace.GotConnInfo) { t.mark(&t.gotConn) },
		GotFirstResponseByte: func() { t.mark(&t.firstByte) },
	})
}

// finish returns the timings measured from the start of the request.
// Redirects are never followed, so Redirect stays zero.
func (t *tracer) finish() domain.Timing {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.Timing{
		Total:         time.Since(t.start),
		DNS:           span(t.dnsStart, t.dnsDone),
		Connect:       span(t.connectStart, t.connectDone),
		PreTransfer:   span(t.start, t.gotConn),
		StartTransfer: span(t.start, t.firstByte),
	}
}

func span(from, to time.Time) time.Duration {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return 0
	}
	return to.Sub(from)
}

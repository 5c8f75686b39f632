package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vietddude/paydash/internal/core/activity"
	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/core/events"
	"github.com/vietddude/paydash/internal/infra/session"
	"github.com/vietddude/paydash/internal/infra/transport"
)

// scriptedDoer answers attempt n (0-based) with fn.
type scriptedDoer struct {
	mu    sync.Mutex
	calls []*transport.Request
	fn    func(n int, req *transport.Request) (*transport.Response, error)
}

func (d *scriptedDoer) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	d.mu.Lock()
	n := len(d.calls)
	d.calls = append(d.calls, req)
	d.mu.Unlock()
	return d.fn(n, req)
}

func (d *scriptedDoer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func ok(body string) (*transport.Response, error) {
	return &transport.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}, nil
}

func statusFailure(code int, header http.Header, body string) error {
	if header == nil {
		header = http.Header{}
	}
	return &transport.Failure{
		Kind:     transport.KindStatus,
		Response: &transport.Response{StatusCode: code, Header: header, Body: []byte(body)},
	}
}

func networkFailure() error {
	return &transport.Failure{Kind: transport.KindNetwork, Err: context.DeadlineExceeded}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var sum time.Duration
	for _, d := range s.delays {
		sum += d
	}
	return sum
}

type notifications struct {
	mu   sync.Mutex
	list []Notification
}

func (n *notifications) Notify(note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.list = append(n.list, note)
}

func (n *notifications) errors() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, note := range n.list {
		if note.Level == LevelError {
			out = append(out, note)
		}
	}
	return out
}

type memoryRecorder struct {
	mu      sync.Mutex
	entries []*domain.FailedRequest
}

func (r *memoryRecorder) Add(ctx context.Context, fr *domain.FailedRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fr)
	return nil
}

// harness wires a client with fakes for everything around the pipeline.
type harness struct {
	client    *Client
	tokens    *session.MemoryStore
	bus       *events.Bus
	counter   *activity.Counter
	sleeps    *sleepRecorder
	notes     *notifications
	recorder  *memoryRecorder
	navigated []string
	loading   []bool
}

func newHarness(baseURL string, tr transport.Doer, pair domain.TokenPair, opts ...Option) *harness {
	h := &harness{
		tokens:   session.NewMemoryStore(pair),
		bus:      events.NewBus(),
		sleeps:   &sleepRecorder{},
		notes:    &notifications{},
		recorder: &memoryRecorder{},
	}
	h.counter = activity.NewCounter(h.bus)
	h.bus.On(events.Loading, func(args ...any) {
		h.loading = append(h.loading, args[0].(bool))
	})

	all := []Option{
		WithActivity(h.counter),
		WithSleep(h.sleeps.sleep),
		WithNotifier(h.notes),
		WithRecorder(h.recorder),
		WithNavigator(NavigatorFunc(func(path string) {
			h.navigated = append(h.navigated, path)
		})),
	}
	all = append(all, opts...)
	h.client = New(baseURL, tr, h.tokens, all...)
	return h
}

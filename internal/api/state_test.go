package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/infra/transport"
)

type fakeRequester struct {
	mu    sync.Mutex
	calls []string
	fn    func(ctx context.Context, method, url string) (*Response, error)
}

func (f *fakeRequester) Send(ctx context.Context, method, url string, body any, opts ...RequestOption) (*Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, method+" "+url)
	f.mu.Unlock()
	return f.fn(ctx, method, url)
}

func (f *fakeRequester) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func okResponse() (*Response, error) {
	return &Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

func TestCaller_StateTransitions(t *testing.T) {
	var states []State
	failNext := false
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		if failNext {
			return nil, &Error{Class: domain.ClassNotFound, Message: msgNotFound}
		}
		return okResponse()
	}}
	c := NewCaller(req, func(s State) { states = append(states, s) })

	if _, err := c.Get(context.Background(), "/vendors"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(states) != 2 || !states[0].Loading || states[1].Loading {
		t.Fatalf("unexpected transitions %+v", states)
	}
	if c.State().Data == nil || c.State().Err != nil {
		t.Errorf("state after success = %+v", c.State())
	}

	failNext = true
	_, err := c.Delete(context.Background(), "/vendors/1")
	if !IsClass(err, domain.ClassNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
	s := c.State()
	if s.Loading || !IsClass(s.Err, domain.ClassNotFound) {
		t.Errorf("state after failure = %+v", s)
	}
	if s.Data == nil {
		t.Error("previous data should be kept on failure")
	}

	c.Reset()
	if c.State() != (State{}) {
		t.Errorf("state after reset = %+v", c.State())
	}
}

func TestCaller_VerbHelpers(t *testing.T) {
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		return okResponse()
	}}
	c := NewCaller(req, nil)
	ctx := context.Background()

	_, _ = c.Get(ctx, "/vendors")
	_, _ = c.Post(ctx, "/vendors", map[string]string{"name": "acme"})
	_, _ = c.Put(ctx, "/vendors/1", map[string]string{"name": "acme"})
	_, _ = c.Patch(ctx, "/vendors/1", map[string]bool{"active": false})
	_, _ = c.Delete(ctx, "/vendors/1")

	want := []string{"GET /vendors", "POST /vendors", "PUT /vendors/1", "PATCH /vendors/1", "DELETE /vendors/1"}
	if len(req.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", req.calls, want)
	}
	for i := range want {
		if req.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, req.calls[i], want[i])
		}
	}
}

func TestCaller_ErrorClearedOnNextRequest(t *testing.T) {
	calls := 0
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("boom")
		}
		return okResponse()
	}}

	var sawClearedErr bool
	c := NewCaller(req, func(s State) {
		if s.Loading && s.Err == nil && calls == 1 {
			sawClearedErr = true
		}
	})

	_, _ = c.Post(context.Background(), "/payouts", map[string]int{"amount": 10})
	_, _ = c.Post(context.Background(), "/payouts", map[string]int{"amount": 10})
	if !sawClearedErr {
		t.Error("error should be cleared when a new request starts")
	}
	if c.State().Err != nil {
		t.Errorf("unexpected error %v", c.State().Err)
	}
}

func TestFetcher_MountFetchesAndCallsOnSuccess(t *testing.T) {
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		return okResponse()
	}}

	var got *Response
	f := NewFetcher(req, http.MethodGet, "/dashboard/summary", FetchOptions{
		OnSuccess: func(r *Response) { got = r },
		OnError:   func(err error) { t.Errorf("unexpected error %v", err) },
	})

	if _, err := f.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got == nil {
		t.Error("OnSuccess not called")
	}
	if req.count() != 1 {
		t.Errorf("calls = %d, want 1", req.count())
	}
	if f.State().Data == nil {
		t.Error("state should carry data")
	}
}

func TestFetcher_OnError(t *testing.T) {
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		return nil, &Error{Class: domain.ClassForbidden, Message: msgForbidden}
	}}

	var got error
	f := NewFetcher(req, http.MethodGet, "/payouts", FetchOptions{
		OnSuccess: func(*Response) { t.Error("unexpected success") },
		OnError:   func(err error) { got = err },
	})

	_, _ = f.Mount(context.Background())
	if !IsClass(got, domain.ClassForbidden) {
		t.Errorf("OnError got %v", got)
	}
	if !IsClass(f.State().Err, domain.ClassForbidden) {
		t.Errorf("state error = %v", f.State().Err)
	}
}

func TestFetcher_Skip(t *testing.T) {
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		return okResponse()
	}}

	f := NewFetcher(req, http.MethodGet, "/vendors", FetchOptions{Skip: true})
	_, _ = f.Mount(context.Background())
	if f.Update(context.Background(), "vendor-2") {
		t.Error("skipped fetcher must not fetch on update")
	}
	if req.count() != 0 {
		t.Fatalf("calls = %d, want 0", req.count())
	}

	f.SetSkip(false)
	if _, err := f.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch: %v", err)
	}
	if req.count() != 1 {
		t.Errorf("calls = %d, want 1", req.count())
	}
}

func TestFetcher_DependenciesTriggerRefetch(t *testing.T) {
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		return okResponse()
	}}

	f := NewFetcher(req, http.MethodGet, "/transactions", FetchOptions{
		Dependencies: []any{"vendor-1", 1},
	})
	_, _ = f.Mount(context.Background())

	if f.Update(context.Background(), "vendor-1", 1) {
		t.Error("unchanged dependencies must not refetch")
	}
	if !f.Update(context.Background(), "vendor-1", 2) {
		t.Error("changed dependencies must refetch")
	}
	if f.Update(context.Background(), "vendor-1", 2) {
		t.Error("repeated dependencies must not refetch")
	}
	if req.count() != 2 {
		t.Errorf("calls = %d, want 2", req.count())
	}
}

func TestFetcher_UnmountSuppressesCallbacks(t *testing.T) {
	started := make(chan struct{})
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	called := false
	f := NewFetcher(req, http.MethodGet, "/charts/volume", FetchOptions{
		OnSuccess: func(*Response) { called = true },
		OnError:   func(error) { called = true },
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.Mount(context.Background())
		done <- err
	}()

	<-started
	f.Unmount()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch not cancelled on unmount")
	}
	if called {
		t.Error("callbacks must not run after unmount")
	}
	if f.Update(context.Background(), "x") {
		t.Error("unmounted fetcher must not fetch")
	}
}

func TestFetcher_UsesClientPipeline(t *testing.T) {
	doer := &scriptedDoer{fn: func(n int, req *transport.Request) (*Response, error) {
		if n == 0 {
			return nil, statusFailure(http.StatusServiceUnavailable, nil, "")
		}
		return ok(`{"total":3}`)
	}}
	h := newHarness("https://api.example.com", doer, domain.TokenPair{AccessToken: "a"})

	var got *Response
	f := NewFetcher(h.client, http.MethodGet, "/dashboard/summary", FetchOptions{
		OnSuccess: func(r *Response) { got = r },
	})
	if _, err := f.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if got == nil || string(got.Body) != `{"total":3}` {
		t.Errorf("unexpected response %+v", got)
	}
	if h.counter.Count() != 0 {
		t.Errorf("activity leaked: %d", h.counter.Count())
	}
}

func TestFetcher_SupersededFetchLeavesStateAlone(t *testing.T) {
	started := make(chan struct{})
	var first sync.Once
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		blocking := false
		first.Do(func() { blocking = true })
		if blocking {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return okResponse()
	}}

	f := NewFetcher(req, http.MethodGet, "/transactions", FetchOptions{Dependencies: []any{1}})

	done := make(chan error, 1)
	go func() {
		_, err := f.Mount(context.Background())
		done <- err
	}()
	<-started

	if !f.Update(context.Background(), 2) {
		t.Fatal("changed dependencies must refetch")
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("superseded fetch should be cancelled, got %v", err)
	}

	s := f.State()
	if s.Loading || s.Err != nil || s.Data == nil {
		t.Errorf("final state = loading:%v err:%v data:%v, want the newer fetch's success",
			s.Loading, s.Err, s.Data != nil)
	}
}

func TestCaller_StaleResultDoesNotEndLoading(t *testing.T) {
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	secondStarted := make(chan struct{})
	var calls int
	var mu sync.Mutex
	req := &fakeRequester{fn: func(ctx context.Context, method, url string) (*Response, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-releaseFirst
			return nil, errors.New("stale failure")
		}
		close(secondStarted)
		<-releaseSecond
		return okResponse()
	}}
	c := NewCaller(req, nil)

	firstDone := make(chan struct{})
	go func() {
		_, _ = c.Get(context.Background(), "/vendors?page=1")
		close(firstDone)
	}()
	waitFor(t, func() bool { return req.count() == 1 })

	secondDone := make(chan struct{})
	go func() {
		_, _ = c.Get(context.Background(), "/vendors?page=2")
		close(secondDone)
	}()
	<-secondStarted

	// Let the first request finish while the second is still in flight.
	close(releaseFirst)
	<-firstDone

	s := c.State()
	if !s.Loading || s.Err != nil {
		t.Errorf("stale result changed state: loading:%v err:%v", s.Loading, s.Err)
	}

	close(releaseSecond)
	<-secondDone
	if s := c.State(); s.Loading || s.Err != nil || s.Data == nil {
		t.Errorf("final state = %+v", s)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

package api

import (
	"context"
	"net/http"
	"reflect"
	"sync"
)

// State is the observable outcome of the latest request made through a
// Caller.
type State struct {
	Loading bool
	Err     error
	Data    *Response
}

// Caller binds requests to a consumer that renders loading, error and
// data state.
type Caller struct {
	client   Requester
	onChange func(State)

	mu    sync.Mutex
	state State
	seq   uint64 // bumped by every Request start and Reset
}

// NewCaller creates a Caller. onChange, when set, is called after every
// state change.
func NewCaller(client Requester, onChange func(State)) *Caller {
	return &Caller{client: client, onChange: onChange}
}

// State returns the current state.
func (c *Caller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Request sends a request and mirrors its progress into State. Only the
// latest request started through the Caller writes its outcome; results of
// superseded requests are returned to their callers but leave State alone.
// The error is returned as well so callers can branch on it.
func (c *Caller) Request(
	ctx context.Context,
	method, url string,
	body any,
	opts ...RequestOption,
) (*Response, error) {
	var seq uint64
	c.update(func(s *State) bool {
		c.seq++
		seq = c.seq
		s.Loading = true
		s.Err = nil
		return true
	})

	resp, err := c.client.Send(ctx, method, url, body, opts...)

	c.update(func(s *State) bool {
		if seq != c.seq {
			return false
		}
		s.Loading = false
		if err != nil {
			s.Err = err
			return true
		}
		s.Err = nil
		s.Data = resp
		return true
	})
	return resp, err
}

// Get sends a GET request through Request.
func (c *Caller) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodGet, url, nil, opts...)
}

// Post sends a POST request with a JSON body through Request.
func (c *Caller) Post(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPost, url, body, opts...)
}

// Put sends a PUT request with a JSON body through Request.
func (c *Caller) Put(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPut, url, body, opts...)
}

// Patch sends a PATCH request with a JSON body through Request.
func (c *Caller) Patch(ctx context.Context, url string, body any, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodPatch, url, body, opts...)
}

// Delete sends a DELETE request through Request.
func (c *Caller) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, url, nil, opts...)
}

// Reset clears the state. Requests in flight no longer write their outcome.
func (c *Caller) Reset() {
	c.update(func(s *State) bool {
		c.seq++
		*s = State{}
		return true
	})
}

// update applies fn under the lock and notifies onChange when fn reports
// a change.
func (c *Caller) update(fn func(*State) bool) {
	c.mu.Lock()
	changed := fn(&c.state)
	snapshot := c.state
	c.mu.Unlock()

	if changed && c.onChange != nil {
		c.onChange(snapshot)
	}
}

// FetchOptions configures a Fetcher.
type FetchOptions struct {
	Skip         bool            // suppress fetching
	OnSuccess    func(*Response) // called after a successful fetch
	OnError      func(error)     // called after a failed fetch
	Dependencies []any           // values that trigger a re-fetch when changed
	Body         any
	Options      []RequestOption
}

// Fetcher runs a request when mounted and again whenever its dependencies
// change. After Unmount, in-flight requests are cancelled and their
// results are not delivered to the callbacks.
type Fetcher struct {
	caller *Caller
	method string
	url    string
	opts   FetchOptions

	mu         sync.Mutex
	deps       []any
	mounted    bool
	cancel     context.CancelFunc
	generation uint64
}

// NewFetcher creates a fetcher for method and url.
func NewFetcher(client Requester, method, url string, opts FetchOptions) *Fetcher {
	return &Fetcher{
		caller: NewCaller(client, nil),
		method: method,
		url:    url,
		opts:   opts,
	}
}

// State returns the state of the latest fetch.
func (f *Fetcher) State() State {
	return f.caller.State()
}

// Mount starts the fetcher and performs the initial fetch unless skipped.
func (f *Fetcher) Mount(ctx context.Context) (*Response, error) {
	f.mu.Lock()
	f.mounted = true
	f.deps = append([]any(nil), f.opts.Dependencies...)
	f.mu.Unlock()

	return f.run(ctx)
}

// Update re-fetches when deps differ from the previous dependencies.
// It reports whether a fetch was started.
func (f *Fetcher) Update(ctx context.Context, deps ...any) bool {
	f.mu.Lock()
	if !f.mounted || reflect.DeepEqual(f.deps, deps) {
		f.mu.Unlock()
		return false
	}
	f.deps = append([]any(nil), deps...)
	skip := f.opts.Skip
	f.mu.Unlock()

	if skip {
		return false
	}
	_, _ = f.run(ctx)
	return true
}

// SetSkip toggles fetch suppression.
func (f *Fetcher) SetSkip(skip bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts.Skip = skip
}

// Refetch fetches regardless of dependencies.
func (f *Fetcher) Refetch(ctx context.Context) (*Response, error) {
	return f.run(ctx)
}

// Unmount cancels any in-flight fetch and stops further deliveries.
func (f *Fetcher) Unmount() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mounted = false
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

func (f *Fetcher) run(parent context.Context) (*Response, error) {
	f.mu.Lock()
	if !f.mounted || f.opts.Skip {
		f.mu.Unlock()
		return nil, nil
	}
	if f.cancel != nil {
		f.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	f.cancel = cancel
	f.generation++
	gen := f.generation
	f.mu.Unlock()
	defer cancel()

	resp, err := f.caller.Request(ctx, f.method, f.url, f.opts.Body, f.opts.Options...)

	f.mu.Lock()
	current := f.mounted && gen == f.generation
	f.mu.Unlock()
	if !current {
		return resp, err
	}

	if err != nil {
		if f.opts.OnError != nil {
			f.opts.OnError(err)
		}
		return resp, err
	}
	if f.opts.OnSuccess != nil {
		f.opts.OnSuccess(resp)
	}
	return resp, nil
}

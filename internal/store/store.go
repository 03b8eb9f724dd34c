package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"tourdesk/internal/client"
	"tourdesk/internal/events"
	console "tourdesk/internal/utils/logger"
)

var log = console.New("STORE")

var (
	// ErrClosed is returned by every operation after Close
	ErrClosed = errors.New("store closed")
	// ErrSuperseded means a newer refresh started before this one finished;
	// its result was dropped.
	ErrSuperseded = errors.New("refresh superseded by a newer one")
)

// RefreshError means the mutation itself succeeded but reloading the list
// afterwards failed.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("saved, but reloading the list failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}

// Backend is the remote collection a store mirrors. *client.Resource
// implements it.
type Backend[T any] interface {
	List(ctx context.Context, query url.Values) (*client.Page[T], error)
	Create(ctx context.Context, draft interface{}) (*T, error)
	Update(ctx context.Context, id uint64, draft interface{}) (*T, error)
	Delete(ctx context.Context, id uint64) error
	Action(ctx context.Context, id uint64, name string) error
}

type Status int

const (
	StatusAbsent Status = iota
	StatusLoading
	StatusError
	StatusPresent
)

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return "absent"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusPresent:
		return "present"
	default:
		return "unknown"
	}
}

// PageMeta is present when the backend paginated the collection itself
type PageMeta struct {
	CurrentPage int
	PerPage     int
	Total       int
}

// Snapshot is one wholesale copy of the collection. It is never patched;
// every successful refresh produces a new one with a higher Version.
type Snapshot[T any] struct {
	Items     []T
	Meta      *PageMeta
	Version   uint64
	FetchedAt time.Time
}

// State is what presentation code reads. While loading, Snapshot still holds
// the previous result if there was one.
type State[T any] struct {
	Status   Status
	Snapshot *Snapshot[T]
	Err      error
}

type Option func(*options)

type options struct {
	keepStale bool
	bus       *events.EventBus
	query     url.Values
}

// WithKeepStaleOnError keeps the last good snapshot visible behind a failed refresh
func WithKeepStaleOnError() Option {
	return func(o *options) {
		o.keepStale = true
	}
}

// WithBus publishes <name>.refreshed/.created/.updated/.deleted/.failed
func WithBus(bus *events.EventBus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

func WithQuery(q url.Values) Option {
	return func(o *options) {
		o.query = cloneValues(q)
	}
}

// Store holds the client-side copy of one resource collection. It is the only
// writer of that copy and never shows a record the backend has not returned.
type Store[T any] struct {
	name    string
	backend Backend[T]
	opts    options

	lifetime context.Context
	stop     context.CancelFunc

	mu         sync.Mutex
	state      State[T]
	seq        uint64
	cancelPrev context.CancelFunc
	version    uint64
	query      url.Values
	closed     bool
	subs       map[int]func(State[T])
	nextSub    int
}

func New[T any](name string, backend Backend[T], opts ...Option) *Store[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	lifetime, stop := context.WithCancel(context.Background())
	return &Store[T]{
		name:     name,
		backend:  backend,
		opts:     o,
		lifetime: lifetime,
		stop:     stop,
		query:    o.query,
		subs:     map[int]func(State[T]){},
	}
}

func (s *Store[T]) Name() string {
	return s.name
}

// State returns the current state
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe calls fn after every state change. The returned func unsubscribes.
func (s *Store[T]) Subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// SetQuery replaces the query sent with every list call (server paging, filters).
// It takes effect on the next Refresh.
func (s *Store[T]) SetQuery(q url.Values) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = cloneValues(q)
}

func (s *Store[T]) Query() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.query)
}

// Refresh re-fetches the collection. Only the most recently started refresh
// can change the state: starting a new one cancels the previous request and
// any result that still arrives for it is dropped with ErrSuperseded.
func (s *Store[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.seq++
	seq := s.seq
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	rctx, cancel := s.bind(ctx)
	s.cancelPrev = cancel
	s.state.Status = StatusLoading
	s.state.Err = nil
	query := cloneValues(s.query)
	s.mu.Unlock()
	s.notify()

	log.Debug("Refreshing %s (#%d)", s.name, seq)
	page, err := s.backend.List(rctx, query)
	cancel()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if seq != s.seq {
		s.mu.Unlock()
		log.Debug("Dropping superseded refresh of %s (#%d)", s.name, seq)
		return ErrSuperseded
	}
	s.cancelPrev = nil

	if err != nil {
		s.state.Status = StatusError
		s.state.Err = err
		if !s.opts.keepStale {
			s.state.Snapshot = nil
		}
		s.mu.Unlock()
		s.notify()
		s.emit("failed", err)
		return err
	}

	s.version++
	snap := &Snapshot[T]{
		Items:     page.Data,
		Version:   s.version,
		FetchedAt: time.Now(),
	}
	if page.Paginated() {
		snap.Meta = &PageMeta{CurrentPage: page.CurrentPage, PerPage: page.PerPage, Total: page.Total}
	}
	s.state = State[T]{Status: StatusPresent, Snapshot: snap}
	s.mu.Unlock()
	s.notify()
	s.emit("refreshed", snap)
	return nil
}

// Create posts a validated draft and reloads the list. The snapshot is not
// touched when the backend rejects it.
func (s *Store[T]) Create(ctx context.Context, draft interface{}) error {
	return s.mutate(ctx, "created", func(ctx context.Context) (interface{}, error) {
		return s.backend.Create(ctx, draft)
	})
}

func (s *Store[T]) Update(ctx context.Context, id uint64, draft interface{}) error {
	return s.mutate(ctx, "updated", func(ctx context.Context) (interface{}, error) {
		return s.backend.Update(ctx, id, draft)
	})
}

// Remove deletes one record. There is no optimistic removal: the row stays
// until the reload confirms it is gone.
func (s *Store[T]) Remove(ctx context.Context, id uint64) error {
	return s.mutate(ctx, "deleted", func(ctx context.Context) (interface{}, error) {
		return id, s.backend.Delete(ctx, id)
	})
}

// Action runs a custom row action (e.g. sending a campaign) and reloads
func (s *Store[T]) Action(ctx context.Context, id uint64, name string) error {
	return s.mutate(ctx, name, func(ctx context.Context) (interface{}, error) {
		return id, s.backend.Action(ctx, id, name)
	})
}

func (s *Store[T]) mutate(ctx context.Context, event string, call func(context.Context) (interface{}, error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	mctx, cancel := s.bind(ctx)
	s.mu.Unlock()

	result, err := call(mctx)
	cancel()
	if err != nil {
		s.emit("failed", err)
		return err
	}
	s.emit(event, result)

	err = s.Refresh(ctx)
	switch {
	case err == nil, errors.Is(err, ErrSuperseded):
		// a newer refresh owns the state now
		return nil
	case errors.Is(err, ErrClosed):
		return err
	default:
		return &RefreshError{Err: err}
	}
}

// Close aborts everything in flight. Results that arrive later are dropped.
func (s *Store[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.subs = map[int]func(State[T]){}
	s.stop()
}

// bind derives a context that ends with either the caller's ctx or the store
func (s *Store[T]) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(ctx)
	unhook := context.AfterFunc(s.lifetime, cancel)
	return c, func() {
		unhook()
		cancel()
	}
}

func (s *Store[T]) notify() {
	s.mu.Lock()
	state := s.state
	fns := make([]func(State[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store[T]) emit(event string, data interface{}) {
	if s.opts.bus == nil {
		return
	}
	s.opts.bus.Emit(s.name+"."+event, data)
}

func cloneValues(q url.Values) url.Values {
	if q == nil {
		return nil
	}
	out := make(url.Values, len(q))
	for k, v := range q {
		out[k] = append([]string(nil), v...)
	}
	return out
}

package store

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/client"
	"tourdesk/internal/events"
)

type row struct {
	ID   uint64
	Name string
}

// fakeBackend keeps an in-memory collection; hooks override single calls
type fakeBackend struct {
	mu      sync.Mutex
	rows    []row
	nextID  uint64
	lists   int
	queries []url.Values

	listHook   func(ctx context.Context, n int) (*client.Page[row], error)
	deleteErr  error
	createErr  error
	actionSeen []string
}

func newFakeBackend(rows ...row) *fakeBackend {
	return &fakeBackend{rows: rows, nextID: uint64(len(rows)) + 1}
}

func (f *fakeBackend) List(ctx context.Context, query url.Values) (*client.Page[row], error) {
	f.mu.Lock()
	f.lists++
	n := f.lists
	f.queries = append(f.queries, query)
	hook := f.listHook
	data := append([]row(nil), f.rows...)
	f.mu.Unlock()

	if hook != nil {
		return hook(ctx, n)
	}
	return &client.Page[row]{Data: data}, nil
}

func (f *fakeBackend) Create(ctx context.Context, draft interface{}) (*row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	r := row{ID: f.nextID, Name: draft.(string)}
	f.nextID++
	f.rows = append(f.rows, r)
	return &r, nil
}

func (f *fakeBackend) Update(ctx context.Context, id uint64, draft interface{}) (*row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Name = draft.(string)
			r := f.rows[i]
			return &r, nil
		}
	}
	return nil, &client.RequestError{Status: 404, Message: "not found"}
}

func (f *fakeBackend) Delete(ctx context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return &client.RequestError{Status: 404, Message: "not found"}
}

func (f *fakeBackend) Action(ctx context.Context, id uint64, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actionSeen = append(f.actionSeen, name)
	return nil
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func names(s *Snapshot[row]) []string {
	var out []string
	for _, r := range s.Items {
		out = append(out, r.Name)
	}
	return out
}

func TestRefresh_ReplacesSnapshot(t *testing.T) {
	be := newFakeBackend(row{1, "A"}, row{2, "B"})
	s := New[row]("boats", be)
	assert.Equal(t, StatusAbsent, s.State().Status)

	require.NoError(t, s.Refresh(context.Background()))

	st := s.State()
	assert.Equal(t, StatusPresent, st.Status)
	assert.Equal(t, []string{"A", "B"}, names(st.Snapshot))
	assert.Equal(t, uint64(1), st.Snapshot.Version)
	assert.Nil(t, st.Snapshot.Meta)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, uint64(2), s.State().Snapshot.Version)
}

func TestRefresh_FailureDiscardsSnapshot(t *testing.T) {
	be := newFakeBackend(row{1, "A"})
	s := New[row]("boats", be)
	require.NoError(t, s.Refresh(context.Background()))

	boom := errors.New("boom")
	be.listHook = func(context.Context, int) (*client.Page[row], error) { return nil, boom }
	err := s.Refresh(context.Background())

	assert.ErrorIs(t, err, boom)
	st := s.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Nil(t, st.Snapshot)
	assert.ErrorIs(t, st.Err, boom)
}

func TestRefresh_KeepStaleOnError(t *testing.T) {
	be := newFakeBackend(row{1, "A"})
	s := New[row]("boats", be, WithKeepStaleOnError())
	require.NoError(t, s.Refresh(context.Background()))
	before := s.State().Snapshot

	be.listHook = func(context.Context, int) (*client.Page[row], error) { return nil, errors.New("down") }
	require.Error(t, s.Refresh(context.Background()))

	st := s.State()
	assert.Equal(t, StatusError, st.Status)
	assert.Same(t, before, st.Snapshot)
}

func TestRefresh_LoadingKeepsPreviousSnapshot(t *testing.T) {
	be := newFakeBackend(row{1, "A"})
	s := New[row]("boats", be)
	require.NoError(t, s.Refresh(context.Background()))
	before := s.State().Snapshot

	release := make(chan struct{})
	be.listHook = func(context.Context, int) (*client.Page[row], error) {
		<-release
		return &client.Page[row]{Data: []row{{2, "B"}}}, nil
	}
	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()

	require.Eventually(t, func() bool { return s.State().Status == StatusLoading }, time.Second, 5*time.Millisecond)
	st := s.State()
	assert.Same(t, before, st.Snapshot)
	assert.NoError(t, st.Err)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"B"}, names(s.State().Snapshot))
}

func TestRefresh_LatestStartedWins(t *testing.T) {
	be := newFakeBackend()
	release1 := make(chan struct{})
	var firstCtx context.Context
	be.listHook = func(ctx context.Context, n int) (*client.Page[row], error) {
		if n == 1 {
			firstCtx = ctx
			<-release1
			return &client.Page[row]{Data: []row{{1, "R1"}}}, nil
		}
		return &client.Page[row]{Data: []row{{2, "R2"}}}, nil
	}
	s := New[row]("boats", be)

	r1 := make(chan error, 1)
	go func() { r1 <- s.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return be.listCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, []string{"R2"}, names(s.State().Snapshot))

	close(release1)
	assert.ErrorIs(t, <-r1, ErrSuperseded)
	assert.Equal(t, []string{"R2"}, names(s.State().Snapshot))
	assert.ErrorIs(t, firstCtx.Err(), context.Canceled)
}

func TestRemove_RefreshesExactlyOnce(t *testing.T) {
	be := newFakeBackend(row{1, "A"}, row{2, "B"})
	s := New[row]("boats", be)
	require.NoError(t, s.Refresh(context.Background()))

	require.NoError(t, s.Remove(context.Background(), 1))

	assert.Equal(t, 2, be.listCount())
	st := s.State()
	assert.Equal(t, []string{"B"}, names(st.Snapshot))
	assert.Len(t, st.Snapshot.Items, 1)
}

func TestRemove_FailureLeavesSnapshot(t *testing.T) {
	be := newFakeBackend(row{1, "A"}, row{2, "B"})
	s := New[row]("boats", be)
	require.NoError(t, s.Refresh(context.Background()))
	before := s.State()

	be.deleteErr = &client.RequestError{Status: 500, Message: "nope"}
	err := s.Remove(context.Background(), 1)

	var re *client.RequestError
	require.True(t, errors.As(err, &re))
	after := s.State()
	assert.Same(t, before.Snapshot, after.Snapshot)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, be.listCount())
}

func TestCreateUpdateAction_RefreshOnce(t *testing.T) {
	be := newFakeBackend(row{1, "A"})
	s := New[row]("boats", be)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "B"))
	assert.Equal(t, 1, be.listCount())
	assert.Equal(t, []string{"A", "B"}, names(s.State().Snapshot))

	require.NoError(t, s.Update(ctx, 1, "A2"))
	assert.Equal(t, 2, be.listCount())
	assert.Equal(t, []string{"A2", "B"}, names(s.State().Snapshot))

	require.NoError(t, s.Action(ctx, 2, "send"))
	assert.Equal(t, 3, be.listCount())
	assert.Equal(t, []string{"send"}, be.actionSeen)
}

func TestCreate_FailureSkipsRefresh(t *testing.T) {
	be := newFakeBackend()
	be.createErr = &client.RequestError{Status: 422, Message: "invalid"}
	s := New[row]("boats", be)

	err := s.Create(context.Background(), "X")

	assert.Error(t, err)
	assert.Equal(t, 0, be.listCount())
	assert.Equal(t, StatusAbsent, s.State().Status)
}

func TestMutation_RefreshFailureIsReported(t *testing.T) {
	be := newFakeBackend(row{1, "A"})
	be.listHook = func(context.Context, int) (*client.Page[row], error) {
		return nil, &client.TransportError{Method: "GET", Path: "/boats", Err: errors.New("reset")}
	}
	s := New[row]("boats", be)

	err := s.Create(context.Background(), "B")

	var re *RefreshError
	require.True(t, errors.As(err, &re))
	var te *client.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestClose_AbortsInFlight(t *testing.T) {
	be := newFakeBackend()
	be.listHook = func(ctx context.Context, _ int) (*client.Page[row], error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	s := New[row]("boats", be)

	done := make(chan error, 1)
	go func() { done <- s.Refresh(context.Background()) }()
	require.Eventually(t, func() bool { return be.listCount() == 1 }, time.Second, 5*time.Millisecond)

	s.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("refresh was not aborted")
	}
	assert.ErrorIs(t, s.Remove(context.Background(), 1), ErrClosed)
	assert.ErrorIs(t, s.Refresh(context.Background()), ErrClosed)
}

func TestRefresh_QueryAndPageMeta(t *testing.T) {
	be := newFakeBackend()
	be.listHook = func(context.Context, int) (*client.Page[row], error) {
		return &client.Page[row]{Data: []row{{1, "A"}}, CurrentPage: 2, PerPage: 1, Total: 7}, nil
	}
	s := New[row]("boats", be, WithQuery(url.Values{"per_page": {"1"}}))
	s.SetQuery(url.Values{"page": {"2"}, "per_page": {"1"}})

	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, "2", be.queries[0].Get("page"))
	assert.Equal(t, &PageMeta{CurrentPage: 2, PerPage: 1, Total: 7}, s.State().Snapshot.Meta)
}

func TestSubscribe_AndEvents(t *testing.T) {
	bus := events.NewEventBus()
	var mu sync.Mutex
	var seen []string
	bus.On("boats.*", func(event string, _ interface{}) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, event)
	})

	be := newFakeBackend(row{1, "A"})
	s := New[row]("boats", be, WithBus(bus))

	var statuses []Status
	off := s.Subscribe(func(st State[row]) { statuses = append(statuses, st.Status) })

	require.NoError(t, s.Remove(context.Background(), 1))
	off()
	require.NoError(t, s.Refresh(context.Background()))
	bus.Wait()

	assert.Equal(t, []Status{StatusLoading, StatusPresent}, statuses)

	mu.Lock()
	defer mu.Unlock()
	sort.Strings(seen)
	assert.Equal(t, []string{"boats.deleted", "boats.refreshed", "boats.refreshed"}, seen)
}

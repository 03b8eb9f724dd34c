package client

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/models"
)

func TestResource_ListEnvelope(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.HandleFunc("/api/boats", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"name":"A"},{"id":2,"name":"B"}],"status":true,"current_page":2,"per_page":2,"total":5}`))
	})
	boats := NewResource[models.Boat](newTestClient(t, srv), "boats")

	page, err := boats.List(context.Background(), url.Values{"page": {"2"}})

	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, uint64(2), page.Data[1].ID)
	assert.Equal(t, Status("true"), page.Status)
	assert.True(t, page.Paginated())
	assert.Equal(t, 5, page.Total)
}

func TestResource_ListBareArray(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.HandleFunc("/api/faqs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":7,"question":"Why?"}]`))
	})
	faqs := NewResource[models.FAQ](newTestClient(t, srv), "/faqs/")

	page, err := faqs.List(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Why?", page.Data[0].Question)
	assert.False(t, page.Paginated())
}

func TestResource_ItemCalls(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.HandleFunc("/api/hotels", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": map[string]interface{}{"id": 3, "name": "Harbour"}, "message": "created"})
	})
	fb.mux.HandleFunc("/api/hotels/3", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodPut:
			writeJSON(w, http.StatusOK, map[string]interface{}{"id": 3, "name": "Harbour View"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	fb.mux.HandleFunc("/api/hotels/3/feature", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
	})

	hotels := NewResource[models.Hotel](newTestClient(t, srv), "hotels")
	ctx := context.Background()

	created, err := hotels.Create(ctx, models.HotelDraft{Name: "Harbour"})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), created.ID)

	got, err := hotels.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Harbour View", got.Name)

	updated, err := hotels.Update(ctx, 3, models.HotelDraft{Name: "Harbour View"})
	require.NoError(t, err)
	assert.Equal(t, "Harbour View", updated.Name)

	require.NoError(t, hotels.Delete(ctx, 3))
	require.NoError(t, hotels.Action(ctx, 3, "feature"))
}

func TestResource_DeleteNotFound(t *testing.T) {
	fb, srv := newFakeBackend(t)
	fb.mux.HandleFunc("/api/users/9", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	})
	users := NewResource[models.User](newTestClient(t, srv), "users")

	err := users.Delete(context.Background(), 9)

	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.EqualError(t, err, "request failed (404): user not found")
}

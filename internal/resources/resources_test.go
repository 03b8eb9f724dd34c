package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/admin"
	"tourdesk/internal/client"
	"tourdesk/internal/dispatch"
	"tourdesk/internal/models"
	"tourdesk/internal/table"
	"tourdesk/internal/validation"
)

func newServer(t *testing.T, mux *http.ServeMux) *client.Client {
	t.Helper()
	mux.HandleFunc("GET /api/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "token", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL + "/api")
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func columnIDs[T any](cols []table.Column[T]) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.ID)
	}
	return out
}

func TestDefinitions_AreComplete(t *testing.T) {
	type summary struct {
		name, path string
		columns    []string
		complete   bool
	}
	check := func(name, path string, columns []string, complete bool) summary {
		return summary{name, path, columns, complete}
	}
	b, h, cu, f := Boats(), Hotels(), Customers(), FAQs()
	te, e, s, r := Testimonials(), Emails(), Subscribers(), Recipients()
	u, ro := Users(), Roles()

	all := []summary{
		check(b.Name, b.Path, columnIDs(b.Columns), b.ID != nil && b.NewDraft != nil && b.ToDraft != nil),
		check(h.Name, h.Path, columnIDs(h.Columns), h.ID != nil && h.NewDraft != nil && h.ToDraft != nil),
		check(cu.Name, cu.Path, columnIDs(cu.Columns), cu.ID != nil && cu.NewDraft != nil && cu.ToDraft != nil),
		check(f.Name, f.Path, columnIDs(f.Columns), f.ID != nil && f.NewDraft != nil && f.ToDraft != nil),
		check(te.Name, te.Path, columnIDs(te.Columns), te.ID != nil && te.NewDraft != nil && te.ToDraft != nil),
		check(e.Name, e.Path, columnIDs(e.Columns), e.ID != nil && e.NewDraft != nil && e.ToDraft != nil),
		check(s.Name, s.Path, columnIDs(s.Columns), s.ID != nil && s.NewDraft != nil && s.ToDraft != nil),
		check(r.Name, r.Path, columnIDs(r.Columns), r.ID != nil && r.NewDraft != nil && r.ToDraft != nil),
		check(u.Name, u.Path, columnIDs(u.Columns), u.ID != nil && u.NewDraft != nil && u.ToDraft != nil),
		check(ro.Name, ro.Path, columnIDs(ro.Columns), ro.ID != nil && ro.NewDraft != nil && ro.ToDraft != nil),
	}

	require.Len(t, all, len(Names()))
	for _, def := range all {
		t.Run(def.name, func(t *testing.T) {
			assert.Contains(t, Names(), def.name)
			assert.Equal(t, "/"+def.name, def.path)
			assert.True(t, def.complete)
			seen := map[string]bool{}
			for _, id := range def.columns {
				assert.False(t, seen[id], "duplicate column %s", id)
				seen[id] = true
			}
			assert.Equal(t, "id", def.columns[0])
		})
	}
}

func TestSeededRecordsProduceValidDrafts(t *testing.T) {
	v := validation.New()
	sent := time.Now()

	boat := models.Boat{Name: "Sea Breeze", Type: models.BoatTypeCatamaran, Capacity: 12, Status: models.BoatStatusAvailable}
	hotel := models.Hotel{Name: "Ocean View", Location: "Lagos", Stars: 4}
	email := models.Email{Subject: "Summer", Body: "Hello", Status: models.CampaignStatusScheduled, ScheduledAt: &sent}
	user := models.User{Name: "Ada", Email: "ada@example.com", Role: models.UserRoleEditor}

	assert.NoError(t, v.Struct(models.BoatDraftFrom(boat)))
	assert.NoError(t, v.Struct(models.HotelDraftFrom(hotel)))
	assert.NoError(t, v.Struct(models.EmailDraftFrom(email)))
	assert.NoError(t, v.Struct(models.UserDraftFrom(user)))
	assert.Error(t, v.Struct(Boats().NewDraft()), "create defaults alone are not enough")
}

func TestOpen_UnknownResource(t *testing.T) {
	_, err := Open("yachts", nil, Options{})
	assert.ErrorContains(t, err, "unknown resource")
}

func TestCustomers_ExpandShowsBookingsNewestFirst(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/customers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"data": []map[string]interface{}{{
				"id": 1, "first_name": "Ana", "last_name": "Lopez", "email": "ana@example.com",
				"bookings": []map[string]interface{}{
					{"id": 10, "trip_name": "Island hop", "travel_date": "2024-05-01T00:00:00Z", "guests": 2, "status": "confirmed", "amount": 300},
					{"id": 11, "trip_name": "Sunset cruise", "travel_date": "2024-07-01T00:00:00Z", "guests": 4, "status": "pending", "amount": 520.5},
				},
			}},
			"status": true,
		})
	})
	c := newServer(t, mux)

	screen, err := Open("Customers", c, Options{})
	require.NoError(t, err)
	defer screen.Close()
	ctx := context.Background()

	require.NoError(t, screen.Refresh(ctx))
	frame := screen.Render()
	require.Len(t, frame.Rows, 1)
	assert.Equal(t, []string{"1", "Ana Lopez", "ana@example.com", "", "2"}, frame.Rows[0].Cells)

	open, err := screen.Expand(1)
	require.NoError(t, err)
	assert.True(t, open)

	detail := screen.Render().Rows[0].Detail
	require.Len(t, detail, 2)
	assert.Contains(t, detail[0], "Sunset cruise")
	assert.Contains(t, detail[1], "Island hop")
}

func TestEmails_SendActionPostsAndRefreshes(t *testing.T) {
	var lists, sends atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/emails", func(w http.ResponseWriter, r *http.Request) {
		lists.Add(1)
		writeJSON(w, map[string]interface{}{
			"data": []map[string]interface{}{{"id": 3, "subject": "Summer deals", "body": "...", "status": "draft"}},
		})
	})
	mux.HandleFunc("POST /api/emails/3/send", func(w http.ResponseWriter, r *http.Request) {
		sends.Add(1)
		assert.Equal(t, "token", r.Header.Get("X-XSRF-TOKEN"))
		writeJSON(w, map[string]interface{}{"message": "queued"})
	})
	c := newServer(t, mux)

	var asked string
	screen, err := Open("emails", c, Options{Deps: admin.Deps{
		Confirm: dispatch.ConfirmFunc(func(_ context.Context, prompt string) (bool, error) {
			asked = prompt
			return true, nil
		}),
	}})
	require.NoError(t, err)
	defer screen.Close()
	ctx := context.Background()

	require.NoError(t, screen.Refresh(ctx))
	require.NoError(t, screen.Do(ctx, "send", 3))

	assert.Equal(t, int32(1), sends.Load())
	assert.Equal(t, int32(2), lists.Load())
	assert.Equal(t, "Send this campaign to every subscriber now?", asked)
}

func TestSubscribers_AreServerPaged(t *testing.T) {
	var query atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/subscribers", func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		writeJSON(w, map[string]interface{}{
			"data":         []map[string]interface{}{{"id": 41, "email": "x@example.com", "status": "subscribed"}},
			"current_page": 5, "per_page": 20, "total": 81,
		})
	})
	c := newServer(t, mux)

	screen, err := Open("subscribers", c, Options{PageSize: 20})
	require.NoError(t, err)
	defer screen.Close()

	require.NoError(t, screen.Refresh(context.Background()))
	frame := screen.Render()

	assert.Equal(t, "page=1&per_page=20", query.Load())
	assert.True(t, frame.ServerPaged)
	assert.Equal(t, 4, frame.PageIndex)
	assert.Equal(t, 5, frame.PageCount)
}

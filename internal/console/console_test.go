package console

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourdesk/internal/client"
	"tourdesk/internal/config"
	"tourdesk/internal/form"
	"tourdesk/internal/session"
)

type faqRow struct {
	ID        uint64 `json:"id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Category  string `json:"category,omitempty"`
	Position  int    `json:"position"`
	Published bool   `json:"published"`
}

// fakeBackend serves csrf, auth, faqs and uploads
type fakeBackend struct {
	mu      sync.Mutex
	faqs    []faqRow
	created []map[string]interface{}
	deleted []string
	lists   atomic.Int32
	srv     *httptest.Server
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	f := &fakeBackend{faqs: []faqRow{
		{ID: 1, Question: "Apple question", Answer: "Apples are red", Position: 1, Published: true},
		{ID: 2, Question: "Zebra question", Answer: "Zebras are striped", Position: 2},
		{ID: 3, Question: "Mango question", Answer: "Mangoes are sweet", Position: 3},
	}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/sanctum/csrf-cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "XSRF-TOKEN", Value: "csrf", Path: "/"})
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Email, Password string }
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "correct horse" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": map[string]interface{}{
			"token": "tok",
			"user":  map[string]interface{}{"id": 1, "name": "Ada", "email": body.Email, "role": "admin"},
		}})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /api/faqs", func(w http.ResponseWriter, r *http.Request) {
		f.lists.Add(1)
		f.mu.Lock()
		defer f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": f.faqs, "status": true})
	})
	mux.HandleFunc("POST /api/faqs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.created = append(f.created, body)
		f.faqs = append(f.faqs, faqRow{ID: 4, Question: body["question"].(string), Answer: body["answer"].(string)})
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": body})
	})
	mux.HandleFunc("DELETE /api/faqs/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/files/upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"data": map[string]interface{}{
			"path": "uploads/" + header.Filename,
			"url":  "http://cdn.example.com/uploads/" + header.Filename,
			"size": len(data),
			"name": r.FormValue("name"),
		}})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func testConfig() *config.Config {
	return &config.Config{
		API: config.APIConfig{
			LoginPath:  "/auth/login",
			LogoutPath: "/auth/logout",
			UploadPath: "/files/upload",
		},
		Console: config.ConsoleConfig{PageSize: 10, RefreshSpec: "@every 1s", ConfirmWrite: true},
	}
}

func newTestConsole(t *testing.T, f *fakeBackend, input string, opts ...Option) (*Console, *bytes.Buffer) {
	t.Helper()
	cfg := testConfig()
	mgr := session.NewManager(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")), cfg.API)
	api, err := client.New(f.srv.URL+"/api", client.WithTokenSource(mgr))
	require.NoError(t, err)

	out := &bytes.Buffer{}
	c := New(cfg, api, mgr, strings.NewReader(input), out, opts...)
	t.Cleanup(c.Close)
	return c, out
}

func exec(t *testing.T, c *Console, line string) {
	t.Helper()
	quit, err := c.Exec(context.Background(), line)
	require.NoError(t, err, line)
	require.False(t, quit)
}

func TestConsole_LoginWhoamiLogout(t *testing.T) {
	orig := readPassword
	readPassword = func(int) ([]byte, error) { return []byte("correct horse"), nil }
	t.Cleanup(func() { readPassword = orig })

	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "ada@example.com\n", WithTerminal())

	exec(t, c, "login")
	assert.Contains(t, out.String(), "Signed in as Ada <ada@example.com> (admin)")

	out.Reset()
	exec(t, c, "whoami")
	assert.Contains(t, out.String(), "ada@example.com")

	exec(t, c, "logout")
	assert.Contains(t, out.String(), "Signed out")

	_, err := c.Exec(context.Background(), "whoami")
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Contains(t, describe(err), "type login")
}

func TestConsole_LoginRejected(t *testing.T) {
	f := newFakeBackend(t)
	c, _ := newTestConsole(t, f, "wrong\n")

	_, err := c.Exec(context.Background(), "login ada@example.com")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", describe(err))
}

func TestConsole_UseSortAndExpand(t *testing.T) {
	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "")

	exec(t, c, "use faqs")
	assert.Contains(t, out.String(), "FAQs")
	assert.Contains(t, out.String(), "3 total")
	assert.Less(t, strings.Index(out.String(), "Apple question"), strings.Index(out.String(), "Zebra question"))

	out.Reset()
	exec(t, c, "sort question desc")
	text := out.String()
	assert.Contains(t, text, "sorted by question desc")
	assert.Less(t, strings.Index(text, "Zebra question"), strings.Index(text, "Mango question"))
	assert.Less(t, strings.Index(text, "Mango question"), strings.Index(text, "Apple question"))

	out.Reset()
	exec(t, c, "expand 2")
	assert.Contains(t, out.String(), "▸ #2")
	assert.Contains(t, out.String(), "Zebras are striped")
	assert.NotContains(t, out.String(), "Apples are red")

	out.Reset()
	exec(t, c, "select all")
	assert.Contains(t, out.String(), "3 selected")
}

func TestConsole_NewPromptsForEachField(t *testing.T) {
	f := newFakeBackend(t)
	// question, answer, category (blank keeps it empty), position, published
	c, out := newTestConsole(t, f, "How do I book?\nOnline\n\n2\ny\n")

	exec(t, c, "use faqs")
	exec(t, c, "new")

	require.Len(t, f.created, 1)
	assert.Equal(t, "How do I book?", f.created[0]["question"])
	assert.Equal(t, "Online", f.created[0]["answer"])
	assert.EqualValues(t, 2, f.created[0]["position"])
	assert.Equal(t, true, f.created[0]["published"])
	assert.Contains(t, out.String(), "FAQ created")
	assert.Contains(t, out.String(), "4 total", "the list was reloaded")
}

func TestConsole_NewReasksInvalidFields(t *testing.T) {
	f := newFakeBackend(t)
	// first question is too short, then retry fixes only that field
	c, out := newTestConsole(t, f, "Hi\nOnline\n\n0\nn\n\nHow do I book?\n")

	exec(t, c, "use faqs")
	exec(t, c, "new")

	require.Len(t, f.created, 1)
	assert.Equal(t, "How do I book?", f.created[0]["question"])
	assert.Contains(t, out.String(), "Please fix the form")
}

func TestConsole_DeleteAsksFirst(t *testing.T) {
	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "n\ny\n")

	exec(t, c, "use faqs")
	exec(t, c, "delete 1")
	assert.Empty(t, f.deleted)
	assert.Contains(t, out.String(), `Delete faq "Apple question"?`)

	exec(t, c, "delete 1")
	assert.Equal(t, []string{"1"}, f.deleted)
	assert.Contains(t, out.String(), "FAQ deleted")
}

func TestConsole_Upload(t *testing.T) {
	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "")

	path := filepath.Join(t.TempDir(), "brochure.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0600))

	exec(t, c, "upload "+path)
	assert.Contains(t, out.String(), "Uploaded brochure.txt (5 bytes)")
	assert.Contains(t, out.String(), "http://cdn.example.com/uploads/brochure.txt")
}

func TestConsole_CommandErrors(t *testing.T) {
	f := newFakeBackend(t)
	c, _ := newTestConsole(t, f, "")
	ctx := context.Background()

	_, err := c.Exec(ctx, "list")
	assert.ErrorIs(t, err, errNoScreen)

	_, err = c.Exec(ctx, "bogus")
	assert.ErrorContains(t, err, `unknown command "bogus"`)

	_, err = c.Exec(ctx, "page")
	assert.ErrorContains(t, err, "usage: page <n>")

	_, err = c.Exec(ctx, "use yachts")
	assert.ErrorContains(t, err, "unknown resource")

	exec(t, c, "use faqs")
	_, err = c.Exec(ctx, "sort nope")
	assert.Error(t, err)
	_, err = c.Exec(ctx, "edit abc")
	assert.ErrorContains(t, err, "not a record id")
	_, err = c.Exec(ctx, "delete 99")
	assert.Error(t, err)

	quit, err := c.Exec(ctx, "quit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestConsole_WatchRefreshesInBackground(t *testing.T) {
	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "")

	exec(t, c, "use faqs")
	_, err := c.Exec(context.Background(), "watch whenever")
	assert.ErrorContains(t, err, "invalid schedule")

	exec(t, c, "watch")
	require.Eventually(t, func() bool { return f.lists.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)

	exec(t, c, "unwatch")
	_, err = c.Exec(context.Background(), "unwatch")
	assert.ErrorContains(t, err, "not watching")
	assert.Contains(t, out.String(), "Refreshing @every 1s")
}

func TestConsole_RunLoop(t *testing.T) {
	f := newFakeBackend(t)
	c, out := newTestConsole(t, f, "help\nbogus\nexit\nresources\n")

	require.NoError(t, c.Run(context.Background()))
	text := out.String()
	assert.Contains(t, text, "do <action> <id>")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Contains(t, text, "Bye!")
	assert.NotContains(t, text, "testimonials", "nothing runs after exit")
}

func TestFieldPrompter_KeepsAndClears(t *testing.T) {
	out := &bytes.Buffer{}
	c := &Console{in: bufio.NewReader(strings.NewReader("\n-\nnew\n")), out: out}
	p := fieldPrompter{c: c}
	spec := form.FieldSpec{Name: "category", Kind: form.KindString}
	ctx := context.Background()

	got, err := p.Prompt(ctx, spec, "boats", "")
	require.NoError(t, err)
	assert.Equal(t, "boats", got)

	got, err = p.Prompt(ctx, spec, "boats", "")
	require.NoError(t, err)
	assert.Equal(t, "", got)

	got, err = p.Prompt(ctx, spec, "boats", "too long")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
	assert.Contains(t, out.String(), "! too long")

	_, err = p.Prompt(ctx, spec, "", "")
	assert.ErrorIs(t, err, ErrInputClosed)
}

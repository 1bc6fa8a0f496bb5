package api

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewmarsh/nokari/internal/core"
	"github.com/brewmarsh/nokari/internal/tasks"
)

type fakeTaskQueue struct {
	submitted []struct {
		Name string
		Args map[string]string
	}
}

func (f *fakeTaskQueue) Submit(_ context.Context, name string, args map[string]string) (string, error) {
	f.submitted = append(f.submitted, struct {
		Name string
		Args map[string]string
	}{name, args})
	return "task-1", nil
}

func (f *fakeTaskQueue) GetStatus(_ context.Context, _ string) (tasks.Status, error) {
	return tasks.Status{}, tasks.ErrTaskNotFound
}

func newTestServer(q taskQueue) *Server {
	s := &Server{router: chi.NewRouter(), queue: q}
	s.setupRoutes()
	return s
}

// chunkedBody hides the reader's concrete type so httptest.NewRequest
// leaves ContentLength at -1, the way a chunked request arrives.
func chunkedBody(payload string) io.Reader {
	return io.MultiReader(strings.NewReader(payload))
}

func TestTriggerScrapeChunkedBody(t *testing.T) {
	q := &fakeTaskQueue{}
	srv := newTestServer(q)

	req := httptest.NewRequest("POST", "/api/scrape", chunkedBody(`{"title":"Data Engineer","days":3}`))
	require.Equal(t, int64(-1), req.ContentLength)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, 202, rec.Code)
	require.Len(t, q.submitted, 1)
	assert.Equal(t, core.TaskDiscoveryRun, q.submitted[0].Name)
	assert.Equal(t, "Data Engineer", q.submitted[0].Args["title"])
	assert.Equal(t, "3", q.submitted[0].Args["days"])
}

func TestTriggerScrapeEmptyBody(t *testing.T) {
	q := &fakeTaskQueue{}
	srv := newTestServer(q)

	req := httptest.NewRequest("POST", "/api/scrape", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, 202, rec.Code)
	require.Len(t, q.submitted, 1)
	args := q.submitted[0].Args
	assert.Equal(t, "api", args["requested_by"])
	assert.NotContains(t, args, "title")
}

func TestTriggerScrapeInvalidBody(t *testing.T) {
	q := &fakeTaskQueue{}
	srv := newTestServer(q)

	req := httptest.NewRequest("POST", "/api/scrape", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, 400, rec.Code)
	assert.Empty(t, q.submitted)
}

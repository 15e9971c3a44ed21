package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/handler"
	"habitkeeper/internal/repository"
	"habitkeeper/internal/store"
	"habitkeeper/pkg/trace"
	"habitkeeper/pkg/util"
)

const secret = "test-secret"

var fixedNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type failingSaves struct {
	*repository.MemoryRepository
}

func (failingSaves) Save(context.Context, []byte) error { return errors.New("disk full") }

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestRouter(t *testing.T, repo store.Repository, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cal := dateutil.NewCalendar(time.UTC)
	cal.Now = func() time.Time { return fixedNow }
	s := store.New(repo, cal, zap.NewNop())
	s.Load(context.Background())

	return NewRouter(handler.NewHabitHandler(s, zap.NewNop()), cfg, zap.NewNop())
}

func do(r http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func createHabit(t *testing.T, r http.Handler, title string, urgency int) string {
	t.Helper()
	w := do(r, http.MethodPost, "/habits", map[string]any{
		"title": title, "frequency": "daily", "targetDays": 7, "urgency": urgency,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["habit"].(map[string]any)["id"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{Storage: repository.NewMemoryRepository("k")})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/metrics", nil).Code)
}

func TestReadyz_StorageDown(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{Storage: downPinger{}})

	w := do(r, http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "storage_not_ready", decode(t, w)["status"])
}

func TestTraceIDEchoed(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{})

	w := do(r, http.MethodGet, "/healthz", nil, trace.HeaderName, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(trace.HeaderName))

	w = do(r, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, w.Header().Get(trace.HeaderName))
}

func TestHabitLifecycle(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{})

	low := createHabit(t, r, "Stretch", 1)
	high := createHabit(t, r, "Read", 5)

	w := do(r, http.MethodGet, "/habits", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["habits"].([]any)
	require.Len(t, list, 2)
	first := list[0].(map[string]any)
	assert.Equal(t, high, first["id"])
	assert.Equal(t, "Urgent", first["urgencyLabel"])
	assert.Equal(t, false, first["completedToday"])

	w = do(r, http.MethodPost, "/habits/"+high+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	toggled := decode(t, w)["habit"].(map[string]any)
	assert.Equal(t, []any{"2025-03-10"}, toggled["completedDates"])
	assert.EqualValues(t, 1, toggled["streakCount"])
	assert.Equal(t, true, toggled["completedToday"])

	w = do(r, http.MethodPost, "/habits/"+high+"/toggle", map[string]string{"date": "2025-03-09"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["habit"].(map[string]any)["streakCount"])

	w = do(r, http.MethodGet, "/habits/"+high, nil)
	require.Equal(t, http.StatusOK, w.Code)
	recent := decode(t, w)["recent"].([]any)
	require.Len(t, recent, 7)
	assert.Equal(t, map[string]any{"date": "2025-03-10", "done": true}, recent[0])
	assert.Equal(t, map[string]any{"date": "2025-03-08", "done": false}, recent[2])

	w = do(r, http.MethodGet, "/habits?active=true", nil)
	active := decode(t, w)["habits"].([]any)
	require.Len(t, active, 1)
	assert.Equal(t, high, active[0].(map[string]any)["id"])

	w = do(r, http.MethodGet, "/habits/"+high+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	hs := decode(t, w)
	assert.EqualValues(t, 2, hs["totalCompletions"])
	assert.EqualValues(t, 2, hs["currentStreak"])

	w = do(r, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overall := decode(t, w)
	assert.EqualValues(t, 2, overall["totalHabits"])
	assert.EqualValues(t, 1, overall["activeHabits"])
	assert.Len(t, overall["topHabits"], 1)

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/habits/"+low, nil).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/habits/"+low, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/habits/"+low, nil).Code)
}

func TestCreateHabit_Validation(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{})

	w := do(r, http.MethodPost, "/habits", map[string]any{"title": "", "frequency": "daily", "urgency": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "title is required")

	req := httptest.NewRequest(http.MethodPost, "/habits", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToggle_Errors(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{})
	id := createHabit(t, r, "Read", 3)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, "/habits/missing/toggle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/habits/"+id+"/toggle", map[string]string{"date": "someday"}).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/habits/missing/stats", nil).Code)
}

func TestToggle_ChunkedEmptyBodyMeansToday(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{})
	id := createHabit(t, r, "Read", 3)

	req := httptest.NewRequest(http.MethodPost, "/habits/"+id+"/toggle", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []any{"2025-03-10"}, decode(t, w)["habit"].(map[string]any)["completedDates"])
}

func TestStorageFailure_ReturnsWarning(t *testing.T) {
	r := newTestRouter(t, failingSaves{repository.NewMemoryRepository("k")}, RouterConfig{})

	w := do(r, http.MethodPost, "/habits", map[string]any{"title": "Read", "frequency": "daily", "urgency": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Contains(t, body["warning"], "disk full")
	id := body["habit"].(map[string]any)["id"].(string)

	w = do(r, http.MethodPost, "/habits/"+id+"/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["warning"])

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, "/habits/"+id, nil).Code)
}

func TestAuth(t *testing.T) {
	r := newTestRouter(t, repository.NewMemoryRepository("k"), RouterConfig{JWTSecret: secret, Owner: "alice"})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", nil).Code, "health stays public")
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/habits", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/stats", nil, "Authorization", "Bearer garbage").Code)

	other, err := util.GenerateJWT("mallory", secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/habits", nil, "Authorization", "Bearer "+other).Code)

	wrongKey, err := util.GenerateJWT("alice", "other-secret", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/habits", nil, "Authorization", "Bearer "+wrongKey).Code)

	token, err := util.GenerateJWT("alice", secret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/habits", nil, "Authorization", "Bearer "+token).Code)
}

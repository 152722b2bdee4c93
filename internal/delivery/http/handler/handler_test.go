package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anzsco-lookup/internal/delivery/http/middleware"
	"anzsco-lookup/internal/domain/occupation"
	"anzsco-lookup/internal/pkg/jwt"
	"anzsco-lookup/internal/quality"
	"anzsco-lookup/internal/search"
	"anzsco-lookup/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordsReader []occupation.Record

func (r recordsReader) Snapshot() []occupation.Record { return r }

type fakeHistory struct {
	lists map[string][]string
}

func (f *fakeHistory) List(_ context.Context, clientID string) ([]string, error) {
	return append([]string{}, f.lists[clientID]...), nil
}

func (f *fakeHistory) Remove(_ context.Context, clientID, keyword string) error {
	if strings.TrimSpace(keyword) == "" {
		return usecase.ErrInvalidInput
	}
	out := f.lists[clientID][:0]
	for _, k := range f.lists[clientID] {
		if k != keyword {
			out = append(out, k)
		}
	}
	f.lists[clientID] = out
	return nil
}

func (f *fakeHistory) Clear(_ context.Context, clientID string) error {
	delete(f.lists, clientID)
	return nil
}

type fakeDataset struct {
	refreshErr error
	refreshes  int
	cleared    bool
	ensured    int
}

func (f *fakeDataset) Refresh(context.Context) (usecase.RefreshResult, error) {
	f.refreshes++
	return usecase.RefreshResult{DurationMs: 5}, f.refreshErr
}

func (f *fakeDataset) Status(context.Context) usecase.DatasetStatus {
	return usecase.DatasetStatus{RecordCount: 2, Origin: usecase.OriginStatic}
}

func (f *fakeDataset) ClearCache(context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeDataset) EnsureFresh(context.Context) bool {
	f.ensured++
	return false
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	app     *fiber.App
	dataset *fakeDataset
	history *fakeHistory
	jwt     *jwt.HMACService
}

func testRecords() []occupation.Record {
	swe := occupation.Record{Code: "261313", AnzscoCode: "261313", EnglishName: "Software Engineer", Category: occupation.CategoryICT}
	swe.SkillLevel = 1
	swe.MLTSSL = true
	swe.IsPopular = true
	sw := occupation.Record{Code: "272511", AnzscoCode: "272511", EnglishName: "Social Worker", Category: occupation.CategorySocialWork}
	sw.SkillLevel = 1
	sw.MLTSSL = true
	return []occupation.Record{swe, sw}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tables := occupation.DefaultTables()
	reader := recordsReader(testRecords())
	searchUC := usecase.NewSearchUsecase(reader, search.NewProcessor(tables), nil, nil, 0, 0, nil)
	qualityUC := usecase.NewQualityUsecase(reader, quality.NewValidator(tables), quality.DefaultDatasetOptions())

	ts := &testServer{
		dataset: &fakeDataset{},
		history: &fakeHistory{lists: map[string][]string{"c1": {"nurse", "chef"}}},
		jwt:     jwt.NewHMACService("secret", "anzsco-lookup", time.Hour),
	}

	app := fiber.New()
	app.Use(middleware.NewErrorMiddleware(nil).Middleware())
	NewHealthHandler(nil, nil, ts.dataset).RegisterRoutes(app)
	api := app.Group("/api/v1")
	NewOccupationHandler(searchUC, ts.dataset).RegisterRoutes(api.Group("/occupations"))
	NewHistoryHandler(ts.history).RegisterRoutes(api.Group("/history"))
	NewQualityHandler(qualityUC).RegisterRoutes(api.Group("/quality"))
	NewAdminHandler(ts.dataset).RegisterRoutes(api.Group("/admin", middleware.NewAuthMiddleware(ts.jwt).Middleware()))
	app.Get("/boom", func(fiber.Ctx) error { panic("boom") })
	ts.app = app
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := ts.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(b, &env), string(b))
	return resp.StatusCode, env
}

func TestOccupationHandler_Search(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/search?q=261313&limit=5", nil))
	require.Equal(t, fiber.StatusOK, code)
	var out struct {
		Results []struct {
			AnzscoCode string `json:"anzscoCode"`
			MatchType  string `json:"matchType"`
		} `json:"results"`
		Query struct {
			Normalized string `json:"normalized"`
		} `json:"query"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	require.Len(t, out.Results, 1)
	assert.Equal(t, "261313", out.Results[0].AnzscoCode)
	assert.Equal(t, string(search.MatchExact), out.Results[0].MatchType)
	assert.Equal(t, 1, ts.dataset.ensured)

	code, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/search?q=x&limit=abc", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
	assert.Equal(t, "Bad request", env.Message)

	code, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/search?q=", nil))
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestOccupationHandler_Browse(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/category/Social%20Work", nil))
	require.Equal(t, fiber.StatusOK, code)
	var items []occupation.Record
	require.NoError(t, json.Unmarshal(env.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, "272511", items[0].Code)

	code, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/999999", nil))
	assert.Equal(t, fiber.StatusNotFound, code)

	code, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/occupations/popular", nil))
	require.Equal(t, fiber.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.Len(t, items, 1)
}

func TestHistoryHandler(t *testing.T) {
	ts := newTestServer(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/history/nurse", nil)
	req.Header.Set(HeaderClientID, "c1")
	code, _ := ts.do(t, req)
	require.Equal(t, fiber.StatusOK, code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.Header.Set(HeaderClientID, "c1")
	code, env := ts.do(t, req)
	require.Equal(t, fiber.StatusOK, code)
	assert.JSONEq(t, `["chef"]`, string(env.Data))
}

func TestQualityHandler_Validate(t *testing.T) {
	ts := newTestServer(t)

	body := `{"items":[{"code":"261313","anzscoCode":"261313","englishName":"Software Engineer","category":"ICT"},{"code":"12","englishName":"X"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/quality/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	code, env := ts.do(t, req)
	require.Equal(t, fiber.StatusOK, code)

	var report quality.DatasetReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Invalid)

	code, _ = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/quality/item/000000", nil))
	assert.Equal(t, fiber.StatusNotFound, code)
}

func TestAdminHandler_RequiresToken(t *testing.T) {
	ts := newTestServer(t)

	code, _ := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/v1/admin/dataset/refresh", nil))
	assert.Equal(t, fiber.StatusUnauthorized, code)
	assert.Equal(t, 0, ts.dataset.refreshes)

	token, _, err := ts.jwt.GenerateAccessToken("admin", jwt.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/dataset/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	code, _ = ts.do(t, req)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, 1, ts.dataset.refreshes)

	ts.dataset.refreshErr = usecase.ErrRefreshInProgress
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/dataset/refresh", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	code, env := ts.do(t, req)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Refresh already in progress", env.Message)

	viewer, _, err := ts.jwt.GenerateAccessToken("someone", "viewer")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/admin/cache", nil)
	req.Header.Set("Authorization", "Bearer "+viewer)
	code, _ = ts.do(t, req)
	assert.Equal(t, fiber.StatusForbidden, code)
	assert.False(t, ts.dataset.cleared)
}

func TestHealthAndPanicRecovery(t *testing.T) {
	ts := newTestServer(t)

	code, env := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, fiber.StatusOK, code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, componentDisabled, h.Checks["database"])
	assert.Equal(t, 2, h.Records)

	code, env = ts.do(t, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, fiber.StatusInternalServerError, code)
	assert.Equal(t, "internal server error", env.Message)
}

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jcaisse/curated-content-portal-sub001/infrastructure/jwt"
	"github.com/jcaisse/curated-content-portal-sub001/internal/api"
	"github.com/jcaisse/curated-content-portal-sub001/internal/crawl"
	"github.com/jcaisse/curated-content-portal-sub001/internal/domain"
	"github.com/jcaisse/curated-content-portal-sub001/internal/metrics"
	"github.com/jcaisse/curated-content-portal-sub001/internal/moderation"
	"github.com/jcaisse/curated-content-portal-sub001/internal/stats"
	"github.com/jcaisse/curated-content-portal-sub001/internal/testhelpers"
	"github.com/jcaisse/curated-content-portal-sub001/internal/urlhash"
)

type mockRunner struct {
	mock.Mock
}

func (r *mockRunner) Trigger(ctx context.Context, crawlerID string) error {
	return r.Called(ctx, crawlerID).Error(0)
}

type testAPI struct {
	router *gin.Engine
	store  *testhelpers.MemoryStore
	runner *mockRunner
}

func newTestAPI(t *testing.T, jwtSecret string) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := testhelpers.NewTestLogger()
	store := testhelpers.NewMemoryStore()
	runner := &mockRunner{}
	svc := moderation.NewService(store, store, log)

	router := gin.New()
	api.SetupRoutes(router, api.Handlers{
		Crawlers:   api.NewCrawlersHandler(store, runner, log, domain.DefaultMinMatchScore),
		Moderation: api.NewModerationHandler(svc, store, log),
		Keywords:   api.NewKeywordsHandler(store, log),
		Metrics:    metrics.New().Handler(),
	}, jwtSecret)

	return &testAPI{router: router, store: store, runner: runner}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (a *testAPI) seedCrawler(t *testing.T, name string, active bool) *domain.Crawler {
	t.Helper()
	c, err := a.store.CreateCrawler(context.Background(), &domain.Crawler{
		Name:          name,
		IsActive:      active,
		MinMatchScore: domain.DefaultMinMatchScore,
		Keywords:      []string{"golang"},
	})
	require.NoError(t, err)
	return c
}

func (a *testAPI) seedItem(t *testing.T, crawlerID, rawURL string) *domain.ModerationItem {
	t.Helper()
	hash, err := urlhash.Hash(rawURL)
	require.NoError(t, err)

	item, err := a.store.QueuePost(context.Background(), &domain.ModerationItem{
		CrawlerID:       crawlerID,
		URL:             rawURL,
		URLHash:         hash,
		Title:           "Title for " + rawURL,
		Content:         "golang content",
		Score:           0.9,
		MatchedKeywords: []string{"golang"},
	})
	require.NoError(t, err)
	return item
}

func (a *testAPI) seedRun(t *testing.T, crawlerID string, started time.Time, duration time.Duration, pages int) {
	t.Helper()
	ctx := context.Background()

	run := domain.NewCrawlRun(started.Format(time.RFC3339Nano), crawlerID, nil, started)
	require.NoError(t, a.store.CreateRun(ctx, run))
	require.NoError(t, run.Start(started))
	run.ItemsProcessed = pages
	require.NoError(t, run.Complete(started.Add(duration)))
	require.NoError(t, a.store.UpdateRun(ctx, run))
}

func TestCrawlersHandler_CRUD(t *testing.T) {
	a := newTestAPI(t, "")

	w := a.do(t, http.MethodPost, "/api/v1/crawlers", map[string]any{
		"name":     "  AI News ",
		"keywords": []string{"machine learning", "Machine Learning", " "},
		"sources":  []map[string]any{{"url": "https://feeds.example.com/ai.xml", "type": "RSS"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[domain.Crawler](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "AI News", created.Name)
	assert.True(t, created.IsActive)
	assert.InDelta(t, 0.75, created.MinMatchScore, 1e-9)
	assert.Equal(t, []string{"machine learning"}, created.Keywords)
	require.Len(t, created.Sources, 1)
	assert.Equal(t, domain.SourceTypeRSS, created.Sources[0].Type)
	assert.True(t, created.Sources[0].Enabled)

	w = a.do(t, http.MethodPost, "/api/v1/crawlers", map[string]any{"name": "AI News"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[domain.Crawler](t, w).ID)

	w = a.do(t, http.MethodPut, "/api/v1/crawlers/"+created.ID, map[string]any{
		"isActive": false,
		"keywords": []string{"llm"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[domain.Crawler](t, w)
	assert.Equal(t, "AI News", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{"llm"}, updated.Keywords)
	assert.Len(t, updated.Sources, 1, "sources kept when omitted")

	w = a.do(t, http.MethodGet, "/api/v1/crawlers", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = a.do(t, http.MethodDelete, "/api/v1/crawlers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrawlersHandler_CreateValidation(t *testing.T) {
	a := newTestAPI(t, "")

	tests := []struct {
		name  string
		body  any
		field string
	}{
		{name: "missing name", body: map[string]any{"name": " "}, field: "name"},
		{name: "threshold out of range", body: map[string]any{"name": "x", "minMatchScore": 1.2}, field: "minMatchScore"},
		{
			name:  "relative source url",
			body:  map[string]any{"name": "x", "sources": []map[string]any{{"url": "/feed"}}},
			field: "sources.url",
		},
		{
			name:  "unknown source type",
			body:  map[string]any{"name": "x", "sources": []map[string]any{{"url": "https://a.example.com", "type": "ftp"}}},
			field: "sources.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/api/v1/crawlers", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.field, decode[map[string]any](t, w)["field"])
		})
	}

	w := a.do(t, http.MethodPost, "/api/v1/crawlers", "not an object")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrawlersHandler_Run(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	a.runner.On("Trigger", mock.Anything, c.ID).Return(nil).Once()

	w := a.do(t, http.MethodPost, "/api/v1/crawlers/"+c.ID+"/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	body := decode[api.RunAccepted](t, w)
	assert.True(t, body.Success)
	assert.Equal(t, c.ID, body.CrawlerID)
	a.runner.AssertExpectations(t)

	tests := []struct {
		err  error
		code int
	}{
		{err: domain.ErrNotFound, code: http.StatusNotFound},
		{err: domain.ErrCrawlerInactive, code: http.StatusConflict},
		{err: crawl.ErrRunnerClosed, code: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			a.runner.On("Trigger", mock.Anything, c.ID).Return(tt.err).Once()
			w := a.do(t, http.MethodPost, "/api/v1/crawlers/"+c.ID+"/run", nil)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

func TestCrawlersHandler_Stats(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	now := time.Now().UTC()

	a.seedRun(t, c.ID, now.Add(-30*time.Minute), 2*time.Second, 10)
	a.seedRun(t, c.ID, now.Add(-2*time.Hour), 4*time.Second, 5)
	a.seedRun(t, c.ID, now.Add(-10*24*time.Hour), time.Second, 99)

	w := a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[stats.CrawlerStats](t, w)

	assert.Equal(t, 1, got.LastHour.Count)
	assert.Equal(t, 10, got.LastHour.Pages)
	assert.InDelta(t, 2000, got.LastHour.AvgMs, 1e-6)
	assert.Equal(t, 2, got.LastDay.Count)
	assert.Equal(t, 15, got.LastDay.Pages)
	assert.InDelta(t, 3000, got.LastDay.AvgMs, 1e-6)
	assert.Equal(t, 2, got.LastWeek.Count)

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/missing/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCrawlersHandler_Runs(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	now := time.Now().UTC()
	for i := range 3 {
		a.seedRun(t, c.ID, now.Add(-time.Duration(i)*time.Hour), time.Second, i)
	}

	w := a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/runs?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[struct {
		Runs  []domain.CrawlRun `json:"runs"`
		Count int               `json:"count"`
	}](t, w)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Runs, 2)
	assert.True(t, body.Runs[0].CreatedAt.After(body.Runs[1].CreatedAt))

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/runs?limit=bogus", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(3), decode[map[string]any](t, w)["count"])
}

func TestModerationHandler_QueueAndDecide(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	other := a.seedCrawler(t, "rust", true)
	item := a.seedItem(t, c.ID, "https://example.com/generics")
	foreign := a.seedItem(t, other.ID, "https://example.com/borrow")

	w := a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/moderation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = a.do(t, http.MethodPut, "/api/v1/crawlers/"+c.ID+"/moderation/"+item.ID,
		map[string]any{"status": "approved"}, "X-Moderator-ID", "mod-7")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[moderation.Result](t, w)
	assert.Equal(t, domain.ModerationStatusApproved, res.Item.Status)
	require.NotNil(t, res.Item.DecidedBy)
	assert.Equal(t, "mod-7", *res.Item.DecidedBy)
	require.NotNil(t, res.Post)
	assert.Equal(t, domain.PostStatusPublished, res.Post.Status)
	assert.Equal(t, res.Post.ID, res.Item.Metadata.PostID)

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/moderation", nil)
	assert.Equal(t, float64(0), decode[map[string]any](t, w)["count"])
	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/moderation?status=APPROVED", nil)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	tests := []struct {
		name string
		path string
		body any
		code int
	}{
		{name: "pending is not a decision", path: c.ID + "/moderation/" + item.ID, body: map[string]any{"status": "PENDING"}, code: http.StatusBadRequest},
		{name: "unknown status", path: c.ID + "/moderation/" + item.ID, body: map[string]any{"status": "LATER"}, code: http.StatusBadRequest},
		{name: "missing status", path: c.ID + "/moderation/" + item.ID, body: map[string]any{}, code: http.StatusBadRequest},
		{name: "missing item", path: c.ID + "/moderation/nope", body: map[string]any{"status": "REJECTED"}, code: http.StatusNotFound},
		{name: "item of another crawler", path: c.ID + "/moderation/" + foreign.ID, body: map[string]any{"status": "REJECTED"}, code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPut, "/api/v1/crawlers/"+tt.path, tt.body)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w = a.do(t, http.MethodGet, "/api/v1/crawlers/"+c.ID+"/moderation?status=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = a.do(t, http.MethodGet, "/api/v1/crawlers/missing/moderation", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModerationHandler_Batch(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	ids := []string{
		a.seedItem(t, c.ID, "https://example.com/1").ID,
		a.seedItem(t, c.ID, "https://example.com/2").ID,
		"missing-id",
	}

	w := a.do(t, http.MethodPost, "/api/v1/crawlers/"+c.ID+"/moderation/batch", map[string]any{
		"action":          "reject",
		"itemIds":         ids,
		"rejectionReason": "off topic",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode[api.BatchResponse](t, w)
	assert.Equal(t, 2, body.Count)
	for _, r := range body.Results {
		assert.Equal(t, domain.ModerationStatusRejected, r.Item.Status)
		require.NotNil(t, r.Item.RejectionReason)
		assert.Equal(t, "off topic", *r.Item.RejectionReason)
		require.NotNil(t, r.Item.DecidedBy)
		assert.Equal(t, "system", *r.Item.DecidedBy)
	}

	w = a.do(t, http.MethodPost, "/api/v1/crawlers/"+c.ID+"/moderation/batch", map[string]any{
		"action":  "publish",
		"itemIds": ids,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "action", decode[map[string]any](t, w)["field"])
}

func TestModerationHandler_Delete(t *testing.T) {
	a := newTestAPI(t, "")
	c := a.seedCrawler(t, "go", true)
	item := a.seedItem(t, c.ID, "https://example.com/x")

	w := a.do(t, http.MethodDelete, "/api/v1/crawlers/"+c.ID+"/moderation/"+item.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, a.store.ItemCount())

	w = a.do(t, http.MethodDelete, "/api/v1/crawlers/"+c.ID+"/moderation/"+item.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestKeywordsHandler(t *testing.T) {
	a := newTestAPI(t, "")

	w := a.do(t, http.MethodPost, "/api/v1/keywords", map[string]any{"name": " Machine Learning "})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	kw := decode[domain.Keyword](t, w)
	assert.Equal(t, "Machine Learning", kw.Name)
	assert.Equal(t, "system", kw.CreatedBy)

	w = a.do(t, http.MethodPost, "/api/v1/keywords", map[string]any{"name": "machine learning"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodPost, "/api/v1/keywords", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/v1/keywords", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, w)["count"])

	w = a.do(t, http.MethodDelete, "/api/v1/keywords/"+kw.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = a.do(t, http.MethodDelete, "/api/v1/keywords/"+kw.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuth_TokenSubjectIsModerator(t *testing.T) {
	const secret = "test-secret"
	a := newTestAPI(t, secret)
	c := a.seedCrawler(t, "go", true)
	item := a.seedItem(t, c.ID, "https://example.com/secure")

	w := a.do(t, http.MethodGet, "/api/v1/crawlers", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.Issue(secret, "alice", time.Hour)
	require.NoError(t, err)

	w = a.do(t, http.MethodPut, "/api/v1/crawlers/"+c.ID+"/moderation/"+item.ID,
		map[string]any{"status": "ARCHIVED"},
		"Authorization", "Bearer "+token, "X-Moderator-ID", "mallory")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[moderation.Result](t, w)
	require.NotNil(t, res.Item.DecidedBy)
	assert.Equal(t, "alice", *res.Item.DecidedBy)
	assert.Nil(t, res.Post)

	w = a.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

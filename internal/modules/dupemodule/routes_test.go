package dupemodule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediakeep/mediakeep/internal/config"
	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/modules/dupemodule/dupes"
)

type stubCatalog struct {
	mu    sync.Mutex
	files []dupes.File
	block chan struct{}
}

func (c *stubCatalog) ListFiles() ([]dupes.File, error) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.files, nil
}

type stubFingerprinter struct{}

func (stubFingerprinter) Fingerprint(f dupes.File) (dupes.Fingerprint, error) {
	// Files of equal size count as identical content.
	return dupes.Fingerprint{ExactHash: fmt.Sprintf("size-%d", f.SizeBytes)}, nil
}

type stubDeleter struct {
	mu      sync.Mutex
	deleted []string
}

func (d *stubDeleter) Delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, path)
	return nil
}

func setupTestModule(t *testing.T, catalog dupes.Catalog) (*Module, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&database.DuplicateGroupRow{},
		&database.DuplicateMemberRow{},
		&database.DuplicateResultStateRow{},
		&database.DuplicateScanRow{},
	))

	store := dupes.NewStore(db)
	require.NoError(t, store.Load())

	engine := dupes.NewEngine(stubFingerprinter{}, config.DuplicatesConfig{})
	deleter := &stubDeleter{}
	manager := dupes.NewManager(db, catalog, engine, store, nil, deleter)

	m := &Module{
		id:      ModuleID,
		name:    ModuleName,
		core:    true,
		db:      db,
		manager: manager,
		session: dupes.NewSession(store, deleter),
	}

	router := gin.New()
	m.RegisterRoutes(router)
	return m, router
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func waitForScan(t *testing.T, router *gin.Engine) {
	t.Helper()
	require.Eventually(t, func() bool {
		w := doRequest(router, http.MethodGet, "/api/duplicates/scan/status", nil)
		return decodeBody(t, w)["is_running"] == false
	}, 5*time.Second, 5*time.Millisecond)
}

func duplicatePair() []dupes.File {
	return []dupes.File{
		{Path: "/a.mp4", MediaType: dupes.MediaTypeVideo, SizeBytes: 1000, Width: 3840, Height: 2160, DurationSeconds: 60},
		{Path: "/b.mp4", MediaType: dupes.MediaTypeVideo, SizeBytes: 1000, Width: 1920, Height: 1080, DurationSeconds: 62},
	}
}

func TestScanStart_AcceptedThenConflict(t *testing.T) {
	catalog := &stubCatalog{block: make(chan struct{})}
	_, router := setupTestModule(t, catalog)

	w := doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(catalog.block)
	waitForScan(t, router)
}

func TestScanStatus_ReportsProgress(t *testing.T) {
	_, router := setupTestModule(t, &stubCatalog{})

	w := doRequest(router, http.MethodGet, "/api/duplicates/scan/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "idle", body["status"])
	assert.Equal(t, false, body["is_running"])
	assert.Equal(t, float64(0), body["progress"])
}

func TestGetResults_EmptyBeforeFirstScan(t *testing.T) {
	_, router := setupTestModule(t, &stubCatalog{})

	w := doRequest(router, http.MethodGet, "/api/duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["has_results"])
}

func TestScanThenGetResults(t *testing.T) {
	// Equal sizes share a stub hash, so the scan yields one exact
	// group once both files land in the same bucket.
	files := duplicatePair()
	files[1].Height = 2160 // same dimension bucket as the 4K file
	_, router := setupTestModule(t, &stubCatalog{files: files})

	w := doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	waitForScan(t, router)

	w = doRequest(router, http.MethodGet, "/api/duplicates", nil)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["has_results"])

	groups := body["groups"].([]interface{})
	require.Len(t, groups, 1)
	group := groups[0].(map[string]interface{})
	assert.Equal(t, "exact", group["match_type"])
	assert.Equal(t, "/a.mp4", group["recommended_keep"])
}

func TestDeleteEndpoint_RequiresPaths(t *testing.T) {
	_, router := setupTestModule(t, &stubCatalog{})

	w := doRequest(router, http.MethodPost, "/api/duplicates/delete", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/duplicates/delete", map[string]interface{}{"paths": []string{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteEndpoint_ReportsPerPathOutcome(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)

	w := doRequest(router, http.MethodPost, "/api/duplicates/delete",
		map[string]interface{}{"paths": []string{"/b.mp4", "/stale.mp4"}})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, []interface{}{"/b.mp4"}, body["deleted"])
	require.Len(t, body["failed"].([]interface{}), 1)
	assert.Equal(t, float64(1000), body["freed_bytes"])
}

func TestClearEndpoint(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)

	w := doRequest(router, http.MethodPost, "/api/duplicates/clear", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodGet, "/api/duplicates", nil)
	assert.Equal(t, false, decodeBody(t, w)["has_results"])
}

func TestDismissGroupEndpoint(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)

	w := doRequest(router, http.MethodGet, "/api/duplicates", nil)
	groups := decodeBody(t, w)["groups"].([]interface{})
	require.Len(t, groups, 1)
	groupID := groups[0].(map[string]interface{})["id"].(string)

	w = doRequest(router, http.MethodDelete, "/api/duplicates/groups/"+groupID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, http.MethodDelete, "/api/duplicates/groups/"+groupID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/duplicates", nil)
	assert.Empty(t, decodeBody(t, w)["groups"])
}

func TestReviewEndpoints_EmptyResults(t *testing.T) {
	_, router := setupTestModule(t, &stubCatalog{})

	w := doRequest(router, http.MethodPost, "/api/duplicates/review/open", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, http.MethodGet, "/api/duplicates/review/current", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewEndpoints_KeepFlow(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)

	w := doRequest(router, http.MethodPost, "/api/duplicates/review/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["cursor"])
	assert.Equal(t, float64(1), body["total_groups"])

	w = doRequest(router, http.MethodPost, "/api/duplicates/review/keep",
		map[string]interface{}{"side": 0})
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Equal(t, []interface{}{"/b.mp4"}, body["deleted"])
	assert.Equal(t, true, body["done"])

	// The pass auto-closed after the last group.
	w = doRequest(router, http.MethodGet, "/api/duplicates/review/current", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestReviewEndpoints_KeepRequiresSide(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)
	doRequest(router, http.MethodPost, "/api/duplicates/review/open", nil)

	w := doRequest(router, http.MethodPost, "/api/duplicates/review/keep",
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewEndpoints_SkipAndClose(t *testing.T) {
	files := duplicatePair()
	files[1].Height = 2160
	_, router := setupTestModule(t, &stubCatalog{files: files})

	doRequest(router, http.MethodPost, "/api/duplicates/scan/start", nil)
	waitForScan(t, router)
	doRequest(router, http.MethodPost, "/api/duplicates/review/open", nil)

	w := doRequest(router, http.MethodPost, "/api/duplicates/review/skip", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decodeBody(t, w)["done"])

	w = doRequest(router, http.MethodPost, "/api/duplicates/review/close", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

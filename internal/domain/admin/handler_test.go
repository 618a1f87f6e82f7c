package admin

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"burnbin/internal/domain/activity"
	"burnbin/internal/domain/registry"
	"burnbin/internal/domain/session"
	"burnbin/internal/domain/transfer"
	"burnbin/internal/domain/upload"
	"burnbin/internal/pkg/jwt"
)

type testEnv struct {
	router  *gin.Engine
	reg     *registry.Registry
	uploads *upload.Service
	log     *activity.Log
	token   string
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{log: activity.NewQuiet()}
	env.reg = registry.New(nil, env.log)

	var err error
	env.uploads, err = upload.NewService(env.reg, filepath.Join(t.TempDir(), "uploads"), env.log)
	require.NoError(t, err)

	metrics := transfer.NewMetrics()
	t.Cleanup(metrics.Close)
	jwtService := jwt.New("test-secret", time.Hour)

	svc := NewService(Deps{
		Registry:     env.reg,
		Promoter:     env.uploads,
		Sessions:     session.NewTracker(),
		Activity:     env.log,
		Metrics:      metrics,
		JWT:          jwtService,
		PasswordHash: hashPassword(t, "hunter2"),
	})

	env.router = gin.New()
	RegisterRoutes(env.router, NewHandler(svc, "https://share.example"), jwtService)

	env.token, err = jwtService.GenerateToken(jwt.RoleOperator, jwt.RoleOperator)
	require.NoError(t, err)
	return env
}

func (env *testEnv) do(method, target string, body any, authorized bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", "Bearer "+env.token)
	}
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	return rr
}

func (env *testEnv) upload(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	id, err := env.reg.Register(path, registry.KindUploaded, registry.WithUploader("198.51.100.7"))
	require.NoError(t, err)
	return id
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	rr := env.do(http.MethodPost, "/api/admin/login", gin.H{"password": "hunter2"}, false)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)

	rr = env.do(http.MethodPost, "/api/admin/login", gin.H{"password": "nope"}, false)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(http.MethodPost, "/api/admin/login", gin.H{}, false)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	env := setupTestRouter(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/admin/shared"},
		{http.MethodDelete, "/api/admin/shared/x"},
		{http.MethodDelete, "/api/admin/uploads/x"},
		{http.MethodPost, "/api/admin/uploads/x/share"},
		{http.MethodGet, "/api/admin/activity"},
		{http.MethodGet, "/api/admin/stats"},
		{http.MethodPost, "/api/admin/persist"},
	} {
		rr := env.do(tc.method, tc.target, nil, false)
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.target)
	}
}

func TestShareAndRemove(t *testing.T) {
	env := setupTestRouter(t)
	path := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(path, make([]byte, 3*1024*1024), 0644))

	rr := env.do(http.MethodPost, "/api/admin/shared", gin.H{"path": path}, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var shared SharedFileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shared))
	assert.Equal(t, "report.pdf", shared.Name)
	assert.Equal(t, "3.00 MB", shared.Size)
	assert.Equal(t, "https://share.example/download/"+shared.ID, shared.DownloadURL)
	assert.Equal(t, 1, env.reg.Len(registry.KindShared))

	rr = env.do(http.MethodDelete, "/api/admin/shared/"+shared.ID, nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, env.reg.Len(registry.KindShared))
	_, err := os.Stat(path)
	assert.NoError(t, err, "shared file must stay on disk")

	rr = env.do(http.MethodDelete, "/api/admin/shared/"+shared.ID, nil, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestShareMissingPath(t *testing.T) {
	env := setupTestRouter(t)

	rr := env.do(http.MethodPost, "/api/admin/shared", gin.H{"path": filepath.Join(t.TempDir(), "nope")}, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"Path does not exist"}`, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/admin/shared", gin.H{"path": " "}, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRemoveUploadDeletesBytes(t *testing.T) {
	env := setupTestRouter(t)
	id := env.upload(t, "photo.png", []byte("png"))
	e, err := env.reg.Get(id)
	require.NoError(t, err)

	// an upload id is not a shared id
	rr := env.do(http.MethodDelete, "/api/admin/shared/"+id, nil, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = env.do(http.MethodDelete, "/api/admin/uploads/"+id, nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	_, err = os.Stat(e.Path)
	assert.True(t, os.IsNotExist(err))
}

func TestPromoteUpload(t *testing.T) {
	env := setupTestRouter(t)
	id := env.upload(t, "clip.mp4", []byte("mp4"))

	rr := env.do(http.MethodPost, "/api/admin/uploads/"+id+"/share", nil, true)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var shared SharedFileResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &shared))
	assert.NotEqual(t, id, shared.ID)
	assert.Equal(t, "clip.mp4", shared.Name)

	assert.Equal(t, 1, env.reg.Len(registry.KindShared))
	assert.Equal(t, 1, env.reg.Len(registry.KindUploaded))

	rr = env.do(http.MethodPost, "/api/admin/uploads/unknown/share", nil, true)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestActivityEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	env.log.Append("first")
	env.log.Append("second")

	rr := env.do(http.MethodGet, "/api/admin/activity?since=1", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Entries []ActivityEntryDTO `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "second", body.Entries[0].Message)
	assert.Len(t, body.Entries[0].Time, len("15:04:05"))

	rr = env.do(http.MethodGet, "/api/admin/activity?since=-2", nil, true)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStatsEndpoint(t *testing.T) {
	env := setupTestRouter(t)
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
	_, err := env.reg.Register(path, registry.KindShared)
	require.NoError(t, err)

	rr := env.do(http.MethodGet, "/api/admin/stats", nil, true)
	require.Equal(t, http.StatusOK, rr.Code)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.SharedFiles)
	assert.Zero(t, stats.UploadedFiles)
	assert.Zero(t, stats.Transfers.StartedStreams)
}

func TestPersistEndpoint(t *testing.T) {
	env := setupTestRouter(t)

	rr := env.do(http.MethodPost, "/api/admin/persist", nil, true)
	assert.Equal(t, http.StatusOK, rr.Code)
}

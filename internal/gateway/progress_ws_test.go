package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/auth"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// scriptedSnapshots replays a fixed sequence of poll results, repeating the
// last entry once the script is exhausted
type scriptedSnapshots struct {
	mu     sync.Mutex
	script []snapshotStep
	calls  int
}

type snapshotStep struct {
	snapshot *models.ProgressUpdate
	err      error
}

func (s *scriptedSnapshots) Get(ctx context.Context, sessionID string) (*models.ProgressUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.script) {
		i = len(s.script) - 1
	}
	s.calls++
	step := s.script[i]
	return step.snapshot, step.err
}

func newStreamServer(t *testing.T, source SnapshotSource, maxStream time.Duration) (*httptest.Server, string) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret-key-for-testing-purposes-only")

	jwtManager, err := auth.NewJWTManager()
	require.NoError(t, err)
	token, err := jwtManager.GenerateToken(context.Background(), "user-1", "user@example.com", []string{"user"}, time.Hour)
	require.NoError(t, err)

	stream := NewProgressStream(source, jwtManager)
	stream.pollEvery = 5 * time.Millisecond
	stream.maxStream = maxStream

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/ws/generations/:id", stream.StreamProgress)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, token
}

func dialStream(t *testing.T, server *httptest.Server, sessionID, token string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(fmt.Sprintf("%s/api/ws/generations/%s?token=%s", wsURL, sessionID, token), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStreamProgressDeliversUntilCompleted(t *testing.T) {
	source := &scriptedSnapshots{script: []snapshotStep{
		{snapshot: nil},
		{snapshot: &models.ProgressUpdate{Phase: models.PhasePlanning, Progress: 0, Status: models.StatusGenerating}},
		{snapshot: &models.ProgressUpdate{Phase: models.PhasePlanning, Progress: 0, Status: models.StatusGenerating}},
		{err: fmt.Errorf("redis hiccup")},
		{snapshot: &models.ProgressUpdate{Phase: models.PhaseCore, Progress: 33, Status: models.StatusGenerating}},
		{snapshot: &models.ProgressUpdate{Phase: models.PhaseComplete, Progress: 100, Status: models.StatusCompleted}},
	}}
	server, token := newStreamServer(t, source, time.Minute)
	conn := dialStream(t, server, "sess-ws-1", token)

	var received []models.ProgressUpdate
	for {
		var update models.ProgressUpdate
		if err := conn.ReadJSON(&update); err != nil {
			break
		}
		received = append(received, update)
	}

	// The nil snapshot, the duplicate and the poll error are all absorbed;
	// only distinct snapshots reach the client, and the stream closes on the
	// completed one.
	require.Len(t, received, 3)
	assert.Equal(t, models.PhasePlanning, received[0].Phase)
	assert.Equal(t, models.PhaseCore, received[1].Phase)
	assert.Equal(t, models.StatusCompleted, received[2].Status)
	assert.Equal(t, 100, received[2].Progress)
}

func TestStreamProgressClosesOnErrorStatus(t *testing.T) {
	source := &scriptedSnapshots{script: []snapshotStep{
		{snapshot: &models.ProgressUpdate{Phase: models.PhaseCustomization, Progress: 0, Status: models.StatusError}},
	}}
	server, token := newStreamServer(t, source, time.Minute)
	conn := dialStream(t, server, "sess-ws-2", token)

	var update models.ProgressUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, models.StatusError, update.Status)

	assert.Error(t, conn.ReadJSON(&update))
}

func TestStreamProgressDeadline(t *testing.T) {
	// A session that never terminates only ever produces one distinct
	// snapshot, then the stream's max duration closes the connection
	source := &scriptedSnapshots{script: []snapshotStep{
		{snapshot: &models.ProgressUpdate{Phase: models.PhaseFoundation, Progress: 16, Status: models.StatusGenerating}},
	}}
	server, token := newStreamServer(t, source, 100*time.Millisecond)
	conn := dialStream(t, server, "sess-ws-3", token)

	var update models.ProgressUpdate
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, models.PhaseFoundation, update.Phase)

	assert.Error(t, conn.ReadJSON(&update))
}

func TestStreamProgressRejectsMissingToken(t *testing.T) {
	source := &scriptedSnapshots{script: []snapshotStep{{snapshot: nil}}}
	server, _ := newStreamServer(t, source, time.Minute)

	resp, err := http.Get(server.URL + "/api/ws/generations/sess-ws-4")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSameSnapshot(t *testing.T) {
	a := &models.ProgressUpdate{Phase: models.PhaseCore, Progress: 33, Status: models.StatusGenerating}
	b := &models.ProgressUpdate{Phase: models.PhaseCore, Progress: 33, Status: models.StatusGenerating}
	c := &models.ProgressUpdate{Phase: models.PhaseStyling, Progress: 50, Status: models.StatusGenerating}

	assert.True(t, sameSnapshot(a, b))
	assert.False(t, sameSnapshot(a, c))
	assert.False(t, sameSnapshot(nil, a))
	assert.False(t, sameSnapshot(a, nil))

	// A repeated completed snapshot with an attached result still counts as
	// the same snapshot; the result payload is not compared
	done1 := &models.ProgressUpdate{Phase: models.PhaseComplete, Progress: 100, Status: models.StatusCompleted, Result: &models.GenerationResult{}}
	done2 := &models.ProgressUpdate{Phase: models.PhaseComplete, Progress: 100, Status: models.StatusCompleted}
	assert.True(t, sameSnapshot(done1, done2))
}

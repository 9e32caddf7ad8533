package gateway

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/auth"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
)

// SnapshotSource reads the latest progress snapshot for a session. A nil
// snapshot with nil error means no progress has been posted yet.
type SnapshotSource interface {
	Get(ctx context.Context, sessionID string) (*models.ProgressUpdate, error)
}

// ProgressStream pushes progress snapshots for one generation session over a
// WebSocket, polling the progress store until the session reaches a terminal
// status.
type ProgressStream struct {
	progress   SnapshotSource
	jwtManager *auth.JWTManager
	tracer     trace.Tracer
	upgrader   websocket.Upgrader
	pollEvery  time.Duration
	maxStream  time.Duration
}

// NewProgressStream creates a WebSocket progress streamer
func NewProgressStream(progressStore SnapshotSource, jwtManager *auth.JWTManager) *ProgressStream {
	return &ProgressStream{
		progress:   progressStore,
		jwtManager: jwtManager,
		tracer:     otel.Tracer("progress-stream"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			HandshakeTimeout: 10 * time.Second,
		},
		pollEvery: time.Second,
		maxStream: 15 * time.Minute,
	}
}

// StreamProgress handles WebSocket /api/ws/generations/:id
// @Summary Stream generation progress
// @Description WebSocket endpoint streaming progress snapshots until completion
// @Tags generations
// @Param id path string true "Session ID"
// @Param token query string true "JWT token"
// @Success 101 "Switching Protocols"
// @Failure 401 {object} map[string]string
// @Router /ws/generations/{id} [get]
func (p *ProgressStream) StreamProgress(c *gin.Context) {
	ctx, span := p.tracer.Start(c.Request.Context(), "progress_stream.stream")
	defer span.End()

	sessionID := c.Param("id")
	span.SetAttributes(attribute.String("session.id", sessionID))

	token := auth.TokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing JWT token"})
		return
	}
	claims, err := p.jwtManager.ValidateToken(ctx, token)
	if err != nil {
		span.RecordError(err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	span.SetAttributes(attribute.String("user.id", claims.UserID))

	conn, err := p.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Printf(`{"level":"error","message":"WebSocket upgrade failed","session_id":"%s","error":"%v"}`, sessionID, err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()
	deadline := time.NewTimer(p.maxStream)
	defer deadline.Stop()

	var lastSent *models.ProgressUpdate
	for {
		select {
		case <-deadline.C:
			log.Printf(`{"level":"warn","message":"Progress stream reached max duration","session_id":"%s"}`, sessionID)
			return
		case <-ticker.C:
			snapshot, err := p.progress.Get(ctx, sessionID)
			if err != nil {
				log.Printf(`{"level":"error","message":"Progress poll failed","session_id":"%s","error":"%v"}`, sessionID, err)
				continue
			}
			if snapshot == nil || sameSnapshot(lastSent, snapshot) {
				continue
			}

			if err := conn.WriteJSON(snapshot); err != nil {
				// Client gone
				return
			}
			lastSent = snapshot

			if snapshot.Status == models.StatusCompleted || snapshot.Status == models.StatusError {
				return
			}
		}
	}
}

func sameSnapshot(a, b *models.ProgressUpdate) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Phase == b.Phase && a.Progress == b.Progress && a.Status == b.Status
}

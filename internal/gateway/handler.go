package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/appfoundry/app-builder/generation-orchestrator/internal/auth"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/generation"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/models"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/progress"
	"github.com/appfoundry/app-builder/generation-orchestrator/internal/template"
)

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	orchestrator *generation.Orchestrator
	matcher      *template.Matcher
	customizer   *template.Customizer
	registry     *template.Registry
	progress     *progress.Store
	jwtManager   *auth.JWTManager
	pool         *pgxpool.Pool
}

// NewHandler creates a new gateway handler
func NewHandler(
	orchestrator *generation.Orchestrator,
	matcher *template.Matcher,
	customizer *template.Customizer,
	registry *template.Registry,
	progressStore *progress.Store,
	jwtManager *auth.JWTManager,
	pool *pgxpool.Pool,
) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		matcher:      matcher,
		customizer:   customizer,
		registry:     registry,
		progress:     progressStore,
		jwtManager:   jwtManager,
		pool:         pool,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// Login godoc
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var userID string
	var hashedPassword string
	err := h.pool.QueryRow(c.Request.Context(),
		`SELECT id, hashed_password FROM users WHERE email = $1`,
		req.Email,
	).Scan(&userID, &hashedPassword)

	if err != nil {
		log.Printf(`{"level":"warn","message":"User not found","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(req.Password)); err != nil {
		log.Printf(`{"level":"warn","message":"Invalid password","email":"%s"}`, req.Email)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := h.jwtManager.GenerateToken(
		c.Request.Context(),
		userID,
		req.Email,
		[]string{"user"},
		24*time.Hour,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:  token,
		UserID: userID,
	})
}

// StartGenerationResponse represents the accepted-generation response
type StartGenerationResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// StartGeneration godoc
// @Summary Start app generation
// @Description Validate requirements and start an asynchronous generation run
// @Tags generations
// @Accept json
// @Produce json
// @Param request body models.UserRequirements true "App requirements"
// @Success 202 {object} StartGenerationResponse
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /generations [post]
func (h *Handler) StartGeneration(c *gin.Context) {
	var req models.UserRequirements
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body", Code: models.ErrCodeInvalidRequest,
		})
		return
	}

	if err := generation.ValidateRequirements(req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: err.Error(), Code: models.ErrCodeValidationFailed,
		})
		return
	}

	sessionID := uuid.New().String()

	// The run is detached from the request context: a client disconnect must
	// not cancel a generation mid-phase.
	go func() {
		ctx := context.Background()
		if _, err := h.orchestrator.Run(ctx, req, sessionID); err != nil {
			log.Printf(`{"level":"error","message":"Generation run failed","session_id":"%s","error":"%v"}`, sessionID, err)
		}
	}()

	c.JSON(http.StatusAccepted, StartGenerationResponse{
		SessionID: sessionID,
		Status:    models.StatusGenerating,
	})
}

// GetProgress godoc
// @Summary Get generation progress
// @Description Return the latest progress snapshot for a generation session
// @Tags generations
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} models.ProgressUpdate
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /generations/{id}/progress [get]
func (h *Handler) GetProgress(c *gin.Context) {
	sessionID := c.Param("id")

	snapshot, err := h.progress.Get(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to read progress","session_id":"%s","error":"%v"}`, sessionID, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to read progress", Code: models.ErrCodeInternalError,
		})
		return
	}
	if snapshot == nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: "No progress recorded for session", Code: models.ErrCodeNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// MatchTemplates godoc
// @Summary Match templates
// @Description Score registered templates against a requirements payload
// @Tags templates
// @Accept json
// @Produce json
// @Param request body models.UserRequirements true "App requirements"
// @Success 200 {object} models.SelectionResult
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /templates/match [post]
func (h *Handler) MatchTemplates(c *gin.Context) {
	var req models.UserRequirements
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body", Code: models.ErrCodeInvalidRequest,
		})
		return
	}

	c.JSON(http.StatusOK, h.matcher.Select(req))
}

// ListTemplates godoc
// @Summary List templates
// @Description Return the registered template catalog
// @Tags templates
// @Produce json
// @Success 200 {array} models.TemplateDefinition
// @Security BearerAuth
// @Router /templates [get]
func (h *Handler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

// CustomizeTemplate godoc
// @Summary Customize a template
// @Description Apply variable substitution and LLM customization to a named template
// @Tags templates
// @Accept json
// @Produce json
// @Param name path string true "Template name"
// @Param request body models.UserRequirements true "App requirements"
// @Success 200 {object} models.CustomizedApp
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /templates/{name}/customize [post]
func (h *Handler) CustomizeTemplate(c *gin.Context) {
	name := c.Param("name")

	var req models.UserRequirements
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request body", Code: models.ErrCodeInvalidRequest,
		})
		return
	}

	app, err := h.customizer.Customize(c.Request.Context(), name, req)
	if err != nil {
		if errors.Is(err, template.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Error: err.Error(), Code: models.ErrCodeTemplateNotFound,
			})
			return
		}
		log.Printf(`{"level":"error","message":"Template customization failed","template":"%s","error":"%v"}`, name, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Customization failed", Code: models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, app)
}

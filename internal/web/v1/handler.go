package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/duynhne/credential-service/internal/core/domain"
	logicv1 "github.com/duynhne/credential-service/internal/logic/v1"
	"github.com/duynhne/credential-service/internal/session"
	"github.com/duynhne/credential-service/middleware"
)

// Response is the envelope returned by every auth endpoint.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Handler groups HTTP handlers for the auth API v1.
// Dependencies are injected via the constructor — no global state.
type Handler struct {
	auth      *logicv1.AuthService
	authority *session.Authority
}

// NewHandler creates a new Handler with the given AuthService and session
// Authority.
func NewHandler(auth *logicv1.AuthService, authority *session.Authority) *Handler {
	return &Handler{auth: auth, authority: authority}
}

// RegisterRoutes registers all auth API v1 routes on the given router group.
// The group must already carry the session-resolution middleware.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/signup", h.Signup)
	rg.POST("/login", h.Login)
	rg.GET("/logout", h.Logout)
	rg.GET("/user", middleware.RequireUser(), h.GetUser)
}

// Signup handles HTTP request for user registration.
func (h *Handler) Signup(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Error().Err(err).Msg("Invalid signup form")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	sess, err := h.auth.Signup(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("username", req.Username).Msg("Signup failed")

		switch {
		case errors.Is(err, logicv1.ErrUsernameTaken):
			c.JSON(http.StatusConflict, Response{Success: false, Message: "Username already used"})
		default:
			c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Failed to create user"})
		}
		return
	}

	// Append rather than replace: other middleware may have set cookies.
	c.Writer.Header().Add("Set-Cookie", h.authority.Cookie(sess.ID).String())

	logger.Info().Str("user_id", sess.UserID).Msg("Signup successful")
	c.JSON(http.StatusCreated, Response{Success: true, Message: "User Created"})
}

// Login handles HTTP request for user login.
func (h *Handler) Login(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	var req domain.CredentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		span.SetAttributes(attribute.Bool("request.valid", false))
		span.RecordError(err)
		logger.Error().Err(err).Msg("Invalid login form")
		c.JSON(http.StatusBadRequest, Response{Success: false, Message: err.Error()})
		return
	}

	span.SetAttributes(attribute.Bool("request.valid", true))

	sess, err := h.auth.Login(ctx, req)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")

		// Distinct 401 messages for unknown username vs bad password are
		// part of the endpoint contract.
		switch {
		case errors.Is(err, logicv1.ErrIncorrectUsername):
			c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "Incorrect username"})
		case errors.Is(err, logicv1.ErrIncorrectPassword):
			c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "Incorrect password"})
		default:
			c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Internal server error"})
		}
		return
	}

	c.Writer.Header().Add("Set-Cookie", h.authority.Cookie(sess.ID).String())

	logger.Info().Str("user_id", sess.UserID).Msg("Login successful")
	c.JSON(http.StatusOK, Response{Success: true, Message: "Logged In"})
}

// Logout handles HTTP request for logging out the current session.
// Without a resolved session it redirects home with no side effects, which
// makes repeated logouts harmless.
func (h *Handler) Logout(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := h.auth.Logout(ctx, sess.ID); err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Msg("Logout failed")
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Internal server error"})
		return
	}

	// Replace any previously set session cookie with the clearing one.
	c.Writer.Header().Set("Set-Cookie", h.authority.BlankCookie().String())

	logger.Info().Str("user_id", sess.UserID).Msg("Logout successful")
	c.Redirect(http.StatusFound, "/")
}

// GetUser handles HTTP request for the current authenticated user.
// Registered behind RequireUser, so the user id is present in the context.
func (h *Handler) GetUser(c *gin.Context) {
	ctx, span := middleware.StartSpan(c.Request.Context(), "http.request", trace.WithAttributes(
		attribute.String("layer", "web"),
		attribute.String("method", c.Request.Method),
		attribute.String("path", c.Request.URL.Path),
	))
	defer span.End()

	logger := zerolog.Ctx(ctx)

	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		// The guard should have rejected this request already.
		c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "Unauthorized"})
		return
	}

	username, err := h.auth.CurrentUsername(ctx, userID)
	if err != nil {
		span.RecordError(err)
		logger.Error().Err(err).Str("user_id", userID).Msg("User lookup failed")
		c.JSON(http.StatusInternalServerError, Response{Success: false, Message: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "User fetched",
		Data:    gin.H{"username": username},
	})
}

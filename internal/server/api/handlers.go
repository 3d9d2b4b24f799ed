package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"jshell/internal/server/database"
	"jshell/internal/server/service"

	"github.com/labstack/echo/v4"
)

// Handler contains the HTTP handlers for the shell session API.
type Handler struct {
	svc *service.SessionService
	db  *database.DB // nil when the audit log is disabled
}

// NewHandler creates a new handler. db may be nil.
func NewHandler(svc *service.SessionService, db *database.DB) *Handler {
	return &Handler{svc: svc, db: db}
}

type createSessionRequest struct {
	Password string `json:"password"`
}

type issueTokenRequest struct {
	Password string `json:"password"`
}

type execRequest struct {
	Command string `json:"command"`
}

// HandleCreateSession handles POST /api/sessions.
func (h *Handler) HandleCreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := h.svc.CreateSession(c.Request().Context(), req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// HandleIssueToken handles POST /api/sessions/:id/token.
func (h *Handler) HandleIssueToken(c echo.Context) error {
	var req issueTokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := h.svc.IssueToken(c.Request().Context(), c.Param("id"), req.Password)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleExec handles POST /api/sessions/:id/exec.
// Shell errors are part of a successful response; only session and
// transport failures produce an error status.
func (h *Handler) HandleExec(c echo.Context) error {
	var req execRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	result, err := h.svc.Exec(c.Request().Context(), c.Param("id"), bearerToken(c), req.Command)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// HandleTree handles GET /api/sessions/:id/tree.
func (h *Handler) HandleTree(c echo.Context) error {
	snap, err := h.svc.Snapshot(c.Request().Context(), c.Param("id"), bearerToken(c))
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, snap)
}

// HandleArchive handles GET /api/sessions/:id/archive.
func (h *Handler) HandleArchive(c echo.Context) error {
	id := c.Param("id")
	data, err := h.svc.Archive(c.Request().Context(), id, bearerToken(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", "jshell-"+id+".zip"))
	return c.Blob(http.StatusOK, "application/zip", data)
}

// HandleHistory handles GET /api/sessions/:id/history.
func (h *Handler) HandleHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be a non-negative integer"})
		}
		limit = n
	}

	history, err := h.svc.History(c.Request().Context(), c.Param("id"), bearerToken(c), limit)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"commands": history})
}

// HandleDelete handles DELETE /api/sessions/:id.
func (h *Handler) HandleDelete(c echo.Context) error {
	if err := h.svc.DeleteSession(c.Request().Context(), c.Param("id"), bearerToken(c)); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "session closed"})
}

// HandleHealth handles GET /health.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "disabled"

	if h.db != nil {
		dbStatus = "connected"
		if err := h.db.HealthCheck(c.Request().Context()); err != nil {
			status = "degraded"
			dbStatus = fmt.Sprintf("error: %v", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}
	return c.JSON(http.StatusOK, stats)
}

// bearerToken reads the session token from the Authorization header,
// falling back to the "token" query param on every route so links such as
// archive downloads work from a browser.
func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return c.QueryParam("token")
}

// mapServiceError translates service-layer errors into HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "session not found"})
	case errors.Is(err, service.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "session has expired"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or missing session token"})
	case errors.Is(err, service.ErrPasswordRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "password_required"})
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrNoPassword):
		return c.JSON(http.StatusConflict, echo.Map{"error": "session was created without a password"})
	case errors.Is(err, service.ErrCommandTooLong):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrTooManySessions), errors.Is(err, service.ErrHistoryUnavailable):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

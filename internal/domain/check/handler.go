package check

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/symcheck/symcheck/pkg/pagination"
)

// Handler exposes the symptom check API. Every response uses the
// {success, ...} envelope; error bodies are {success:false, error}.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/check", h.RunCheck)
	g.GET("/health", h.Health)
	g.GET("", h.ListChecks)
	g.GET("/:id", h.GetCheck)
	g.DELETE("/:id", h.DeleteCheck)
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Message string `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) RunCheck(c echo.Context) error {
	var req CheckRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	rec, err := h.svc.RunCheck(c.Request().Context(), req, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return h.respondFailure(c, err)
	}
	return c.JSON(http.StatusCreated, envelope{Success: true, Data: rec.Projection()})
}

func (h *Handler) Health(c echo.Context) error {
	if err := h.svc.Health(c.Request().Context()); err != nil {
		return respondError(c, http.StatusInternalServerError, "symptom checker service is unavailable")
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "symptom checker service is operational"})
}

func (h *Handler) ListChecks(c echo.Context) error {
	pg := pagination.FromContext(c)
	records, err := h.svc.ListByUser(c.Request().Context(), c.QueryParam("userId"), pg.Limit)
	if err != nil {
		return h.respondFailure(c, err)
	}

	results := make([]CheckResult, 0, len(records))
	for _, rec := range records {
		results = append(results, rec.Projection())
	}
	count := len(results)
	return c.JSON(http.StatusOK, envelope{Success: true, Count: &count, Data: results})
}

func (h *Handler) GetCheck(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid record id")
	}
	rec, err := h.svc.GetByID(c.Request().Context(), id)
	if err != nil {
		return h.respondFailure(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Data: rec.Projection()})
}

func (h *Handler) DeleteCheck(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, "invalid record id")
	}
	if err := h.svc.DeleteRecord(c.Request().Context(), id); err != nil {
		return h.respondFailure(c, err)
	}
	return c.JSON(http.StatusOK, envelope{Success: true, Message: "symptom check record deleted"})
}

// respondFailure maps the service's error taxonomy onto HTTP statuses.
// Upstream failure details never reach the caller except the rate-limit
// message, which is passed through verbatim.
func (h *Handler) respondFailure(c echo.Context, err error) error {
	var (
		validation  *ValidationError
		rateLimited *RateLimitedError
		persistence *PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		return respondError(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, ErrNoEvidence):
		return respondError(c, http.StatusBadRequest, ErrNoEvidence.Error()+"; please describe your symptoms differently")
	case errors.Is(err, ErrNotFound):
		return respondError(c, http.StatusNotFound, ErrNotFound.Error())
	case errors.Is(err, ErrUpstreamAuth):
		return respondError(c, http.StatusInternalServerError, "symptom checker service is misconfigured")
	case errors.As(err, &rateLimited):
		return respondError(c, http.StatusTooManyRequests, rateLimited.Error())
	case errors.As(err, &persistence):
		return respondError(c, http.StatusInternalServerError, "failed to store symptom check record")
	default:
		return respondError(c, http.StatusInternalServerError, "an unexpected error occurred")
	}
}

func respondError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorEnvelope{Success: false, Error: message})
}

package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/symcheck/symcheck/internal/platform/auth"
)

// auditPathPrefix selects the routes whose access is audited.
const auditPathPrefix = "/api/v1/symptom-checks"

// AuditEntry describes one access to a symptom-check route. The records
// carry health data, so every read, create, and delete is captured: who
// accessed what, when, from where.
type AuditEntry struct {
	UserID     string
	RecordID   string
	Action     string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Production wires a database-backed
// recorder; tests substitute their own.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc adapts a plain function to AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error {
	return f(entry)
}

var auditActions = map[string]string{
	http.MethodPost:   "create",
	http.MethodDelete: "delete",
	http.MethodGet:    "read",
}

// actionFor maps an HTTP verb onto the audit vocabulary.
func actionFor(method string) string {
	if action, ok := auditActions[method]; ok {
		return action
	}
	return strings.ToLower(method)
}

// Audit emits an AuditEntry for every request under the symptom-check route
// prefix. Entries go to the given recorders, or to the structured log when
// none are configured. A failing recorder never fails the request.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if !strings.HasPrefix(req.URL.Path, auditPathPrefix) {
				return next(c)
			}

			// The handler runs before the entry is built so the final
			// response status lands in it.
			err := next(c)

			rid, _ := c.Get("request_id").(string)
			entry := AuditEntry{
				UserID:     auth.UserIDFromContext(req.Context()),
				RecordID:   c.Param("id"),
				Action:     actionFor(req.Method),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				Path:       req.URL.Path,
				Method:     req.Method,
				Timestamp:  time.Now().UTC(),
				RequestID:  rid,
				StatusCode: c.Response().Status,
			}

			if len(recorders) == 0 {
				logAuditEntry(logger, entry)
				return err
			}
			for _, r := range recorders {
				if sinkErr := r.RecordAccess(entry); sinkErr != nil {
					logger.Error().Err(sinkErr).
						Str("request_id", rid).
						Msg("audit sink rejected entry")
				}
			}
			return err
		}
	}
}

func logAuditEntry(logger zerolog.Logger, e AuditEntry) {
	logger.Info().
		Str("request_id", e.RequestID).
		Str("user_id", e.UserID).
		Str("record_id", e.RecordID).
		Str("action", e.Action).
		Str("path", e.Path).
		Int("status", e.StatusCode).
		Str("remote_ip", e.IPAddress).
		Msg("access")
}

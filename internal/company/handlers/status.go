package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"
)

//go:embed templates/status.html
var statusFS embed.FS

var statusTemplate = template.Must(template.ParseFS(statusFS, "templates/status.html"))

type statusView struct {
	DBStatus    string
	StatusClass string
	Version     string
}

// StatusHandler serves the HTML status page and the JSON health probe.
type StatusHandler struct {
	checker *HealthChecker
	version string
	logger  *zap.Logger
}

func NewStatusHandler(checker *HealthChecker, version string, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		checker: checker,
		version: version,
		logger:  logger.Named("status"),
	}
}

// Page handles GET /.
func (s *StatusHandler) Page(w http.ResponseWriter, r *http.Request) {
	view := statusView{DBStatus: "UP", StatusClass: "up", Version: s.version}
	if err := s.checker.Check(r.Context()); err != nil {
		view.DBStatus, view.StatusClass = "DOWN", "down"
	}

	var buf bytes.Buffer
	if err := statusTemplate.Execute(&buf, view); err != nil {
		writeError(w, r, err, s.logger)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (s *StatusHandler) Health(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	body := map[string]string{
		"status":    "ok",
		"database":  "up",
		"version":   s.version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.checker.Check(r.Context()); err != nil {
		s.logger.Warn("Health check failed", zap.Error(err))
		body["status"], body["database"] = "error", "down"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body)
}

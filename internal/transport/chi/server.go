package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/polaudit/internal/domain"
	"github.com/kailas-cloud/polaudit/internal/domain/search/request"
	"github.com/kailas-cloud/polaudit/internal/domain/search/result"
	"github.com/kailas-cloud/polaudit/internal/domain/training"
	logpkg "github.com/kailas-cloud/polaudit/internal/logger"
	"github.com/kailas-cloud/polaudit/internal/metrics"
	feedbackuc "github.com/kailas-cloud/polaudit/internal/usecase/feedback"
	healthuc "github.com/kailas-cloud/polaudit/internal/usecase/health"
)

const welcomeText = "Welcome to the Policy Auditor API"

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest     = "bad_request"
	codeInvalidQuery   = "invalid_query"
	codeUnknownSubject = "unknown_subject"
	codeInvalidInput   = "validation_failed"
	codeNotFound       = "not_found"
	codeSearchError    = "search_error"
	codeLockTimeout    = "lock_timeout"
	codeInternal       = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// QueryService runs a search and returns aggregated results.
type QueryService interface {
	Query(ctx context.Context, req *request.Request) ([]result.Result, error)
}

// FeedbackService records relevancy feedback.
type FeedbackService interface {
	Submit(ctx context.Context, fb training.Feedback) (feedbackuc.Outcome, error)
}

// DocumentStore locates source documents on disk.
type DocumentStore interface {
	Path(subject, filename string) (string, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// feedbackBody is the POST /api/feedback payload. Relevancy is a pointer so
// that an explicit 0 (not relevant) passes the required check.
type feedbackBody struct {
	DocumentID string `json:"documentId" validate:"required"`
	Query      string `json:"query" validate:"required"`
	Subject    string `json:"subject" validate:"required"`
	Relevancy  *int   `json:"relevancy" validate:"required"`
}

// Server serves the HTTP API.
type Server struct {
	query         QueryService
	feedback      FeedbackService
	documents     DocumentStore
	health        HealthChecker
	validate      *validator.Validate
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	query QueryService,
	feedback FeedbackService,
	documents DocumentStore,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		query:     query,
		feedback:  feedback,
		documents: documents,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeInvalidQuery),
		sentinelHandler(domain.ErrUnknownSubject, http.StatusBadRequest, codeUnknownSubject),
		sentinelHandler(domain.ErrInvalidFeedback, http.StatusBadRequest, codeInvalidInput),
		sentinelHandler(domain.ErrInvalidRelevancy, http.StatusBadRequest, codeInvalidInput),
		sentinelHandler(domain.ErrLockTimeout, http.StatusServiceUnavailable, codeLockTimeout),
		sentinelHandler(domain.ErrCompensationFailed, http.StatusInternalServerError, codeInternal),
		serviceErrorHandler,
		sentinelHandler(domain.ErrSearchUnavailable, http.StatusBadGateway, codeSearchError),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.Welcome)
		r.Get("/query", s.Query)
		r.Post("/feedback", s.Feedback)
		r.Get("/doc/{subject}/{filename}", s.Document)
	})
}

// Welcome handles GET /api.
func (s *Server) Welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(welcomeText))
}

// Query handles GET /api/query?subject=&q=.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	req, err := request.New(r.URL.Query().Get("subject"), r.URL.Query().Get("q"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("subject", req.Subject()))
	results, err := s.query.Query(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []result.Result{}
	}

	writeJSON(w, http.StatusOK, results)
}

// Feedback handles POST /api/feedback.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	var body feedbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Bad request. Check POST body format")
		return
	}
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Bad request. Check POST body format")
		return
	}

	fb, err := training.NewFeedback(body.DocumentID, body.Query, body.Subject, training.Relevancy(*body.Relevancy))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx := logpkg.WithFields(r.Context(), zap.String("subject", fb.Subject))
	if _, err := s.feedback.Submit(ctx, fb); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Document handles GET /api/doc/{subject}/{filename}.
func (s *Server) Document(w http.ResponseWriter, r *http.Request) {
	subject := pathParam(r, "subject")
	filename := pathParam(r, "filename")

	path, err := s.documents.Path(subject, filename)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	http.ServeFile(w, r, path)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// CORS sets the allowed origin on every response and answers preflight requests.
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
				w.Header().Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// pathParam returns a decoded route parameter. chi matches on RawPath when the
// request carries escaped separators.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Service errors keep the collaborator's own message.
func safeDomainMessage(err error) string {
	var se *domain.ServiceError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrUnknownSubject,
		domain.ErrInvalidFeedback,
		domain.ErrInvalidRelevancy,
		domain.ErrLockTimeout,
		domain.ErrCompensationFailed,
		domain.ErrSearchUnavailable,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// serviceErrorHandler propagates the search service's own status code.
// Codes that are not HTTP error statuses fall back to 404.
func serviceErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	var se *domain.ServiceError
	if !errors.As(err, &se) {
		return false
	}
	status := se.Code
	if status < 400 || status > 599 {
		status = http.StatusNotFound
	}
	writeError(w, status, codeSearchError, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	if errors.Is(err, context.Canceled) {
		log.Debug("request canceled", zap.Error(err))
		return
	}
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeError(w, http.StatusGatewayTimeout, codeSearchError, "search service timeout")
		return
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

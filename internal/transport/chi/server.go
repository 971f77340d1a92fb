package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/bookrec/internal/domain"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/request"
	"github.com/kailas-cloud/bookrec/internal/domain/recommend/result"
	logpkg "github.com/kailas-cloud/bookrec/internal/logger"
	healthuc "github.com/kailas-cloud/bookrec/internal/usecase/health"
)

const maxBodyBytes = 1 << 16

// Recommender answers recommendation requests.
type Recommender interface {
	Recommend(ctx context.Context, req request.Request) (result.Result, error)
}

// HealthChecker reports aggregated health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	recommend     Recommender
	health        HealthChecker
	validate      *validator.Validate
	metrics       http.Handler
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommend Recommender, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		recommend: recommend,
		health:    health,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		metrics:   promhttp.Handler(),
		logger:    logger,
	}
	// The deadline handler runs first: a timed-out call may still carry a collaborator sentinel.
	s.errorHandlers = []errorHandler{
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, ErrorCodeTimeout),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, ErrorCodeInvalidInput),
		sentinelHandler(domain.ErrBookNotFound, http.StatusNotFound, ErrorCodeBookNotFound),
		sentinelHandler(domain.ErrNoDiverseResults, http.StatusNotFound, ErrorCodeNoDiverseResults),
		sentinelHandler(domain.ErrIndexUnavailable, http.StatusServiceUnavailable, ErrorCodeIndexUnavailable),
		sentinelHandler(domain.ErrEncoderUnavailable, http.StatusServiceUnavailable, ErrorCodeEncoderUnavailable),
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Book recommendation API. POST /recommend to get started."})
}

// RecommendPost handles POST /recommend.
func (s *Server) RecommendPost(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.serveRecommend(w, r, req)
}

// RecommendGet handles GET /recommend?title_substring=&top_k=&skip_same_author=.
func (s *Server) RecommendGet(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "title_substring", query, &req.TitleSubstring); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query: "+err.Error())
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "top_k", query, &req.TopK); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query: "+err.Error())
		return
	}
	var skip *bool
	if err := runtime.BindQueryParameter("form", true, false, "skip_same_author", query, &skip); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid query: "+err.Error())
		return
	}
	if skip != nil {
		req.SkipSameAuthor = *skip
	}

	s.serveRecommend(w, r, req)
}

func (s *Server) serveRecommend(w http.ResponseWriter, r *http.Request, body RecommendRequest) {
	if err := s.validate.Struct(body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, validationMessage(err))
		return
	}

	topK := 0
	if body.TopK != nil {
		topK = *body.TopK
	}
	req, err := request.New(body.TitleSubstring, topK, body.SkipSameAuthor)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	r = r.WithContext(logpkg.WithFields(r.Context(),
		zap.String("query", req.Query()),
		zap.Int("top_k", req.TopK()),
		zap.Bool("skip_same_author", req.SkipSameAuthor()),
	))
	res, err := s.recommend.Recommend(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, recommendResponse(&res))
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:          string(report.Status),
		BooksLoaded:     report.BooksLoaded,
		IndexCollection: report.Collection,
		IndexedBooks:    report.Indexed,
		Checks:          checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	s.metrics.ServeHTTP(w, r)
}

func recommendResponse(res *result.Result) RecommendResponse {
	recs := res.Recommendations()
	items := make([]Recommendation, len(recs))
	for i := range recs {
		items[i] = Recommendation{
			Title:      recs[i].Title(),
			Authors:    recs[i].Authors(),
			Year:       recs[i].Year(),
			Publisher:  recs[i].Publisher(),
			ImageURL:   recs[i].ImageURL(),
			Similarity: recs[i].Similarity(),
		}
	}
	return RecommendResponse{
		SeedBook:        res.Seed(),
		Recommendations: items,
		Requested:       res.Requested(),
		Underfilled:     res.Underfilled(),
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch {
		case fe.Tag() == "required":
			msgs = append(msgs, field+" is required")
		case field == "top_k":
			msgs = append(msgs, fmt.Sprintf("top_k must be between 1 and %d", request.MaxTopK))
		case field == "title_substring":
			msgs = append(msgs, fmt.Sprintf("title_substring must be at most %d characters", request.MaxQueryLength))
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

func jsonFieldName(structField string) string {
	switch structField {
	case "TitleSubstring":
		return "title_substring"
	case "TopK":
		return "top_k"
	default:
		return strings.ToLower(structField)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. User errors keep their
// detail, collaborator faults only expose the sentinel text.
func safeDomainMessage(err error) string {
	userErrors := []error{
		domain.ErrInvalidInput,
		domain.ErrBookNotFound,
		domain.ErrNoDiverseResults,
	}
	for _, s := range userErrors {
		if errors.Is(err, s) {
			return userMessage(err, s)
		}
	}
	faults := []error{
		context.DeadlineExceeded,
		domain.ErrIndexUnavailable,
		domain.ErrEncoderUnavailable,
	}
	for _, s := range faults {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// userMessage strips wrapping prefixes so the message starts at the sentinel.
func userMessage(err, sentinel error) string {
	msg := err.Error()
	if i := strings.Index(msg, sentinel.Error()); i >= 0 {
		return msg[i:]
	}
	return sentinel.Error()
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	if domain.IsServiceFault(err) {
		log.Error("service fault", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Error(err))
	}

	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

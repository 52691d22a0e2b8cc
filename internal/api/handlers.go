package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

const maxBodyBytes = 64 << 10

type checkRequest struct {
	Query string `json:"query"`
	Mode  string `json:"mode"`
}

type historyResponse struct {
	Records []domain.LookupRecord `json:"records"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Oracle        bool   `json:"oracle"`
	SearchBackend string `json:"search_backend"`
	Version       string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := &domain.LookupRequest{
		Text:     r.URL.Query().Get("q"),
		Mode:      domain.ModeSearch,
		ClientID:  clientID(r),
		RequestID: requestID(w),
	}
	resp, err := s.svc.Search(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePublicDomain(w http.ResponseWriter, r *http.Request) {
	req := &domain.LookupRequest{
		Text:     r.URL.Query().Get("q"),
		Mode:      domain.ModePublicDomain,
		ClientID:  clientID(r),
		RequestID: requestID(w),
	}
	resp, err := s.svc.CheckPublicDomain(r.Context(), req)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCheck - общий вход для обоих режимов; режим по умолчанию pd.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	mode := domain.ModePublicDomain
	if strings.TrimSpace(body.Mode) != "" {
		parsed, err := domain.ParseMode(body.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = parsed
	}

	req := &domain.LookupRequest{
		Text:      body.Query,
		Mode:      mode,
		ClientID:  clientID(r),
		RequestID: requestID(w),
	}

	var (
		resp any
		err  error
	)
	if mode == domain.ModeSearch {
		resp, err = s.svc.Search(r.Context(), req)
	} else {
		resp, err = s.svc.CheckPublicDomain(r.Context(), req)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	records, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []domain.LookupRecord{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Records: records})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Oracle:        s.svc.OracleEnabled(),
		SearchBackend: s.opts.SearchBackend,
		Version:       s.opts.Version,
	})
}

// limited отбивает запрос с 429, если клиент исчерпал окно.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil {
			next(w, r)
			return
		}

		client := clientID(r)
		if !s.limiter.Allow(client) {
			if s.metrics != nil {
				s.metrics.RecordRateLimitHit("http")
			}
			reset := s.limiter.ResetTime(client)
			s.logger.Warn("rate limit exceeded",
				zap.String("client", client),
				zap.String("request_id", requestID(w)),
				zap.Time("reset_at", reset),
			)
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(reset)))
			writeError(w, http.StatusTooManyRequests, "too many requests, try again in a minute")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(s.limiter.RemainingRequests(client)))
		next(w, r)
	}
}

// retryAfterSeconds округляет вверх и не отдаёт меньше секунды.
func retryAfterSeconds(reset time.Time) int {
	secs := int((time.Until(reset) + time.Second - 1) / time.Second)
	return max(secs, 1)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		s.logger.Debug("http request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrQueryTooLong):
		writeError(w, http.StatusBadRequest, fmt.Sprintf("query is too long (max %d characters)", domain.MaxQueryLength))
	case errors.Is(err, domain.ErrUnknownMode):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("lookup failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID(w)),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// requestID читает id, который withRequestID уже выставил в ответ.
func requestID(w http.ResponseWriter) string {
	return w.Header().Get("X-Request-ID")
}

// clientID - ключ для rate limit: первый адрес из X-Forwarded-For или RemoteAddr без порта.
func clientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return "http:" + ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "http:" + host
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// Package server exposes discovery and chat over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sells-group/discovery-api/internal/chat"
	"github.com/sells-group/discovery-api/internal/discovery"
)

// Discoverer runs a discovery request.
type Discoverer interface {
	Discover(ctx context.Context, req discovery.Request) (*discovery.Response, error)
}

// Deps are the collaborators behind the routes.
type Deps struct {
	// Discovery may be nil when credentials are missing; the route then
	// reports a configuration error.
	Discovery Discoverer
	Chat      chat.Responder
	// Missing lists credentials absent at startup.
	Missing     []string
	Production  bool
	CORSOrigins []string
}

type handlers struct {
	deps Deps
}

// NewRouter builds the HTTP handler with middleware and routes.
func NewRouter(deps Deps) http.Handler {
	if deps.Chat == nil {
		deps.Chat = chat.NewRuleResponder(chat.DefaultRules, chat.DefaultFallback)
	}
	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handlers{deps: deps}
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		r.Post("/discover-businesses", h.discover)
		r.Post("/chat", h.chat)
	})
	return r
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (h *handlers) discover(w http.ResponseWriter, r *http.Request) {
	if len(h.deps.Missing) > 0 || h.deps.Discovery == nil {
		h.configError(w, h.deps.Missing)
		return
	}

	req, err := decodeJSON[discovery.Request](r)
	if err != nil {
		writeBindError(w, err, "Industry and location are required")
		return
	}

	resp, err := h.deps.Discovery.Discover(r.Context(), req)
	if err != nil {
		h.discoverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) discoverError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *discovery.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:   "Industry and location are required",
			Details: ve.Field + " " + ve.Reason,
		})
		return
	}
	var ce *discovery.ConfigError
	if errors.As(err, &ce) {
		h.configError(w, ce.Missing)
		return
	}

	zap.L().Error("discover request failed",
		zap.String("request_id", chimw.GetReqID(r.Context())),
		zap.Error(err),
	)
	status, msg := http.StatusInternalServerError, "Failed to discover businesses"
	if discovery.KindOf(err) == discovery.KindUpstreamHard {
		status, msg = http.StatusBadGateway, "Failed to search businesses"
	}
	writeJSON(w, status, errorBody{Error: msg, Details: h.details(err.Error())})
}

func (h *handlers) configError(w http.ResponseWriter, missing []string) {
	details := "Missing required configuration"
	if len(missing) > 0 {
		details += ": " + strings.Join(missing, ", ")
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:   "Server configuration error",
		Details: h.details(details),
	})
}

// details hides internals from production clients.
func (h *handlers) details(s string) string {
	if h.deps.Production {
		return "Contact support if this persists"
	}
	return s
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[chat.Request](r)
	if err != nil {
		writeBindError(w, err, "Message is required")
		return
	}

	reply, err := h.deps.Chat.Respond(r.Context(), req)
	if err != nil {
		zap.L().Error("chat request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   "Failed to process message",
			Details: h.details(err.Error()),
		})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeBindError(w http.ResponseWriter, err error, msg string) {
	var be *BindError
	if errors.As(err, &be) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Details: be.Error()})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

// requestLogger logs one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

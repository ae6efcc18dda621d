package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/obsidianstack/regionstats/server/internal/auth"
	"github.com/obsidianstack/regionstats/server/internal/metrics"
	"github.com/obsidianstack/regionstats/server/internal/stats"
	"github.com/obsidianstack/regionstats/server/internal/store"
)

// maxBodyBytes caps the POST /api/latency body.
const maxBodyBytes = 1 << 20

// Handler is the HTTP handler for all API endpoints.
// It reads the dataset from the store and returns JSON responses.
type Handler struct {
	store   *store.Store
	metrics *metrics.Recorder
	router  chi.Router

	origins  []string
	limiter  *rate.Limiter
	authMode string
	authHdr  string
	authKey  string
}

// Option configures a Handler.
type Option func(*Handler)

// WithCORS restricts cross-origin access to origins. An empty list or "*"
// allows any origin.
func WithCORS(origins []string) Option {
	return func(h *Handler) {
		h.origins = origins
	}
}

// WithRateLimit applies a token bucket of rps requests per second with the
// given burst to every request. rps <= 0 leaves the API unlimited.
func WithRateLimit(rps float64, burst int) Option {
	return func(h *Handler) {
		if rps > 0 {
			if burst <= 0 {
				burst = int(rps)
				if burst < 1 {
					burst = 1
				}
			}
			h.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithAuth enables API key auth; see auth.APIKey for the semantics.
func WithAuth(mode, header, key string) Option {
	return func(h *Handler) {
		h.authMode, h.authHdr, h.authKey = mode, header, key
	}
}

// New creates a Handler wired to the given store and metrics recorder and
// registers all routes. rec may be nil, in which case /metrics is not served.
func New(st *store.Store, rec *metrics.Recorder, opts ...Option) http.Handler {
	h := &Handler{store: st, metrics: rec}
	for _, opt := range opts {
		opt(h)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(rec))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(h.corsOptions()))
	if h.limiter != nil {
		r.Use(rateLimit(h.limiter))
	}
	r.Use(auth.APIKey(h.authMode, h.authHdr, h.authKey, "/api/health", "/metrics"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/latency", h.latency)
		r.Get("/regions", h.regions)
		r.Get("/health", h.health)
	})
	if rec != nil {
		r.Method(http.MethodGet, "/metrics", rec)
	}

	h.router = r
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// corsOptions allows every method and header. Origins are open unless narrowed
// by WithCORS; open origins are echoed back so credentialed requests work.
func (h *Handler) corsOptions() cors.Options {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if anyOrigin(h.origins) {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return true }
	} else {
		opts.AllowedOrigins = h.origins
	}
	return opts
}

func anyOrigin(origins []string) bool {
	if len(origins) == 0 {
		return true
	}
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// --- route handlers ---------------------------------------------------------

// latency returns POST /api/latency: per-region stats for the requested regions.
func (h *Handler) latency(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		jsonErr(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	req, err := parseLatencyRequest(body)
	if err != nil {
		var verr *validationError
		if errors.As(err, &verr) {
			jsonErr(w, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		jsonErr(w, http.StatusBadRequest, err.Error())
		return
	}

	res := stats.Aggregate(h.store.Table(), req.Regions, req.ThresholdMs)

	if h.metrics != nil {
		breaches := 0
		for _, region := range res.Regions() {
			st, _ := res.Get(region)
			breaches += st.Breaches
		}
		h.metrics.ObserveQuery(res.Len(), distinct(req.Regions)-res.Len(), breaches)
	}

	slog.Debug("api: latency computed",
		"requested", len(req.Regions),
		"returned", res.Len(),
		"threshold_ms", req.ThresholdMs,
		"request_id", RequestID(r.Context()),
	)
	jsonResp(w, http.StatusOK, res)
}

// regions returns GET /api/regions: every region in the dataset with its record count.
func (h *Handler) regions(w http.ResponseWriter, r *http.Request) {
	tbl := h.store.Table()
	names := tbl.Regions()
	out := make([]RegionResponse, 0, len(names))
	for _, name := range names {
		out = append(out, RegionResponse{Region: name, Records: tbl.Count(name)})
	}
	jsonResp(w, http.StatusOK, out)
}

// health returns GET /api/health: what dataset is being served.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	tbl := h.store.Table()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Records:  tbl.Len(),
		Regions:  len(tbl.Regions()),
		Source:   tbl.Source(),
		LoadedAt: tbl.LoadedAt().UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

// jsonResp writes v with status code. A value that cannot be encoded, such as
// a non-finite stat, is answered with 500.
func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("api: encode response", "err", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"response could not be encoded"}` + "\n")) //nolint:errcheck
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes()) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func distinct(ss []string) int {
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		seen[s] = struct{}{}
	}
	return len(seen)
}

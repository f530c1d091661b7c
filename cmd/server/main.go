package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"goldquote/internal/config"
	"goldquote/internal/httpx"
	"goldquote/internal/logger"
	"goldquote/internal/provider"
	"goldquote/internal/sources"
)

const (
	msgInternal    = "خطای داخلی"
	msgUnavailable = "منبع در دسترس نیست"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func main() {
	logger.Init()
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("config", err)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)
	if cfg.Tgju.UserAgent != "" {
		httpClient.UserAgent = cfg.Tgju.UserAgent
	}

	set, err := sources.Build(cfg, httpClient)
	if err != nil {
		logger.Fatal("sources", err)
	}
	if _, ok := set[cfg.Server.DefaultSource]; !ok {
		logger.Warn("default source is not enabled; /api/gold will return 404", "default_source", cfg.Server.DefaultSource)
	}

	h := &quoteHandler{
		sources:       set,
		defaultSource: cfg.Server.DefaultSource,
		cacheControl:  fmt.Sprintf("s-maxage=%d, stale-while-revalidate=%d", cfg.Server.CacheMaxAgeSec, cfg.Server.StaleWhileRevalidateSec),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withRequestLog(withJSONHeaders(withGzip(recoverPanic(h.routes())))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr, "sources", set.Names(), "default_source", cfg.Server.DefaultSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", err)
		}
	}()

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// ager is implemented by caching providers; the age of the served payload goes
// out in the Age header so downstream caches count it against s-maxage.
type ager interface {
	Age() (time.Duration, bool)
}

type quoteHandler struct {
	sources       sources.Set
	defaultSource string
	cacheControl  string
}

func (h *quoteHandler) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/gold", func(w http.ResponseWriter, r *http.Request) {
		h.serveQuote(w, r, h.defaultSource)
	})
	mux.HandleFunc("/api/{source}", func(w http.ResponseWriter, r *http.Request) {
		h.serveQuote(w, r, r.PathValue("source"))
	})
	return mux
}

func (h *quoteHandler) serveQuote(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD, OPTIONS")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return
	}
	src, ok := h.sources[strings.ToLower(name)]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown source", Detail: name})
		return
	}

	payload, err := src.Provider.Fetch(r.Context())
	if err != nil {
		status, msg := http.StatusInternalServerError, msgInternal
		if errors.Is(err, provider.ErrUpstream) {
			status, msg = http.StatusBadGateway, msgUnavailable
		}
		logger.Error("quote fetch failed", "source", src.Name, "status", status, "error", err)
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status, errorResponse{Error: msg, Detail: err.Error()})
		return
	}
	if payload.Empty() {
		logger.Warn("no prices recognized in upstream content", "source", src.Name)
	}
	w.Header().Set("Cache-Control", h.cacheControl)
	if a, ok := src.Provider.(ager); ok {
		if age, ok := a.Age(); ok {
			w.Header().Set("Age", strconv.Itoa(int(age/time.Second)))
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		logger.Debug("write response", "error", err)
	}
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

var gzPool = sync.Pool{New: func() any {
	w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
	return w
}}

// withGzip compresses the response when the client accepts gzip.
func withGzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, Writer: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) { return g.Writer.Write(b) }

// recoverPanic turns handler panics into a 500 with the standard error body.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic", "path", r.URL.Path, "recovered", fmt.Sprint(rec))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgInternal, Detail: fmt.Sprint(rec)})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start).String())
	})
}

// Package web_server serves the public catalog: the listing page, its JSON
// twin and the thumbnails.
package web_server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"media_relay_bot/internal/pkg/media/domain"
	"media_relay_bot/internal/pkg/thumbnail"
)

const thumbnailCacheControl = "public, max-age=31536000"

//go:embed templates/*
var assets embed.FS

var indexTmpl = template.Must(template.ParseFS(assets, "templates/index.html"))

// RecordLister is the read side of the record store.
type RecordLister interface {
	ListAll(ctx context.Context, filter domain.Filter) ([]*domain.MediaRecord, error)
}

type Config struct {
	Port        string
	BotUsername string
	// PublicURL prefixes thumbnail links; empty keeps them relative.
	PublicURL string
}

type WebServer struct {
	records RecordLister
	thumbs  thumbnail.Store
	cfg     Config
	logger  *zap.Logger
}

func NewWebServer(records RecordLister, thumbs thumbnail.Store, cfg Config, logger *zap.Logger) *WebServer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebServer{
		records: records,
		thumbs:  thumbs,
		cfg:     cfg,
		logger:  logger,
	}
}

func (ws *WebServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(ws.logRequests)

	r.Get("/", ws.handleIndex)
	r.Get("/api/videos", ws.handleAPIVideos)
	r.Get("/thumbnails/{name}", ws.handleThumbnail)
	r.Get("/health", ws.handleHealthCheck)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start serves until ctx is done, then shuts down gracefully.
func (ws *WebServer) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + ws.cfg.Port,
		Handler:           ws.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		ws.logger.Info("Starting web server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("web server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown: %w", err)
	}
	ws.logger.Info("web server stopped")
	return nil
}

func (ws *WebServer) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// videoView is a record as exposed publicly: no database id, no file reference.
type videoView struct {
	Key          string    `json:"custom_key"`
	Title        string    `json:"title"`
	Kind         string    `json:"type"`
	Category     string    `json:"category,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url"`
	Link         string    `json:"link"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ws *WebServer) list(r *http.Request) ([]videoView, error) {
	recs, err := ws.records.ListAll(r.Context(), domain.Filter{Category: r.URL.Query().Get("category")})
	if err != nil {
		return nil, err
	}
	views := make([]videoView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, videoView{
			Key:          rec.Key,
			Title:        rec.Title,
			Kind:         string(rec.Kind),
			Category:     rec.Category,
			ThumbnailURL: ws.cfg.PublicURL + "/thumbnails/" + url.PathEscape(rec.Key),
			Link:         fmt.Sprintf("https://t.me/%s?start=%s", ws.cfg.BotUsername, url.QueryEscape(rec.Key)),
			CreatedAt:    rec.CreatedAt,
		})
	}
	return views, nil
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	views, err := ws.list(r)
	if err != nil {
		ws.logger.Error("listing failed", zap.Error(err))
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = indexTmpl.Execute(w, struct {
		Videos      []videoView
		Category    string
		BotUsername string
	}{views, r.URL.Query().Get("category"), ws.cfg.BotUsername})
	if err != nil {
		ws.logger.Warn("index render failed", zap.Error(err))
	}
}

func (ws *WebServer) handleAPIVideos(w http.ResponseWriter, r *http.Request) {
	views, err := ws.list(r)
	if err != nil {
		ws.logger.Error("listing failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "catalog unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// handleThumbnail serves /thumbnails/<key> and /thumbnails/<key>.jpg, or the
// fallback image when no preview is stored.
func (ws *WebServer) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSuffix(chi.URLParam(r, "name"), ".jpg")
	w.Header().Set("Cache-Control", thumbnailCacheControl)

	rc, err := ws.thumbs.Open(r.Context(), thumbnail.NameFor(key))
	if err != nil {
		ws.serveFallback(w)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := io.Copy(w, rc); err != nil {
		ws.logger.Debug("thumbnail write aborted", zap.String("key", key), zap.Error(err))
	}
}

func (ws *WebServer) serveFallback(w http.ResponseWriter) {
	data, err := assets.ReadFile("templates/fallback.svg")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(data)
}

func (ws *WebServer) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		ws.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

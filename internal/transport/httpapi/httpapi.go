// Package httpapi serves the trending list and the cycle trigger over HTTP.
package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"realtime-rank/internal/domain/models"
	"realtime-rank/internal/lib/logger"
	"realtime-rank/internal/lib/logger/sl"
	"realtime-rank/internal/services/cycle"
	"realtime-rank/internal/utils/metrics"
)

const (
	LoadingLabel = "업데이트 정보 로딩 중..."
	topCount     = 10
)

type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)
}

type CycleRunner interface {
	Run(ctx context.Context) (*cycle.Report, error)
}

type AuditReader interface {
	ScoredArticles(ctx context.Context) ([]models.ScoredArticle, error)
}

type Server struct {
	log        *slog.Logger
	snapshots  SnapshotLoader
	runner     CycleRunner
	audit      AuditReader
	metrics    *metrics.Metrics
	cronSecret string
}

// New builds the API. audit and m may be nil; their routes then answer 404.
func New(
	log *slog.Logger,
	snapshots SnapshotLoader,
	runner CycleRunner,
	audit AuditReader,
	m *metrics.Metrics,
	cronSecret string,
) *Server {
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		log:        log,
		snapshots:  snapshots,
		runner:     runner,
		audit:      audit,
		metrics:    m,
		cronSecret: cronSecret,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trends", s.handleTrends)
	mux.HandleFunc("GET /api/cron", s.handleCron)
	mux.HandleFunc("POST /api/cron", s.handleCron)
	mux.HandleFunc("GET /api/articles", s.handleArticles)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux
}

type statusResponse struct {
	Status          string `json:"status"`
	UpdatedKeywords *int   `json:"updated_keywords,omitempty"`
}

type trendsResponse struct {
	Rankings    []models.RankedEntry `json:"rankings"`
	LastUpdated string               `json:"last_updated"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// currentTrends never fails: a missing or unreadable snapshot reads as still loading.
func (s *Server) currentTrends(ctx context.Context) trendsResponse {
	resp := trendsResponse{Rankings: []models.RankedEntry{}, LastUpdated: LoadingLabel}

	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		s.log.Warn("snapshot unavailable", sl.Err(err))
		return resp
	}
	if snap == nil || len(snap.Entries) == 0 {
		return resp
	}

	resp.Rankings = snap.Entries
	if snap.LastUpdated != "" {
		resp.LastUpdated = snap.LastUpdated
	}
	return resp
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentTrends(r.Context()))
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cronSecret == "" {
		return false
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}

func (s *Server) handleCron(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, statusResponse{Status: "unauthorized"})
		return
	}

	s.log.Info("cycle triggered over http")

	report, err := s.runner.Run(r.Context())
	switch {
	case errors.Is(err, cycle.ErrCycleInProgress):
		writeJSON(w, http.StatusConflict, statusResponse{Status: "cycle in progress"})
		return
	case err != nil && report == nil:
		s.log.Error("cycle failed", sl.Err(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error"})
		return
	case err != nil:
		s.log.Error("cycle persisted partially", sl.Err(err))
	}

	if report.NoData {
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "no keywords to analyze"})
		return
	}

	updated := len(report.Entries)
	writeJSON(w, http.StatusOK, statusResponse{Status: "success", UpdatedKeywords: &updated})
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		http.NotFound(w, r)
		return
	}

	rows, err := s.audit.ScoredArticles(r.Context())
	if err != nil {
		s.log.Error("audit table unavailable", sl.Err(err))
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error"})
		return
	}
	if rows == nil {
		rows = []models.ScoredArticle{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": rows})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, s.metrics.Summary())
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="ko">
<head><meta charset="utf-8"><title>실시간 검색어</title></head>
<body>
<p class="last-updated">{{.LastUpdated}}</p>
<ol class="top">
{{range .Top}}<li><a href="{{.Link}}">{{.Keyword}}</a> <span class="change">{{.RankChange}}</span></li>
{{end}}</ol>
<ol class="rest" start="{{.RestStart}}">
{{range .Rest}}<li><a href="{{.Link}}">{{.Keyword}}</a> <span class="change">{{.RankChange}}</span></li>
{{end}}</ol>
</body>
</html>
`))

type indexPage struct {
	LastUpdated string
	Top         []models.RankedEntry
	Rest        []models.RankedEntry
	RestStart   int
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	trends := s.currentTrends(r.Context())

	page := indexPage{LastUpdated: trends.LastUpdated, Top: trends.Rankings, RestStart: topCount + 1}
	if len(trends.Rankings) > topCount {
		page.Top = trends.Rankings[:topCount]
		page.Rest = trends.Rankings[topCount:]
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.log.Error("index render failed", sl.Err(err))
	}
}

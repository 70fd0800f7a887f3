package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockmarket-service/internal/application"
	"stockmarket-service/internal/domain"
	"stockmarket-service/internal/infrastructure/logx"
)

// maxUploadBytes caps CSV payload reads.
const maxUploadBytes = 32 << 20

type Server struct {
	svc     *application.StockPriceService
	batch   *application.BatchProcessor
	runner  application.TaskRunner
	symbols []string
	token   string
	ping    func(ctx context.Context) error
}

func NewServer(svc *application.StockPriceService, batch *application.BatchProcessor, runner application.TaskRunner, symbols []string, token string) *Server {
	return &Server{svc: svc, batch: batch, runner: runner, symbols: symbols, token: token}
}

// WithPing wires a datastore liveness probe into the readiness route.
func (s *Server) WithPing(ping func(ctx context.Context) error) *Server {
	s.ping = ping
	return s
}

type pricePayload struct {
	ID        uuid.UUID `json:"id"`
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

func toPayload(rec domain.PriceRecord) pricePayload {
	return pricePayload{
		ID:        rec.ID,
		Ticker:    rec.Ticker,
		Timestamp: rec.Timestamp,
		Open:      rec.Open,
		High:      rec.High,
		Low:       rec.Low,
		Close:     rec.Close,
		Volume:    rec.Volume,
	}
}

func toPayloads(recs []domain.PriceRecord) []pricePayload {
	out := make([]pricePayload, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPayload(rec))
	}
	return out
}

func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ok"})
}

// TriggerIngestion schedules the pull batch for the configured symbol set and
// returns before it runs.
func (s *Server) TriggerIngestion(w http.ResponseWriter, r *http.Request) {
	symbols := s.symbols
	batch := s.batch
	s.runner.Go("batch_ingestion", func(ctx context.Context) {
		logx.L().Info("etl.start", zap.Strings("symbols", symbols))
		if err := batch.Run(ctx, symbols); err != nil {
			logx.L().Warn("etl.failed", zap.Error(err))
			return
		}
		logx.L().Info("etl.done")
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "ETL process started in background"})
}

// UploadStocksData accepts a CSV file and enqueues a durable load job.
func (s *Server) UploadStocksData(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		writeError(w, http.StatusBadRequest, "Invalid file type: please upload a CSV file.")
		return
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	id, duplicate, err := s.svc.EnqueueUpload(r.Context(), string(raw), r.Header.Get("X-Idempotency-Key"))
	if err != nil {
		internalError(w)
		return
	}
	if duplicate {
		writeJSON(w, http.StatusAccepted, map[string]any{"message": "Processing enqueued", "duplicate": true})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"message": "Processing enqueued", "job_id": id})
}

func (s *Server) GetIngestJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "jobID")
	job, err := s.svc.GetIngestJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No ingest job found")
			return
		}
		internalError(w)
		return
	}
	resp := map[string]any{
		"job_id":   job.ID,
		"status":   string(job.Status),
		"attempts": job.Attempts,
	}
	if job.Error != nil {
		resp["error"] = *job.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) SearchPrices(w http.ResponseWriter, r *http.Request) {
	start, ok := parseQueryTime(w, r.URL.Query().Get("start"))
	if !ok {
		return
	}
	end, ok := parseQueryTime(w, r.URL.Query().Get("end"))
	if !ok {
		return
	}
	recs, err := s.svc.SearchPrices(r.Context(), start, end)
	if err != nil {
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(recs))
}

func (s *Server) ListPrices(w http.ResponseWriter, r *http.Request) {
	skip := intQuery(r, "skip", 0)
	limit := intQuery(r, "limit", 100)
	recs, err := s.svc.ListPrices(r.Context(), skip, limit)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No stock prices found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(recs))
}

func (s *Server) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "priceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rec, err := s.svc.GetPrice(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No stock price found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toPayload(rec))
}

func (s *Server) PricesByTicker(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	recs, err := s.svc.PricesByTicker(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			writeError(w, http.StatusNotFound, "No stock prices found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(recs))
}

type createPayload struct {
	Ticker    string    `json:"ticker"`
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

func (s *Server) CreatePrice(w http.ResponseWriter, r *http.Request) {
	var body createPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec, err := s.svc.CreatePrice(r.Context(), domain.PriceRecord{
		Ticker:    body.Ticker,
		Timestamp: body.Timestamp,
		Open:      body.Open,
		High:      body.High,
		Low:       body.Low,
		Close:     body.Close,
		Volume:    body.Volume,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmptyTicker) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusCreated, toPayload(rec))
}

type updatePayload struct {
	Ticker    *string    `json:"ticker"`
	Timestamp *time.Time `json:"timestamp"`
	Open      *float64   `json:"open"`
	High      *float64   `json:"high"`
	Low       *float64   `json:"low"`
	Close     *float64   `json:"close"`
	Volume    *float64   `json:"volume"`
}

func (s *Server) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "priceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var body updatePayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	rec, err := s.svc.UpdatePrice(r.Context(), id, domain.PriceUpdate{
		Ticker:    body.Ticker,
		Timestamp: body.Timestamp,
		Open:      body.Open,
		High:      body.High,
		Low:       body.Low,
		Close:     body.Close,
		Volume:    body.Volume,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoUpdateField):
			writeError(w, http.StatusBadRequest, "No update fields provided")
		case errors.Is(err, domain.ErrFutureBar):
			writeError(w, http.StatusBadRequest, "timestamp cannot be in the future")
		case errors.Is(err, application.ErrNotFound):
			writeError(w, http.StatusNotFound, "No stock price found")
		default:
			internalError(w)
		}
		return
	}
	writeJSON(w, http.StatusOK, toPayload(rec))
}

func (s *Server) DeletePrice(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "priceID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := s.svc.DeletePrice(r.Context(), id); err != nil {
		if errors.Is(err, application.ErrInvalidArgument) {
			writeError(w, http.StatusBadRequest, "No stock price found")
			return
		}
		internalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Stock data deleted successfully"})
}

var queryTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// parseQueryTime returns nil for an absent parameter and writes a 400 for an
// unparsable one.
func parseQueryTime(w http.ResponseWriter, raw string) (*time.Time, bool) {
	if raw == "" {
		return nil, true
	}
	for _, layout := range queryTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t, true
		}
	}
	writeError(w, http.StatusBadRequest, "invalid time parameter")
	return nil, false
}

func intQuery(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func internalError(w http.ResponseWriter) {
	writeError(w, http.StatusInternalServerError, "Database query failed")
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type SaveRateRequest struct {
	Date string         `json:"date"`
	From model.Currency `json:"from"`
	To   model.Currency `json:"to"`
	Rate float64        `json:"rate"`
}

// Handler serves the cache-mode routes when exchange is set and the
// database routes when writeThrough is set. Either may be nil.
type Handler struct {
	exchange     ports.ExchangeService
	writeThrough ports.WriteThroughService
	log          *logger.Logger
	metrics      *metrics.Metrics
}

func NewHandler(
	exchange ports.ExchangeService,
	writeThrough ports.WriteThroughService,
	log *logger.Logger,
	metrics *metrics.Metrics,
) *Handler {
	return &Handler{
		exchange:     exchange,
		writeThrough: writeThrough,
		log:          log,
		metrics:      metrics,
	}
}

func (h *Handler) GetRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RateRequestsTotal.Inc()

	q := r.URL.Query()
	query := model.RatesQuery{
		From: model.Currency(q.Get("from")),
		To:   model.Currency(q.Get("to")),
		Date: q.Get("date"),
	}

	result, err := h.exchange.GetRates(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	switch {
	case result.Pair != nil:
		h.sendJSON(w, http.StatusOK, result.Pair)
	case result.Snapshot != nil:
		h.sendJSON(w, http.StatusOK, result.Snapshot)
	default:
		h.sendJSON(w, http.StatusOK, result.Envelope)
	}
}

func (h *Handler) RefreshRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RefreshRequestsTotal.Inc()

	envelope, err := h.exchange.RefreshRates(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, envelope)
}

func (h *Handler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.HistoryRequestsTotal.Inc()

	q := r.URL.Query()
	query := model.HistoryQuery{
		From:  model.Currency(q.Get("from")),
		To:    model.Currency(q.Get("to")),
		Start: q.Get("start"),
		End:   q.Get("end"),
	}

	if query.From == "" || query.To == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "Missing required parameters: from and to", "")
		return
	}

	series, err := h.exchange.GetHistory(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, series)
}

// GetStoredRatesHandler answers GET /api/rates from the database. A full
// pair selects one row, otherwise the whole day is listed.
func (h *Handler) GetStoredRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RateRequestsTotal.Inc()

	q := r.URL.Query()
	from := model.Currency(q.Get("from"))
	to := model.Currency(q.Get("to"))
	date := q.Get("date")

	if from != "" && to != "" {
		rate, err := h.writeThrough.GetRate(r.Context(), from, to, date)
		if err != nil {
			h.handleServiceError(w, err)
			return
		}
		h.sendJSON(w, http.StatusOK, rate)
		return
	}

	day, err := h.writeThrough.ListDay(r.Context(), date)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, day)
}

func (h *Handler) RefreshStoredRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.RefreshRequestsTotal.Inc()

	report, err := h.writeThrough.RefreshRates(r.Context())
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, report)
}

func (h *Handler) FindRatesHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.StoreRequestsTotal.WithLabelValues(http.MethodGet).Inc()

	q := r.URL.Query()
	filter := model.RateFilter{
		Date: q.Get("date"),
		From: model.Currency(q.Get("from")),
		To:   model.Currency(q.Get("to")),
	}

	rows, err := h.writeThrough.FindRates(r.Context(), filter)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, rows)
}

func (h *Handler) SaveRateHandler(w http.ResponseWriter, r *http.Request) {
	h.metrics.StoreRequestsTotal.WithLabelValues(http.MethodPost).Inc()

	var req SaveRateRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		h.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	if req.Date == "" || req.From == "" || req.To == "" {
		h.sendErrorResponse(w, http.StatusBadRequest, "Missing required fields: date, from and to", "")
		return
	}

	saved, err := h.writeThrough.SaveRate(r.Context(), model.PersistedRate{
		Date: req.Date,
		From: req.From,
		To:   req.To,
		Rate: req.Rate,
	})
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	h.sendJSON(w, http.StatusOK, saved)
}

func (h *Handler) CurrenciesListHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, model.SupportedCurrencies)
}

func (h *Handler) CurrencySymbolMapHandler(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, model.SymbolMap())
}

func (h *Handler) sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) sendErrorResponse(w http.ResponseWriter, statusCode int, message, detail string) {
	h.sendJSON(w, statusCode, ErrorResponse{Error: message, Detail: detail})
}

func (h *Handler) handleServiceError(w http.ResponseWriter, err error) {
	statusCode := http.StatusInternalServerError
	errorMessage := "Internal server error"
	detail := ""

	switch {
	case errors.Is(err, service.ErrCurrencyNotFound):
		statusCode = http.StatusBadRequest
		errorMessage = "Currency not found"
	case errors.Is(err, service.ErrInvalidDate):
		statusCode = http.StatusBadRequest
		errorMessage = "Invalid date format, use YYYY-MM-DD"
	case errors.Is(err, service.ErrInvalidDateRange):
		statusCode = http.StatusBadRequest
		errorMessage = "Invalid date range"
	case errors.Is(err, service.ErrSnapshotNotFound):
		statusCode = http.StatusNotFound
		errorMessage = "No rates stored for date"
	case errors.Is(err, service.ErrFetchFailed):
		errorMessage = "Failed to fetch rates"
	case errors.Is(err, service.ErrStoreFailure):
		errorMessage = "Failed to fetch rates from DB"
	case errors.Is(err, service.ErrRefreshFailed):
		errorMessage = "Failed to fetch or update rates"
		detail = errorDetail(err, service.ErrRefreshFailed)
	}

	if statusCode >= http.StatusInternalServerError {
		h.log.Error("Service error", "error", err, "status_code", statusCode)
	} else {
		h.log.Debug("Request rejected", "error", err, "status_code", statusCode)
	}
	h.sendErrorResponse(w, statusCode, errorMessage, detail)
}

// errorDetail strips the sentinel's own text from a "%w: %v" wrapped error,
// leaving the underlying cause.
func errorDetail(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/fundamental"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/recommendation"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/sentiment"
	"github.com/ZachStewart21/ZachStewartProjects/internal/report"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// MaxBatchTickers caps the tickers of one batch request.
const MaxBatchTickers = 10

// batchConcurrency caps concurrent evaluations within one batch.
const batchConcurrency = 4

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var (
	errInvalidTicker = errors.New("invalid ticker symbol")
	errUnavailable   = errors.New("stock data unavailable")
	errNoFetcher     = errors.New("no market-data source configured")
)

// EvaluateRequest is the body of POST /api/v1/evaluate. Omitted fields keep
// the configured valuation defaults. An explicit zero discount_rate or years
// fails validation rather than falling back to a default.
type EvaluateRequest struct {
	Ticker       string  `json:"ticker"        validate:"required,max=16"`
	Strategy     string  `json:"strategy"      validate:"max=32"                   default:"moderate"`
	DiscountRate float64 `json:"discount_rate" validate:"gt=0,lt=1"`
	Years        int     `json:"years"         validate:"gte=1,lte=50"`
	Windows      []int   `json:"windows"       validate:"max=5,dive,gte=1,lte=400" default:"[50]"`
}

// BatchRequest is the body of POST /api/v1/evaluate/batch.
type BatchRequest struct {
	Tickers      []string `json:"tickers"       validate:"required,min=1,max=10,dive,required,max=16"`
	Strategy     string   `json:"strategy"      validate:"max=32"                   default:"moderate"`
	DiscountRate float64  `json:"discount_rate" validate:"gt=0,lt=1"`
	Years        int      `json:"years"         validate:"gte=1,lte=50"`
	Windows      []int    `json:"windows"       validate:"max=5,dive,gte=1,lte=400" default:"[50]"`
}

// EvaluateResult is the data of a successful evaluation.
type EvaluateResult struct {
	Report    models.ValuationReport   `json:"report"`
	Headlines []models.NewsArticle     `json:"headlines"`
	Sentiment models.HeadlineSentiment `json:"sentiment"`
	Warnings  []string                 `json:"warnings,omitempty"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// BatchItem is one ticker of a batch response. Exactly one of Result and
// Error is set.
type BatchItem struct {
	Ticker string          `json:"ticker"`
	Result *EvaluateResult `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// newEvaluateRequest returns a request prefilled from the configuration.
func (s *Server) newEvaluateRequest() EvaluateRequest {
	v := s.cfg.Valuation
	return EvaluateRequest{
		Strategy:     v.DefaultStrategy,
		DiscountRate: v.DiscountRate,
		Years:        v.Years,
		Windows:      append([]int(nil), v.MAWindows...),
	}
}

// finalize applies tag defaults and validates req.
func (s *Server) finalize(ctx context.Context, req any) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	if err := s.validate.StructCtx(ctx, req); err != nil {
		return validationErrors(err)
	}
	return nil
}

// evaluate fetches market data for ticker and runs the valuation.
func (s *Server) evaluate(ctx context.Context, ticker string, req EvaluateRequest) (*EvaluateResult, error) {
	symbol := utils.NormalizeTicker(ticker)
	if !utils.IsValidTicker(symbol) {
		return nil, fmt.Errorf("%w: %q", errInvalidTicker, ticker)
	}
	if s.fetcher == nil {
		return nil, errNoFetcher
	}

	snap, err := s.fetcher.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordWarnings(snap.Warnings)
	if snap.Unavailable() {
		return nil, fmt.Errorf("%w: %s", errUnavailable, strings.Join(snap.Warnings, "; "))
	}

	rep, err := analysis.Run(symbol, snap.Payload, snap.Bars, req.Strategy, analysis.EvaluateOptions{
		DCF:     fundamental.DCFParams{DiscountRate: req.DiscountRate, Years: req.Years},
		Windows: req.Windows,
	})
	if err != nil {
		return nil, err
	}

	res := &EvaluateResult{
		Report:    rep,
		Headlines: snap.Headlines,
		Sentiment: sentiment.Summarize(snap.Headlines, s.now()),
		Warnings:  snap.Warnings,
		FetchedAt: snap.FetchedAt,
	}

	s.metrics.RecordEvaluation(rep)
	s.log.Info().
		Str("ticker", symbol).
		Str("strategy", rep.Recommendation.Strategy).
		Str("label", string(rep.Recommendation.Label)).
		Str("verdict", string(rep.Verdict)).
		Int("warnings", len(snap.Warnings)).
		Msg("evaluation complete")
	s.wsHub.Broadcast(WSMessage{
		Type: MsgEvaluationComplete,
		Data: EvaluationNotice{
			Ticker:   symbol,
			Strategy: rep.Recommendation.Strategy,
			Label:    string(rep.Recommendation.Label),
			Verdict:  string(rep.Verdict),
		},
	})
	return res, nil
}

// statusFor maps an evaluation error onto an HTTP status.
func statusFor(err error) int {
	var structural *fundamental.StructuralError
	switch {
	case errors.Is(err, errInvalidTicker):
		return http.StatusBadRequest
	case errors.As(err, &structural):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, errNoFetcher):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEvalError(w http.ResponseWriter, ticker string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Warn().Err(err).Str("ticker", ticker).Int("status", status).Msg("evaluation failed")
	}
	writeError(w, status, err.Error())
}

// decodeBody reads a JSON body of at most maxBodyBytes into dst. On failure
// it writes the error response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
	return false
}

// handleEvaluate serves POST /api/v1/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	req := s.newEvaluateRequest()
	if !decodeBody(w, r, &req) {
		return
	}
	if verrs := s.finalize(r.Context(), &req); verrs != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid request", Details: verrs})
		return
	}

	res, err := s.evaluate(r.Context(), req.Ticker, req)
	if err != nil {
		s.writeEvalError(w, req.Ticker, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

// handleEvaluateTicker serves GET /api/v1/evaluate/{ticker}?strategy=&windows=&discount_rate=&years=.
func (s *Server) handleEvaluateTicker(w http.ResponseWriter, r *http.Request) {
	req := s.newEvaluateRequest()
	req.Ticker = chi.URLParam(r, "ticker")

	q := r.URL.Query()
	if v := q.Get("strategy"); v != "" {
		req.Strategy = v
	}
	windows, err := parseWindows(q.Get("windows"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if windows != nil {
		req.Windows = windows
	}
	if v := q.Get("discount_rate"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid discount_rate")
			return
		}
		req.DiscountRate = f
	}
	if v := q.Get("years"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid years")
			return
		}
		req.Years = n
	}

	if verrs := s.finalize(r.Context(), &req); verrs != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid request", Details: verrs})
		return
	}

	res, err := s.evaluate(r.Context(), req.Ticker, req)
	if err != nil {
		s.writeEvalError(w, req.Ticker, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: res})
}

// handleEvaluateBatch serves POST /api/v1/evaluate/batch. Tickers are
// evaluated concurrently; a failing ticker is reported in its own item.
func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	base := s.newEvaluateRequest()
	req := BatchRequest{
		Strategy:     base.Strategy,
		DiscountRate: base.DiscountRate,
		Years:        base.Years,
		Windows:      base.Windows,
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if verrs := s.finalize(r.Context(), &req); verrs != nil {
		writeJSON(w, http.StatusBadRequest, APIResponse{Error: "invalid request", Details: verrs})
		return
	}

	// "aapl" and "$AAPL " are the same ticker; evaluate it once.
	req.Tickers = utils.SplitTickers(strings.Join(req.Tickers, ","))

	one := EvaluateRequest{
		Strategy:     req.Strategy,
		DiscountRate: req.DiscountRate,
		Years:        req.Years,
		Windows:      req.Windows,
	}
	items := make([]BatchItem, len(req.Tickers))

	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(batchConcurrency)
	for i, t := range req.Tickers {
		g.Go(func() error {
			items[i].Ticker = t
			res, err := s.evaluate(ctx, t, one)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.writeEvalError(w, strings.Join(req.Tickers, ","), err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: items})
}

// handleChart serves GET /api/v1/chart/{ticker}?windows=50,200&format=png|svg.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if !utils.IsValidTicker(ticker) {
		writeError(w, http.StatusBadRequest, errInvalidTicker.Error())
		return
	}
	windows, err := parseWindows(r.URL.Query().Get("windows"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if windows == nil {
		windows = s.cfg.Valuation.MAWindows
	}
	if s.fetcher == nil {
		s.writeEvalError(w, ticker, errNoFetcher)
		return
	}

	snap, err := s.fetcher.Fetch(r.Context(), ticker)
	if err != nil {
		s.writeEvalError(w, ticker, err)
		return
	}

	ind := analysis.ComputeIndicators(snap.Bars, windows)
	cfg := report.ChartConfig{Format: report.ChartFormat(r.URL.Query().Get("format"))}
	img, err := report.RenderChart(ticker, snap.Bars, ind.MovingAverages, cfg)
	if errors.Is(err, report.ErrNotEnoughData) {
		writeError(w, http.StatusNotFound, "not enough price history for "+ticker)
		return
	}
	if err != nil {
		s.writeEvalError(w, ticker, err)
		return
	}

	w.Header().Set("Content-Type", cfg.Format.ContentType())
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(img)
}

// handleStrategies serves GET /api/v1/strategies.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]any{
			"default":    recommendation.ResolveStrategy(s.cfg.Valuation.DefaultStrategy).Name,
			"strategies": recommendation.Strategies(),
		},
	})
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationErrors flattens validator errors into API errors.
func validationErrors(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, ValidationError{
			Code:    "ERR_" + strings.ToUpper(e.Tag()),
			Field:   e.Field(),
			Message: validationMessage(e),
		})
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

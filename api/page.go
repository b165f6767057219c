package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/fundamental"
	"github.com/ZachStewart21/ZachStewartProjects/internal/report"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// handleIndex serves the empty lookup form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, report.NewPage("", s.cfg.Valuation.DefaultStrategy))
}

// handleIndexSubmit evaluates the submitted ticker and renders the report
// below the form. A ticker without a current price shows the unavailable
// message instead of a report.
func (s *Server) handleIndexSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderPage(w, http.StatusBadRequest, pageWithError("", "", "Invalid form submission."))
		return
	}
	ticker := utils.NormalizeTicker(r.PostFormValue("ticker"))
	strategy := r.PostFormValue("strategy")
	if strategy == "" {
		strategy = s.cfg.Valuation.DefaultStrategy
	}

	page := report.NewPage(ticker, strategy)
	if !utils.IsValidTicker(ticker) {
		page.Error = "Please enter a valid ticker symbol."
		s.renderPage(w, http.StatusBadRequest, page)
		return
	}

	req := s.newEvaluateRequest()
	req.Ticker = ticker
	req.Strategy = strategy
	if verrs := s.finalize(r.Context(), &req); verrs != nil {
		page.Error = verrs[0].Message
		s.renderPage(w, http.StatusBadRequest, page)
		return
	}

	res, err := s.evaluate(r.Context(), ticker, req)
	var structural *fundamental.StructuralError
	switch {
	case errors.Is(err, errUnavailable):
		page.Error = report.UnavailableMessage
		s.renderPage(w, http.StatusOK, page)
		return
	case errors.As(err, &structural):
		page.Error = "The market data for " + ticker + " could not be read."
		s.renderPage(w, http.StatusUnprocessableEntity, page)
		return
	case err != nil:
		s.log.Warn().Err(err).Str("ticker", ticker).Msg("page evaluation failed")
		page.Error = "Evaluation failed, please try again."
		s.renderPage(w, statusFor(err), page)
		return
	}

	page.SetReport(report.BuildReportData(report.Input{
		Report:      res.Report,
		Headlines:   res.Headlines,
		Sentiment:   &res.Sentiment,
		Warnings:    res.Warnings,
		GeneratedAt: s.now(),
	}))
	s.renderPage(w, http.StatusOK, page)
}

func pageWithError(ticker, strategy, msg string) *report.Page {
	p := report.NewPage(ticker, strategy)
	p.Error = msg
	return p
}

func (s *Server) renderPage(w http.ResponseWriter, status int, p *report.Page) {
	var buf bytes.Buffer
	if err := report.RenderPage(&buf, p); err != nil {
		s.log.Error().Err(err).Msg("render page")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

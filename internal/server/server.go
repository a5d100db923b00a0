// Package server exposes the pricing core over HTTP for UI clients.
//
// The handlers are thin translations between JSON DTOs and the core
// operations; no algorithmic content lives here. Core validation errors
// map to 422 so a chart client can show a neutral fallback state instead
// of treating them as transport failures.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/contactkeval/option-lab/internal/chart"
	"github.com/contactkeval/option-lab/internal/data"
	"github.com/contactkeval/option-lab/internal/logger"
	"github.com/contactkeval/option-lab/internal/pricing"
	"github.com/contactkeval/option-lab/internal/report"
	"github.com/contactkeval/option-lab/internal/sweep"
)

// Server wires the core operations to an HTTP router.
type Server struct {
	prov data.Provider
}

// New constructs a Server. prov may be nil; the /api/iv quote lookup is
// then unavailable and requests must carry an explicit market price.
func New(prov data.Provider) *Server {
	return &Server{prov: prov}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/meta", s.handleMeta).Methods(http.MethodGet)
	r.HandleFunc("/api/price", s.handlePrice).Methods(http.MethodPost)
	r.HandleFunc("/api/iv", s.handleIV).Methods(http.MethodPost)
	r.HandleFunc("/api/sweep", s.handleSweep).Methods(http.MethodPost)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.Describe())
}

type priceResponse struct {
	RequestID string         `json:"request_id"`
	Params    pricing.Params `json:"params"`
	Greeks    pricing.Greeks `json:"greeks"`
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()

	var params pricing.Params
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, reqID, err)
		return
	}

	greeks, err := pricing.EvaluateAll(params)
	if err != nil {
		writeError(w, statusFor(err), reqID, err)
		return
	}

	logger.WithField("request_id", reqID).Debugf("priced %s S=%g K=%g", params.Type, params.S, params.K)
	writeJSON(w, http.StatusOK, priceResponse{RequestID: reqID, Params: params, Greeks: greeks})
}

type ivRequest struct {
	S           float64            `json:"S"`
	K           float64            `json:"K"`
	R           float64            `json:"r"`
	T           float64            `json:"t"`
	Type        pricing.OptionType `json:"type"`
	MarketPrice float64            `json:"market_price"`

	// Alternative to market_price: fetch the premium (and spot, when S
	// is zero) from the market data provider. Expiry overrides t.
	Underlying string `json:"underlying,omitempty"`
	Expiry     string `json:"expiry,omitempty"` // YYYY-MM-DD
}

type ivResponse struct {
	RequestID   string  `json:"request_id"`
	ImpliedVol  float64 `json:"implied_vol"`
	MarketPrice float64 `json:"market_price"`
}

func (s *Server) handleIV(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()

	var req ivRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, reqID, err)
		return
	}

	if req.Underlying != "" {
		if err := s.fillFromProvider(&req); err != nil {
			writeError(w, http.StatusBadGateway, reqID, err)
			return
		}
	}

	iv, err := pricing.ImpliedVolatility(req.S, req.K, req.R, req.T, req.MarketPrice, req.Type)
	if err != nil {
		writeError(w, statusFor(err), reqID, err)
		return
	}

	logger.WithField("request_id", reqID).Debugf("implied vol %.6f for K=%g", iv, req.K)
	writeJSON(w, http.StatusOK, ivResponse{RequestID: reqID, ImpliedVol: iv, MarketPrice: req.MarketPrice})
}

// fillFromProvider resolves the market premium (and spot, if absent)
// from the quote provider.
func (s *Server) fillFromProvider(req *ivRequest) error {
	if s.prov == nil {
		return errors.New("no market data provider configured")
	}

	expiry, err := time.Parse("2006-01-02", req.Expiry)
	if err != nil {
		return err
	}

	if req.S == 0 {
		spot, err := s.prov.GetSpotPrice(req.Underlying)
		if err != nil {
			return err
		}
		req.S = spot
	}

	quote, err := s.prov.GetOptionPrice(req.Underlying, req.K, expiry, req.Type)
	if err != nil {
		return err
	}
	req.MarketPrice = quote
	req.T = data.YearsToExpiry(expiry, time.Now())
	return nil
}

type sweepResponse struct {
	RequestID string          `json:"request_id"`
	Color     string          `json:"color"`
	Summary   *report.Summary `json:"summary,omitempty"`
	Dataset   any             `json:"dataset"`
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()

	var spec sweep.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, reqID, err)
		return
	}

	ds, err := sweep.Run(spec)
	if err != nil {
		writeError(w, statusFor(err), reqID, err)
		return
	}

	resp := sweepResponse{
		RequestID: reqID,
		Color:     chart.Color(spec.Base.Type),
		Dataset:   report.MarshalDataset(ds),
	}
	if summary, err := report.Summarize(ds); err == nil {
		resp.Summary = &summary
	}

	logger.WithField("request_id", reqID).Debugf("sweep %s n=%d defined=%d", spec.Variable, spec.N, len(ds.Defined()))
	writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	RequestID string `json:"request_id"`
	Error     string `json:"error"`
}

// statusFor maps core validation failures to 422 and everything else
// to 500. Transport-level decode failures are handled at the call site.
func statusFor(err error) int {
	switch {
	case errors.Is(err, pricing.ErrInvalidParameter),
		errors.Is(err, pricing.ErrInvalidOptionType),
		errors.Is(err, pricing.ErrInvalidMarketPrice),
		errors.Is(err, pricing.ErrDegenerateVega),
		errors.Is(err, pricing.ErrNoConvergence),
		errors.Is(err, sweep.ErrInvalidSampleCount):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, status int, reqID string, err error) {
	logger.WithField("request_id", reqID).Errorf("request failed: %v", err)
	writeJSON(w, status, errorResponse{RequestID: reqID, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ListenAndServe blocks serving the API on addr.
func (s *Server) ListenAndServe(addr string) error {
	logger.Infof("starting REST server on %s", addr)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return srv.ListenAndServe()
}

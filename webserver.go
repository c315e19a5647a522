package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// sessionHeader selects the caller's run slot; requests without it share one
const sessionHeader = "X-Session-ID"

const maxRequestBody = 4 << 20

// WebServer holds the HTTP API dependencies
type WebServer struct {
	engine    *Engine
	pool      *RunnerPool
	scenarios *ScenarioService
	addr      string
}

// NewWebServer creates a web server instance
func NewWebServer(engine *Engine, scenarios *ScenarioService, addr string) *WebServer {
	return &WebServer{
		engine:    engine,
		pool:      NewRunnerPool(engine),
		scenarios: scenarios,
		addr:      addr,
	}
}

// APIResponse is the body of every error response
type APIResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// APITaxRequest asks for the tax on one salary
type APITaxRequest struct {
	GrossIncome float64 `json:"grossIncome"`
	PretaxSuper float64 `json:"pretaxSuper"`
}

// APITaxResponse is the tax breakdown with the marginal bracket
type APITaxResponse struct {
	Tax     TaxBreakdown     `json:"tax"`
	Bracket *MarginalBracket `json:"bracket"`
}

// APIAmortizationRequest describes one loan
type APIAmortizationRequest struct {
	Principal           float64  `json:"principal"`
	InterestRatePercent float64  `json:"interestRatePercent"`
	TermYears           int      `json:"termYears"`
	LoanType            LoanType `json:"loanType"`
}

// APIAmortizationResponse is the repayment and its schedule
type APIAmortizationResponse struct {
	MonthlyPayment float64        `json:"monthlyPayment"`
	Schedule       []ScheduleYear `json:"schedule"`
}

// APIBorrowingRequest is a household plus the loans it already carries
type APIBorrowingRequest struct {
	Household  Household  `json:"household"`
	Properties []Property `json:"properties"`
}

// APIScenarioRequest creates or replaces a scenario
type APIScenarioRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	PlannerState json.RawMessage `json:"plannerState"`
}

// Handler builds the API routes
func (ws *WebServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/config", ws.handleGetConfig)
	mux.HandleFunc("POST /api/project", ws.handleProject)
	mux.HandleFunc("POST /api/tax", ws.handleTax)
	mux.HandleFunc("POST /api/property-metrics", ws.handlePropertyMetrics)
	mux.HandleFunc("POST /api/amortization", ws.handleAmortization)
	mux.HandleFunc("POST /api/borrowing-capacity", ws.handleBorrowingCapacity)
	mux.HandleFunc("POST /api/sensitivity", ws.handleSensitivity)
	mux.HandleFunc("POST /api/sustainable-spending", ws.handleSustainableSpending)
	mux.HandleFunc("POST /api/report.pdf", ws.handleReportPDF)
	mux.HandleFunc("POST /api/report.html", ws.handleReportHTML)

	mux.HandleFunc("GET /api/scenarios", ws.handleListScenarios)
	mux.HandleFunc("POST /api/scenarios", ws.handleCreateScenario)
	mux.HandleFunc("GET /api/scenarios/export", ws.handleExportScenarios)
	mux.HandleFunc("POST /api/scenarios/import", ws.handleImportScenarios)
	mux.HandleFunc("GET /api/scenarios/{id}", ws.handleGetScenario)
	mux.HandleFunc("PUT /api/scenarios/{id}", ws.handleUpdateScenario)
	mux.HandleFunc("DELETE /api/scenarios/{id}", ws.handleDeleteScenario)

	return mux
}

// Start serves the API until ctx is cancelled
func (ws *WebServer) Start(ctx context.Context) error {
	server := &fasthttp.Server{
		Handler:            fasthttpadaptor.NewFastHTTPHandler(ws.Handler()),
		Name:               "retirement-planner",
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       2 * time.Minute,
		MaxRequestBodySize: maxRequestBody,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting web server on %s", ws.addr)
		errCh <- server.ListenAndServe(ws.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Printf("Shutting down web server")
		return server.Shutdown()
	}
}

func (ws *WebServer) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, ws.engine.Config())
}

// handleProject runs a projection in the caller's session slot. A request that is
// overtaken by a newer one from the same session gets 409.
func (ws *WebServer) handleProject(w http.ResponseWriter, r *http.Request) {
	snap, ok := readSnapshot(w, r)
	if !ok {
		return
	}

	session := r.Header.Get(sessionHeader)
	out, err := ws.pool.Get(session).Run(r.Context(), snap)
	if err != nil {
		sendJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if out.Superseded {
		sendJSON(w, http.StatusConflict, out)
		return
	}
	if out.Err != nil {
		sendError(w, out.Err)
		return
	}
	sendJSON(w, http.StatusOK, out)
}

func (ws *WebServer) handleTax(w http.ResponseWriter, r *http.Request) {
	var req APITaxRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.GrossIncome < 0 || req.PretaxSuper < 0 {
		sendJSONError(w, http.StatusBadRequest, "income and pre-tax super must not be negative")
		return
	}

	tc := &ws.engine.Config().Tax
	sendJSON(w, http.StatusOK, APITaxResponse{
		Tax:     ComputeTaxBreakdown(tc, req.GrossIncome, req.PretaxSuper),
		Bracket: GetMarginalBracket(tc, req.GrossIncome-req.PretaxSuper),
	})
}

func (ws *WebServer) handlePropertyMetrics(w http.ResponseWriter, r *http.Request) {
	var properties []Property
	if !readJSON(w, r, &properties) {
		return
	}
	sendJSON(w, http.StatusOK, ComputeAllPropertyMetrics(properties))
}

func (ws *WebServer) handleAmortization(w http.ResponseWriter, r *http.Request) {
	var req APIAmortizationRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.Principal < 0 || req.InterestRatePercent < 0 || req.TermYears <= 0 {
		sendJSONError(w, http.StatusBadRequest, "principal and rate must not be negative and term must be positive")
		return
	}
	if req.LoanType == "" {
		req.LoanType = PrincipalAndInterest
	}

	sendJSON(w, http.StatusOK, APIAmortizationResponse{
		MonthlyPayment: ComputeAmortizedPayment(req.Principal, req.InterestRatePercent, req.TermYears, req.LoanType),
		Schedule:       AmortizationSchedule(req.Principal, req.InterestRatePercent, req.TermYears, req.LoanType),
	})
}

func (ws *WebServer) handleBorrowingCapacity(w http.ResponseWriter, r *http.Request) {
	var req APIBorrowingRequest
	if !readJSON(w, r, &req) {
		return
	}
	sendJSON(w, http.StatusOK, ComputeBorrowingCapacity(ws.engine.Config(), &req.Household, req.Properties))
}

func (ws *WebServer) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	snap, ok := readSnapshot(w, r)
	if !ok {
		return
	}
	analysis, err := ws.engine.RunSensitivityAnalysis(r.Context(), snap)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, analysis)
}

func (ws *WebServer) handleSustainableSpending(w http.ResponseWriter, r *http.Request) {
	snap, ok := readSnapshot(w, r)
	if !ok {
		return
	}
	res, err := ws.engine.FindSustainableSpending(r.Context(), snap)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, res)
}

func (ws *WebServer) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	snap, ok := readSnapshot(w, r)
	if !ok {
		return
	}
	p, err := ws.engine.Project(r.Context(), snap)
	if err != nil {
		sendError(w, err)
		return
	}
	data, err := GenerateProjectionPDF(&snap, p)
	if err != nil {
		sendJSONError(w, http.StatusInternalServerError, "Failed to generate PDF: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="retirement-projection-%s.pdf"`, p.StartedAt.Format("2006-01-02")))
	w.Write(data)
}

func (ws *WebServer) handleReportHTML(w http.ResponseWriter, r *http.Request) {
	snap, ok := readSnapshot(w, r)
	if !ok {
		return
	}
	p, err := ws.engine.Project(r.Context(), snap)
	if err != nil {
		sendError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteProjectionHTML(&buf, &snap, p); err != nil {
		sendJSONError(w, http.StatusInternalServerError, "Failed to render report: "+err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func (ws *WebServer) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	list, err := ws.scenarios.List()
	if err != nil {
		sendError(w, err)
		return
	}
	if list == nil {
		list = []Scenario{}
	}
	sendJSON(w, http.StatusOK, list)
}

func (ws *WebServer) handleCreateScenario(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := readScenarioRequest(w, r)
	if !ok {
		return
	}
	sc, err := ws.scenarios.Save(req.Name, req.Description, snap)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, sc)
}

func (ws *WebServer) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	sc, err := ws.scenarios.Get(r.PathValue("id"))
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, sc)
}

func (ws *WebServer) handleUpdateScenario(w http.ResponseWriter, r *http.Request) {
	req, snap, ok := readScenarioRequest(w, r)
	if !ok {
		return
	}
	sc, err := ws.scenarios.Update(r.PathValue("id"), req.Name, req.Description, snap)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, sc)
}

func (ws *WebServer) handleDeleteScenario(w http.ResponseWriter, r *http.Request) {
	if err := ws.scenarios.Delete(r.PathValue("id")); err != nil {
		sendError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportScenarios exports the scenarios named by repeated id parameters, or all of them
func (ws *WebServer) handleExportScenarios(w http.ResponseWriter, r *http.Request) {
	env, err := ws.scenarios.ExportEnvelope(r.URL.Query()["id"]...)
	if err != nil {
		sendError(w, err)
		return
	}
	data, err := EncodeEnvelope(env)
	if err != nil {
		sendJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="scenarios-%s.json"`, env.ExportedAt.Format("2006-01-02")))
	w.Write(data)
}

func (ws *WebServer) handleImportScenarios(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, "Failed to read request body: "+err.Error())
		return
	}
	res, err := ws.scenarios.ImportEnvelope(data)
	if err != nil {
		sendError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, res)
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		sendJSONError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func readSnapshot(w http.ResponseWriter, r *http.Request) (FinancialSnapshot, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		sendJSONError(w, http.StatusBadRequest, "Failed to read request body: "+err.Error())
		return FinancialSnapshot{}, false
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		sendError(w, err)
		return snap, false
	}
	return snap, true
}

func readScenarioRequest(w http.ResponseWriter, r *http.Request) (APIScenarioRequest, FinancialSnapshot, bool) {
	var req APIScenarioRequest
	if !readJSON(w, r, &req) {
		return req, FinancialSnapshot{}, false
	}
	if len(req.PlannerState) == 0 {
		sendJSONError(w, http.StatusBadRequest, "plannerState is required")
		return req, FinancialSnapshot{}, false
	}
	snap, err := DecodeSnapshot(req.PlannerState)
	if err != nil {
		sendError(w, err)
		return req, snap, false
	}
	return req, snap, true
}

const internalErrorMessage = "internal error, please retry"

// statusFor maps engine errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrScenarioNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidSnapshot),
		errors.Is(err, ErrInvalidEnvelope),
		errors.Is(err, ErrUnsupportedVersion),
		errors.Is(err, ErrInvalidScenarioName):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		sendJSONError(w, status, internalErrorMessage)
		return
	}
	sendJSONError(w, status, err.Error())
}

// sendJSONError sends a JSON error response
func sendJSONError(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, APIResponse{Success: false, Error: message})
}

func sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

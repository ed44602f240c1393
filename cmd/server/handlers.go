package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/liamcoop/fakerules/assertion"
	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/fakehub"
	"github.com/liamcoop/fakerules/internal/logger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "healthy",
		Fakes:    len(s.hub.List()),
		Journal:  "disabled",
		Errors:   logger.TotalErrors.Load(),
		Warnings: logger.TotalWarnings.Load(),
	}
	if s.journal != nil {
		resp.Journal = "enabled"
	}

	if s.db != nil {
		resp.Journal = "postgres"
		if err := s.db.PingContext(r.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFakes(w http.ResponseWriter, r *http.Request) {
	fakes := s.hub.List()
	resp := FakesListResponse{Fakes: make([]FakeResponse, 0, len(fakes))}
	for _, f := range fakes {
		resp.Fakes = append(resp.Fakes, fakeResponse(f))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFake(w http.ResponseWriter, r *http.Request) {
	var req CreateFakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	f, err := s.hub.CreateFake(req.Name, req.Definition)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to create fake", err)
		return
	}
	respondJSON(w, http.StatusCreated, fakeResponse(f))
}

func (s *Server) handleGetFake(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, fakeResponse(f))
}

func (s *Server) handleRedefineFake(w http.ResponseWriter, r *http.Request) {
	var req RedefineFakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	f, err := s.hub.Redefine(chi.URLParam(r, "fakeId"), req.Definition)
	if errors.Is(err, fakehub.ErrFakeNotFound) {
		respondError(w, http.StatusNotFound, "fake not found", err)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to redefine fake", err)
		return
	}

	// The new manager numbers its history from 1 again.
	s.clearJournal(r.Context(), f.ID)
	respondJSON(w, http.StatusOK, fakeResponse(f))
}

func (s *Server) handleDeleteFake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "fakeId")
	if err := s.hub.Delete(id); err != nil {
		respondError(w, http.StatusNotFound, "fake not found", err)
		return
	}

	s.clearJournal(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearJournal(ctx context.Context, fakeID string) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Delete(ctx, fakeID); err != nil {
		logger.Warn("failed to delete journal entries", "fake", fakeID, "error", err)
	}
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	var req CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cfg, err := ruleConfig(f, req)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid rule", err)
		return
	}

	var rule *fake.Rule
	switch req.Position {
	case "", "first":
		rule, err = f.Manager.Configure(cfg)
	case "last":
		rule, err = f.Manager.ConfigureLast(cfg)
	default:
		respondError(w, http.StatusBadRequest, "position must be first or last", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to add rule", err)
		return
	}
	respondJSON(w, http.StatusCreated, ruleResponse(rule))
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	rules := f.Manager.Rules().Snapshot().Rules()
	resp := RulesListResponse{Rules: make([]RuleResponse, 0, len(rules))}
	for _, rule := range rules {
		resp.Rules = append(resp.Rules, ruleResponse(rule))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	if !f.Manager.Rules().RemoveByID(chi.URLParam(r, "ruleId")) {
		respondError(w, http.StatusNotFound, "rule not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleIntercept(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	var req InterceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	method, err := f.Method(req.Method)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unknown method", err)
		return
	}
	ms := f.Definition[req.Method]
	if len(req.Arguments) != len(ms.Params) {
		respondError(w, http.StatusBadRequest, "argument count does not match the definition", nil)
		return
	}
	args, err := decodeAll(ms.Params, req.Arguments)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid arguments", err)
		return
	}

	call := fake.NewCall(f, method, args...)
	// a rule's configured error is the call's outcome, not a request failure
	_ = f.Manager.Intercept(call)

	respondJSON(w, http.StatusOK, callResponse(call))
}

func (s *Server) handleListCalls(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	calls := f.Manager.History().Calls()
	resp := CallsListResponse{Calls: make([]CallResponse, 0, len(calls))}
	for _, c := range calls {
		resp.Calls = append(resp.Calls, callResponse(c))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAssert(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}

	var req AssertionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	cfg, _, err := callConfig(f, req.CallSpec)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid call specification", err)
		return
	}
	repeat, err := repeatOf(req.Repeat)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid repeat", err)
		return
	}

	err = assertion.Called(f.Manager, cfg, repeat)
	var failure *assertion.Failure
	switch {
	case err == nil:
		test, _, _ := cfg.Matcher()
		respondJSON(w, http.StatusOK, AssertionResponse{Passed: true, Actual: f.Manager.History().Count(test)})
	case errors.As(err, &failure):
		respondJSON(w, http.StatusOK, AssertionResponse{Explanation: failure.Error(), Actual: failure.Actual})
	default:
		respondError(w, http.StatusBadRequest, "invalid call specification", err)
	}
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	f, ok := s.fake(w, r)
	if !ok {
		return
	}
	if s.journal == nil {
		respondError(w, http.StatusNotFound, "journal is not configured", nil)
		return
	}

	entries, err := s.journal.List(r.Context(), f.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list journal", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
	})
}

// fake resolves the fakeId URL parameter, responding 404 when unknown.
func (s *Server) fake(w http.ResponseWriter, r *http.Request) (*fakehub.Fake, bool) {
	f, err := s.hub.Get(chi.URLParam(r, "fakeId"))
	if err != nil {
		respondError(w, http.StatusNotFound, "fake not found", err)
		return nil, false
	}
	return f, true
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}

	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
		logger.Logger.Error(message, "status", status, "error", err)
	case status >= 400:
		logger.WarnHttp4xx()
		logger.Debug(message, "status", status, "error", err)
	}
	respondJSON(w, status, resp)
}

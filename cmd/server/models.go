package main

import (
	"encoding/json"
	"time"

	"github.com/liamcoop/fakerules/fakehub"
)

// CreateFakeRequest represents the request body for creating a fake
type CreateFakeRequest struct {
	Name       string             `json:"name" example:"Store"`
	Definition fakehub.Definition `json:"definition"`
}

// RedefineFakeRequest replaces a fake's definition
type RedefineFakeRequest struct {
	Definition fakehub.Definition `json:"definition"`
}

// FakeResponse represents a fake in API responses
type FakeResponse struct {
	ID         string             `json:"id" example:"123e4567-e89b-12d3-a456-426614174000"`
	Name       string             `json:"name" example:"Store"`
	Definition fakehub.Definition `json:"definition"`
	Rules      int                `json:"rules"`
	Calls      int                `json:"calls"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// FakesListResponse represents the response for listing fakes
type FakesListResponse struct {
	Fakes []FakeResponse `json:"fakes"`
}

// ArgumentSpec describes the constraint on one argument. Without any field
// set the argument is ignored.
type ArgumentSpec struct {
	Equals     json.RawMessage `json:"equals,omitempty"`
	Expression string          `json:"expression,omitempty" example:"arg > 3"`
	Contains   string          `json:"contains,omitempty"`
	Nil        bool            `json:"nil,omitempty"`
	Not        bool            `json:"not,omitempty"`
}

// CallSpec selects calls. An empty method selects any call; nil arguments
// accept any argument list.
type CallSpec struct {
	Method    string         `json:"method,omitempty" example:"Get"`
	Arguments []ArgumentSpec `json:"arguments,omitempty"`
	Where     string         `json:"where,omitempty" example:"size(args) == 1"`
}

// CreateRuleRequest represents the request body for configuring a rule
type CreateRuleRequest struct {
	CallSpec
	Returns   json.RawMessage   `json:"returns,omitempty"`
	Error     string            `json:"error,omitempty" example:"connection refused"`
	OutValues []json.RawMessage `json:"outValues,omitempty"`
	Times     *int              `json:"times,omitempty" example:"1"`
	Position  string            `json:"position,omitempty" example:"first"`
}

// RuleResponse represents a rule in API responses
type RuleResponse struct {
	ID           string `json:"id"`
	Kind         string `json:"kind" example:"specification"`
	Description  string `json:"description" example:"Store.Get(<equal to \"k\">)"`
	TimesApplied int    `json:"timesApplied"`
	Remaining    *int   `json:"remaining,omitempty"`
}

// RulesListResponse lists rules in priority order
type RulesListResponse struct {
	Rules []RuleResponse `json:"rules"`
}

// InterceptRequest represents a call made to a fake
type InterceptRequest struct {
	Method    string            `json:"method" example:"Get"`
	Arguments []json.RawMessage `json:"arguments"`
}

// CallResponse represents an intercepted call
type CallResponse struct {
	Sequence    uint64 `json:"sequence"`
	Method      string `json:"method"`
	Arguments   []any  `json:"arguments"`
	ReturnValue any    `json:"returnValue,omitempty"`
	OutValues   []any  `json:"outValues,omitempty"`
	Error       string `json:"error,omitempty"`
}

// CallsListResponse lists recorded calls in order
type CallsListResponse struct {
	Calls []CallResponse `json:"calls"`
}

// RepeatSpec selects a repeat constraint; the default is at least once
type RepeatSpec struct {
	Exactly *int `json:"exactly,omitempty"`
	AtLeast *int `json:"atLeast,omitempty"`
	AtMost  *int `json:"atMost,omitempty"`
	Never   bool `json:"never,omitempty"`
}

// AssertionRequest asks how often matching calls were made
type AssertionRequest struct {
	CallSpec
	Repeat RepeatSpec `json:"repeat"`
}

// AssertionResponse represents the verdict of an assertion
type AssertionResponse struct {
	Passed      bool   `json:"passed"`
	Explanation string `json:"explanation,omitempty"`
	Actual      int    `json:"actual"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"fake not found"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status" example:"healthy"`
	Fakes    int    `json:"fakes"`
	Journal  string `json:"journal" example:"postgres"`
	Errors   int64  `json:"errors"`
	Warnings int64  `json:"warnings"`
	Error    string `json:"error,omitempty"`
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/models"
)

// POCMatchRequest asks the email-only matching endpoint for recommendations.
type POCMatchRequest struct {
	Query      string `json:"query"`
	UserEmail  string `json:"user_email,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type POCMatchResponse struct {
	Results        []models.MatchResult  `json:"results"`
	UserCompany    string                `json:"user_company,omitempty"`
	QueryProcessed string                `json:"query_processed"`
	Revealed       bool                  `json:"revealed"`
	CreditSummary  *models.CreditSummary `json:"credit_summary,omitempty"`
}

func (c *Client) MatchPOC(ctx context.Context, req POCMatchRequest) (*POCMatchResponse, error) {
	var out POCMatchResponse
	if err := c.post(ctx, "/api/matching-poc/match", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Health struct {
	Status       string `json:"status"`
	Service      string `json:"service,omitempty"`
	OpenAIConfig bool   `json:"openai_configured"`
}

// Health checks the matching service. It is not retried; the caller polls.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/api/matching-poc/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type MatchRequest struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results,omitempty"`
}

// PersonPreview is a masked result of the account matching endpoint.
type PersonPreview struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Title             string  `json:"title"`
	CompanyName       string  `json:"company_name"`
	CompanyBlurred    bool    `json:"company_blurred"`
	EmailMasked       string  `json:"email_masked"`
	Reason            string  `json:"reason"`
	EmailDraftBlurred bool    `json:"email_draft_blurred"`
	Score             float64 `json:"score"`
}

type PersonRevealed struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	CompanyName string  `json:"company_name"`
	CompanyID   int     `json:"company_id"`
	Email       string  `json:"email"`
	Reason      string  `json:"reason"`
	EmailDraft  string  `json:"email_draft"`
	Score       float64 `json:"score"`
}

type MatchResponse struct {
	MatchID       int                   `json:"match_id"`
	Results       []PersonPreview       `json:"results"`
	CreditCost    int                   `json:"credit_cost"`
	TokenUsage    map[string]int        `json:"token_usage,omitempty"`
	Status        string                `json:"status"`
	CreditSummary *models.CreditSummary `json:"credit_summary,omitempty"`
}

type RevealResponse struct {
	MatchID       int                   `json:"match_id"`
	Results       []PersonRevealed      `json:"results"`
	CreditSummary *models.CreditSummary `json:"credit_summary,omitempty"`
}

func (c *Client) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	var out MatchResponse
	if err := c.post(ctx, "/api/matching/match", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reveal unlocks a previous match. It returns ErrPaymentRequired when the
// account has no credits left.
func (c *Client) Reveal(ctx context.Context, matchID string) (*RevealResponse, error) {
	var out RevealResponse
	if err := c.post(ctx, fmt.Sprintf("/api/matching/reveal/%s", pathEscape(matchID)), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type HistoryItem struct {
	ID          int        `json:"id"`
	Query       string     `json:"query"`
	Status      string     `json:"status"`
	ResultCount int        `json:"result_count"`
	CreditCost  int        `json:"credit_cost"`
	CreatedAt   time.Time  `json:"created_at"`
	RevealedAt  *time.Time `json:"revealed_at,omitempty"`
}

func (c *Client) History(ctx context.Context) ([]HistoryItem, error) {
	var out struct {
		Matches []HistoryItem `json:"matches"`
	}
	if err := c.get(ctx, "/api/matching/history", &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

package services

import (
	"context"
	"strconv"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/api"
	"github.com/dmitrijs2005/viqi/internal/client/models"
)

// FetchRequest is what a matcher needs to produce results for a query.
type FetchRequest struct {
	Query    string
	Identity *models.Identity
	// MatchID is the server-side match created by an earlier fetch.
	MatchID string
	// Unlock asks for the paid variant. Only set on the reveal path.
	Unlock bool
	// Cached is the current cache, used for the credit cost of a reveal.
	Cached *models.MatchResults
}

// FetchResult is one successful matcher round trip.
type FetchResult struct {
	Matches *models.MatchResults
	Credits *models.CreditSummary
	// Charged is the number of credits this call consumed.
	Charged int
}

// Matcher fetches match results from the backend. Each Fetch makes exactly
// one API call.
type Matcher interface {
	Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error)
}

type POCMatchingAPI interface {
	MatchPOC(ctx context.Context, req api.POCMatchRequest) (*api.POCMatchResponse, error)
}

type AccountMatchingAPI interface {
	Match(ctx context.Context, req api.MatchRequest) (*api.MatchResponse, error)
	Reveal(ctx context.Context, matchID string) (*api.RevealResponse, error)
}

// pocMatcher talks to the email-only endpoint. The backend decides whether
// the caller may see plain emails.
type pocMatcher struct {
	api        POCMatchingAPI
	maxResults int
	now        func() time.Time
}

func NewPOCMatcher(a POCMatchingAPI, maxResults int) Matcher {
	return &pocMatcher{api: a, maxResults: maxResults, now: time.Now}
}

func (m *pocMatcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	var email string
	if req.Identity != nil {
		email = req.Identity.Email
	}
	resp, err := m.api.MatchPOC(ctx, api.POCMatchRequest{
		Query:      req.Query,
		UserEmail:  email,
		MaxResults: m.maxResults,
	})
	if err != nil {
		return nil, err
	}

	out := &models.MatchResults{
		Status:      models.StatusPreview,
		Query:       req.Query,
		UserCompany: resp.UserCompany,
		Results:     resp.Results,
		FetchedAt:   m.now(),
	}
	if resp.Revealed && out.AllPlain() {
		out.Status = models.StatusRevealed
	}
	return &FetchResult{Matches: out, Credits: resp.CreditSummary}, nil
}

// accountMatcher creates a server-side match and unlocks it when asked to.
// Unlocking spends credits and fails with api.ErrPaymentRequired when there
// are none; without Unlock the match is recreated, which is free.
type accountMatcher struct {
	api        AccountMatchingAPI
	maxResults int
	now        func() time.Time
}

func NewAccountMatcher(a AccountMatchingAPI, maxResults int) Matcher {
	return &accountMatcher{api: a, maxResults: maxResults, now: time.Now}
}

func (m *accountMatcher) Fetch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	if req.Unlock && req.MatchID != "" {
		return m.reveal(ctx, req)
	}

	resp, err := m.api.Match(ctx, api.MatchRequest{Query: req.Query, MaxResults: m.maxResults})
	if err != nil {
		return nil, err
	}
	out := &models.MatchResults{
		Status:     models.StatusPreview,
		MatchID:    strconv.Itoa(resp.MatchID),
		Query:      req.Query,
		CreditCost: resp.CreditCost,
		FetchedAt:  m.now(),
	}
	for _, p := range resp.Results {
		r := models.MatchResult{
			ID:          strconv.Itoa(p.ID),
			Name:        p.Name,
			Title:       p.Title,
			CompanyName: p.CompanyName,
			EmailMasked: p.EmailMasked,
			Reason:      p.Reason,
			Score:       p.Score,
		}
		if p.CompanyBlurred {
			r.CompanyBlurred = p.CompanyName
		}
		out.Results = append(out.Results, r)
	}
	return &FetchResult{Matches: out, Credits: resp.CreditSummary}, nil
}

func (m *accountMatcher) reveal(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	resp, err := m.api.Reveal(ctx, req.MatchID)
	if err != nil {
		return nil, err
	}
	out := &models.MatchResults{
		Status:    models.StatusRevealed,
		MatchID:   req.MatchID,
		Query:     req.Query,
		FetchedAt: m.now(),
	}
	charged := 0
	if req.Cached != nil {
		out.UserCompany = req.Cached.UserCompany
		out.CreditCost = req.Cached.CreditCost
		charged = req.Cached.CreditCost
	}
	for _, p := range resp.Results {
		out.Results = append(out.Results, models.MatchResult{
			ID:          strconv.Itoa(p.ID),
			Name:        p.Name,
			Title:       p.Title,
			CompanyName: p.CompanyName,
			EmailMasked: p.Email,
			EmailPlain:  p.Email,
			Reason:      p.Reason,
			EmailDraft:  p.EmailDraft,
			Score:       p.Score,
		})
	}
	return &FetchResult{Matches: out, Credits: resp.CreditSummary, Charged: charged}, nil
}

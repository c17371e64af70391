// Package models holds the data exchanged with the ViQi API and cached in the
// local session store.
package models

import (
	"strings"
	"time"
)

type MatchStatus string

const (
	StatusPreview  MatchStatus = "preview"
	StatusRevealed MatchStatus = "revealed"
)

// MatchResult is one recommended contact. In the preview variant the company
// and email are masked and EmailPlain is empty.
type MatchResult struct {
	ID             string  `json:"id,omitempty"`
	Name           string  `json:"name"`
	Title          string  `json:"title"`
	CompanyName    string  `json:"company_name"`
	CompanyBlurred string  `json:"company_blurred,omitempty"`
	EmailMasked    string  `json:"email_masked"`
	EmailPlain     string  `json:"email_plain,omitempty"`
	Reason         string  `json:"reason"`
	EmailDraft     string  `json:"email_draft"`
	Score          float64 `json:"score"`
}

func (r MatchResult) HasPlainEmail() bool {
	return strings.TrimSpace(r.EmailPlain) != ""
}

// Email returns the address to show: the plain one when known, the masked one otherwise.
func (r MatchResult) Email() string {
	if r.HasPlainEmail() {
		return r.EmailPlain
	}
	return r.EmailMasked
}

// Company returns the company name to show for the current variant.
func (r MatchResult) Company() string {
	if r.HasPlainEmail() || r.CompanyBlurred == "" {
		return r.CompanyName
	}
	return r.CompanyBlurred
}

// MatchResults is the cached outcome of one query, stored under matchResults.
type MatchResults struct {
	Status      MatchStatus   `json:"status"`
	MatchID     string        `json:"match_id,omitempty"`
	Query       string        `json:"query"`
	UserCompany string        `json:"user_company,omitempty"`
	Results     []MatchResult `json:"results"`
	CreditCost  int           `json:"credit_cost,omitempty"`
	FetchedAt   time.Time     `json:"fetched_at"`
}

// HasPlainEmail reports whether at least one result carries an unmasked email.
func (m *MatchResults) HasPlainEmail() bool {
	if m == nil {
		return false
	}
	for _, r := range m.Results {
		if r.HasPlainEmail() {
			return true
		}
	}
	return false
}

// AllPlain reports whether every result carries an unmasked email. An empty
// result set is not considered plain.
func (m *MatchResults) AllPlain() bool {
	if m == nil || len(m.Results) == 0 {
		return false
	}
	for _, r := range m.Results {
		if !r.HasPlainEmail() {
			return false
		}
	}
	return true
}

// IsRevealed is true once the results are marked revealed and nothing is
// still masked.
func (m *MatchResults) IsRevealed() bool {
	return m != nil && m.Status == StatusRevealed && m.AllPlain()
}

// Promote returns a revealed copy built from the unmasked fields already
// present. Results without a plain email keep their masked values. It
// reports false, and returns nil, when there is nothing to unmask.
func (m *MatchResults) Promote() (*MatchResults, bool) {
	if !m.HasPlainEmail() {
		return nil, false
	}
	out := *m
	out.Status = StatusRevealed
	out.Results = make([]MatchResult, len(m.Results))
	for i, r := range m.Results {
		if r.HasPlainEmail() {
			r.EmailMasked = r.EmailPlain
			r.CompanyBlurred = r.CompanyName
		}
		out.Results[i] = r
	}
	return &out, true
}

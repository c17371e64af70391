package api

import (
	"context"

	"github.com/dmitrijs2005/viqi/internal/client/models"
)

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
)

type RegisterRequest struct {
	Email          string       `json:"email"`
	Name           string       `json:"name,omitempty"`
	AuthProvider   AuthProvider `json:"auth_provider"`
	BusinessDomain string       `json:"business_domain,omitempty"`
}

type Company struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Domain string `json:"domain,omitempty"`
}

type User struct {
	ID                 int      `json:"id"`
	Email              string   `json:"email"`
	Name               string   `json:"name,omitempty"`
	Role               string   `json:"role,omitempty"`
	CreditsBalance     int      `json:"credits_balance"`
	Company            *Company `json:"company,omitempty"`
	SubscriptionStatus string   `json:"subscription_status,omitempty"`
	IsSubscribed       bool     `json:"is_subscribed"`
	CanAccessPremium   bool     `json:"can_access_premium"`
}

// CompanyName returns the backend's company for the user, or "".
func (u User) CompanyName() string {
	if u.Company == nil {
		return ""
	}
	return u.Company.Name
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// Identity converts the response into the client identity it establishes.
func (r AuthResponse) Identity(authType models.AuthType) models.Identity {
	return models.Identity{
		Email:    r.User.Email,
		Name:     r.User.Name,
		Company:  r.User.CompanyName(),
		Token:    r.AccessToken,
		AuthType: authType,
	}
}

// Register creates or refreshes the backend account for an already verified
// identity and returns a backend access token.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.post(ctx, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/viqi/internal/client/models"
	"github.com/dmitrijs2005/viqi/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// federatedClaims are the ID token claims the client reads. Signature
// verification is the backend's job; the client only needs the profile.
type federatedClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	HostedDomain  string `json:"hd"`
	jwt.RegisteredClaims
}

// parseFederated reads the identity out of an ID token. Tokens that expired
// before now are reported with common.ErrTokenExpired.
func parseFederated(raw string, now time.Time) (*models.Identity, string, error) {
	var claims federatedClaims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(strings.TrimSpace(raw), &claims); err != nil {
		return nil, "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(now) {
		return nil, "", common.ErrTokenExpired
	}
	if !strings.Contains(claims.Email, "@") {
		return nil, "", fmt.Errorf("%w: no email claim", common.ErrInvalidToken)
	}

	domain := claims.HostedDomain
	if domain == "" {
		domain = models.EmailDomain(claims.Email)
	}
	return &models.Identity{
		Email:    claims.Email,
		Name:     claims.Name,
		Company:  models.CompanyFromEmail(claims.Email),
		AuthType: models.AuthFederated,
	}, domain, nil
}

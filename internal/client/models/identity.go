package models

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type AuthType string

const (
	AuthCustom    AuthType = "custom"
	AuthSession   AuthType = "session"
	AuthFederated AuthType = "federated"
)

// Identity is the signed-in user as seen by the client.
type Identity struct {
	Email    string   `json:"email"`
	Name     string   `json:"name,omitempty"`
	Company  string   `json:"company,omitempty"`
	Token    string   `json:"token,omitempty"`
	AuthType AuthType `json:"authType,omitempty"`
}

func (i *Identity) Valid() bool {
	return i != nil && strings.Contains(i.Email, "@")
}

var freeMailProviders = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
	"icloud.com":  {},
}

// EmailDomain returns the lower-cased domain part of email, or "".
func EmailDomain(email string) string {
	_, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok {
		return ""
	}
	return strings.ToLower(domain)
}

// CompanyFromEmail guesses a company name from a business email domain.
// The top-level domain is dropped and the remaining labels are title-cased.
// Free mail providers and malformed addresses yield "".
func CompanyFromEmail(email string) string {
	domain := EmailDomain(email)
	if domain == "" {
		return ""
	}
	if _, free := freeMailProviders[domain]; free {
		return ""
	}
	name := domain
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	name = strings.NewReplacer(".", " ", "-", " ", "_", " ").Replace(name)
	words := strings.Fields(name)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

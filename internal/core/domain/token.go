package domain

import "time"

// TokenStatus is maintained externally by a token validation process; the
// check engine only ever selects valid tokens.
type TokenStatus string

const (
	TokenPending TokenStatus = "pending"
	TokenValid   TokenStatus = "valid"
	TokenInvalid TokenStatus = "invalid"
)

// AccessToken is an opaque platform credential owned by one user. ProxyURL,
// when set, routes all platform traffic for this token through a proxy.
type AccessToken struct {
	ID           int64
	OwnerID      int64
	Name         string
	AccessToken  string
	ProxyURL     string
	Status       TokenStatus
	LastChecked  *time.Time
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

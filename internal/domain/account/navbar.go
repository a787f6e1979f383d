package account

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// NavbarState is which auth buttons are visible.
type NavbarState struct {
	ShowLogin  bool `json:"showLogin"`
	ShowSignup bool `json:"showSignup"`
	ShowLogout bool `json:"showLogout"`
}

// NavbarFor treats the user as signed in when an access token is present and
// is either opaque or not yet expired. The signature is not checked; the
// backend remains the authority.
func NavbarFor(accessToken string, now time.Time) NavbarState {
	signedIn := accessToken != ""
	if signedIn {
		if exp, ok := TokenExpiry(accessToken); ok && !now.Before(exp) {
			signedIn = false
		}
	}
	return NavbarState{
		ShowLogin:  !signedIn,
		ShowSignup: !signedIn,
		ShowLogout: signedIn,
	}
}

// TokenExpiry reads the exp claim without verifying the token.
func TokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

package httputil

import (
	"errors"
	"net/http"
	"strings"
)

// AuthCookieName is read when no Authorization header is present.
const AuthCookieName = "id_token"

var ErrNoToken = errors.New("no id token found in header or cookie")

// GetTokenFromRequest extracts the id token from "Authorization: Bearer <t>",
// falling back to the id_token cookie.
func GetTokenFromRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader != "" {
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if token := strings.TrimSpace(authHeader[7:]); token != "" {
				return token, nil
			}
		}
		return "", ErrNoToken
	}

	cookie, err := r.Cookie(AuthCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", ErrNoToken
}

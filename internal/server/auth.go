package server

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// TokenAuth admits observers presenting the shared token, either as a
// "token" query parameter or as a bearer Authorization header. An empty token
// admits everyone.
type TokenAuth struct {
	token string
}

func NewTokenAuth(token string) TokenAuth { return TokenAuth{token: token} }

func (a TokenAuth) Authorize(r *http.Request) error {
	if a.token == "" {
		return nil
	}
	got := r.URL.Query().Get("token")
	if got == "" {
		got, _ = strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

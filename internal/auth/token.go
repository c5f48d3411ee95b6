// Package auth guards the state-changing post endpoints with an anti-forgery token.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/rs/zerolog"
)

var authLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	authLogger = l
}

const (
	// HeaderName is the header the editor sends the token in.
	HeaderName = "RequestVerificationToken"
	// FormField is the hidden field full-page form posts carry the token in.
	FormField = "__RequestVerificationToken"
)

type TokenVerifier struct {
	token []byte
}

// NewTokenVerifier accepts token, or a freshly generated one when token is empty.
func NewTokenVerifier(token string) (*TokenVerifier, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate token: %w", err)
		}
		token = base64.RawURLEncoding.EncodeToString(buf)
		authLogger.Info().Msg("Generated anti-forgery token")
	}
	return &TokenVerifier{token: []byte(token)}, nil
}

func (v *TokenVerifier) Token() string {
	return string(v.token)
}

// Verify checks the header first and then the form field.
func (v *TokenVerifier) Verify(r *http.Request) bool {
	got := r.Header.Get(HeaderName)
	if got == "" && r.Header.Get(config.HCType) == config.CTypeForm {
		got = r.PostFormValue(FormField)
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), v.token) == 1
}

// RequireToken rejects unsafe requests that do not carry the token.
func (v *TokenVerifier) RequireToken() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if !v.Verify(r) {
				l := zerolog.Ctx(r.Context())
				l.Warn().Str("path", r.URL.Path).Msg("Rejected request without a valid anti-forgery token")
				http.Error(w, config.HTTPErrInvalidToken, http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithVerified(r.Context())))
		})
	}
}

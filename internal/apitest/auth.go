package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	detailUnauthenticated = "Could not validate credentials"
	detailForbidden       = "Not enough permissions"
)

// IssueToken signs an HS256 bearer token for userID that expires after ttl.
func (s *Server) IssueToken(userID int, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Server) verifyToken(tokenString string) (int, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, errors.New("invalid token claims")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return userID, nil
}

// authenticateLocked resolves the bearer token of r to an active account.
func (s *Server) authenticateLocked(r *http.Request) (*account, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(tokenString) == "" {
		return nil, false
	}

	userID, err := s.verifyToken(strings.TrimSpace(tokenString))
	if err != nil {
		return nil, false
	}

	found := s.findAccountByIDLocked(userID)
	if found == nil || !found.user.IsActive {
		return nil, false
	}
	return found, true
}

// requireUserLocked writes the 401 response itself and reports false when r
// carries no valid credentials.
func (s *Server) requireUserLocked(w http.ResponseWriter, r *http.Request) (*account, bool) {
	found, ok := s.authenticateLocked(r)
	if !ok {
		w.Header().Set("WWW-Authenticate", "Bearer")
		writeDetail(w, http.StatusUnauthorized, detailUnauthenticated)
		return nil, false
	}
	return found, true
}

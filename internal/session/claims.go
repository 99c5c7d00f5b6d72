package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// EmailFromToken reads the email claim from the token payload. The signature
// is not checked: the backend owns verification and the client only needs
// the claim to prefill registration.
func EmailFromToken(token Token) (string, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(string(token), claims)
	if err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return "", fmt.Errorf("decode token: %w", err)
	}
	email, _ := claims["email"].(string)
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("decode token: no email claim")
	}
	return email, nil
}

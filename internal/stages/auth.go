// Package stages provides ready-made handler stages for common chain
// positions: bearer-token authentication and rate limiting.
package stages

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"event-pipeline-api/internal/pipeline"
)

// ErrUnauthorized wraps every authentication failure so callers can map the
// stage error to 401 with a classifier rule.
var ErrUnauthorized = fmt.Errorf("unauthorized")

// Claims represents the JWT claims carried into the chain.
type Claims struct {
	UserID   string   `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTAuth returns a stage that validates the request's bearer token and
// merges the claims into the query under "claims". A missing or invalid
// token aborts the chain.
func JWTAuth(secret []byte) pipeline.Stage {
	return func(query any, meta pipeline.Metadata) pipeline.Executable {
		return pipeline.ExecFunc(func(ctx context.Context, query any) (any, error) {
			token, err := bearerToken(meta)
			if err != nil {
				return nil, err
			}
			claims, err := validateToken(token, secret)
			if err != nil {
				return nil, err
			}
			if q, ok := query.(map[string]any); ok {
				q["claims"] = claims
				return q, nil
			}
			return query, nil
		})
	}
}

func bearerToken(meta pipeline.Metadata) (string, error) {
	var header string
	for name, value := range meta.Headers {
		if strings.EqualFold(name, "Authorization") {
			header = value
			break
		}
	}
	if header == "" {
		return "", fmt.Errorf("%w: authorization header is required", ErrUnauthorized)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: authorization header must use Bearer scheme", ErrUnauthorized)
	}
	return parts[1], nil
}

func validateToken(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
}

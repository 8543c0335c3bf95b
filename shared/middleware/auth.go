package middleware

import (
	"context"
	"strings"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userId"

// Authenticator turns a bearer token into the id of an existing user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

func AuthMiddleware(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithAppError(c, apperr.New(apperr.Unauthenticated, "Authorization header required"))
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			RespondWithAppError(c, apperr.New(apperr.Unauthenticated, "Invalid authorization header format"))
			c.Abort()
			return
		}

		userID, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			RespondWithAppError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// CurrentUserID returns the authenticated caller or apperr.ErrUnauthenticated.
func CurrentUserID(c *gin.Context) (string, error) {
	userID := c.GetString(userIDKey)
	if userID == "" {
		return "", apperr.ErrUnauthenticated
	}
	return userID, nil
}

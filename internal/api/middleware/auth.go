package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ragbase/console/internal/domain"
	"github.com/ragbase/console/internal/repository"
)

// Context keys set by Auth for downstream handlers.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// Auth extracts the caller's identity from a bearer token issued by the
// external identity provider and records the user in the directory used by
// sharing lookups. With no secret configured (dev mode), identity comes
// from the X-User-Id / X-User-Email headers instead.
func Auth(jwtSecret string, users *repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID, email string

		if jwtSecret == "" {
			userID = c.GetHeader("X-User-Id")
			email = c.GetHeader("X-User-Email")
		} else {
			raw := c.GetHeader("Authorization")
			if !strings.HasPrefix(raw, "Bearer ") {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			token, err := jwt.Parse(strings.TrimPrefix(raw, "Bearer "), func(t *jwt.Token) (any, error) {
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				userID, _ = claims["sub"].(string)
				email, _ = claims["email"].(string)
			}
		}

		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		// Keep the user directory current; sharing autocomplete reads it.
		if users != nil && email != "" {
			users.Upsert(&domain.User{UserID: userID, Email: email})
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserEmail, email)
		c.Next()
	}
}

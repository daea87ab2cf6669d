package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	actorIDKey = "actor_id"
	roleKey    = "actor_role"
)

// Claims carries the authenticated identity issued by the external auth
// service. This core trusts the caller was already authorized.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Middleware validates the bearer token and stores the actor identity on the
// request context for downstream handlers.
func Middleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims,
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(actorIDKey, claims.Subject)
		c.Set(roleKey, claims.Role)
		c.Next()
	}
}

// ActorID returns the authenticated actor id, or empty when unauthenticated
func ActorID(c *gin.Context) string {
	return c.GetString(actorIDKey)
}

// Role returns the authenticated actor's role
func Role(c *gin.Context) string {
	return c.GetString(roleKey)
}

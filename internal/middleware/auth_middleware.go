package middleware

import (
	"log"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is a local definition for sending standardized error messages.
// It mirrors the one in internal/api/dto_models.go to avoid import cycles.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// AuthMiddleware provides Gin middleware for Firebase token authentication.
type AuthMiddleware struct {
	firebaseAuthClient *auth.Client
}

// NewAuthMiddleware creates a new AuthMiddleware instance. It panics if the
// firebaseAuthClient is nil; authenticated routes cannot function without it.
func NewAuthMiddleware(fbAuthClient *auth.Client) *AuthMiddleware {
	if fbAuthClient == nil {
		log.Fatal("CRITICAL_ERROR: Firebase Auth client is not initialized for AuthMiddleware. Ensure db.InitFirestore() and db.GetFirebaseAuthClient() are called and succeed before initializing middleware.")
		panic("Firebase Auth client is not initialized for AuthMiddleware")
	}
	return &AuthMiddleware{firebaseAuthClient: fbAuthClient}
}

// VerifyToken verifies a Firebase ID token from the Authorization header.
// On success it sets userID and, when present in the token claims, userEmail
// and userDisplayName in the Gin context.
func (m *AuthMiddleware) VerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header is required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Authorization header format must be 'Bearer {token}'"})
			return
		}
		idToken := parts[1]

		token, err := m.firebaseAuthClient.VerifyIDToken(c.Request.Context(), idToken)
		if err != nil {
			log.Printf("AuthMiddleware: Error verifying Firebase ID token: %v", err)
			// Generic message to the client; details stay server-side.
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Invalid or expired authentication token"})
			return
		}

		c.Set("userID", token.UID)
		if email, ok := token.Claims["email"].(string); ok {
			c.Set("userEmail", email)
		}
		if name, ok := token.Claims["name"].(string); ok {
			c.Set("userDisplayName", name)
		}

		c.Next()
	}
}

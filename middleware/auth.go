package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"splitpot/backend/config"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// DevUserID is the identity every request gets when Firebase is not configured
const DevUserID = "dev-user"

// tokenVerifier is the part of *auth.Client the middleware needs
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

var firebaseAuth tokenVerifier

// Seams for tests
var (
	firebaseInitApp = firebase.NewApp
	firebaseGetAuth = func(app *firebase.App, ctx context.Context) (*auth.Client, error) {
		return app.Auth(ctx)
	}
)

// InitializeFirebase sets up ID token verification from the configured
// service account. With no credentials it leaves auth disabled (dev mode).
func InitializeFirebase(cfg config.FirebaseConfig) error {
	log.Println("Starting Firebase initialization...")

	credentials, source, err := serviceAccount(cfg)
	if err != nil {
		log.Printf("Error reading Firebase credentials: %v", err)
		return err
	}
	if credentials == nil {
		log.Println("No Firebase credentials found, running with auth checks disabled")
		firebaseAuth = nil
		return nil
	}

	log.Printf("Using %s Firebase credentials from environment", source)

	var fbConfig *firebase.Config
	if cfg.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	ctx := context.Background()
	app, err := firebaseInitApp(ctx, fbConfig, option.WithCredentialsJSON(credentials))
	if err != nil {
		log.Printf("Error initializing Firebase app: %v", err)
		return err
	}

	client, err := firebaseGetAuth(app, ctx)
	if err != nil {
		log.Printf("Error getting Firebase Auth client: %v", err)
		return err
	}
	firebaseAuth = client

	log.Println("Firebase Admin SDK initialized successfully")
	return nil
}

func serviceAccount(cfg config.FirebaseConfig) ([]byte, string, error) {
	if cfg.ServiceAccountJSON != "" {
		return []byte(cfg.ServiceAccountJSON), "JSON", nil
	}
	if cfg.ServiceAccountBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(cfg.ServiceAccountBase64)
		if err != nil {
			return nil, "", fmt.Errorf("error decoding base64 Firebase credentials: %w", err)
		}
		return decoded, "base64", nil
	}
	return nil, "", nil
}

// AuthMiddleware verifies Firebase ID tokens and stores the caller's uid in
// the request context
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// CORS preflight carries no credentials
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if firebaseAuth == nil {
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), DevUserID)))
			return
		}

		idToken := extractToken(r.Header.Get("Authorization"))
		if idToken == "" {
			// Download links can't set headers
			idToken = r.URL.Query().Get("auth")
		}
		if idToken == "" {
			http.Error(w, "Unauthorized: No token provided", http.StatusUnauthorized)
			return
		}

		token, err := verifyToken(r.Context(), idToken)
		if err != nil {
			log.Printf("Error verifying token: %v", err)
			http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), token.UID)))
	})
}

// extractToken gets the token from the Authorization header
func extractToken(authHeader string) string {
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func verifyToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if firebaseAuth == nil {
		return nil, errors.New("Firebase auth client not initialized")
	}

	token, err := firebaseAuth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, fmt.Errorf("error verifying ID token: %w", err)
	}

	return token, nil
}

// WithUserID returns a copy of ctx carrying userID
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// GetUserIDFromContext retrieves the user ID from the request context
func GetUserIDFromContext(r *http.Request) string {
	userID, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userContextKey = "user"

// ErrInvalidToken is returned when a bearer token cannot be authenticated
var ErrInvalidToken = errors.New("invalid token")

// Authenticator validates bearer tokens. Local JWTs are tried first; when a Firebase
// verifier is configured, Firebase ID tokens are accepted as well.
type Authenticator struct {
	secret   []byte
	firebase *firebaseAuthenticator
	logger   *zap.Logger
}

// NewAuthenticator creates an Authenticator for tokens signed with secret
func NewAuthenticator(secret string, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{secret: []byte(secret), logger: logger}
}

// IssueToken signs a local JWT for the user
func (a *Authenticator) IssueToken(user *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &models.JwtCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate resolves a raw token into claims
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (*models.JwtCustomClaims, error) {
	claims, err := a.parseLocal(tokenString)
	if err == nil {
		return claims, nil
	}
	if a.firebase != nil {
		if claims, fbErr := a.firebase.authenticate(ctx, tokenString); fbErr == nil {
			return claims, nil
		}
	}
	return nil, err
}

func (a *Authenticator) parseLocal(tokenString string) (*models.JwtCustomClaims, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Middleware checks for a valid bearer token and stores the claims in the context.
// The token may also be passed as the "token" query parameter, which browsers need for WebSocket upgrades.
func (a *Authenticator) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenString, err := extractToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := a.Authenticate(c.Request().Context(), tokenString)
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					a.logger.Info("token validation failed", zap.Error(err))
				} else {
					a.logger.Warn("token validation failed", zap.Error(err))
				}
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			c.Set(userContextKey, claims)
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", errors.New("Missing Authorization header")
	}

	// Expecting "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("Invalid Authorization header format")
	}
	return parts[1], nil
}

// UserIDFromContext returns the authenticated user id, 0 when the request is anonymous
func UserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get(userContextKey).(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

package http

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/dsa-assistant/utils/log"
)

const (
	sessionIssuer = "dsa-assistant"

	// SessionIDKey is the echo context key holding the authenticated session id.
	SessionIDKey = "session_id"
)

// SessionClaims identify an anonymous chat session. They carry no
// conversation state; the transcript stays on the client.
type SessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

type SessionResponse struct {
	Token     string    `json:"token"`
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Sessions issues and verifies HMAC-signed session tokens guarding the
// websocket endpoint, which CORS does not protect.
type Sessions struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret []byte, ttl time.Duration) *Sessions {
	return &Sessions{secret: secret, ttl: ttl, now: time.Now}
}

// Issue handles POST /api/session.
func (s *Sessions) Issue(c echo.Context) error {
	resp, err := s.NewToken()
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("Error signing session token", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to create session").SetInternal(err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Sessions) NewToken() (SessionResponse, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := &SessionClaims{
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    sessionIssuer,
			Subject:   "chat-session",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return SessionResponse{}, fmt.Errorf("signing session token: %w", err)
	}
	return SessionResponse{Token: signed, Type: "Bearer", ExpiresAt: exp.UTC()}, nil
}

// Verify parses a token and returns its session id.
func (s *Sessions) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", fmt.Errorf("invalid session claims")
	}
	return claims.SessionID, nil
}

// JWTMiddleware accepts the token from the Authorization header or, for
// browsers that cannot set headers on a websocket handshake, from the
// "token" query parameter.
func (s *Sessions) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		if authHeader := c.Request().Header.Get("Authorization"); authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
			}
		}
		if tokenString == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthenticated)
		}

		sessionID, err := s.Verify(tokenString)
		if err != nil {
			log.WithCtx(c.Request().Context()).Debug("Session token rejected", zap.Error(err))
			return echo.NewHTTPError(http.StatusUnauthorized, msgUnauthenticated)
		}

		c.Set(SessionIDKey, sessionID)
		c.SetRequest(c.Request().WithContext(log.WithSessionID(c.Request().Context(), sessionID)))
		return next(c)
	}
}

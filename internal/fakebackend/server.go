// Package fakebackend is a local stand-in for the backend the probe checks.
// It issues HS256 token pairs on login and serves a fixed locations list to
// holders of a valid access token.
package fakebackend

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"apiprobe/internal/backend"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// DefaultLocations is served when no list is configured.
var DefaultLocations = []json.RawMessage{
	json.RawMessage(`{"id":1,"name":"Main Warehouse","latitude":52.370216,"longitude":4.895168}`),
	json.RawMessage(`{"id":2,"name":"North Depot","latitude":53.219383,"longitude":6.566502}`),
}

type Server struct {
	users      map[string]string
	locations  []json.RawMessage
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

type Option func(*Server)

// WithUser adds an account that can log in.
func WithUser(username, password string) Option {
	return func(s *Server) { s.users[username] = password }
}

func WithLocations(locations []json.RawMessage) Option {
	return func(s *Server) { s.locations = locations }
}

func WithSecret(secret []byte) Option {
	return func(s *Server) { s.secret = secret }
}

func WithAccessTTL(d time.Duration) Option {
	return func(s *Server) { s.accessTTL = d }
}

func New(opts ...Option) *Server {
	s := &Server{
		users:      map[string]string{},
		locations:  DefaultLocations,
		secret:     []byte(uuid.NewString()),
		accessTTL:  5 * time.Minute,
		refreshTTL: 24 * time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type detail struct {
	Detail string `json:"detail"`
	Code   string `json:"code,omitempty"`
}

// Echo returns the routed echo instance. Requests are logged to logger.
func (s *Server) Echo(logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			evt := logger.Info()
			if v.Error != nil {
				evt = logger.Error().Err(v.Error)
			}
			evt.Str("method", v.Method).Str("uri", v.URI).Int("status", v.Status).Msg("request")
			return nil
		},
	}))

	e.POST(backend.DefaultLoginPath, s.login)
	e.GET(backend.DefaultLocationsPath, s.listLocations)
	return e
}

func (s *Server) login(c echo.Context) error {
	var creds backend.Credentials
	if err := json.NewDecoder(c.Request().Body).Decode(&creds); err != nil {
		return c.JSON(http.StatusBadRequest, detail{Detail: "JSON parse error - " + err.Error(), Code: "parse_error"})
	}

	missing := map[string][]string{}
	if creds.Username == "" {
		missing["username"] = []string{"This field is required."}
	}
	if creds.Password == "" {
		missing["password"] = []string{"This field is required."}
	}
	if len(missing) > 0 {
		return c.JSON(http.StatusBadRequest, missing)
	}

	if pw, ok := s.users[creds.Username]; !ok || pw != creds.Password {
		return c.JSON(http.StatusUnauthorized, detail{Detail: "No active account found with the given credentials"})
	}

	refresh, err := s.issue(creds.Username, tokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return err
	}
	access, err := s.issue(creds.Username, tokenTypeAccess, s.accessTTL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, backend.LoginResponse{Access: access, Refresh: refresh})
}

func (s *Server) listLocations(c echo.Context) error {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return c.JSON(http.StatusUnauthorized, detail{Detail: "Authentication credentials were not provided."})
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return c.JSON(http.StatusUnauthorized, detail{Detail: "Authentication credentials were not provided."})
	}
	if _, err := s.verify(token); err != nil {
		return c.JSON(http.StatusUnauthorized, detail{Detail: "Given token not valid for any token type", Code: "token_not_valid"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Locations retrieved successfully",
		"data": map[string]any{
			"locations": s.locations,
		},
	})
}

func (s *Server) issue(username, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"token_type": tokenType,
		"exp":        jwt.NewNumericDate(now.Add(ttl)),
		"iat":        jwt.NewNumericDate(now),
		"jti":        uuid.NewString(),
		"user_id":    username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// verify accepts only unexpired access tokens signed with the server secret.
func (s *Server) verify(token string) (string, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}
	if claims["token_type"] != tokenTypeAccess {
		return "", errors.New("not an access token")
	}
	user, _ := claims["user_id"].(string)
	return user, nil
}

package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathanprogram2/obel/store"
)

const (
	tokenLifetime = 24 * time.Hour

	userIDContextKey = "obel.userID"
)

// AuthService handles signup, login, and bearer-token verification.
type AuthService struct {
	Store  *store.Store
	Secret string
}

func (s *AuthService) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/signup", s.Signup)
	g.POST("/auth/login", s.Login)
}

type userClaims struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type credentialsPayload struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       int32  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func convertUser(u *store.User) *userResponse {
	return &userResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Signup creates a user with a bcrypt password hash.
func (s *AuthService) Signup(c echo.Context) error {
	var payload credentialsPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid request body"})
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: username, password"})
	}

	ctx := c.Request().Context()
	if existing, err := s.Store.FindUser(ctx, &store.FindUser{Username: &payload.Username}); err == nil && existing != nil {
		return c.JSON(http.StatusConflict, &errorResponse{Error: "Username already taken"})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("password hash failed", "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to create account"})
	}

	user, err := s.Store.CreateUser(ctx, &store.User{
		Username:     payload.Username,
		Email:        strings.TrimSpace(payload.Email),
		PasswordHash: string(hash),
	})
	if err != nil {
		slog.Error("create user failed", "username", payload.Username, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Failed to create account"})
	}

	return c.JSON(http.StatusCreated, map[string]any{"user": convertUser(user)})
}

// Login verifies credentials and issues a 24h HS256 token. Invalid username
// and invalid password are indistinguishable to the caller.
func (s *AuthService) Login(c echo.Context) error {
	var payload credentialsPayload
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Invalid request body"})
	}
	payload.Username = strings.TrimSpace(payload.Username)
	if payload.Username == "" || payload.Password == "" {
		return c.JSON(http.StatusBadRequest, &errorResponse{Error: "Missing required fields: username, password"})
	}

	user, err := s.Store.FindUser(c.Request().Context(), &store.FindUser{Username: &payload.Username})
	if err != nil {
		slog.Error("find user failed", "username", payload.Username, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Login failed"})
	}
	if user == nil {
		return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "Invalid username or password"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "Invalid username or password"})
	}

	token, err := s.issueToken(user)
	if err != nil {
		slog.Error("token signing failed", "user", user.ID, "error", err)
		return c.JSON(http.StatusInternalServerError, &errorResponse{Error: "Login failed"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user":  convertUser(user),
		"token": token,
	})
}

func (s *AuthService) issueToken(user *store.User) (string, error) {
	now := time.Now()
	claims := &userClaims{
		ID:       user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
}

// RequireUser rejects requests without a valid bearer token and stashes the
// user ID in the request context for downstream handlers.
func (s *AuthService) RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "Authentication required"})
			}

			claims := &userClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(s.Secret), nil
			})
			if err != nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "Invalid or expired token"})
			}

			// The token may outlive the account.
			user, err := s.Store.GetUser(c.Request().Context(), claims.ID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, &errorResponse{Error: "Invalid or expired token"})
			}

			c.Set(userIDContextKey, user.ID)
			return next(c)
		}
	}
}

// currentUserID returns the authenticated user ID set by RequireUser.
func currentUserID(c echo.Context) int32 {
	if id, ok := c.Get(userIDContextKey).(int32); ok {
		return id
	}
	return 0
}

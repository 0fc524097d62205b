package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"lg/fitness-tracker-api/internal/profile"
)

// dummyHash is a pre-computed bcrypt hash used when a login email isn't found.
// Running bcrypt against it keeps response time constant, preventing
// timing-based account enumeration.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy"), bcrypt.DefaultCost)

var (
	errTokenExpired = errors.New("token expired")
	errTokenInvalid = errors.New("invalid token")
)

// tokenClaims is the JWT payload. The subject is the user ID.
type tokenClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// tokenIssuer signs and verifies HS256 access tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret string, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *tokenIssuer) issue(userID int) (string, error) {
	now := t.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// verify parses token and returns the user ID it was issued for.
func (t *tokenIssuer) verify(token string) (int, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, errTokenExpired
		}
		return 0, errTokenInvalid
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return 0, errTokenInvalid
	}
	return claims.UserID, nil
}

// authResponse is returned by register and login.
type authResponse struct {
	Token string `json:"token"`
	User  user   `json:"user"`
}

type registerRequest struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	HeightCm *float64 `json:"height_cm"`
	WeightKg *float64 `json:"weight_kg"`
	Goal     *string  `json:"goal"`
}

// validateProfileFields checks the optional profile fields shared by
// registration and profile updates. Returns "" when everything is valid.
func validateProfileFields(name, email *string, heightCm, weightKg *float64, goal *string) string {
	var err error
	if name != nil {
		err = profile.CheckName(*name)
	}
	if err == nil && email != nil {
		err = profile.CheckEmail(*email)
	}
	if err == nil && heightCm != nil {
		err = profile.CheckHeight(*heightCm)
	}
	if err == nil && weightKg != nil {
		err = profile.CheckWeight(*weightKg)
	}
	if err == nil && goal != nil {
		err = profile.CheckGoal(*goal)
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// register creates an account and returns a token for it.
// POST /api/auth/register (public).
func (h *Handler) register(c *gin.Context) {
	var body registerRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	body.Name = strings.TrimSpace(body.Name)
	body.Email = strings.TrimSpace(body.Email)
	if msg := validateProfileFields(&body.Name, &body.Email, body.HeightCm, body.WeightKg, body.Goal); msg != "" {
		apiError(c, http.StatusBadRequest, msg)
		return
	}
	if err := profile.CheckPassword(body.Password); err != nil {
		apiError(c, http.StatusBadRequest, err.Error())
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalError(c, err, "failed to hash password")
		return
	}

	u, err := h.users.createUser(c, newUserParams{
		Name: body.Name, Email: body.Email, Password: string(hash),
		HeightCm: body.HeightCm, WeightKg: body.WeightKg, Goal: body.Goal,
	})
	if errors.Is(err, errEmailTaken) {
		apiError(c, http.StatusBadRequest, "a user with this email already exists")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to create user")
		return
	}

	token, err := h.tokens.issue(u.ID)
	if err != nil {
		h.internalError(c, err, "failed to issue token")
		return
	}
	h.log.WithField("user_id", u.ID).Info("user registered")
	c.JSON(http.StatusCreated, authResponse{Token: token, User: u})
}

// login verifies email/password and returns a fresh token.
// POST /api/auth/login (public).
func (h *Handler) login(c *gin.Context) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Email == "" || body.Password == "" {
		apiError(c, http.StatusBadRequest, "email and password are required")
		return
	}

	u, lookupErr := h.users.userByEmail(c, strings.TrimSpace(body.Email))
	if lookupErr != nil && !errors.Is(lookupErr, errUserNotFound) {
		h.internalError(c, lookupErr, "failed to look up user")
		return
	}

	// Always run bcrypt so an unknown email costs the same as a wrong password.
	hashToCheck := string(dummyHash)
	if lookupErr == nil {
		hashToCheck = u.Password
	}
	compareErr := bcrypt.CompareHashAndPassword([]byte(hashToCheck), []byte(body.Password))

	if lookupErr != nil || compareErr != nil {
		apiError(c, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.issue(u.ID)
	if err != nil {
		h.internalError(c, err, "failed to issue token")
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: u})
}

// me returns the authenticated user. GET /api/auth/me.
func (h *Handler) me(c *gin.Context) {
	u, err := h.users.userByID(c, c.GetInt("user_id"))
	if errors.Is(err, errUserNotFound) {
		apiError(c, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.internalError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, u)
}

// authMiddleware validates the Bearer token, confirms the user still exists
// and sets user_id on the context.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := h.tokens.verify(token)
		if err != nil {
			apiError(c, http.StatusUnauthorized, err.Error())
			c.Abort()
			return
		}

		if _, err := h.users.userByID(c, userID); err != nil {
			if errors.Is(err, errUserNotFound) {
				apiError(c, http.StatusUnauthorized, "user not found")
			} else {
				h.internalError(c, err, "failed to verify user")
			}
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

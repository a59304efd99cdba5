// Package auth provides authentication and authorization for the API server.
// It handles password hashing, JWT token generation/validation and role checks.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// User roles for role-based access control (RBAC)
const (
	RoleAdmin    = "admin"    // Full system access
	RoleObserver = "observer" // Manages own observation sites
	RoleViewer   = "viewer"   // Read-only access
)

// Issuer is the iss claim of every token this package signs.
const Issuer = "nightsky"

var (
	// ErrInvalidCredentials is returned when authentication fails
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned when token validation fails
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnauthorized is returned when user lacks required permissions
	ErrUnauthorized = errors.New("unauthorized access")
	// ErrNoSecret is returned when tokens are requested without a signing secret
	ErrNoSecret = errors.New("jwt secret is not configured")
)

// Claims represents the JWT claims for a user session.
type Claims struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Config holds authentication configuration.
type Config struct {
	JWTSecret     string        // Secret key for signing JWTs
	TokenDuration time.Duration // How long tokens are valid
	BCryptCost    int           // BCrypt hashing cost (default: bcrypt.DefaultCost)
}

// Service provides authentication operations.
type Service struct {
	config Config
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(cfg Config) *Service {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.TokenDuration == 0 {
		cfg.TokenDuration = 24 * time.Hour
	}
	return &Service{config: cfg, now: time.Now}
}

// HashPassword hashes a plaintext password using bcrypt.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// ComparePassword checks a plaintext password against its hash. Any
// mismatch is reported as ErrInvalidCredentials.
func (s *Service) ComparePassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken generates a signed JWT for a user.
func (s *Service) GenerateToken(userID int, username, role string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", ErrNoSecret
	}
	now := s.now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// ValidateToken validates a JWT and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	if s.config.JWTSecret == "" {
		return nil, ErrNoSecret
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// HasRole checks if a user has a specific role or higher.
// Role hierarchy: Admin > Observer > Viewer
func HasRole(userRole, requiredRole string) bool {
	roleLevel := map[string]int{
		RoleAdmin:    2,
		RoleObserver: 1,
		RoleViewer:   0,
	}

	userLevel, ok1 := roleLevel[userRole]
	requiredLevel, ok2 := roleLevel[requiredRole]
	if !ok1 || !ok2 {
		return false
	}
	return userLevel >= requiredLevel
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return HasRole(role, RoleViewer)
}

// CanManageSites checks if a role can create and modify observation sites.
func CanManageSites(role string) bool {
	return HasRole(role, RoleObserver)
}

// CanViewStatus checks if a role can read server and database status.
func CanViewStatus(role string) bool {
	return role == RoleAdmin
}

type claimsKey struct{}

// WithClaims returns a context carrying the authenticated claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

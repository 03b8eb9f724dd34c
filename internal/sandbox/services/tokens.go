package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"tourdesk/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

type Claims struct {
	UserID uint64   `json:"user_id"`
	Email  string   `json:"email"`
	Role   string   `json:"role"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// AuthService issues and checks sandbox bearer tokens. Every token is backed
// by an AuthTransaction row so logout can revoke it before it expires.
type AuthService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{db: db, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issued is the result of a successful login
type Issued struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

// Login checks the credentials and issues a token
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (*Issued, error) {
	user, err := models.GetUserByEmail(email, s.db.WithContext(ctx))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	token, claims, err := s.GenerateJWT(user, now)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.AuthTransaction{
			UserID:    user.ID,
			TokenID:   claims.ID,
			IPAddress: ip,
			UserAgent: userAgent,
			ExpiresAt: claims.ExpiresAt.Time,
		}).Error; err != nil {
			return err
		}
		return tx.Model(user).Update("last_login_at", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.LastLoginAt = &now

	return &Issued{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

func (s *AuthService) GenerateJWT(user *models.User, now time.Time) (string, *Claims, error) {
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		Scopes: models.ScopesForRole(user.Role, s.db),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// ParseJWT verifies the signature and expiry, then checks the token has not
// been revoked.
func (s *AuthService) ParseJWT(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	tx := &models.AuthTransaction{}
	if err := s.db.WithContext(ctx).Where("token_id = ?", claims.ID).First(tx).Error; err != nil {
		return nil, ErrTokenRevoked
	}
	if !tx.Active(s.now()) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke ends the session behind claims
func (s *AuthService) Revoke(ctx context.Context, claims *Claims) error {
	return s.db.WithContext(ctx).Model(&models.AuthTransaction{}).
		Where("token_id = ? AND revoked_at IS NULL", claims.ID).
		Update("revoked_at", s.now()).Error
}

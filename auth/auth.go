package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/diewo77/smartstore/httpx"
	"github.com/diewo77/smartstore/internal/models"
)

type ctxKey string

const userIDCtxKey = ctxKey("userID")

var ErrInvalidCredentials = errors.New("invalid credentials")

// HashPassword returns the bcrypt hash stored in place of the plaintext.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// newKey draws a 20-byte random token key, hex encoded to 40 chars.
func newKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// IssueToken exchanges email+password for the user's opaque token, creating
// one on first login. Wrong password, unknown email, and inactive accounts
// all come back as ErrInvalidCredentials so the endpoint leaks nothing.
func IssueToken(db *gorm.DB, email, password string) (*models.AuthToken, error) {
	var user models.User
	if err := db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive || !CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	var token models.AuthToken
	err := db.Where("user_id = ?", user.ID).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		key, kerr := newKey()
		if kerr != nil {
			return nil, kerr
		}
		token = models.AuthToken{Key: key, UserID: user.ID}
		err = db.Create(&token).Error
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ParseHeader extracts the opaque key from an Authorization header. Both
// "Token <key>" and "Bearer <key>" forms are accepted.
func ParseHeader(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", false
	}
	scheme := strings.ToLower(parts[0])
	if scheme != "token" && scheme != "bearer" {
		return "", false
	}
	return parts[1], true
}

// ResolveToken maps a key to its active owner id.
func ResolveToken(db *gorm.DB, key string) (uint, bool) {
	var token models.AuthToken
	if err := db.Where("key = ?", key).First(&token).Error; err != nil {
		return 0, false
	}
	var user models.User
	if err := db.Select("id", "is_active").First(&user, token.UserID).Error; err != nil {
		return 0, false
	}
	if !user.IsActive {
		return 0, false
	}
	return user.ID, true
}

// WithUserID stores user id in context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, userIDCtxKey, userID)
}

// UserIDFromContext extracts user id.
func UserIDFromContext(ctx context.Context) (uint, bool) {
	v := ctx.Value(userIDCtxKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// RequireToken rejects requests without a valid token and attaches the
// authenticated user id to the request context.
func RequireToken(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := ParseHeader(r.Header.Get("Authorization"))
			if !ok {
				httpx.Unauthorized(w)
				return
			}
			uid, ok := ResolveToken(db, key)
			if !ok {
				httpx.Unauthorized(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

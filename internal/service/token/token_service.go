package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/akozhevin/storefront/internal/models"
)

const (
	AccessTTL  = 15 * time.Minute
	RefreshTTL = 7 * 24 * time.Hour
)

var (
	ErrInvalidRefresh = errors.New("invalid refresh token")
	ErrStaleRefresh   = errors.New("refresh token superseded")
)

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

type Pair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

func SignAccessToken(userID uint, role string, version int, secret []byte) (string, error) {
	exp := time.Now().Add(AccessTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"ver":  version,
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

func SignRefreshToken(userID uint, role string, version int, secret []byte) (string, error) {
	exp := time.Now().Add(RefreshTTL)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"ver":  version,
		"exp":  exp.Unix(),
		"typ":  "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(secret)
}

// IssuePair signs a fresh access/refresh pair and stores the refresh token
// server-side so it can be revoked individually.
func (t *TokenService) IssuePair(user *models.User) (*Pair, error) {
	access, err := SignAccessToken(user.ID, user.Role, user.TokenVersion, t.JWTSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := SignRefreshToken(user.ID, user.Role, user.TokenVersion, t.RefreshSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(RefreshTTL)
	row := models.RefreshToken{
		Token:        refresh,
		UserID:       user.ID,
		TokenVersion: user.TokenVersion,
		ExpiresAt:    refreshExp.Unix(),
	}
	if err := t.DB.Create(&row).Error; err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &Pair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  time.Now().Add(AccessTTL),
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Rotate validates a presented refresh token and swaps it for a new pair.
// A token whose embedded version no longer matches the user's current
// token_version is rejected, which is how logout-all and password changes
// invalidate every outstanding session at once.
func (t *TokenService) Rotate(rawToken string) (*Pair, *models.User, error) {
	claims, err := parseRefresh(rawToken, t.RefreshSecret)
	if err != nil {
		return nil, nil, ErrInvalidRefresh
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", rawToken).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidRefresh
		}
		return nil, nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked || time.Now().Unix() > stored.ExpiresAt {
		return nil, nil, ErrInvalidRefresh
	}

	var user models.User
	if err := t.DB.First(&user, stored.UserID).Error; err != nil {
		return nil, nil, ErrInvalidRefresh
	}

	ver, _ := claims["ver"].(float64)
	if int(ver) != user.TokenVersion || stored.TokenVersion != user.TokenVersion {
		// stale session; make sure the row cannot be replayed either
		t.DB.Model(&stored).Update("revoked", true)
		return nil, nil, ErrStaleRefresh
	}

	if err := t.DB.Model(&stored).Update("revoked", true).Error; err != nil {
		return nil, nil, fmt.Errorf("db error: %w", err)
	}

	pair, err := t.IssuePair(&user)
	if err != nil {
		return nil, nil, err
	}
	return pair, &user, nil
}

// Revoke marks a single stored refresh token as unusable.
func (t *TokenService) Revoke(rawToken string) error {
	return t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", rawToken).
		Update("revoked", true).Error
}

// BumpVersion increments the user's token_version, invalidating every
// refresh token issued before the bump.
func (t *TokenService) BumpVersion(userID uint) error {
	return t.DB.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")).Error
}

func parseRefresh(rawToken string, secret []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(rawToken, func(tk *jwt.Token) (any, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}

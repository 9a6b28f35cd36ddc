package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 30 * 24 * time.Hour
)

type JWTService struct {
	secretKey []byte
	redis     *redis.Client
}

func NewJWTService(secretKey string, redisClient *redis.Client) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
		redis:     redisClient,
	}
}

// GenerateToken выпускает пару access/refresh. Refresh-токен хранится
// в Redis и отзывается при логауте.
func (s *JWTService) GenerateToken(ctx context.Context, userID int64, username, role string) (string, string, error) {
	claims := jwt.MapClaims{
		"user_id":  strconv.FormatInt(userID, 10),
		"username": username,
		"role":     role,
		"exp":      time.Now().Add(accessTokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	accessToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign token: %v", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	refreshToken := hex.EncodeToString(raw)

	if err := s.redis.Set(ctx, "refresh:"+refreshToken, userID, refreshTokenTTL).Err(); err != nil {
		return "", "", fmt.Errorf("failed to store refresh token: %v", err)
	}

	return accessToken, refreshToken, nil
}

// ValidateRefreshToken возвращает userID владельца refresh-токена.
func (s *JWTService) ValidateRefreshToken(ctx context.Context, refreshToken string) (int64, error) {
	val, err := s.redis.Get(ctx, "refresh:"+refreshToken).Result()
	if err != nil {
		return 0, fmt.Errorf("refresh token not found")
	}
	return strconv.ParseInt(val, 10, 64)
}

// RevokeRefreshToken удаляет refresh-токен (логаут).
func (s *JWTService) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	return s.redis.Del(ctx, "refresh:"+refreshToken).Err()
}

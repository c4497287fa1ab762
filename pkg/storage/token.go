package storage

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DownloadTokenSigner issues and validates short-lived download tokens for
// stored report exports.
type DownloadTokenSigner struct {
	secret []byte
	ttl    time.Duration
}

type downloadClaims struct {
	ReportID string `json:"rid"`
	Path     string `json:"path"`
	jwt.RegisteredClaims
}

// NewDownloadTokenSigner constructs a signer with the provided secret and TTL.
func NewDownloadTokenSigner(secret string, ttl time.Duration) *DownloadTokenSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadTokenSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a signed token referencing the report and its file path.
func (s *DownloadTokenSigner) Generate(reportID, relPath string) (string, time.Time, error) {
	if reportID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("reportID and relPath required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	claims := downloadClaims{
		ReportID: reportID,
		Path:     relPath,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign download token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse validates a token and returns the embedded metadata. When allowExpired
// is true, the expiry check is skipped (used by cleanup routines).
func (s *DownloadTokenSigner) Parse(token string, allowExpired bool) (reportID, relPath string, expiresAt time.Time, err error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if allowExpired {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("parse download token: %w", err)
	}
	if !parsed.Valid && !allowExpired {
		return "", "", time.Time{}, fmt.Errorf("invalid download token")
	}
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	return claims.ReportID, claims.Path, expiresAt, nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"docqa/internal/domain"
)

// TokenConfig holds the signing secret for download tokens.
type TokenConfig struct {
	Secret   string
	Issuer   string
	MaxTTL   time.Duration
	ClockNow func() time.Time // test hook; defaults to time.Now
}

// DownloadToken is a minted short-lived token bound to one document.
type DownloadToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// DownloadFile is the streamed original plus response metadata.
type DownloadFile struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.ReadCloser
}

// DownloadTokenUsecase mints and verifies short-lived download tokens
// and streams the original file for a verified token.
type DownloadTokenUsecase interface {
	Mint(ctx context.Context, documentID string, expirationMinutes int) (*DownloadToken, error)
	Verify(token string) (documentID string, err error)
	Download(ctx context.Context, token string) (*DownloadFile, error)
}

type downloadClaims struct {
	DocumentID string `json:"documentId"`
	jwt.RegisteredClaims
}

type downloadTokenUsecase struct {
	index  domain.IndexClient
	blobs  domain.BlobStore
	cfg    TokenConfig
	logger *slog.Logger
}

// NewDownloadTokenUsecase creates the download token service.
func NewDownloadTokenUsecase(index domain.IndexClient, blobs domain.BlobStore, cfg TokenConfig, logger *slog.Logger) DownloadTokenUsecase {
	if cfg.ClockNow == nil {
		cfg.ClockNow = time.Now
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 60 * time.Minute
	}
	return &downloadTokenUsecase{index: index, blobs: blobs, cfg: cfg, logger: logger}
}

func (u *downloadTokenUsecase) Mint(ctx context.Context, documentID string, expirationMinutes int) (*DownloadToken, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: documentId must not be empty", domain.ErrValidation)
	}
	ttl := time.Duration(expirationMinutes) * time.Minute
	if ttl < time.Minute || ttl > u.cfg.MaxTTL {
		return nil, fmt.Errorf("%w: expirationMinutes must be in [1,%d]", domain.ErrValidation, int(u.cfg.MaxTTL.Minutes()))
	}

	exists, err := u.index.DocumentExists(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check document: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, documentID)
	}

	now := u.cfg.ClockNow()
	expiresAt := now.Add(ttl)
	claims := downloadClaims{
		DocumentID: documentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    u.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(u.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	u.logger.Info("download_token_minted",
		slog.String("document_id", documentID),
		slog.Time("expires_at", expiresAt))
	return &DownloadToken{Token: signed, ExpiresAt: expiresAt}, nil
}

func (u *downloadTokenUsecase) Verify(token string) (string, error) {
	claims := &downloadClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(u.cfg.Secret), nil
	}, jwt.WithTimeFunc(u.cfg.ClockNow))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", domain.ErrTokenExpired
		}
		return "", domain.ErrTokenInvalid
	}
	if !parsed.Valid || claims.DocumentID == "" {
		return "", domain.ErrTokenInvalid
	}
	return claims.DocumentID, nil
}

func (u *downloadTokenUsecase) Download(ctx context.Context, token string) (*DownloadFile, error) {
	documentID, err := u.Verify(token)
	if err != nil {
		return nil, err
	}

	chunk0s, err := u.index.GetChunk0s(ctx, []string{documentID})
	if err != nil {
		return nil, fmt.Errorf("failed to load document metadata: %w", err)
	}
	c0, ok := chunk0s[documentID]
	if !ok || c0.BlobPath == "" {
		return nil, fmt.Errorf("%w: document %s has no stored original", domain.ErrNotFound, documentID)
	}

	body, err := u.blobs.Download(ctx, c0.BlobPath)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: original file of %s", domain.ErrNotFound, documentID)
		}
		return nil, fmt.Errorf("failed to open original file: %w", err)
	}

	return &DownloadFile{
		FileName:    c0.OriginalFileName,
		ContentType: c0.ContentType,
		Size:        c0.FileSizeBytes,
		Body:        body,
	}, nil
}

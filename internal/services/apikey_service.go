package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"caltrack/internal/auth"
	"caltrack/internal/models"
)

// APIKeyService is the credential store: bcrypt-hashed bearer tokens keyed
// by owner email. Revocation is a soft flag, rows are never deleted.
type APIKeyService struct {
	db  *sqlx.DB
	log *zap.Logger
}

func NewAPIKeyService(db *sqlx.DB, log *zap.Logger) *APIKeyService {
	return &APIKeyService{db: db, log: log}
}

// GeneratedKey is returned exactly once at creation; the token is
// unrecoverable afterwards.
type GeneratedKey struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *APIKeyService) Generate(ctx context.Context, userEmail, name string) (*GeneratedKey, error) {
	token, hash, err := auth.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	id := uuid.NewString()
	var createdAt time.Time
	err = s.db.QueryRowxContext(ctx,
		`INSERT INTO api_keys (id, user_email, name, key_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		id, userEmail, name, hash).Scan(&createdAt)
	if err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	return &GeneratedKey{ID: id, Name: name, Token: token, CreatedAt: createdAt}, nil
}

// List returns the caller's active keys newest-first. Hashes never leave the
// service.
func (s *APIKeyService) List(ctx context.Context, userEmail string) ([]models.APIKey, error) {
	keys := []models.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, user_email, name, created_at, last_used_at, is_active
		 FROM api_keys
		 WHERE user_email = $1 AND is_active
		 ORDER BY created_at DESC`, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// Revoke flips is_active off for a key the caller owns. Not-found, wrong
// owner and already-revoked are indistinguishable false outcomes.
func (s *APIKeyService) Revoke(ctx context.Context, userEmail, keyID string) (bool, error) {
	if _, err := uuid.Parse(keyID); err != nil {
		return false, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE api_keys SET is_active = false WHERE id = $1 AND user_email = $2 AND is_active`,
		keyID, userEmail)
	if err != nil {
		return false, fmt.Errorf("revoke api key: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ActiveKeys lists every active credential record for bearer verification.
func (s *APIKeyService) ActiveKeys(ctx context.Context) ([]models.APIKey, error) {
	keys := []models.APIKey{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT id, user_email, key_hash FROM api_keys WHERE is_active`)
	if err != nil {
		return nil, fmt.Errorf("load active api keys: %w", err)
	}
	return keys, nil
}

// TouchKey stamps last_used_at. Called from a goroutine after successful
// verification, so it uses its own context and only logs failures.
func (s *APIKeyService) TouchKey(id string) {
	_, err := s.db.ExecContext(context.Background(),
		`UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`, id)
	if err != nil {
		s.log.Warn("could not stamp api key usage", zap.String("key_id", id), zap.Error(err))
	}
}

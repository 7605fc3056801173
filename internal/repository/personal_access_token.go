package repository

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"locagest/internal/domain"
)

const ownerTokenableType = "App\\Models\\User"

var ErrTokenNotFound = errors.New("token not found")

type PersonalAccessTokenRepository struct {
	db *sql.DB
}

func NewPersonalAccessTokenRepository(db *sql.DB) *PersonalAccessTokenRepository {
	return &PersonalAccessTokenRepository{db: db}
}

// FindTokenByPlainToken resolves a Sanctum token of the form "<id>|<secret>"
// or a bare secret. Only the sha256 of the secret is stored.
func (r *PersonalAccessTokenRepository) FindTokenByPlainToken(ctx context.Context, plainToken string) (*domain.PersonalAccessToken, error) {
	id, secret, err := splitToken(plainToken)
	if err != nil {
		return nil, err
	}
	hash := fmt.Sprintf("%x", sha256.Sum256([]byte(secret)))

	var pat domain.PersonalAccessToken
	if id != nil {
		err := r.db.QueryRowContext(ctx, `
			SELECT id, token, tokenable_id, abilities, expires_at
			FROM personal_access_tokens
			WHERE id = $1
			  AND tokenable_type = $2
			  AND (expires_at IS NULL OR expires_at > $3)`,
			*id, ownerTokenableType, time.Now(),
		).Scan(&pat.ID, &pat.TokenHash, &pat.OwnerID, &pat.Abilities, &pat.ExpiresAt)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrTokenNotFound
			}
			return nil, err
		}
		if pat.TokenHash != hash {
			return nil, ErrTokenNotFound
		}
		return &pat, nil
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT id, token, tokenable_id, abilities, expires_at
		FROM personal_access_tokens
		WHERE tokenable_type = $1
		  AND token = $2
		  AND (expires_at IS NULL OR expires_at > $3)
		ORDER BY created_at DESC
		LIMIT 1`,
		ownerTokenableType, hash, time.Now(),
	).Scan(&pat.ID, &pat.TokenHash, &pat.OwnerID, &pat.Abilities, &pat.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return &pat, nil
}

func splitToken(plain string) (*int64, string, error) {
	plain = strings.TrimSpace(plain)
	if plain == "" {
		return nil, "", errors.New("empty token")
	}

	idx := strings.Index(plain, "|")
	if idx <= 0 {
		return nil, plain, nil
	}

	id, err := strconv.ParseInt(plain[:idx], 10, 64)
	if err != nil {
		return nil, "", fmt.Errorf("malformed token id: %w", err)
	}
	secret := plain[idx+1:]
	if secret == "" {
		return nil, "", errors.New("empty token")
	}
	return &id, secret, nil
}

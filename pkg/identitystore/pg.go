package identitystore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
)

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the identity store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) CreateChallenge(ctx context.Context, challenge *identity.Challenge) error {
	dao := toChallengeDao(challenge)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}

	return nil
}

func (s *pgStore) GetChallengeByNonce(ctx context.Context, nonce string) (*identity.Challenge, error) {
	dao := new(ChallengeDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("nonce = ?", nonce).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	return toChallenge(dao), nil
}

func (s *pgStore) ExchangeChallenge(ctx context.Context, nonce string, sess *identity.Session) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		// Consume the nonce. The consumed_at guard makes the exchange
		// single-use even under concurrent verify calls.
		res, err := tx.NewUpdate().
			Model((*ChallengeDao)(nil)).
			Set("consumed_at = NOW()").
			Where("nonce = ?", nonce).
			Where("consumed_at IS NULL").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to consume challenge: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read consume result: %w", err)
		}
		if affected == 0 {
			return ErrChallengeConsumed
		}

		sessDao := toSessionDao(sess)
		_, err = tx.NewInsert().
			Model(sessDao).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		return nil
	})
}

func (s *pgStore) GetSessionByToken(ctx context.Context, token string) (*identity.Session, error) {
	dao := new(SessionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("token = ?", token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return toSession(dao), nil
}

func (s *pgStore) TouchSession(ctx context.Context, token string) error {
	_, err := s.db.NewUpdate().
		Model((*SessionDao)(nil)).
		Set("last_used_at = NOW()").
		Where("token = ?", token).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (s *pgStore) RevokeSession(ctx context.Context, token string) error {
	res, err := s.db.NewUpdate().
		Model((*SessionDao)(nil)).
		Set("revoked_at = NOW()").
		Where("token = ?", token).
		Where("revoked_at IS NULL").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read revoke result: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *pgStore) UpsertUser(ctx context.Context, usr *identity.User) (*identity.User, error) {
	dao := toUserDao(usr)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (wallet_address) DO UPDATE").
		Set("did = EXCLUDED.did").
		Set("display_name = COALESCE(EXCLUDED.display_name, u.display_name)").
		Set("email = COALESCE(EXCLUDED.email, u.email)").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) GetUserByID(ctx context.Context, id string) (*identity.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *pgStore) GetUserByWallet(ctx context.Context, walletAddress string) (*identity.User, error) {
	return s.getUser(ctx, "wallet_address = ?", walletAddress)
}

func (s *pgStore) GetUserByDID(ctx context.Context, did string) (*identity.User, error) {
	return s.getUser(ctx, "did = ?", did)
}

func (s *pgStore) getUser(ctx context.Context, cond string, arg any) (*identity.User, error) {
	dao := new(UserDao)
	err := s.db.NewSelect().
		Model(dao).
		Where(cond, arg).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUser(dao), nil
}

func (s *pgStore) CreateCredential(ctx context.Context, cred *identity.Credential) error {
	dao := toCredentialDao(cred)

	_, err := s.db.NewInsert().
		Model(dao).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}

	return nil
}

func (s *pgStore) GetCredential(ctx context.Context, id string) (*identity.Credential, error) {
	dao := new(CredentialDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	return toCredential(dao), nil
}

func (s *pgStore) GetCredentialByHash(ctx context.Context, userID, hash string) (*identity.Credential, error) {
	dao := new(CredentialDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_id = ?", userID).
		Where("hash = ?", hash).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, fmt.Errorf("failed to get credential by hash: %w", err)
	}

	return toCredential(dao), nil
}

func (s *pgStore) ListCredentialsByUser(ctx context.Context, userID string) ([]*identity.Credential, error) {
	var daos []CredentialDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	creds := make([]*identity.Credential, len(daos))
	for i := range daos {
		creds[i] = toCredential(&daos[i])
	}
	return creds, nil
}

func (s *pgStore) UpdateCredentialStatus(ctx context.Context, id string, status identity.CredentialStatus, reason string) error {
	q := s.db.NewUpdate().
		Model((*CredentialDao)(nil)).
		Set("status = ?", string(status)).
		Where("id = ?", id)

	switch status {
	case identity.CredentialVerified:
		q = q.Set("verified_at = NOW()")
	case identity.CredentialRevoked:
		q = q.Set("revoked_at = NOW()")
		if reason != "" {
			q = q.Set("revocation_reason = ?", reason)
		}
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update credential status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrCredentialNotFound
	}
	return nil
}

// DeleteExpiredChallenges removes unconsumed challenges whose lifetime
// elapsed before the cutoff. Run opportunistically by the API server.
func (s *pgStore) DeleteExpiredChallenges(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.NewDelete().
		Model((*ChallengeDao)(nil)).
		Where("consumed_at IS NULL").
		Where("expires_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired challenges: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected, nil
}

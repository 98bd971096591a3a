package identitystore

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
)

// UserDao is a data access object that maps directly to the 'users' table in PostgreSQL.
type UserDao struct {
	bun.BaseModel `bun:"table:users,alias:u"`
	ID            string    `bun:"id,pk,type:uuid"`
	DID           string    `bun:"did,unique,notnull,type:varchar(120)"`
	WalletAddress string    `bun:"wallet_address,unique,notnull,type:varchar(42)"`
	DisplayName   *string   `bun:"display_name,type:varchar(255)"`
	Email         *string   `bun:"email,type:varchar(255)"`
	Role          string    `bun:"role,notnull,default:'member',type:varchar(32)"`
	CreatedAt     time.Time `bun:"created_at,nullzero,default:current_timestamp"`
}

func toUserDao(usr *identity.User) *UserDao {
	dao := &UserDao{
		ID:            usr.ID,
		DID:           usr.DID,
		WalletAddress: usr.WalletAddress,
		Role:          usr.Role,
		CreatedAt:     usr.CreatedAt,
	}
	if dao.Role == "" {
		dao.Role = identity.RoleMember
	}
	if usr.DisplayName != "" {
		dao.DisplayName = &usr.DisplayName
	}
	if usr.Email != "" {
		dao.Email = &usr.Email
	}
	return dao
}

func toUser(dao *UserDao) *identity.User {
	usr := &identity.User{
		ID:            dao.ID,
		DID:           dao.DID,
		WalletAddress: dao.WalletAddress,
		Role:          dao.Role,
		CreatedAt:     dao.CreatedAt,
	}
	if dao.DisplayName != nil {
		usr.DisplayName = *dao.DisplayName
	}
	if dao.Email != nil {
		usr.Email = *dao.Email
	}
	return usr
}

// ChallengeDao is a data access object that maps directly to the 'auth_challenges' table in PostgreSQL.
type ChallengeDao struct {
	bun.BaseModel `bun:"table:auth_challenges,alias:c"`
	ID            string     `bun:"id,pk,type:uuid"`
	UserID        *string    `bun:"user_id,type:uuid"`
	Nonce         string     `bun:"nonce,unique,notnull,type:varchar(64)"`
	DID           string     `bun:"did,notnull,type:varchar(120)"`
	WalletAddress string     `bun:"wallet_address,notnull,type:varchar(42)"`
	Message       string     `bun:"message,notnull,type:text"`
	Statement     *string    `bun:"statement,type:text"`
	Resources     []string   `bun:"resources,array,type:text[]"`
	IssuedAt      time.Time  `bun:"issued_at,notnull"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull"`
	ConsumedAt    *time.Time `bun:"consumed_at"`
}

func toChallengeDao(ch *identity.Challenge) *ChallengeDao {
	dao := &ChallengeDao{
		ID:            ch.ID,
		Nonce:         ch.Nonce,
		DID:           ch.DID,
		WalletAddress: ch.WalletAddress,
		Message:       ch.Message,
		Resources:     ch.Resources,
		IssuedAt:      ch.IssuedAt,
		ExpiresAt:     ch.ExpiresAt,
		ConsumedAt:    ch.ConsumedAt,
	}
	if ch.UserID != "" {
		dao.UserID = &ch.UserID
	}
	if ch.Statement != "" {
		dao.Statement = &ch.Statement
	}
	return dao
}

func toChallenge(dao *ChallengeDao) *identity.Challenge {
	ch := &identity.Challenge{
		ID:            dao.ID,
		Nonce:         dao.Nonce,
		DID:           dao.DID,
		WalletAddress: dao.WalletAddress,
		Message:       dao.Message,
		Resources:     dao.Resources,
		IssuedAt:      dao.IssuedAt,
		ExpiresAt:     dao.ExpiresAt,
		ConsumedAt:    dao.ConsumedAt,
	}
	if dao.UserID != nil {
		ch.UserID = *dao.UserID
	}
	if dao.Statement != nil {
		ch.Statement = *dao.Statement
	}
	return ch
}

// SessionDao is a data access object that maps directly to the 'sessions' table in PostgreSQL.
type SessionDao struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`
	Token         string     `bun:"token,pk,type:varchar(64)"`
	Nonce         string     `bun:"nonce,notnull,type:varchar(64)"`
	UserID        string     `bun:"user_id,notnull,type:uuid"`
	WalletAddress string     `bun:"wallet_address,notnull,type:varchar(42)"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,default:current_timestamp"`
	ExpiresAt     time.Time  `bun:"expires_at,notnull"`
	LastUsedAt    *time.Time `bun:"last_used_at"`
	RevokedAt     *time.Time `bun:"revoked_at"`
}

func toSessionDao(sess *identity.Session) *SessionDao {
	return &SessionDao{
		Token:         sess.Token,
		Nonce:         sess.Nonce,
		UserID:        sess.UserID,
		WalletAddress: sess.WalletAddress,
		CreatedAt:     sess.CreatedAt,
		ExpiresAt:     sess.ExpiresAt,
		LastUsedAt:    sess.LastUsedAt,
		RevokedAt:     sess.RevokedAt,
	}
}

func toSession(dao *SessionDao) *identity.Session {
	return &identity.Session{
		Token:         dao.Token,
		Nonce:         dao.Nonce,
		UserID:        dao.UserID,
		WalletAddress: dao.WalletAddress,
		CreatedAt:     dao.CreatedAt,
		ExpiresAt:     dao.ExpiresAt,
		LastUsedAt:    dao.LastUsedAt,
		RevokedAt:     dao.RevokedAt,
	}
}

// CredentialDao is a data access object that maps directly to the 'credentials' table in PostgreSQL.
type CredentialDao struct {
	bun.BaseModel    `bun:"table:credentials,alias:cr"`
	ID               string     `bun:"id,pk,type:uuid"`
	UserID           string     `bun:"user_id,notnull,type:uuid"`
	CredentialType   string     `bun:"credential_type,notnull,type:varchar(120)"`
	Issuer           *string    `bun:"issuer,type:varchar(255)"`
	Hash             string     `bun:"hash,notnull,type:varchar(66)"`
	Metadata         *string    `bun:"metadata,type:text"`
	Status           string     `bun:"status,notnull,type:varchar(16)"`
	IssuedAt         time.Time  `bun:"issued_at,notnull"`
	VerifiedAt       *time.Time `bun:"verified_at"`
	RevokedAt        *time.Time `bun:"revoked_at"`
	RevocationReason *string    `bun:"revocation_reason,type:varchar(500)"`
}

func toCredentialDao(cred *identity.Credential) *CredentialDao {
	dao := &CredentialDao{
		ID:             cred.ID,
		UserID:         cred.UserID,
		CredentialType: cred.Type,
		Hash:           cred.Hash,
		Status:         string(cred.Status),
		IssuedAt:       cred.IssuedAt,
		VerifiedAt:     cred.VerifiedAt,
		RevokedAt:      cred.RevokedAt,
	}
	if cred.Issuer != "" {
		dao.Issuer = &cred.Issuer
	}
	if cred.Metadata != "" {
		dao.Metadata = &cred.Metadata
	}
	if cred.RevocationReason != "" {
		dao.RevocationReason = &cred.RevocationReason
	}
	return dao
}

func toCredential(dao *CredentialDao) *identity.Credential {
	cred := &identity.Credential{
		ID:         dao.ID,
		UserID:     dao.UserID,
		Type:       dao.CredentialType,
		Hash:       dao.Hash,
		Status:     identity.CredentialStatus(dao.Status),
		IssuedAt:   dao.IssuedAt,
		VerifiedAt: dao.VerifiedAt,
		RevokedAt:  dao.RevokedAt,
	}
	if dao.Issuer != nil {
		cred.Issuer = *dao.Issuer
	}
	if dao.Metadata != nil {
		cred.Metadata = *dao.Metadata
	}
	if dao.RevocationReason != nil {
		cred.RevocationReason = *dao.RevocationReason
	}
	return cred
}

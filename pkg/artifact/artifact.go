// Package artifact defines the research artifact domain model
package artifact

import "time"

// Visibility values for a research asset
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
	VisibilityGroup   = "group"
)

// Asset is the off-chain record of a registered research artifact.
// The off-chain row is authoritative; OnChainID and TxHash are filled in
// only when the on-chain mirror write succeeded.
type Asset struct {
	ID           string
	GroupID      string
	OwnerID      string
	Title        string
	Description  string
	IpfsCid      string
	ArtifactHash string
	Visibility   string
	ProposalID   string
	OnChainID    string
	TxHash       string
	Metadata     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterRequest is the payload for registering a research artifact
type RegisterRequest struct {
	GroupID      string `json:"group_id" validate:"required"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description,omitempty"`
	IpfsCid      string `json:"ipfs_cid" validate:"required"`
	ArtifactHash string `json:"artifact_hash,omitempty"`
	Visibility   string `json:"visibility,omitempty"`
	ProposalID   string `json:"proposal_id,omitempty"`
	Metadata     string `json:"metadata,omitempty"`
	// LabID selects the on-chain lab context; zero means off-chain only
	LabID uint64 `json:"lab_id,omitempty"`
}

// RegisterResponse returns the stored asset and, when the on-chain write
// succeeded, its transaction hash. An absent tx hash with a present asset
// is a valid, reconcilable state.
type RegisterResponse struct {
	Asset  *AssetResponse `json:"asset"`
	TxHash string         `json:"tx_hash,omitempty"`
}

// AssetResponse is the API view of a research asset
type AssetResponse struct {
	ID           string    `json:"id"`
	GroupID      string    `json:"group_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	IpfsCid      string    `json:"ipfs_cid"`
	ArtifactHash string    `json:"artifact_hash"`
	Visibility   string    `json:"visibility"`
	ProposalID   string    `json:"proposal_id,omitempty"`
	OnChainID    string    `json:"onchain_id,omitempty"`
	TxHash       string    `json:"tx_hash,omitempty"`
	Metadata     string    `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ToResponse builds the API view of an asset
func (a *Asset) ToResponse() *AssetResponse {
	return &AssetResponse{
		ID:           a.ID,
		GroupID:      a.GroupID,
		OwnerID:      a.OwnerID,
		Title:        a.Title,
		Description:  a.Description,
		IpfsCid:      a.IpfsCid,
		ArtifactHash: a.ArtifactHash,
		Visibility:   a.Visibility,
		ProposalID:   a.ProposalID,
		OnChainID:    a.OnChainID,
		TxHash:       a.TxHash,
		Metadata:     a.Metadata,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

// Package activity defines the append-only audit feed shared by the API
// services and the chain event sync engine.
package activity

import (
	"encoding/json"
	"time"
)

// Actions recorded in the feed
const (
	ActionArtifactRegistered = "artifact_registered"
	ActionArtifactAnchored   = "artifact_anchored"
	ActionProposalCreated    = "proposal_created"
	ActionProposalAdvanced   = "proposal_advanced"
	ActionVoteCast           = "vote_cast"
)

// Target types referenced by feed entries
const (
	TargetArtifact = "artifact"
	TargetProposal = "proposal"
)

// Entry is one append-only audit row. Entries originating from chain
// ingestion carry Source, BlockNumber and LogIndex; the triple is the
// dedupe key that makes re-runs of the sync engine idempotent.
// App-originated entries leave those fields unset.
type Entry struct {
	ID          string
	GroupID     string
	UserID      string
	Action      string
	TargetType  string
	TargetID    string
	Source      string
	BlockNumber *uint64
	LogIndex    *uint32
	TxHash      string
	Metadata    string
	CreatedAt   time.Time
}

// EntryResponse is the API view of a feed entry. Metadata is emitted as
// raw JSON rather than a quoted string.
type EntryResponse struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	Action      string          `json:"action"`
	TargetType  string          `json:"target_type,omitempty"`
	TargetID    string          `json:"target_id,omitempty"`
	Source      string          `json:"source,omitempty"`
	BlockNumber *uint64         `json:"block_number,omitempty"`
	LogIndex    *uint32         `json:"log_index,omitempty"`
	TxHash      string          `json:"tx_hash,omitempty"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ToResponse builds the API view of an entry
func (e *Entry) ToResponse() *EntryResponse {
	resp := &EntryResponse{
		ID:          e.ID,
		GroupID:     e.GroupID,
		UserID:      e.UserID,
		Action:      e.Action,
		TargetType:  e.TargetType,
		TargetID:    e.TargetID,
		Source:      e.Source,
		BlockNumber: e.BlockNumber,
		LogIndex:    e.LogIndex,
		TxHash:      e.TxHash,
		CreatedAt:   e.CreatedAt,
	}
	if e.Metadata != "" {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}

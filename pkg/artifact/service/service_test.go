package service

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

// MockStore implements Store for testing
type MockStore struct {
	RegisterAssetFunc     func(ctx context.Context, asset *artifact.Asset, entry *activity.Entry) error
	GetAssetFunc          func(ctx context.Context, id string) (*artifact.Asset, error)
	ListAssetsByGroupFunc func(ctx context.Context, groupID string) ([]*artifact.Asset, error)
	ListAssetsByOwnerFunc func(ctx context.Context, ownerID string) ([]*artifact.Asset, error)
	SetAssetOnChainFunc   func(ctx context.Context, id, onchainID, txHash string) error
	InsertActivityFunc    func(ctx context.Context, entry *activity.Entry) error
	ListActivityFunc      func(ctx context.Context, filter *assetstore.ActivityFilter) ([]*activity.Entry, error)
}

func (m *MockStore) RegisterAsset(ctx context.Context, asset *artifact.Asset, entry *activity.Entry) error {
	return m.RegisterAssetFunc(ctx, asset, entry)
}

func (m *MockStore) GetAsset(ctx context.Context, id string) (*artifact.Asset, error) {
	return m.GetAssetFunc(ctx, id)
}

func (m *MockStore) ListAssetsByGroup(ctx context.Context, groupID string) ([]*artifact.Asset, error) {
	return m.ListAssetsByGroupFunc(ctx, groupID)
}

func (m *MockStore) ListAssetsByOwner(ctx context.Context, ownerID string) ([]*artifact.Asset, error) {
	return m.ListAssetsByOwnerFunc(ctx, ownerID)
}

func (m *MockStore) SetAssetOnChainRef(ctx context.Context, id, onchainID, txHash string) error {
	if m.SetAssetOnChainFunc == nil {
		return nil
	}
	return m.SetAssetOnChainFunc(ctx, id, onchainID, txHash)
}

func (m *MockStore) InsertActivity(ctx context.Context, entry *activity.Entry) error {
	if m.InsertActivityFunc == nil {
		return nil
	}
	return m.InsertActivityFunc(ctx, entry)
}

func (m *MockStore) ListActivity(ctx context.Context, filter *assetstore.ActivityFilter) ([]*activity.Entry, error) {
	return m.ListActivityFunc(ctx, filter)
}

// MockResolver implements ProposalResolver for testing
type MockResolver struct {
	GetProposalFunc func(ctx context.Context, id string) (*governance.Proposal, error)
}

func (m *MockResolver) GetProposal(ctx context.Context, id string) (*governance.Proposal, error) {
	return m.GetProposalFunc(ctx, id)
}

// MockChain implements ChainWriter for testing
type MockChain struct {
	RegisterArtifactFunc func(ctx context.Context, labID uint64, cid string, artifactHash common.Hash, proposalID *big.Int) (string, error)
}

func (m *MockChain) RegisterArtifact(ctx context.Context, labID uint64, cid string, artifactHash common.Hash, proposalID *big.Int) (string, error) {
	return m.RegisterArtifactFunc(ctx, labID, cid, artifactHash, proposalID)
}

func registerRequest() *artifact.RegisterRequest {
	return &artifact.RegisterRequest{
		GroupID: "11111111-1111-1111-1111-111111111111",
		Title:   "Sequencing dataset v2",
		IpfsCid: "bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
	}
}

func TestRegisterOffChainOnly(t *testing.T) {
	var gotAsset *artifact.Asset
	var gotEntry *activity.Entry
	store := &MockStore{
		RegisterAssetFunc: func(_ context.Context, asset *artifact.Asset, entry *activity.Entry) error {
			gotAsset = asset
			gotEntry = entry
			return nil
		},
	}
	chain := &MockChain{
		RegisterArtifactFunc: func(_ context.Context, _ uint64, _ string, _ common.Hash, _ *big.Int) (string, error) {
			t.Fatal("chain write must not run without a lab id")
			return "", nil
		},
	}

	svc := NewService(store, nil, chain, zap.NewNop())

	resp, err := svc.Register(context.Background(), "owner-1", registerRequest())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if resp.TxHash != "" {
		t.Errorf("expected no tx hash, got %q", resp.TxHash)
	}
	if gotAsset.Visibility != artifact.VisibilityPublic {
		t.Errorf("expected default visibility public, got %q", gotAsset.Visibility)
	}
	if gotEntry.Action != activity.ActionArtifactRegistered {
		t.Errorf("expected registration activity, got %q", gotEntry.Action)
	}
	if gotEntry.Source != "" || gotEntry.BlockNumber != nil {
		t.Error("app-originated entry must not carry chain coordinates")
	}
}

func TestRegisterHashFallback(t *testing.T) {
	req := registerRequest()
	want := crypto.Keccak256Hash([]byte(req.IpfsCid)).Hex()

	tests := []struct {
		name     string
		provided string
		want     string
	}{
		{"absent hash", "", want},
		{"malformed hash", "0xzzzz", want},
		{"short hash", "0xabcd", want},
		{"valid hash kept", "0x92A9A4C1B3F0A2D4E5C6B7A8990A1B2C3D4E5F60718293A4B5C6D7E8F9A0B1C2",
			"0x92a9a4c1b3f0a2d4e5c6b7a8990a1b2c3d4e5f60718293a4b5c6d7e8f9a0b1c2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotHash string
			store := &MockStore{
				RegisterAssetFunc: func(_ context.Context, asset *artifact.Asset, _ *activity.Entry) error {
					gotHash = asset.ArtifactHash
					return nil
				},
			}

			svc := NewService(store, nil, nil, zap.NewNop())

			r := registerRequest()
			r.ArtifactHash = tt.provided
			if _, err := svc.Register(context.Background(), "owner-1", r); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if gotHash != tt.want {
				t.Errorf("expected hash %s, got %s", tt.want, gotHash)
			}
		})
	}
}

func TestRegisterAnchorsOnChain(t *testing.T) {
	var anchoredTx string
	var anchorEntry *activity.Entry
	store := &MockStore{
		RegisterAssetFunc: func(_ context.Context, _ *artifact.Asset, _ *activity.Entry) error { return nil },
		SetAssetOnChainFunc: func(_ context.Context, _, onchainID, txHash string) error {
			if onchainID != "" {
				t.Errorf("on-chain id is unknown at submit time, got %q", onchainID)
			}
			anchoredTx = txHash
			return nil
		},
		InsertActivityFunc: func(_ context.Context, entry *activity.Entry) error {
			anchorEntry = entry
			return nil
		},
	}
	chain := &MockChain{
		RegisterArtifactFunc: func(_ context.Context, labID uint64, cid string, _ common.Hash, _ *big.Int) (string, error) {
			if labID != 7 {
				t.Errorf("expected lab id 7, got %d", labID)
			}
			return "0xdeadbeef", nil
		},
	}

	svc := NewService(store, nil, chain, zap.NewNop())

	req := registerRequest()
	req.LabID = 7
	resp, err := svc.Register(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if resp.TxHash != "0xdeadbeef" {
		t.Errorf("expected tx hash in response, got %q", resp.TxHash)
	}
	if anchoredTx != "0xdeadbeef" {
		t.Errorf("expected tx hash persisted, got %q", anchoredTx)
	}
	if anchorEntry == nil || anchorEntry.Action != activity.ActionArtifactAnchored {
		t.Errorf("expected anchored activity, got %+v", anchorEntry)
	}
}

func TestRegisterAnchorCarriesLinkedProposalID(t *testing.T) {
	tests := []struct {
		name      string
		proposal  *governance.Proposal
		lookupErr error
		want      int64
	}{
		{"linked proposal", &governance.Proposal{ID: "prop-1", OnChainID: "42"}, nil, 42},
		{"unlinked proposal", &governance.Proposal{ID: "prop-1"}, nil, 0},
		{"lookup failure", nil, errors.New("db down"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MockStore{
				RegisterAssetFunc: func(_ context.Context, _ *artifact.Asset, _ *activity.Entry) error { return nil },
			}
			resolver := &MockResolver{
				GetProposalFunc: func(_ context.Context, id string) (*governance.Proposal, error) {
					if id != "prop-1" {
						t.Errorf("expected lookup of prop-1, got %q", id)
					}
					return tt.proposal, tt.lookupErr
				},
			}
			var gotProposalID *big.Int
			chain := &MockChain{
				RegisterArtifactFunc: func(_ context.Context, _ uint64, _ string, _ common.Hash, proposalID *big.Int) (string, error) {
					gotProposalID = proposalID
					return "0xdeadbeef", nil
				},
			}

			svc := NewService(store, resolver, chain, zap.NewNop())

			req := registerRequest()
			req.LabID = 7
			req.ProposalID = "prop-1"
			if _, err := svc.Register(context.Background(), "owner-1", req); err != nil {
				t.Fatalf("Register() error = %v", err)
			}
			if gotProposalID == nil || gotProposalID.Int64() != tt.want {
				t.Errorf("expected on-chain proposal id %d, got %v", tt.want, gotProposalID)
			}
		})
	}
}

func TestRegisterChainFailureKeepsOffChainRecord(t *testing.T) {
	registered := false
	store := &MockStore{
		RegisterAssetFunc: func(_ context.Context, _ *artifact.Asset, _ *activity.Entry) error {
			registered = true
			return nil
		},
		SetAssetOnChainFunc: func(_ context.Context, _, _, _ string) error {
			t.Fatal("no on-chain ref expected after a failed submission")
			return nil
		},
	}
	chain := &MockChain{
		RegisterArtifactFunc: func(_ context.Context, _ uint64, _ string, _ common.Hash, _ *big.Int) (string, error) {
			return "", errors.New("rpc timeout")
		},
	}

	svc := NewService(store, nil, chain, zap.NewNop())

	req := registerRequest()
	req.LabID = 7
	resp, err := svc.Register(context.Background(), "owner-1", req)
	if err != nil {
		t.Fatalf("Register() must not fail on chain errors, got %v", err)
	}

	if !registered {
		t.Error("expected off-chain record to be written")
	}
	if resp.TxHash != "" {
		t.Errorf("expected no tx hash after chain failure, got %q", resp.TxHash)
	}
	if resp.Asset == nil {
		t.Fatal("expected asset in response")
	}
}

func TestRegisterRejectsUnknownVisibility(t *testing.T) {
	svc := NewService(&MockStore{}, nil, nil, zap.NewNop())

	req := registerRequest()
	req.Visibility = "internal"
	_, err := svc.Register(context.Background(), "owner-1", req)
	if !apperrors.Is(err, apperrors.CategoryDataError) {
		t.Errorf("expected DataError, got %v", err)
	}
}

func TestGetAssetNotFound(t *testing.T) {
	store := &MockStore{
		GetAssetFunc: func(_ context.Context, _ string) (*artifact.Asset, error) {
			return nil, assetstore.ErrAssetNotFound
		},
	}

	svc := NewService(store, nil, nil, zap.NewNop())

	_, err := svc.GetAsset(context.Background(), "missing")
	if !apperrors.Is(err, apperrors.CategoryResourceNotFound) {
		t.Errorf("expected ResourceNotFound, got %v", err)
	}
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/auth"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

type MockService struct {
	CreateGroupFunc func(ctx context.Context, ownerID string, req *governance.GroupRequest) (*governance.Group, error)
	GetProposalFunc func(ctx context.Context, id string) (*governance.Proposal, error)
	CastVoteFunc    func(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error)
	TallyFunc       func(ctx context.Context, proposalID string) (*governance.Tally, error)
	AdvanceFunc     func(ctx context.Context, id string, to governance.ProposalState) (*governance.Proposal, error)
}

func (m *MockService) CreateGroup(ctx context.Context, ownerID string, req *governance.GroupRequest) (*governance.Group, error) {
	return m.CreateGroupFunc(ctx, ownerID, req)
}

func (m *MockService) GetGroup(ctx context.Context, id string) (*governance.Group, error) {
	panic("not expected")
}

func (m *MockService) ListGroups(ctx context.Context) ([]*governance.Group, error) {
	panic("not expected")
}

func (m *MockService) JoinGroup(ctx context.Context, groupID, userID string, req *governance.MembershipRequest) error {
	panic("not expected")
}

func (m *MockService) CreateProposal(ctx context.Context, proposerID string, req *governance.ProposalRequest) (*governance.Proposal, error) {
	panic("not expected")
}

func (m *MockService) GetProposal(ctx context.Context, id string) (*governance.Proposal, error) {
	return m.GetProposalFunc(ctx, id)
}

func (m *MockService) ListProposals(ctx context.Context, groupID string) ([]*governance.Proposal, error) {
	panic("not expected")
}

func (m *MockService) LinkProposal(ctx context.Context, id string, req *governance.LinkRequest) (*governance.Proposal, error) {
	panic("not expected")
}

func (m *MockService) AdvanceProposal(ctx context.Context, id string, to governance.ProposalState) (*governance.Proposal, error) {
	return m.AdvanceFunc(ctx, id, to)
}

func (m *MockService) SyncProposalState(ctx context.Context, id string) (*governance.Proposal, error) {
	panic("not expected")
}

func (m *MockService) CastVote(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error) {
	return m.CastVoteFunc(ctx, proposalID, voterID, req)
}

func (m *MockService) ListVotes(ctx context.Context, proposalID string) ([]*governance.Vote, error) {
	panic("not expected")
}

func (m *MockService) Tally(ctx context.Context, proposalID string) (*governance.Tally, error) {
	return m.TallyFunc(ctx, proposalID)
}

func newTestRouter(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithSession(req.Context(), "user-1", "0xabc", "token")
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	NewHandler(svc, zap.NewNop()).Routes(r)
	return r
}

func TestCreateGroupHTTP(t *testing.T) {
	svc := &MockService{
		CreateGroupFunc: func(ctx context.Context, ownerID string, req *governance.GroupRequest) (*governance.Group, error) {
			require.Equal(t, "user-1", ownerID)
			return &governance.Group{
				ID:        "group-1",
				Name:      req.Name,
				CreatedAt: time.Now().UTC(),
			}, nil
		},
	}
	handler := newTestRouter(svc)

	body := `{"name":"Computational Biology Lab","description":"shared datasets"}`
	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got governance.GroupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "group-1", got.ID)
	require.Equal(t, "Computational Biology Lab", got.Name)
}

func TestCreateGroupHTTP_InvalidJSON(t *testing.T) {
	handler := newTestRouter(&MockService{})

	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString("{invalid"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "invalid JSON", got.Error)
	require.Equal(t, http.StatusBadRequest, got.Code)
}

func TestCreateGroupHTTP_NameTooShort(t *testing.T) {
	handler := newTestRouter(&MockService{})

	req := httptest.NewRequest(http.MethodPost, "/groups", bytes.NewBufferString(`{"name":"ab"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCastVoteHTTP(t *testing.T) {
	svc := &MockService{
		CastVoteFunc: func(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error) {
			require.Equal(t, "prop-1", proposalID)
			require.Equal(t, "user-1", voterID)
			return &governance.Vote{
				ProposalID: proposalID,
				VoterID:    voterID,
				Choice:     req.Choice,
				Weight:     decimal.NewFromInt(1),
				CastAt:     time.Now().UTC(),
			}, nil
		},
	}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/proposals/prop-1/votes", bytes.NewBufferString(`{"choice":"FOR"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got governance.VoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "FOR", string(got.Choice))
	require.Equal(t, "1", got.Weight)
}

func TestCastVoteHTTP_ClosedProposal(t *testing.T) {
	svc := &MockService{
		CastVoteFunc: func(ctx context.Context, proposalID, voterID string, req *governance.VoteRequest) (*governance.Vote, error) {
			return nil, apperrors.ValidationError(nil, "proposal is not accepting votes")
		},
	}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/proposals/prop-1/votes", bytes.NewBufferString(`{"choice":"FOR"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "proposal is not accepting votes", got.Error)
}

func TestAdvanceProposalHTTP_Conflict(t *testing.T) {
	svc := &MockService{
		AdvanceFunc: func(ctx context.Context, id string, to governance.ProposalState) (*governance.Proposal, error) {
			return nil, apperrors.ConflictError(nil, "proposal state changed concurrently")
		},
	}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/proposals/prop-1/advance", bytes.NewBufferString(`{"to":"ACTIVE"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestTallyHTTP(t *testing.T) {
	svc := &MockService{
		TallyFunc: func(ctx context.Context, proposalID string) (*governance.Tally, error) {
			return &governance.Tally{
				For:     decimal.NewFromInt(12),
				Against: decimal.NewFromInt(3),
				Abstain: decimal.NewFromInt(1),
			}, nil
		},
	}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/proposals/prop-1/tally", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got governance.TallyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "12", got.For)
	require.Equal(t, "3", got.Against)
	require.Equal(t, "1", got.Abstain)
}

func TestGetProposalHTTP_NotFound(t *testing.T) {
	svc := &MockService{
		GetProposalFunc: func(ctx context.Context, id string) (*governance.Proposal, error) {
			return nil, apperrors.NotFoundError(nil, "proposal not found")
		},
	}
	handler := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/proposals/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

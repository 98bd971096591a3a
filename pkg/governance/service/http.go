package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	apphttp "github.com/KeKeBossa/academia-chain-sub001/pkg/app/http"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/auth"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/governance"
)

const maxBodyBytes = 1 << 20

// Handler exposes the governance endpoints
type Handler struct {
	svc      Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new governance HTTP handler
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes mounts the governance endpoints on a chi router. All routes
// assume a session middleware already ran.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/groups", apphttp.HandleError(h.createGroup))
	r.Get("/groups", apphttp.HandleError(h.listGroups))
	r.Get("/groups/{id}", apphttp.HandleError(h.getGroup))
	r.Post("/groups/{id}/members", apphttp.HandleError(h.joinGroup))
	r.Get("/groups/{id}/proposals", apphttp.HandleError(h.listProposals))

	r.Post("/proposals", apphttp.HandleError(h.createProposal))
	r.Get("/proposals/{id}", apphttp.HandleError(h.getProposal))
	r.Post("/proposals/{id}/link", apphttp.HandleError(h.linkProposal))
	r.Post("/proposals/{id}/advance", apphttp.HandleError(h.advanceProposal))
	r.Post("/proposals/{id}/sync", apphttp.HandleError(h.syncProposal))
	r.Post("/proposals/{id}/votes", apphttp.HandleError(h.castVote))
	r.Get("/proposals/{id}/votes", apphttp.HandleError(h.listVotes))
	r.Get("/proposals/{id}/tally", apphttp.HandleError(h.tally))
}

func (h *Handler) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return apperrors.ValidationError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperrors.ValidationError(err, "invalid JSON")
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.ValidationError(err, err.Error())
	}
	return nil
}

func (h *Handler) createGroup(w http.ResponseWriter, r *http.Request) error {
	var req governance.GroupRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	group, err := h.svc.CreateGroup(r.Context(), userID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, group.ToResponse())
	return nil
}

func (h *Handler) listGroups(w http.ResponseWriter, r *http.Request) error {
	groups, err := h.svc.ListGroups(r.Context())
	if err != nil {
		return err
	}

	out := make([]*governance.GroupResponse, len(groups))
	for i, g := range groups {
		out[i] = g.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) getGroup(w http.ResponseWriter, r *http.Request) error {
	group, err := h.svc.GetGroup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, group.ToResponse())
	return nil
}

func (h *Handler) joinGroup(w http.ResponseWriter, r *http.Request) error {
	var req governance.MembershipRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	if err := h.svc.JoinGroup(r.Context(), chi.URLParam(r, "id"), userID, &req); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) createProposal(w http.ResponseWriter, r *http.Request) error {
	var req governance.ProposalRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	proposal, err := h.svc.CreateProposal(r.Context(), userID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, proposal.ToResponse())
	return nil
}

func (h *Handler) getProposal(w http.ResponseWriter, r *http.Request) error {
	proposal, err := h.svc.GetProposal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, proposal.ToResponse())
	return nil
}

func (h *Handler) listProposals(w http.ResponseWriter, r *http.Request) error {
	proposals, err := h.svc.ListProposals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	out := make([]*governance.ProposalResponse, len(proposals))
	for i, p := range proposals {
		out[i] = p.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) linkProposal(w http.ResponseWriter, r *http.Request) error {
	var req governance.LinkRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	proposal, err := h.svc.LinkProposal(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, proposal.ToResponse())
	return nil
}

func (h *Handler) advanceProposal(w http.ResponseWriter, r *http.Request) error {
	var req governance.AdvanceRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	proposal, err := h.svc.AdvanceProposal(r.Context(), chi.URLParam(r, "id"), req.To)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, proposal.ToResponse())
	return nil
}

func (h *Handler) syncProposal(w http.ResponseWriter, r *http.Request) error {
	proposal, err := h.svc.SyncProposalState(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, proposal.ToResponse())
	return nil
}

func (h *Handler) castVote(w http.ResponseWriter, r *http.Request) error {
	var req governance.VoteRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	vote, err := h.svc.CastVote(r.Context(), chi.URLParam(r, "id"), userID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, vote.ToResponse())
	return nil
}

func (h *Handler) listVotes(w http.ResponseWriter, r *http.Request) error {
	votes, err := h.svc.ListVotes(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	out := make([]*governance.VoteResponse, len(votes))
	for i, v := range votes {
		out[i] = v.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) tally(w http.ResponseWriter, r *http.Request) error {
	tally, err := h.svc.Tally(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, tally.ToResponse())
	return nil
}

package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/KeKeBossa/academia-chain-sub001/pkg/activity"
	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	apphttp "github.com/KeKeBossa/academia-chain-sub001/pkg/app/http"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/artifact"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/assetstore"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/auth"
)

const maxBodyBytes = 1 << 20

const defaultActivityLimit = 50

// Handler exposes the artifact and activity endpoints
type Handler struct {
	svc      Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new artifact HTTP handler
func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes mounts the artifact endpoints on a chi router. All routes assume
// a session middleware already ran.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/artifacts", apphttp.HandleError(h.register))
	r.Get("/artifacts/{id}", apphttp.HandleError(h.getAsset))
	r.Get("/artifacts", apphttp.HandleError(h.listAssets))
	r.Get("/activity", apphttp.HandleError(h.listActivity))
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

func (h *Handler) register(w http.ResponseWriter, r *http.Request) error {
	var req artifact.RegisterRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	resp, err := h.svc.Register(r.Context(), userID, &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, resp)
	return nil
}

func (h *Handler) getAsset(w http.ResponseWriter, r *http.Request) error {
	asset, err := h.svc.GetAsset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, asset.ToResponse())
	return nil
}

// listAssets returns the caller's assets, or a group's assets when the
// group_id query parameter is present.
func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) error {
	var (
		assets []*artifact.Asset
		err    error
	)

	if groupID := r.URL.Query().Get("group_id"); groupID != "" {
		assets, err = h.svc.ListByGroup(r.Context(), groupID)
	} else {
		userID, _ := auth.UserIDFromContext(r.Context())
		assets, err = h.svc.ListByOwner(r.Context(), userID)
	}
	if err != nil {
		return err
	}

	out := make([]*artifact.AssetResponse, len(assets))
	for i, a := range assets {
		out[i] = a.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) listActivity(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	filter := &assetstore.ActivityFilter{
		GroupID:    q.Get("group_id"),
		UserID:     q.Get("user_id"),
		Action:     q.Get("action"),
		TargetType: q.Get("target_type"),
		TargetID:   q.Get("target_id"),
		Limit:      defaultActivityLimit,
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 500 {
			return apperrors.ValidationError(nil, "limit must be between 1 and 500")
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return apperrors.ValidationError(nil, "offset must be non-negative")
		}
		filter.Offset = offset
	}

	entries, err := h.svc.ListActivity(r.Context(), filter)
	if err != nil {
		return err
	}

	out := make([]*activity.EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = e.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

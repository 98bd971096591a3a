package service

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	apperrors "github.com/KeKeBossa/academia-chain-sub001/pkg/app/errors"
	apphttp "github.com/KeKeBossa/academia-chain-sub001/pkg/app/http"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/auth"
	"github.com/KeKeBossa/academia-chain-sub001/pkg/identity"
)

const maxBodyBytes = 1 << 20

// Handler exposes the authentication and credential endpoints
type Handler struct {
	svc      Service
	creds    CredentialService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler creates a new identity HTTP handler
func NewHandler(svc Service, creds CredentialService, logger *zap.Logger) *Handler {
	return &Handler{
		svc:      svc,
		creds:    creds,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes mounts the identity endpoints on a chi router
func (h *Handler) Routes(r chi.Router) {
	r.Post("/auth/challenge", apphttp.HandleError(h.issueChallenge))
	r.Post("/auth/verify", apphttp.HandleError(h.verify))

	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)
		r.Get("/auth/session", apphttp.HandleError(h.session))
		r.Post("/auth/logout", apphttp.HandleError(h.logout))
		r.Post("/credentials", apphttp.HandleError(h.submitCredential))
		r.Get("/credentials", apphttp.HandleError(h.listCredentials))
		r.Get("/credentials/{id}", apphttp.HandleError(h.getCredential))
	})
}

// RequireSession authenticates the bearer token and stores the session
// identity in the request context.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			apphttp.DefaultErrorHandler(w, apperrors.UnAuthorizedError(nil, "missing bearer token"))
			return
		}

		sess, usr, err := h.svc.Resolve(r.Context(), token)
		if err != nil {
			apphttp.DefaultErrorHandler(w, err)
			return
		}

		ctx := auth.WithSession(r.Context(), usr.ID, sess.WalletAddress, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
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

func (h *Handler) issueChallenge(w http.ResponseWriter, r *http.Request) error {
	var req identity.ChallengeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.IssueChallenge(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, resp)
	return nil
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) error {
	var req identity.VerifyRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	resp, err := h.svc.Verify(r.Context(), &req)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) error {
	token, _ := auth.SessionTokenFromContext(r.Context())

	sess, usr, err := h.svc.Resolve(r.Context(), token)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, &identity.SessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      usr.Profile(),
	})
	return nil
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) error {
	token, _ := auth.SessionTokenFromContext(r.Context())

	if err := h.svc.Revoke(r.Context(), token); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) submitCredential(w http.ResponseWriter, r *http.Request) error {
	var req identity.CredentialRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	userID, _ := auth.UserIDFromContext(r.Context())

	cred, err := h.creds.SubmitCredential(r.Context(), userID, req.Payload)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusCreated, cred.ToResponse())
	return nil
}

func (h *Handler) listCredentials(w http.ResponseWriter, r *http.Request) error {
	userID, _ := auth.UserIDFromContext(r.Context())

	creds, err := h.creds.ListCredentials(r.Context(), userID)
	if err != nil {
		return err
	}

	out := make([]*identity.CredentialResponse, len(creds))
	for i, c := range creds {
		out[i] = c.ToResponse()
	}

	apphttp.WriteJSON(w, http.StatusOK, out)
	return nil
}

func (h *Handler) getCredential(w http.ResponseWriter, r *http.Request) error {
	userID, _ := auth.UserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	cred, err := h.creds.GetCredential(r.Context(), userID, id)
	if err != nil {
		return err
	}

	apphttp.WriteJSON(w, http.StatusOK, cred.ToResponse())
	return nil
}

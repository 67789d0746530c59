package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/learnhub/learnhub-api/internal/middleware"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/permission"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/internal/usecase"
)

// UserHTTPHandler exposes the identity surface over HTTP: the current
// identity, profile editing, and admin-facing user/role management. It holds
// no business rules of its own; every mutation goes through a usecase.
type UserHTTPHandler struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	userUsecase usecase.UserUsecase
	roleUsecase usecase.RoleUsecase
	validate    *validator.Validate
	translator  ut.Translator
	logger      *zerolog.Logger
}

func NewUserHTTPHandler(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	userUsecase usecase.UserUsecase,
	roleUsecase usecase.RoleUsecase,
	logger *zerolog.Logger,
) (*UserHTTPHandler, error) {
	validate, translator, err := newValidator()
	if err != nil {
		return nil, err
	}

	return &UserHTTPHandler{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		userUsecase: userUsecase,
		roleUsecase: roleUsecase,
		validate:    validate,
		translator:  translator,
		logger:      logger,
	}, nil
}

// Routes mounts the handler's endpoints on the given router.
func (h *UserHTTPHandler) Routes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Patch("/me/profile", h.UpdateProfile)
	r.Get("/me/statistics", h.Statistics)

	r.Post("/users/{id}/roles", h.AssignRole)
	r.Delete("/users/{id}/roles/{role}", h.RevokeRole)
	r.Post("/users/{id}/activate", h.Activate)
	r.Post("/users/{id}/deactivate", h.Deactivate)
	r.Post("/users/{id}/restore", h.Restore)
	r.Delete("/users/{id}", h.Delete)

	r.Get("/roles/{role}/users", h.UsersByRole)
}

type userResponse struct {
	ID          string     `json:"id"`
	ExternalID  string     `json:"external_id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	Active      bool       `json:"active"`
	Roles       []string   `json:"roles,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type profileResponse struct {
	Bio            string `json:"bio"`
	AvatarURL      string `json:"avatar_url"`
	Location       string `json:"location"`
	Website        string `json:"website"`
	GithubUsername string `json:"github_username"`
	LinkedinURL    string `json:"linkedin_url"`
}

type assignRolePayload struct {
	Role string `json:"role" validate:"required"`
}

type updateProfilePayload struct {
	Bio            *string `json:"bio"             validate:"omitempty,max=500"`
	Location       *string `json:"location"        validate:"omitempty,max=100"`
	Website        *string `json:"website"         validate:"omitempty,url"`
	GithubUsername *string `json:"github_username" validate:"omitempty,max=100"`
	LinkedinURL    *string `json:"linkedin_url"    validate:"omitempty,url"`
}

func newUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID.Hex(),
		ExternalID:  user.ExternalID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Active:      user.Active,
		Roles:       user.Roles,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}

// Me returns the authenticated user together with their profile.
func (h *UserHTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	response := struct {
		User    userResponse     `json:"user"`
		Profile *profileResponse `json:"profile,omitempty"`
	}{User: newUserResponse(user)}

	profile, err := h.profileRepo.GetProfileByUserID(r.Context(), user.ID.Hex())
	if err == nil {
		response.Profile = &profileResponse{
			Bio:            profile.Bio,
			AvatarURL:      profile.AvatarURL,
			Location:       profile.Location,
			Website:        profile.Website,
			GithubUsername: profile.GithubUsername,
			LinkedinURL:    profile.LinkedinURL,
		}
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.logger.Error().Err(err).Msg("failed to load profile")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

// UpdateProfile applies the caller-editable profile fields.
func (h *UserHTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var payload updateProfilePayload
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	profile, err := h.userUsecase.UpdateProfile(r.Context(), user, repository.UpdateProfileParams{
		Bio:            payload.Bio,
		Location:       payload.Location,
		Website:        payload.Website,
		GithubUsername: payload.GithubUsername,
		LinkedinURL:    payload.LinkedinURL,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to update profile")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.respondJSON(w, http.StatusOK, profileResponse{
		Bio:            profile.Bio,
		AvatarURL:      profile.AvatarURL,
		Location:       profile.Location,
		Website:        profile.Website,
		GithubUsername: profile.GithubUsername,
		LinkedinURL:    profile.LinkedinURL,
	})
}

// Statistics returns the authenticated user's usage counters.
func (h *UserHTTPHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.userUsecase.Statistics(r.Context(), user)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load statistics")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
		return
	}

	h.respondJSON(w, http.StatusOK, stats)
}

// AssignRole grants a role to the target user on behalf of the caller.
func (h *UserHTTPHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	var payload assignRolePayload
	if !h.decodeAndValidate(w, r, &payload) {
		return
	}

	assignment, err := h.roleUsecase.AssignRole(r.Context(), target, payload.Role, actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, map[string]any{
		"user_id":     assignment.UserID,
		"role":        assignment.RoleName,
		"assigned_by": assignment.AssignedBy,
		"assigned_at": assignment.CreatedAt,
	})
}

// RevokeRole removes a role from the target user on behalf of the caller.
func (h *UserHTTPHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.actorAndTarget(w, r)
	if !ok {
		return
	}

	revoked, err := h.roleUsecase.RevokeRole(r.Context(), target, chi.URLParam(r, "role"), actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]bool{"revoked": revoked})
}

// Activate re-enables the target user's account. Admin only.
func (h *UserHTTPHandler) Activate(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.adminActorAndTarget(w, r)
	if !ok {
		return
	}

	updated, err := h.userUsecase.Activate(r.Context(), target, actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newUserResponse(updated))
}

// Deactivate disables the target user's account. Admin only.
func (h *UserHTTPHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.adminActorAndTarget(w, r)
	if !ok {
		return
	}

	updated, err := h.userUsecase.Deactivate(r.Context(), target, actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newUserResponse(updated))
}

// Delete soft-deletes the target user. Admin only.
func (h *UserHTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, target, ok := h.adminActorAndTarget(w, r)
	if !ok {
		return
	}

	deleted, err := h.userUsecase.SoftDelete(r.Context(), target, actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newUserResponse(deleted))
}

// Restore brings back a soft-deleted user. Admin only.
func (h *UserHTTPHandler) Restore(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !permission.IsAdmin(actor) {
		h.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	restored, err := h.userUsecase.Restore(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, newUserResponse(restored))
}

// UsersByRole lists users holding a role. Admin only.
func (h *UserHTTPHandler) UsersByRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if !permission.IsAdmin(actor) {
		h.respondError(w, http.StatusForbidden, "admin access required")
		return
	}

	users, err := h.roleUsecase.UsersByRole(r.Context(), chi.URLParam(r, "role"))
	if err != nil {
		h.respondUsecaseError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, newUserResponse(user))
	}

	h.respondJSON(w, http.StatusOK, responses)
}

// actorAndTarget resolves the authenticated caller and the {id} target user.
func (h *UserHTTPHandler) actorAndTarget(
	w http.ResponseWriter,
	r *http.Request,
) (*model.User, *model.User, bool) {
	actor, ok := middleware.CurrentUser(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required")
		return nil, nil, false
	}

	target, err := h.userRepo.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.respondError(w, http.StatusNotFound, "user not found")
		} else {
			h.logger.Error().Err(err).Msg("failed to load user")
			h.respondError(w, http.StatusInternalServerError, "something went wrong")
		}

		return nil, nil, false
	}

	return actor, target, true
}

func (h *UserHTTPHandler) adminActorAndTarget(
	w http.ResponseWriter,
	r *http.Request,
) (*model.User, *model.User, bool) {
	actor, target, ok := h.actorAndTarget(w, r)
	if !ok {
		return nil, nil, false
	}
	if !permission.IsAdmin(actor) {
		h.respondError(w, http.StatusForbidden, "admin access required")
		return nil, nil, false
	}

	return actor, target, true
}

func (h *UserHTTPHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(payload); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation failed",
			"details": validationMessages(err, h.translator),
		})

		return false
	}

	return true
}

func (h *UserHTTPHandler) respondUsecaseError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrInvalidRole):
		h.respondError(w, http.StatusBadRequest, "invalid role")
	case errors.Is(err, usecase.ErrPermissionDenied):
		h.respondError(w, http.StatusForbidden, "permission denied")
	case errors.Is(err, usecase.ErrSelfDeactivation):
		h.respondError(w, http.StatusBadRequest, "users cannot deactivate themselves")
	case errors.Is(err, mongo.ErrNoDocuments):
		h.respondError(w, http.StatusNotFound, "user not found")
	default:
		h.logger.Error().Err(err).Msg("usecase call failed")
		h.respondError(w, http.StatusInternalServerError, "something went wrong")
	}
}

func (h *UserHTTPHandler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *UserHTTPHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

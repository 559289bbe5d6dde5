package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ecommerce-service/internal/auth"
	"ecommerce-service/internal/domain"
	"ecommerce-service/internal/store"
)

// RegisterInput defines the expected input for user registration.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

// LoginInput defines the expected input for login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authResponse is returned by register and login: a bearer token plus the
// sanitized user record.
type authResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Register creates a new account. Accounts always start as customers; only an
// admin can elevate a role afterwards.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	user := &domain.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	created, err := h.userStore.CreateUser(r.Context(), user)
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) || errors.Is(err, store.ErrUsernameExists) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error().Err(err).Str("email", input.Email).Msg("CreateUser store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	token, err := h.tokens.Mint(created)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", created.ID).Msg("failed to mint token")
		respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}

	h.logger.Info().Int64("user_id", created.ID).Str("email", created.Email).Msg("user registered")
	respondWithJSON(w, http.StatusCreated, authResponse{Token: token, User: created})
}

// Login authenticates by email and password. Unknown email and wrong password
// produce the same 401 so callers cannot probe for registered addresses.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input LoginInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	user, err := h.userStore.GetUserByEmail(r.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			h.logger.Warn().Str("email", input.Email).Msg("login failed: unknown email")
			respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.logger.Error().Err(err).Str("email", input.Email).Msg("GetUserByEmail store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, input.Password) {
		h.logger.Warn().Str("email", input.Email).Msg("login failed: wrong password")
		respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := h.tokens.Mint(user)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to mint token")
		respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		return
	}

	h.logger.Info().Int64("user_id", user.ID).Msg("user logged in")
	respondWithJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me returns the authenticated caller's own record.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	user, err := h.userStore.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrUserNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("GetUserByID store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve user")
		return
	}
	respondWithJSON(w, http.StatusOK, user)
}

// GetProfile is the /api/users/profile alias for Me.
func (h *HTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	h.Me(w, r)
}

func (h *HTTPHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userStore.ListUsers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("ListUsers store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	respondWithJSON(w, http.StatusOK, users)
}

// RoleUpdateInput defines the expected input for changing a user's role.
type RoleUpdateInput struct {
	Role string `json:"role" validate:"required"`
}

func (h *HTTPHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlParamInt64(r, "userId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID format")
		return
	}

	var input RoleUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	role := domain.Role(input.Role)
	if !role.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid role")
		return
	}

	user, err := h.userStore.UpdateUserRole(r.Context(), userID, role)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			respondWithError(w, http.StatusNotFound, store.ErrUserNotFound.Error())
			return
		}
		h.logger.Error().Err(err).Int64("user_id", userID).Msg("UpdateUserRole store operation failed")
		respondWithError(w, http.StatusInternalServerError, "Failed to update user role")
		return
	}

	h.logger.Info().Int64("user_id", userID).Str("role", string(role)).Msg("user role updated")
	respondWithJSON(w, http.StatusOK, user)
}

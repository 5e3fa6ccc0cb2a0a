package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles member-related endpoints
type UserHandler struct {
	userService service.UserService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{userService: userService, validate: validate, logger: logger}
}

// RegisterRoutes mounts member routes. Verification and sign-in completion
// are public; the invited member has no token yet.
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/users/verify-email", h.verifyEmail)
	mux.HandleFunc("/users/complete-sign-in", h.completeSignIn)
	mux.Handle("/users", authMw(http.HandlerFunc(h.handleUsers)))
	mux.Handle("/users/", authMw(http.HandlerFunc(h.handleUser)))
}

func (h *UserHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.createUser(w, r)
	case http.MethodGet:
		h.listUsers(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *UserHandler) handleUser(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getUser(w, r)
	case http.MethodDelete:
		h.deleteUser(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *UserHandler) createUser(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.UserCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.userService.Create(r.Context(), p, req.Email)
	if err != nil {
		writeServiceError(w, "Failed to create member", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(userResponse(u))
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	users, err := h.userService.List(r.Context(), p)
	if err != nil {
		writeServiceError(w, "Failed to list members", err)
		return
	}
	resp := make([]dto.UserResponseDTO, 0, len(users))
	for i := range users {
		resp = append(resp, *userResponse(&users[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *UserHandler) getUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/users/")
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	u, err := h.userService.Get(r.Context(), p, userID)
	if err != nil {
		writeServiceError(w, "Failed to retrieve member", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse(u))
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimPrefix(r.URL.Path, "/users/")
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	u, err := h.userService.Delete(r.Context(), p, userID)
	if err != nil {
		writeServiceError(w, "Failed to delete member", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse(u))
}

func (h *UserHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}
	u, err := h.userService.VerifyEmail(r.Context(), token)
	if err != nil {
		writeServiceError(w, "Failed to verify email", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse(u))
}

func (h *UserHandler) completeSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.UserCompleteSignInDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	u, err := h.userService.CompleteSignIn(r.Context(), req.Email, req.FirstName, req.LastName, req.Password)
	if err != nil {
		writeServiceError(w, "Failed to complete sign-in", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(userResponse(u))
}

func userResponse(u *model.User) *dto.UserResponseDTO {
	return &dto.UserResponseDTO{
		UserID:     u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		CompanyID:  u.CompanyID,
		IsVerified: u.IsVerified,
		FileIDs:    u.FileIDs,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

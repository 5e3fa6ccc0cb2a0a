package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/plan"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// AuthHandler handles registration, verification, sign-in and company
// account endpoints
type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, validate: validate, logger: logger}
}

// RegisterRoutes mounts auth and company routes
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.HandleFunc("/auth/sign-up", h.signUp)
	mux.HandleFunc("/auth/verify-email", h.verifyEmail)
	mux.HandleFunc("/auth/resend-verification", h.resendVerification)
	mux.HandleFunc("/auth/sign-in", h.signIn)
	mux.Handle("/auth/change-password", authMw(http.HandlerFunc(h.changePassword)))
	mux.Handle("/me", authMw(http.HandlerFunc(h.me)))
	mux.Handle("/company", authMw(http.HandlerFunc(h.updateCompany)))
}

func (h *AuthHandler) signUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.CompanySignUpDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	c, err := h.authService.SignUp(r.Context(), req.Name, req.Email, req.Password, req.Country, req.Industry)
	if err != nil {
		writeServiceError(w, "Failed to sign up", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(companyResponse(c))
}

func (h *AuthHandler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Token is required", http.StatusBadRequest)
		return
	}
	if err := h.authService.VerifyEmail(r.Context(), token); err != nil {
		writeServiceError(w, "Failed to verify email", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) resendVerification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.ResendVerificationDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ResendVerification(r.Context(), req.Email); err != nil {
		writeServiceError(w, "Failed to resend verification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) signIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req dto.CompanySignInDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	token, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "Failed to sign in", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.TokenResponseDTO{Token: token})
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ChangePasswordDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.authService.ChangePassword(r.Context(), p, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, "Failed to change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	c, u, err := h.authService.CurrentUser(r.Context(), p)
	if err != nil {
		writeServiceError(w, "Failed to load account", err)
		return
	}
	resp := struct {
		Company *dto.CompanyResponseDTO `json:"company"`
		User    *dto.UserResponseDTO    `json:"user,omitempty"`
	}{Company: companyResponse(c)}
	if u != nil {
		resp.User = userResponse(u)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *AuthHandler) updateCompany(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		http.NotFound(w, r)
		return
	}
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: principal not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.CompanyUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	var newPlan *plan.Plan
	if req.Plan != nil {
		parsed, err := plan.Parse(*req.Plan)
		if err != nil {
			http.Error(w, "Unknown subscription plan: "+*req.Plan, http.StatusBadRequest)
			return
		}
		newPlan = &parsed
	}
	name, country, industry := "", "", ""
	if req.Name != nil {
		name = *req.Name
	}
	if req.Country != nil {
		country = *req.Country
	}
	if req.Industry != nil {
		industry = *req.Industry
	}
	if err := h.authService.UpdateCompany(r.Context(), p, name, country, industry, newPlan); err != nil {
		writeServiceError(w, "Failed to update company", err)
		return
	}
	c, _, err := h.authService.CurrentUser(r.Context(), p)
	if err != nil {
		writeServiceError(w, "Failed to load company", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(companyResponse(c))
}

func companyResponse(c *model.Company) *dto.CompanyResponseDTO {
	return &dto.CompanyResponseDTO{
		CompanyID:              c.ID,
		Name:                   c.Name,
		Email:                  c.Email,
		Country:                c.Country,
		Industry:               c.Industry,
		IsVerified:             c.IsVerified,
		SubscriptionPlan:       string(c.SubscriptionPlan),
		SubscriptionUpdateDate: c.SubscriptionUpdateDate,
		PremiumCharge:          c.PremiumCharge,
		ExtraUserCharge:        c.ExtraUserCharge,
		ExtraFileCharge:        c.ExtraFileCharge,
		UserIDs:                c.UserIDs,
		FileIDs:                c.FileIDs,
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
}

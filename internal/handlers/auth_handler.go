package handlers

import (
	"net/http"

	"osld-portal/internal/middleware"
	"osld-portal/internal/models"
	"osld-portal/internal/service"
	"osld-portal/pkg/validator"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	authService  *service.AuthService
	auditService *service.AuditService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, auditService *service.AuditService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		auditService: auditService,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles organization account login
// @Summary Log in
// @Description Authenticate an organization account and receive a JWT
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = validator.SanitizeEmail(req.Email)

	if err := validator.ValidateStruct(&req); err != nil {
		respondWithServiceError(w, r, asValidationError(err))
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditService.Log(r.Context(), &models.AuditLog{
			Action:    AuditActionLoginFailed,
			Resource:  "accounts",
			Details:   "Failed login attempt for " + req.Email,
			IPAddress: middleware.ClientIP(r),
			UserAgent: r.UserAgent(),
		})
		respondWithServiceError(w, r, err)
		return
	}

	h.auditService.Log(r.Context(), &models.AuditLog{
		AccountID:        &result.Account.ID,
		OrganizationCode: &result.Account.OrganizationCode,
		Action:           AuditActionLogin,
		Resource:         "accounts",
		Details:          "Account logged in",
		IPAddress:        middleware.ClientIP(r),
		UserAgent:        r.UserAgent(),
	})

	respondWithJSON(w, http.StatusOK, result)
}

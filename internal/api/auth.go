package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushihost/backend/internal/middleware"
	"github.com/sushihost/backend/internal/models"
	"github.com/sushihost/backend/internal/service"
)

// AuthHandler exposes registration, login and the verification flow.
type AuthHandler struct {
	auth *service.AuthService

	// secureCookies is set when the client/server backend is active,
	// i.e. in production.
	secureCookies bool
}

func NewAuthHandler(auth *service.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{auth: auth, secureCookies: secureCookies}
}

// LoadUser resolves the session cookie for the auth middleware. A
// missing cookie is simply an anonymous request.
func (h *AuthHandler) LoadUser(c *gin.Context) (*models.User, error) {
	cookie, err := c.Cookie(middleware.SessionCookie)
	if err != nil {
		return nil, nil
	}
	return h.auth.CurrentUser(c.Request.Context(), cookie)
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.auth.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := gin.H{
		"message": "Registration successful. Please check your email to verify your account.",
		"user":    userInfo(result.User),
	}
	if result.DebugToken != "" {
		resp["verification_token"] = result.DebugToken
		resp["message"] = "Registration successful. Email delivery is unavailable; use the included token to verify."
	}
	c.JSON(http.StatusCreated, resp)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, cookie, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, cookie, int(service.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": userInfo(user)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if cookie, err := c.Cookie(middleware.SessionCookie); err == nil {
		h.auth.Logout(c.Request.Context(), cookie)
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": userInfo(user)})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	user, err := h.auth.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully", "user": userInfo(user)})
}

func (h *AuthHandler) GetVerificationToken(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.EmailVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Email is already verified"})
		return
	}
	token, expires, err := h.auth.GetOrIssueVerificationToken(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verification_token": token, "expires_at": expires})
}

type adminTargetRequest struct {
	UserID   *int   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (h *AuthHandler) AdminVerifyEmail(c *gin.Context) {
	var req adminTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.auth.AdminVerifyEmail(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified", "user": userInfo(user)})
}

func (h *AuthHandler) AdminSetRole(c *gin.Context) {
	var req adminTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	role := req.Role
	if role == "" {
		role = models.RoleAdmin
	}
	user, err := h.auth.AdminSetRole(c.Request.Context(), req.UserID, req.Username, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": userInfo(user)})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.secureCookies, true)
}

func userInfo(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"role":           user.Role,
		"email_verified": user.EmailVerified,
	}
}

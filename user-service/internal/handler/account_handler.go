package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/middleware"
	"github.com/undersounds/undersounds/shared/models"
)

const refreshCookieName = "refreshToken"

// refreshCookieMaxAge is applied only when the client asks to be remembered;
// otherwise the cookie is a session cookie.
const refreshCookieMaxAge = 7 * 24 * 60 * 60

type AccountCommander interface {
	Register(ctx context.Context, cmd cqrs.RegisterCommand) (*models.AccountView, error)
	LinkBandToArtist(ctx context.Context, cmd cqrs.LinkBandToArtistCommand) (*models.AccountView, error)
	ToggleFollow(ctx context.Context, cmd cqrs.ToggleFollowCommand) (bool, []string, error)
	ToggleLike(ctx context.Context, cmd cqrs.ToggleLikeCommand) (bool, []string, error)
	UpdateProfile(ctx context.Context, cmd cqrs.UpdateProfileCommand) (*models.AccountView, error)
	ResetPassword(ctx context.Context, cmd cqrs.ResetPasswordCommand) error
}

type AuthQuerier interface {
	Login(ctx context.Context, cmd cqrs.LoginCommand) (*models.AccountView, string, string, error)
	Refresh(ctx context.Context, cmd cqrs.RefreshTokenCommand) (*models.AccountView, string, error)
	ForgotPassword(ctx context.Context, cmd cqrs.ForgotPasswordCommand) (string, error)
}

type AccountQuerier interface {
	GetAccount(ctx context.Context, query cqrs.GetAccountQuery) (*models.AccountView, error)
}

// AccountHandler exposes the account and session endpoints.
type AccountHandler struct {
	commands AccountCommander
	auth     AuthQuerier
	queries  AccountQuerier
	secure   bool
}

// NewAccountHandler creates the handler. secure controls the Secure flag on
// the refresh cookie and should be true behind TLS.
func NewAccountHandler(commands AccountCommander, auth AuthQuerier, queries AccountQuerier, secure bool) *AccountHandler {
	return &AccountHandler{
		commands: commands,
		auth:     auth,
		queries:  queries,
		secure:   secure,
	}
}

// RegisterRoutes wires the endpoints. authLimit and otpLimit are the
// per-tier rate limiters for credential and one-time-code endpoints.
func (h *AccountHandler) RegisterRoutes(router *gin.Engine, authLimit, otpLimit gin.HandlerFunc) {
	v1 := router.Group("/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authLimit, h.Register)
	auth.POST("/login", authLimit, h.Login)
	auth.POST("/logout", h.Logout)
	auth.POST("/refresh-token", authLimit, h.Refresh)
	auth.POST("/forgot-password", otpLimit, h.ForgotPassword)
	auth.POST("/reset-password", otpLimit, h.ResetPassword)

	authed := auth.Group("", middleware.AuthMiddleware())
	authed.GET("/me", h.Me)
	authed.POST("/toggle-follow", h.ToggleFollow)
	authed.POST("/toggle-like", h.ToggleLike)

	accounts := v1.Group("/accounts", middleware.AuthMiddleware())
	accounts.PUT("/:accountId", h.UpdateProfile)
	accounts.POST("/:accountId/link-artist", h.LinkBandToArtist)
}

type registerRequest struct {
	Username    string             `json:"username" validate:"required,min=3,max=40"`
	Email       string             `json:"email" validate:"required,email"`
	Password    string             `json:"password" validate:"required,min=6"`
	Bio         string             `json:"bio"`
	SocialLinks models.SocialLinks `json:"socialLinks"`
	BandName    string             `json:"bandName"`
	Genre       string             `json:"genre"`
	LabelName   string             `json:"labelName"`
	Website     string             `json:"website"`
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	view, err := h.commands.Register(c.Request.Context(), cqrs.RegisterCommand{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
		BandName:    req.BandName,
		Genre:       req.Genre,
		LabelName:   req.LabelName,
		Website:     req.Website,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": view})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	view, accessToken, refreshToken, err := h.auth.Login(c.Request.Context(), cqrs.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	h.setRefreshCookie(c, refreshToken, req.Remember)
	c.JSON(http.StatusOK, gin.H{"account": view, "accessToken": accessToken})
}

func (h *AccountHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", h.secure, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (h *AccountHandler) Refresh(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil || token == "" {
		// Non-browser clients send the token in the body instead.
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
			middleware.RespondWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}
		token = req.RefreshToken
	}

	view, accessToken, err := h.auth.Refresh(c.Request.Context(), cqrs.RefreshTokenCommand{Token: token})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": view, "accessToken": accessToken})
}

func (h *AccountHandler) Me(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Unauthenticated")
		return
	}

	view, err := h.queries.GetAccount(c.Request.Context(), cqrs.GetAccountQuery{AccountID: accountID})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": view})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	otpToken, err := h.auth.ForgotPassword(c.Request.Context(), cqrs.ForgotPasswordCommand{Email: req.Email})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"otpToken": otpToken})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,len=6"`
	OTPToken    string `json:"otpToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	err := h.commands.ResetPassword(c.Request.Context(), cqrs.ResetPasswordCommand{
		Email:       req.Email,
		OTP:         req.OTP,
		OTPToken:    req.OTPToken,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

type toggleFollowRequest struct {
	ArtistID string `json:"artistId" validate:"required"`
}

func (h *AccountHandler) ToggleFollow(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	var req toggleFollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	following, list, err := h.commands.ToggleFollow(c.Request.Context(), cqrs.ToggleFollowCommand{
		AccountID: accountID,
		ArtistID:  req.ArtistID,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "following": following, "list": list})
}

type toggleLikeRequest struct {
	TrackID string `json:"trackId" validate:"required"`
}

func (h *AccountHandler) ToggleLike(c *gin.Context) {
	accountID, _ := middleware.GetAccountID(c)

	var req toggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	liked, list, err := h.commands.ToggleLike(c.Request.Context(), cqrs.ToggleLikeCommand{
		AccountID: accountID,
		TrackID:   req.TrackID,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked, "list": list})
}

type updateProfileRequest struct {
	Username     string             `json:"username" validate:"omitempty,min=3,max=40"`
	ProfileImage string             `json:"profileImage"`
	BannerImage  string             `json:"bannerImage"`
	Bio          string             `json:"bio"`
	SocialLinks  models.SocialLinks `json:"socialLinks"`
	Genre        string             `json:"genre"`
	Website      string             `json:"website"`
}

func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	accountID, ok := h.ownAccount(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	view, err := h.commands.UpdateProfile(c.Request.Context(), cqrs.UpdateProfileCommand{
		AccountID:    accountID,
		Username:     req.Username,
		ProfileImage: req.ProfileImage,
		BannerImage:  req.BannerImage,
		Bio:          req.Bio,
		SocialLinks:  req.SocialLinks,
		Genre:        req.Genre,
		Website:      req.Website,
	})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": view})
}

func (h *AccountHandler) LinkBandToArtist(c *gin.Context) {
	accountID, ok := h.ownAccount(c)
	if !ok {
		return
	}

	view, err := h.commands.LinkBandToArtist(c.Request.Context(), cqrs.LinkBandToArtistCommand{AccountID: accountID})
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": view})
}

// ownAccount resolves the :accountId path param and rejects requests against
// anyone else's account.
func (h *AccountHandler) ownAccount(c *gin.Context) (string, bool) {
	authedID, ok := middleware.GetAccountID(c)
	if !ok {
		middleware.RespondWithError(c, http.StatusUnauthorized, "Unauthenticated")
		return "", false
	}
	accountID := c.Param("accountId")
	if accountID != authedID {
		middleware.RespondWithError(c, http.StatusForbidden, "Forbidden")
		return "", false
	}
	return accountID, true
}

func (h *AccountHandler) setRefreshCookie(c *gin.Context, token string, remember bool) {
	maxAge := 0 // session cookie
	if remember {
		maxAge = refreshCookieMaxAge
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", h.secure, true)
}

func respondCommandError(c *gin.Context, err error) {
	switch err.Error() {
	case "email already exists", "account is not a band", "account already linked", "invalid otp":
		middleware.RespondWithError(c, http.StatusBadRequest, err.Error())
	case "invalid credentials", "invalid token":
		middleware.RespondWithError(c, http.StatusUnauthorized, err.Error())
	case "account not found", "email not found":
		middleware.RespondWithError(c, http.StatusNotFound, err.Error())
	case "artist provisioning failed":
		middleware.RespondWithError(c, http.StatusInternalServerError, err.Error())
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/undersounds/undersounds/shared/cqrs"
	"github.com/undersounds/undersounds/shared/middleware"
	"github.com/undersounds/undersounds/shared/models"
)

type ArtistCommander interface {
	CreateArtist(ctx context.Context, cmd cqrs.CreateArtistCommand) (*models.ArtistView, error)
	UpdateArtist(ctx context.Context, cmd cqrs.UpdateArtistCommand) (*models.ArtistView, error)
}

type ArtistQuerier interface {
	GetArtist(ctx context.Context, query cqrs.GetArtistQuery) (*models.ArtistView, error)
	ListArtists(ctx context.Context, query cqrs.ListArtistsQuery) ([]*models.ArtistView, error)
}

// ArtistHandler exposes the artist endpoints. Writes are reserved for peer
// services holding the shared service key; reads are public.
type ArtistHandler struct {
	commands ArtistCommander
	queries  ArtistQuerier
}

func NewArtistHandler(commands ArtistCommander, queries ArtistQuerier) *ArtistHandler {
	return &ArtistHandler{commands: commands, queries: queries}
}

func (h *ArtistHandler) RegisterRoutes(router *gin.Engine, serviceKey string) {
	artists := router.Group("/v1/artists")
	artists.GET("", h.ListArtists)
	artists.GET("/:artistId", h.GetArtist)

	writes := artists.Group("", middleware.VerifyServiceKey(serviceKey))
	writes.POST("", h.CreateArtist)
	writes.PUT("/:artistId", h.UpdateArtist)
}

type createArtistRequest struct {
	Name         string   `json:"name" validate:"required,min=1,max=120"`
	ProfileImage string   `json:"profileImage"`
	Banner       string   `json:"banner"`
	Genre        string   `json:"genre"`
	Bio          string   `json:"bio"`
	Followers    int      `json:"seguidores" validate:"gte=0"`
	Albums       []string `json:"albums"`
}

func (h *ArtistHandler) CreateArtist(c *gin.Context) {
	var req createArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if errs := middleware.ValidateRequest(req); errs != nil {
		middleware.RespondWithValidationError(c, errs)
		return
	}

	view, err := h.commands.CreateArtist(c.Request.Context(), cqrs.CreateArtistCommand{
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
		Banner:       req.Banner,
		Genre:        req.Genre,
		Bio:          req.Bio,
		Followers:    req.Followers,
		Albums:       req.Albums,
	})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"artist": view})
}

type updateArtistRequest struct {
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Banner       string `json:"banner"`
	Genre        string `json:"genre"`
	Bio          string `json:"bio"`
}

func (h *ArtistHandler) UpdateArtist(c *gin.Context) {
	var req updateArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.commands.UpdateArtist(c.Request.Context(), cqrs.UpdateArtistCommand{
		ArtistID:     c.Param("artistId"),
		Name:         req.Name,
		ProfileImage: req.ProfileImage,
		Banner:       req.Banner,
		Genre:        req.Genre,
		Bio:          req.Bio,
	})
	if err != nil {
		respondArtistError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artist": view})
}

func (h *ArtistHandler) GetArtist(c *gin.Context) {
	view, err := h.queries.GetArtist(c.Request.Context(), cqrs.GetArtistQuery{ArtistID: c.Param("artistId")})
	if err != nil {
		respondArtistError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"artist": view})
}

func (h *ArtistHandler) ListArtists(c *gin.Context) {
	views, err := h.queries.ListArtists(c.Request.Context(), cqrs.ListArtistsQuery{Genre: c.Query("genre")})
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{"artists": views})
}

func respondArtistError(c *gin.Context, err error) {
	if err.Error() == "artist not found" {
		middleware.RespondWithError(c, http.StatusNotFound, err.Error())
		return
	}
	middleware.RespondWithError(c, http.StatusInternalServerError, "Internal server error")
}

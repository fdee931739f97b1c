package moderation

import (
	"errors"
	"strings"

	"github.com/FlashGalatine/xivdyetools-api/internal/middleware"
	"github.com/FlashGalatine/xivdyetools-api/internal/modules/preset"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/pagination"
	"github.com/FlashGalatine/xivdyetools-api/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc *Service
	log *zap.Logger
}

func NewHandler(svc *Service, log *zap.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the moderator endpoints. Every route requires a
// recognized moderator identity.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/moderation", middleware.RequireModerator())

	g.GET("/queue", h.queue)
	g.GET("/history", h.history)
	g.GET("/stats", h.stats)
	g.PATCH("/presets/:id/status", middleware.RequireJSON(), h.setStatus)
	g.PATCH("/presets/:id/revert", middleware.RequireJSON(), h.revert)
	g.PUT("/bans/:userId", middleware.RequireJSON(), h.ban)
	g.DELETE("/bans/:userId", h.unban)
}

func (h *Handler) queue(c *gin.Context) {
	items, pag, err := h.svc.Queue(c.Request.Context(), pagination.FromContext(c))
	if err != nil {
		h.fail(c, "moderation queue", err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) history(c *gin.Context) {
	items, pag, err := h.svc.History(c.Request.Context(), c.Query("preset_id"), pagination.FromContext(c))
	if err != nil {
		h.fail(c, "moderation history", err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.GetStats(c.Request.Context())
	if err != nil {
		h.fail(c, "moderation stats", err)
		return
	}
	response.OK(c, stats)
}

func (h *Handler) setStatus(c *gin.Context) {
	auth := middleware.GetAuth(c)

	var dto SetStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	p, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), auth.UserID(), auth.DisplayName(), &dto)
	if err != nil {
		h.fail(c, "set preset status", err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) revert(c *gin.Context) {
	auth := middleware.GetAuth(c)

	var dto RevertDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	p, err := h.svc.Revert(c.Request.Context(), c.Param("id"), auth.UserID(), auth.DisplayName(), &dto)
	if err != nil {
		h.fail(c, "revert preset", err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) ban(c *gin.Context) {
	auth := middleware.GetAuth(c)
	userID := c.Param("userId")

	if userID == auth.UserID() {
		response.BadRequest(c, "cannot ban yourself")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	body.Reason = strings.TrimSpace(body.Reason)
	if err := validateReason(body.Reason); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Ban(c.Request.Context(), userID, body.Reason, auth.UserID()); err != nil {
		h.fail(c, "ban user", err)
		return
	}
	response.OK(c, gin.H{"user_id": userID, "banned": true})
}

func (h *Handler) unban(c *gin.Context) {
	userID := c.Param("userId")
	if err := h.svc.Unban(c.Request.Context(), userID); err != nil {
		h.fail(c, "unban user", err)
		return
	}
	response.OK(c, gin.H{"user_id": userID, "banned": false})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	var vErr preset.ValidationError
	switch {
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	case errors.Is(err, preset.ErrNotFound):
		response.NotFound(c, "preset not found")
	case errors.Is(err, ErrNoSnapshot):
		response.BadRequest(c, ErrNoSnapshot.Error())
	case errors.Is(err, ErrInvalidState):
		response.BadRequest(c, "preset is already in that status")
	case errors.Is(err, ErrRevertDupe):
		response.Conflict(c, response.CodeDuplicate, ErrRevertDupe.Error(), nil)
	default:
		h.log.Error(op+" failed", zap.Error(err))
		response.InternalError(c, err)
	}
}

package preset

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FlashGalatine/xivdyetools-api/internal/middleware"
	"github.com/FlashGalatine/xivdyetools-api/internal/models"
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

// RegisterRoutes mounts the preset endpoints. banGate rejects banned users on
// every content mutation; cacheMW caches anonymous reads of the public lists.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, banGate, cacheMW gin.HandlerFunc) {
	g := rg.Group("/presets")

	authed := middleware.RequireAuthenticated()
	acting := middleware.RequireActingUser()

	g.GET("", cacheMW, h.list)
	g.GET("/featured", cacheMW, h.featured)
	g.GET("/mine", authed, h.mine)
	g.GET("/quota", authed, acting, h.quota)
	g.GET("/:id", h.get)
	g.GET("/:id/vote", authed, acting, h.voteStatus)

	g.POST("", authed, acting, middleware.RequireJSON(), banGate, h.create)
	g.PATCH("/:id", authed, acting, middleware.RequireJSON(), banGate, h.update)
	g.DELETE("/:id", authed, h.remove)
	g.POST("/:id/vote", authed, acting, banGate, h.addVote)
	g.DELETE("/:id/vote", authed, acting, h.removeVote)
	g.PATCH("/display-name", authed, acting, middleware.RequireJSON(), h.displayName)
}

func (h *Handler) list(c *gin.Context) {
	auth := middleware.GetAuth(c)

	q := ListQuery{
		CategoryID: c.Query("category"),
		Search:     strings.TrimSpace(c.Query("search")),
		Sort:       c.DefaultQuery("sort", "recent"),
	}
	if raw := c.Query("status"); raw != "" {
		st := models.PresetStatus(raw)
		if !st.Valid() {
			response.BadRequest(c, "invalid status filter")
			return
		}
		q.Status = st
	}
	if raw := c.Query("curated"); raw != "" {
		v := raw == "true" || raw == "1"
		q.Curated = &v
	}

	items, pag, err := h.svc.List(c.Request.Context(), q, pagination.FromContext(c), auth.IsModerator)
	if err != nil {
		h.fail(c, "list presets", err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) featured(c *gin.Context) {
	items, err := h.svc.Featured(c.Request.Context())
	if err != nil {
		h.fail(c, "featured presets", err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) mine(c *gin.Context) {
	auth := middleware.GetAuth(c)
	items, pag, err := h.svc.Mine(c.Request.Context(), auth.UserID(), pagination.FromContext(c))
	if err != nil {
		h.fail(c, "list own presets", err)
		return
	}
	response.Paged(c, items, pag)
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "get preset", err)
		return
	}
	response.OK(c, p)
}

func (h *Handler) quota(c *gin.Context) {
	auth := middleware.GetAuth(c)
	used, remaining, reset, err := h.svc.Quota(c.Request.Context(), auth.UserID())
	if err != nil {
		h.fail(c, "quota lookup", err)
		return
	}
	response.OK(c, gin.H{
		"used":      used,
		"remaining": remaining,
		"limit":     DailySubmissionCap,
		"resets_at": reset.Format(time.RFC3339),
	})
}

func (h *Handler) create(c *gin.Context) {
	auth := middleware.GetAuth(c)

	_, remaining, reset, err := h.svc.Quota(c.Request.Context(), auth.UserID())
	if err != nil {
		h.fail(c, "quota lookup", err)
		return
	}
	if remaining <= 0 {
		retryAfter := int(time.Until(reset).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		response.TooManyRequests(c, retryAfter)
		return
	}

	var dto CreatePresetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.Create(c.Request.Context(), auth.UserID(), auth.DisplayName(), &dto)
	if err != nil {
		h.fail(c, "create preset", err)
		return
	}
	if result.Duplicate {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

func (h *Handler) update(c *gin.Context) {
	auth := middleware.GetAuth(c)

	var dto UpdatePresetDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	p, scr, err := h.svc.Update(c.Request.Context(), c.Param("id"), auth.UserID(), &dto)
	if err != nil {
		h.fail(c, "update preset", err)
		return
	}
	response.OK(c, gin.H{"preset": p, "screening": scr})
}

func (h *Handler) remove(c *gin.Context) {
	auth := middleware.GetAuth(c)
	id := c.Param("id")

	p, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "delete preset", err)
		return
	}
	owner := p.AuthorID != nil && *p.AuthorID == auth.UserID()
	if !owner && !auth.IsModerator {
		response.Forbidden(c, "only the author or a moderator can delete a preset")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete preset", err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) addVote(c *gin.Context) {
	auth := middleware.GetAuth(c)
	count, added, err := h.svc.AddVote(c.Request.Context(), c.Param("id"), auth.UserID())
	if err != nil {
		h.fail(c, "add vote", err)
		return
	}
	response.OK(c, gin.H{"vote_count": count, "added": added})
}

func (h *Handler) removeVote(c *gin.Context) {
	auth := middleware.GetAuth(c)
	count, removed, err := h.svc.RemoveVote(c.Request.Context(), c.Param("id"), auth.UserID())
	if err != nil {
		h.fail(c, "remove vote", err)
		return
	}
	response.OK(c, gin.H{"vote_count": count, "removed": removed})
}

func (h *Handler) voteStatus(c *gin.Context) {
	auth := middleware.GetAuth(c)
	voted, err := h.svc.HasVoted(c.Request.Context(), c.Param("id"), auth.UserID())
	if err != nil {
		h.fail(c, "vote status", err)
		return
	}
	response.OK(c, gin.H{"has_voted": voted})
}

func (h *Handler) displayName(c *gin.Context) {
	auth := middleware.GetAuth(c)

	var body struct {
		DisplayName string `json:"display_name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	name := strings.TrimSpace(body.DisplayName)
	if n := utf8.RuneCountInString(name); n < 1 || n > 32 {
		response.BadRequest(c, "display_name must be 1-32 characters")
		return
	}

	updated, err := h.svc.RefreshDisplayName(c.Request.Context(), auth.UserID(), name)
	if err != nil {
		h.fail(c, "refresh display name", err)
		return
	}
	response.OK(c, gin.H{"updated": updated})
}

// fail maps service errors onto the API error envelope. Unexpected errors are
// logged with their operation name and surfaced as sanitized 500s.
func (h *Handler) fail(c *gin.Context, op string, err error) {
	var vErr ValidationError
	var dupErr *DuplicateError

	switch {
	case errors.As(err, &vErr):
		response.BadRequest(c, vErr.Error())
	case errors.As(err, &dupErr):
		extra := gin.H{}
		if dupErr.Existing != nil {
			extra["existing"] = gin.H{
				"id":         dupErr.Existing.ID,
				"name":       dupErr.Existing.Name,
				"vote_count": dupErr.Existing.VoteCount,
			}
		}
		response.Conflict(c, response.CodeDuplicate, dupErr.Error(), extra)
	case errors.Is(err, ErrNotFound):
		response.NotFound(c, "preset not found")
	case errors.Is(err, ErrNotOwner):
		response.Forbidden(c, "only the author can edit this preset")
	default:
		h.log.Error(op+" failed", zap.Error(err))
		response.InternalError(c, err)
	}
}

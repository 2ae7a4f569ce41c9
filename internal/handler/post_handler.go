package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
	"github.com/EgehanKilicarslan/blog-api/internal/database/service"
	"github.com/EgehanKilicarslan/blog-api/internal/middleware"
	"github.com/EgehanKilicarslan/blog-api/internal/policy"
)

const maxSlugLength = 300

var (
	errInvalidPostID   = apperror.Validation("Invalid post ID")
	errInvalidSlug     = apperror.Validation("Invalid slug")
	errInvalidAuthorID = apperror.Validation("Invalid author ID")
)

// PostHandler handles HTTP requests for posts
type PostHandler struct {
	service service.PostService
	logger  *slog.Logger
}

// NewPostHandler creates a new post handler
func NewPostHandler(service service.PostService, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

// Request DTOs
type CreatePostRequest struct {
	Title   string   `json:"title" binding:"required,min=3,max=200"`
	Content string   `json:"content" binding:"required,min=10"`
	Status  string   `json:"status" binding:"omitempty,oneof=draft published"`
	Tags    []string `json:"tags" binding:"omitempty,dive,max=30"`
}

func (r *CreatePostRequest) normalize() {
	r.Title = strings.TrimSpace(r.Title)
}

type UpdatePostRequest struct {
	Title   *string   `json:"title" binding:"omitnil,min=3,max=200"`
	Content *string   `json:"content" binding:"omitnil,min=10"`
	Status  *string   `json:"status" binding:"omitnil,oneof=draft published"`
	Tags    *[]string `json:"tags" binding:"omitnil,dive,max=30"`
}

func (r *UpdatePostRequest) normalize() {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		r.Title = &title
	}
}

type ListPostsQuery struct {
	Page   int    `form:"page" binding:"omitempty,min=1"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Search string `form:"search" binding:"omitempty,max=200"`
	Tag    string `form:"tag" binding:"omitempty,max=30"`
	Author string `form:"author" binding:"omitempty,uuid"`
	Status string `form:"status" binding:"omitempty,oneof=draft published"`
}

// Create handles POST /api/posts
func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [PostHandler] Invalid create request", "error", err)
		_ = c.Error(err)
		return
	}

	post, err := h.service.Create(c.Request.Context(), service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Status:  models.PostStatus(req.Status),
		Tags:    req.Tags,
	}, middleware.CurrentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusCreated, gin.H{"post": newPostResponse(post)})
}

// List handles GET /api/posts
func (h *PostHandler) List(c *gin.Context) {
	var query ListPostsQuery
	if err := bindQuery(c, &query); err != nil {
		_ = c.Error(err)
		return
	}

	filters := policy.ListFilters{
		Status: models.PostStatus(query.Status),
		Tag:    strings.TrimSpace(query.Tag),
		Search: strings.TrimSpace(query.Search),
		Page:   query.Page,
		Limit:  query.Limit,
	}
	if query.Author != "" {
		authorID, err := uuid.Parse(query.Author)
		if err != nil {
			_ = c.Error(errInvalidAuthorID)
			return
		}
		filters.AuthorID = authorID
	}

	page, err := h.service.List(c.Request.Context(), filters, callerFrom(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	posts := make([]PostResponse, 0, len(page.Posts))
	for i := range page.Posts {
		posts = append(posts, newPostResponse(&page.Posts[i]))
	}

	respond(c, http.StatusOK, gin.H{
		"posts": posts,
		"pagination": PaginationResponse{
			Page:  page.Page,
			Limit: page.Limit,
			Total: page.Total,
			Pages: page.Pages,
		},
	})
}

// GetBySlug handles GET /api/posts/:slug
func (h *PostHandler) GetBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" || len(slug) > maxSlugLength {
		_ = c.Error(errInvalidSlug)
		return
	}

	post, err := h.service.GetBySlug(c.Request.Context(), slug, callerFrom(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, gin.H{"post": newPostResponse(post)})
}

// Update handles PUT /api/posts/:id
func (h *PostHandler) Update(c *gin.Context) {
	postID, err := parsePostID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var req UpdatePostRequest
	if err := bindJSON(c, &req); err != nil {
		h.logger.Warn("⚠️ [PostHandler] Invalid update request", "error", err)
		_ = c.Error(err)
		return
	}

	input := service.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	}
	if req.Status != nil {
		status := models.PostStatus(*req.Status)
		input.Status = &status
	}

	post, err := h.service.Update(c.Request.Context(), postID, input, middleware.CurrentUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}

	respond(c, http.StatusOK, gin.H{"post": newPostResponse(post)})
}

// Delete handles DELETE /api/posts/:id
func (h *PostHandler) Delete(c *gin.Context) {
	postID, err := parsePostID(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), postID, middleware.CurrentUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ==================== Helper Methods ====================

func parsePostID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errInvalidPostID
	}
	return id, nil
}

func callerFrom(c *gin.Context) policy.Caller {
	return policy.Caller{UserID: middleware.CurrentUserID(c)}
}

package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
	"github.com/EgehanKilicarslan/blog-api/internal/database/repository"
	"github.com/EgehanKilicarslan/blog-api/internal/policy"
	"github.com/EgehanKilicarslan/blog-api/internal/slug"
)

// maxSlugAttempts bounds how often a write is retried after losing a slug race.
const maxSlugAttempts = 3

// CreatePostInput holds the fields accepted when creating a post
type CreatePostInput struct {
	Title   string
	Content string
	Status  models.PostStatus
	Tags    []string
}

// UpdatePostInput is a partial update. Nil fields are left unchanged.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Status  *models.PostStatus
	Tags    *[]string
}

// PostPage is one page of a post listing
type PostPage struct {
	Posts []models.Post
	Page  int
	Limit int
	Total int64
	Pages int
}

// PostService defines the interface for post business logic
type PostService interface {
	Create(ctx context.Context, input CreatePostInput, authorID uuid.UUID) (*models.Post, error)
	GetBySlug(ctx context.Context, slug string, caller policy.Caller) (*models.Post, error)
	List(ctx context.Context, filters policy.ListFilters, caller policy.Caller) (*PostPage, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePostInput, callerID uuid.UUID) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error
}

type postService struct {
	postRepo repository.PostRepository
	logger   *slog.Logger
}

// NewPostService creates a new post service instance
func NewPostService(postRepo repository.PostRepository, logger *slog.Logger) PostService {
	return &postService{
		postRepo: postRepo,
		logger:   logger,
	}
}

func (s *postService) Create(ctx context.Context, input CreatePostInput, authorID uuid.UUID) (*models.Post, error) {
	s.logger.Info("📝 [PostService] Creating post", "author_id", authorID)

	status := input.Status
	if status == "" {
		status = models.PostStatusDraft
	}

	post := &models.Post{
		Title:    strings.TrimSpace(input.Title),
		Content:  input.Content,
		AuthorID: authorID,
		Status:   status,
		Tags:     models.NewPostTags(cleanTags(input.Tags)),
	}

	if err := s.saveWithSlug(ctx, post, s.postRepo.Create); err != nil {
		return nil, s.fail("create post", err)
	}

	created, err := s.postRepo.FindByID(ctx, post.ID, false)
	if err != nil {
		return nil, s.fail("reload post", err)
	}

	s.logger.Info("✅ [PostService] Post created", "post_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (s *postService) GetBySlug(ctx context.Context, slug string, caller policy.Caller) (*models.Post, error) {
	post, err := s.postRepo.FindBySlug(ctx, slug, false)
	if err != nil {
		return nil, s.fail("find post", err)
	}

	if !policy.CanViewPost(post, caller) {
		s.logger.Warn("⚠️ [PostService] Draft access denied", "post_id", post.ID, "user_id", caller.UserID)
		return nil, ErrPostViewForbidden
	}

	return post, nil
}

func (s *postService) List(ctx context.Context, filters policy.ListFilters, caller policy.Caller) (*PostPage, error) {
	query, err := policy.ResolveListQuery(filters, caller)
	if err != nil {
		s.logger.Warn("⚠️ [PostService] Listing rejected", "user_id", caller.UserID, "author_id", filters.AuthorID)
		return nil, err
	}

	posts, total, err := s.postRepo.List(ctx, repository.PostFilter{
		Status:   query.Status,
		AuthorID: query.AuthorID,
		Tag:      query.Tag,
		Search:   query.Search,
		Offset:   query.Skip,
		Limit:    query.Limit,
	})
	if err != nil {
		return nil, s.fail("list posts", err)
	}

	return &PostPage{
		Posts: posts,
		Page:  query.Page,
		Limit: query.Limit,
		Total: total,
		Pages: policy.PageCount(total, query.Limit),
	}, nil
}

func (s *postService) Update(ctx context.Context, id uuid.UUID, input UpdatePostInput, callerID uuid.UUID) (*models.Post, error) {
	s.logger.Info("✏️ [PostService] Updating post", "post_id", id, "user_id", callerID)

	post, err := s.postRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.fail("find post", err)
	}

	if !policy.CanMutatePost(post, policy.Caller{UserID: callerID}) {
		s.logger.Warn("⚠️ [PostService] Update denied", "post_id", id, "user_id", callerID)
		return nil, ErrPostEditForbidden
	}

	titleChanged := false
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != post.Title {
			post.Title = title
			titleChanged = true
		}
	}
	if input.Content != nil {
		post.Content = *input.Content
	}
	if input.Status != nil {
		post.Status = *input.Status
	}
	if input.Tags != nil {
		post.Tags = models.NewPostTags(cleanTags(*input.Tags))
	}

	if titleChanged {
		err = s.saveWithSlug(ctx, post, s.postRepo.Update)
	} else {
		err = s.postRepo.Update(ctx, post)
	}
	if err != nil {
		return nil, s.fail("update post", err)
	}

	updated, err := s.postRepo.FindByID(ctx, id, false)
	if err != nil {
		return nil, s.fail("reload post", err)
	}

	s.logger.Info("✅ [PostService] Post updated", "post_id", id, "slug", updated.Slug)
	return updated, nil
}

func (s *postService) Delete(ctx context.Context, id uuid.UUID, callerID uuid.UUID) error {
	s.logger.Info("🗑️ [PostService] Deleting post", "post_id", id, "user_id", callerID)

	post, err := s.postRepo.FindByID(ctx, id, false)
	if err != nil {
		return s.fail("find post", err)
	}

	if !policy.CanMutatePost(post, policy.Caller{UserID: callerID}) {
		s.logger.Warn("⚠️ [PostService] Delete denied", "post_id", id, "user_id", callerID)
		return ErrPostDeleteForbidden
	}

	if err := s.postRepo.SoftDelete(ctx, id); err != nil {
		return s.fail("delete post", err)
	}

	s.logger.Info("✅ [PostService] Post deleted", "post_id", id)
	return nil
}

// saveWithSlug derives a slug from post.Title and writes the post with save.
// When the write loses a race for the slug, that candidate is treated as taken
// and generation runs again, up to maxSlugAttempts times.
func (s *postService) saveWithSlug(ctx context.Context, post *models.Post, save func(context.Context, *models.Post) error) error {
	excludeID := post.ID
	var lost []string

	taken := func(ctx context.Context, candidate string) (bool, error) {
		if slices.Contains(lost, candidate) {
			return true, nil
		}
		return s.postRepo.SlugTaken(ctx, candidate, excludeID)
	}

	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		candidate, err := slug.Generate(ctx, post.Title, taken)
		if err != nil {
			return err
		}

		post.Slug = candidate
		err = save(ctx, post)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrSlugTaken) {
			return err
		}

		s.logger.Warn("⚠️ [PostService] Slug claimed concurrently, retrying",
			"slug", candidate,
			"attempt", attempt,
		)
		lost = append(lost, candidate)
	}

	return ErrSlugConflict
}

// fail maps repository errors onto the service error set.
func (s *postService) fail(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrPostNotFound):
		return ErrPostNotFound
	case errors.Is(err, repository.ErrSlugTaken):
		return ErrSlugConflict
	case apperror.From(err) != nil:
		return err
	}
	s.logger.Error("❌ [PostService] Failed to "+op, "error", err)
	return apperror.Internal(err)
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

// Service errors
var (
	ErrPostNotFound        = apperror.NotFound("Post not found")
	ErrPostViewForbidden   = apperror.Authorization("You do not have permission to view this post")
	ErrPostEditForbidden   = apperror.Authorization("You can only update your own posts")
	ErrPostDeleteForbidden = apperror.Authorization("You can only delete your own posts")
	ErrSlugConflict        = apperror.Conflict("A post with a similar title was created at the same time, please retry")
)

package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
)

// PostFilter narrows a post listing. Zero values mean "no constraint".
type PostFilter struct {
	Status         models.PostStatus
	AuthorID       uuid.UUID
	Tag            string
	Search         string
	IncludeDeleted bool
	Offset         int
	Limit          int
}

// PostRepository defines the interface for post data operations.
// Reads exclude soft-deleted posts unless includeDeleted is set.
type PostRepository interface {
	// CRUD operations
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Post, error)
	FindBySlug(ctx context.Context, slug string, includeDeleted bool) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Query operations
	List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository instance
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

// ==================== CRUD Operations ====================

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Author").Create(post).Error)
}

func (r *postRepository) FindByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*models.Post, error) {
	return r.findOne(ctx, includeDeleted, "id = ?", id)
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string, includeDeleted bool) (*models.Post, error) {
	return r.findOne(ctx, includeDeleted, "slug = ?", slug)
}

// Update writes the mutable columns and replaces the tag rows. The author is never written.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(post).
			Select("Title", "Slug", "Content", "Status").
			Updates(post)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}

		if err := tx.Where("post_id = ?", post.ID).Delete(&models.PostTag{}).Error; err != nil {
			return err
		}
		if len(post.Tags) == 0 {
			return nil
		}
		for i := range post.Tags {
			post.Tags[i].ID = 0
			post.Tags[i].PostID = post.ID
		}
		return tx.Create(&post.Tags).Error
	})
	return translateWriteError(err)
}

func (r *postRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Post{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// ==================== Query Operations ====================

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 && int64(filter.Offset) >= total {
		return []models.Post{}, total, nil
	}

	query := r.filtered(ctx, filter).
		Scopes(withRelations).
		Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, 0, err
	}

	return posts, total, nil
}

// SlugTaken reports whether an alive post other than excludeID holds slug.
func (r *postRepository) SlugTaken(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Post{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ==================== Helpers ====================

func (r *postRepository) findOne(ctx context.Context, includeDeleted bool, cond string, arg any) (*models.Post, error) {
	query := r.db.WithContext(ctx)
	if includeDeleted {
		query = query.Unscoped()
	}

	var post models.Post
	err := query.Scopes(withRelations).Where(cond, arg).First(&post).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) filtered(ctx context.Context, filter PostFilter) *gorm.DB {
	query := r.db.WithContext(ctx)
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.AuthorID != uuid.Nil {
		query = query.Where("author_id = ?", filter.AuthorID)
	}
	if filter.Tag != "" {
		query = query.Where("EXISTS (SELECT 1 FROM post_tags WHERE post_tags.post_id = posts.id AND post_tags.name = ?)", filter.Tag)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = r.searchScope(query, search)
	}
	return query
}

// searchScope uses the full-text index on postgres and a LIKE scan elsewhere.
func (r *postRepository) searchScope(query *gorm.DB, search string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return query.Where("to_tsvector('english', title || ' ' || content) @@ plainto_tsquery('english', ?)", search)
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
	return query.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(content) LIKE ? ESCAPE '\')`, pattern, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func withRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Author").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("post_tags.id ASC")
	})
}

func translateWriteError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlugTaken
	}
	return err
}

// Repository errors
var (
	ErrPostNotFound = errors.New("post not found")
	ErrSlugTaken    = errors.New("slug already taken")
)

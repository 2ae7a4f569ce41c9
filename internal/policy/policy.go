// Package policy decides which posts a caller may see or change.
// Every function here is pure.
package policy

import (
	"math"

	"github.com/google/uuid"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ErrForeignDrafts is returned when a caller asks for another author's drafts.
var ErrForeignDrafts = apperror.Authorization("You can only view your own drafts")

// Caller identifies who is making a request. The zero value is anonymous.
type Caller struct {
	UserID uuid.UUID
}

// Anonymous returns the caller with no identity.
func Anonymous() Caller {
	return Caller{}
}

func (c Caller) IsAnonymous() bool {
	return c.UserID == uuid.Nil
}

// ListFilters are the listing options as requested by the caller.
type ListFilters struct {
	Status   models.PostStatus
	AuthorID uuid.UUID
	Tag      string
	Search   string
	Page     int
	Limit    int
}

// ListQuery is the effective listing after visibility rules are applied.
type ListQuery struct {
	Status   models.PostStatus
	AuthorID uuid.UUID
	Tag      string
	Search   string
	Page     int
	Limit    int
	Skip     int
}

// CanViewPost allows published posts to everyone and drafts to their author only.
func CanViewPost(post *models.Post, caller Caller) bool {
	if post.Status == models.PostStatusPublished {
		return true
	}
	return !caller.IsAnonymous() && post.IsAuthor(caller.UserID)
}

// CanMutatePost allows updates and deletes by the author only.
func CanMutatePost(post *models.Post, caller Caller) bool {
	return !caller.IsAnonymous() && post.IsAuthor(caller.UserID)
}

// ResolveListQuery applies visibility rules to the requested filters.
// Anonymous callers only ever see published posts; a draft request from an
// authenticated caller is pinned to their own posts and rejected when it names
// a different author.
func ResolveListQuery(filters ListFilters, caller Caller) (ListQuery, error) {
	page, limit := normalizePage(filters.Page, filters.Limit)

	query := ListQuery{
		Status:   filters.Status,
		AuthorID: filters.AuthorID,
		Tag:      filters.Tag,
		Search:   filters.Search,
		Page:     page,
		Limit:    limit,
		Skip:     skipFor(page, limit),
	}

	switch {
	case caller.IsAnonymous():
		query.Status = models.PostStatusPublished
	case filters.Status == models.PostStatusDraft:
		if filters.AuthorID != uuid.Nil && filters.AuthorID != caller.UserID {
			return ListQuery{}, ErrForeignDrafts
		}
		query.AuthorID = caller.UserID
	}

	return query, nil
}

// PageCount returns ceil(total/limit).
func PageCount(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// skipFor returns (page-1)*limit, saturating at math.MaxInt so a huge page
// yields an empty window instead of wrapping around.
func skipFor(page, limit int) int {
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

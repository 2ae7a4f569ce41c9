package models

import (
	"database/sql/driver"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus represents the visibility state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Scan implements the sql.Scanner interface for PostStatus
func (s *PostStatus) Scan(value interface{}) error {
	if value == nil {
		*s = PostStatusDraft
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*s = PostStatus(v)
	case string:
		*s = PostStatus(v)
	default:
		return errors.New("invalid post status type")
	}
	return nil
}

// Value implements the driver.Valuer interface for PostStatus
func (s PostStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Post is a blog entry. The slug is unique among posts that are not soft-deleted.
type Post struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Slug      string         `gorm:"size:255;not null;uniqueIndex:idx_posts_slug_alive,where:deleted_at IS NULL" json:"slug"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	AuthorID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	Status    PostStatus     `gorm:"type:varchar(20);not null;default:draft;index" json:"status"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	// Relationships
	Author User      `gorm:"foreignKey:AuthorID" json:"author"`
	Tags   []PostTag `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"tags"`
}

// TableName overrides the table name
func (Post) TableName() string {
	return "posts"
}

// BeforeCreate assigns the identifier
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TagNames returns the tag values in their stored order
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		names = append(names, tag.Name)
	}
	return names
}

// IsAuthor reports whether userID wrote the post
func (p *Post) IsAuthor(userID uuid.UUID) bool {
	return userID != uuid.Nil && p.AuthorID == userID
}

// PostTag is a single tag attached to a post. ID order is the tag order.
type PostTag struct {
	ID     uint      `gorm:"primaryKey" json:"-"`
	PostID uuid.UUID `gorm:"type:uuid;not null;index:idx_post_tags_post" json:"-"`
	Name   string    `gorm:"size:30;not null;index:idx_post_tags_name" json:"name"`
}

// TableName overrides the table name
func (PostTag) TableName() string {
	return "post_tags"
}

// NewPostTags builds tag rows from names
func NewPostTags(names []string) []PostTag {
	tags := make([]PostTag, 0, len(names))
	for _, name := range names {
		tags = append(tags, PostTag{Name: name})
	}
	return tags
}

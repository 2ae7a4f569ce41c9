package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/EgehanKilicarslan/blog-api/internal/apperror"
	"github.com/EgehanKilicarslan/blog-api/internal/database/models"
	"github.com/EgehanKilicarslan/blog-api/internal/database/repository"
	"github.com/EgehanKilicarslan/blog-api/internal/database/service"
	"github.com/EgehanKilicarslan/blog-api/internal/policy"
	"github.com/EgehanKilicarslan/blog-api/internal/testutil"
)

type postServiceFixture struct {
	svc   service.PostService
	repo  repository.PostRepository
	alice uuid.UUID
	bob   uuid.UUID
	ctx   context.Context
}

func newPostServiceFixture(t *testing.T) *postServiceFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	users := repository.NewUserRepository(db)
	ctx := context.Background()

	alice := &models.User{Name: "Alice", Email: "alice@example.com", Password: "hash"}
	bob := &models.User{Name: "Bob", Email: "bob@example.com", Password: "hash"}
	require.NoError(t, users.Create(ctx, alice))
	require.NoError(t, users.Create(ctx, bob))

	repo := repository.NewPostRepository(db)
	return &postServiceFixture{
		svc:   service.NewPostService(repo, testutil.TestLogger()),
		repo:  repo,
		alice: alice.ID,
		bob:   bob.ID,
		ctx:   ctx,
	}
}

func (f *postServiceFixture) create(t *testing.T, author uuid.UUID, title string, status models.PostStatus) *models.Post {
	t.Helper()
	post, err := f.svc.Create(f.ctx, service.CreatePostInput{
		Title:   title,
		Content: "Some meaningful content",
		Status:  status,
	}, author)
	require.NoError(t, err)
	return post
}

func ptr[T any](v T) *T {
	return &v
}

// ==================== CREATE ====================

func TestPostService_Create(t *testing.T) {
	f := newPostServiceFixture(t)

	post, err := f.svc.Create(f.ctx, service.CreatePostInput{
		Title:   "  Hello World  ",
		Content: "Content that is long enough",
		Tags:    []string{" go ", "", "web"},
	}, f.alice)

	require.NoError(t, err)
	assert.Equal(t, "Hello World", post.Title)
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, models.PostStatusDraft, post.Status)
	assert.Equal(t, f.alice, post.AuthorID)
	assert.Equal(t, "Alice", post.Author.Name)
	assert.Equal(t, []string{"go", "web"}, post.TagNames())
}

func TestPostService_CreateDisambiguatesSlugs(t *testing.T) {
	f := newPostServiceFixture(t)

	first := f.create(t, f.alice, "Hello World", models.PostStatusPublished)
	second := f.create(t, f.bob, "Hello World", models.PostStatusPublished)
	third := f.create(t, f.alice, "hello   world!", models.PostStatusDraft)

	assert.Equal(t, "hello-world", first.Slug)
	assert.Equal(t, "hello-world-1", second.Slug)
	assert.Equal(t, "hello-world-2", third.Slug)
}

func TestPostService_CreateReusesSlugOfDeletedPost(t *testing.T) {
	f := newPostServiceFixture(t)

	first := f.create(t, f.alice, "Reusable", models.PostStatusPublished)
	require.NoError(t, f.svc.Delete(f.ctx, first.ID, f.alice))

	second := f.create(t, f.alice, "Reusable", models.PostStatusPublished)
	assert.Equal(t, "reusable", second.Slug)
}

func TestPostService_CreateRetriesLostSlugRace(t *testing.T) {
	tests := []struct {
		name        string
		failures    int
		wantErr     error
		wantSlug    string
		createCalls int
	}{
		{
			name:        "second attempt succeeds",
			failures:    1,
			wantSlug:    "race-1",
			createCalls: 2,
		},
		{
			name:        "gives up after bounded attempts",
			failures:    3,
			wantErr:     service.ErrSlugConflict,
			createCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			postRepo := new(testutil.MockPostRepository)
			postRepo.On("SlugTaken", mock.Anything, mock.Anything, uuid.Nil).Return(false, nil)

			var attempted []string
			createCall := postRepo.On("Create", mock.Anything, mock.AnythingOfType("*models.Post"))
			createCall.RunFn = func(args mock.Arguments) {
				post := args.Get(1).(*models.Post)
				attempted = append(attempted, post.Slug)
				if len(attempted) <= tt.failures {
					createCall.ReturnArguments = mock.Arguments{repository.ErrSlugTaken}
					return
				}
				createCall.ReturnArguments = mock.Arguments{nil}
			}
			postRepo.On("FindByID", mock.Anything, mock.Anything, false).Return(&models.Post{Slug: "race-1"}, nil).Maybe()

			svc := service.NewPostService(postRepo, testutil.TestLogger())
			post, err := svc.Create(context.Background(), service.CreatePostInput{
				Title:   "Race",
				Content: "Two writers, one slug",
			}, uuid.New())

			assert.Len(t, attempted, tt.createCalls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
				assert.Equal(t, []string{"race", "race-1", "race-2"}, attempted)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSlug, post.Slug)
			assert.Equal(t, []string{"race", "race-1"}, attempted)
		})
	}
}

// ==================== GET ====================

func TestPostService_GetBySlug(t *testing.T) {
	f := newPostServiceFixture(t)
	f.create(t, f.alice, "Draft Post", models.PostStatusDraft)
	f.create(t, f.alice, "Public Post", models.PostStatusPublished)

	tests := []struct {
		name    string
		slug    string
		caller  policy.Caller
		wantErr error
	}{
		{"published, anonymous", "public-post", policy.Anonymous(), nil},
		{"published, other user", "public-post", policy.Caller{UserID: f.bob}, nil},
		{"draft, author", "draft-post", policy.Caller{UserID: f.alice}, nil},
		{"draft, anonymous", "draft-post", policy.Anonymous(), service.ErrPostViewForbidden},
		{"draft, other user", "draft-post", policy.Caller{UserID: f.bob}, service.ErrPostViewForbidden},
		{"missing", "no-such-post", policy.Anonymous(), service.ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post, err := f.svc.GetBySlug(f.ctx, tt.slug, tt.caller)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, post)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.slug, post.Slug)
		})
	}
}

// ==================== LIST ====================

func TestPostService_List(t *testing.T) {
	f := newPostServiceFixture(t)
	f.create(t, f.alice, "Alice Published", models.PostStatusPublished)
	f.create(t, f.alice, "Alice Draft", models.PostStatusDraft)
	f.create(t, f.bob, "Bob Published", models.PostStatusPublished)
	f.create(t, f.bob, "Bob Draft", models.PostStatusDraft)

	tests := []struct {
		name          string
		filters       policy.ListFilters
		caller        policy.Caller
		expectedTotal int64
		wantErr       error
	}{
		{"anonymous sees published", policy.ListFilters{}, policy.Anonymous(), 2, nil},
		{"anonymous draft request is forced to published", policy.ListFilters{Status: models.PostStatusDraft}, policy.Anonymous(), 2, nil},
		{"authenticated without status", policy.ListFilters{}, policy.Caller{UserID: f.alice}, 4, nil},
		{"own drafts", policy.ListFilters{Status: models.PostStatusDraft}, policy.Caller{UserID: f.alice}, 1, nil},
		{"published by author", policy.ListFilters{Status: models.PostStatusPublished, AuthorID: f.bob}, policy.Caller{UserID: f.alice}, 1, nil},
		{"foreign drafts rejected", policy.ListFilters{Status: models.PostStatusDraft, AuthorID: f.bob}, policy.Caller{UserID: f.alice}, 0, policy.ErrForeignDrafts},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := f.svc.List(f.ctx, tt.filters, tt.caller)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedTotal, page.Total)
			assert.Len(t, page.Posts, int(tt.expectedTotal))
		})
	}
}

func TestPostService_ListPagination(t *testing.T) {
	f := newPostServiceFixture(t)
	for i := 0; i < 25; i++ {
		f.create(t, f.alice, "Paged Post", models.PostStatusPublished)
	}

	tests := []struct {
		page, limit  int
		expectedSize int
	}{
		{1, 10, 10},
		{3, 10, 5},
		{4, 10, 0},
	}

	for _, tt := range tests {
		page, err := f.svc.List(f.ctx, policy.ListFilters{Page: tt.page, Limit: tt.limit}, policy.Anonymous())

		require.NoError(t, err)
		assert.Equal(t, int64(25), page.Total)
		assert.Equal(t, 3, page.Pages)
		assert.Equal(t, tt.page, page.Page)
		assert.Len(t, page.Posts, tt.expectedSize, "page %d", tt.page)
	}
}

// ==================== UPDATE ====================

func TestPostService_UpdateSlugRoundTrip(t *testing.T) {
	f := newPostServiceFixture(t)
	first := f.create(t, f.alice, "Same Title", models.PostStatusPublished)
	second := f.create(t, f.alice, "Same Title", models.PostStatusPublished)
	f.create(t, f.bob, "Unrelated Post", models.PostStatusPublished)
	require.Equal(t, "same-title", first.Slug)
	require.Equal(t, "same-title-1", second.Slug)

	// Content-only edits keep the slug
	updated, err := f.svc.Update(f.ctx, second.ID, service.UpdatePostInput{Content: ptr("Edited content body")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "same-title-1", updated.Slug)

	// Re-submitting the current title keeps the slug
	updated, err = f.svc.Update(f.ctx, second.ID, service.UpdatePostInput{Title: ptr("Same Title")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "same-title-1", updated.Slug)

	// Renaming to a free title takes the plain slug
	updated, err = f.svc.Update(f.ctx, second.ID, service.UpdatePostInput{Title: ptr("Fresh Name")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "fresh-name", updated.Slug)

	// Renaming onto an unrelated alive post's slug gets a suffix
	updated, err = f.svc.Update(f.ctx, second.ID, service.UpdatePostInput{Title: ptr("Unrelated Post")}, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "unrelated-post-1", updated.Slug)

	// The first post never moved
	unchanged, err := f.repo.FindByID(f.ctx, first.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "same-title", unchanged.Slug)
}

func TestPostService_UpdateRenameKeepsOwnSlugCandidate(t *testing.T) {
	f := newPostServiceFixture(t)
	post := f.create(t, f.alice, "Title Case", models.PostStatusDraft)

	updated, err := f.svc.Update(f.ctx, post.ID, service.UpdatePostInput{Title: ptr("title case")}, f.alice)

	require.NoError(t, err)
	assert.Equal(t, "title case", updated.Title)
	assert.Equal(t, "title-case", updated.Slug)
}

func TestPostService_UpdateFields(t *testing.T) {
	f := newPostServiceFixture(t)
	post := f.create(t, f.alice, "Mutable", models.PostStatusDraft)

	updated, err := f.svc.Update(f.ctx, post.ID, service.UpdatePostInput{
		Status: ptr(models.PostStatusPublished),
		Tags:   ptr([]string{"one", "two"}),
	}, f.alice)

	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPublished, updated.Status)
	assert.Equal(t, []string{"one", "two"}, updated.TagNames())
	assert.Equal(t, f.alice, updated.AuthorID)
}

func TestPostService_UpdateAndDeleteAuthorization(t *testing.T) {
	f := newPostServiceFixture(t)
	post := f.create(t, f.alice, "Owned", models.PostStatusPublished)

	tests := []struct {
		name    string
		id      uuid.UUID
		caller  uuid.UUID
		wantErr error
		delErr  error
	}{
		{"other user", post.ID, f.bob, service.ErrPostEditForbidden, service.ErrPostDeleteForbidden},
		{"anonymous", post.ID, uuid.Nil, service.ErrPostEditForbidden, service.ErrPostDeleteForbidden},
		{"missing post", uuid.New(), f.alice, service.ErrPostNotFound, service.ErrPostNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Update(f.ctx, tt.id, service.UpdatePostInput{Title: ptr("Hijacked")}, tt.caller)
			assert.ErrorIs(t, err, tt.wantErr)

			err = f.svc.Delete(f.ctx, tt.id, tt.caller)
			assert.ErrorIs(t, err, tt.delErr)
		})
	}

	unchanged, err := f.repo.FindByID(f.ctx, post.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Owned", unchanged.Title)
}

// ==================== DELETE ====================

func TestPostService_Delete(t *testing.T) {
	f := newPostServiceFixture(t)
	post := f.create(t, f.alice, "Short Lived", models.PostStatusPublished)

	require.NoError(t, f.svc.Delete(f.ctx, post.ID, f.alice))

	_, err := f.svc.GetBySlug(f.ctx, "short-lived", policy.Caller{UserID: f.alice})
	assert.ErrorIs(t, err, service.ErrPostNotFound)

	_, err = f.svc.Update(f.ctx, post.ID, service.UpdatePostInput{Title: ptr("Revived")}, f.alice)
	assert.ErrorIs(t, err, service.ErrPostNotFound)

	assert.ErrorIs(t, f.svc.Delete(f.ctx, post.ID, f.alice), service.ErrPostNotFound)

	stored, err := f.repo.FindByID(f.ctx, post.ID, true)
	require.NoError(t, err)
	assert.True(t, stored.DeletedAt.Valid)
}

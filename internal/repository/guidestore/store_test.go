package guidestore

import (
	"context"
	"testing"
	"time"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/repository/implementation"
	"ai-sceneguide-be/pkg/database"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) (*GuideStore, *sqlx.DB) {
	t.Helper()
	db, err := database.OpenSQLite(context.Background(), database.MemoryDSN, implementation.GuideSQLiteSchema)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	backend, err := SelectBackend(nil, implementation.NewSQLiteGuideRepository(db))
	require.NoError(t, err)
	store, err := New(backend, logger.NewNop())
	require.NoError(t, err)
	return store, db
}

func newGuide(owner uuid.UUID) *entity.Guide {
	return &entity.Guide{
		OwnerId:              owner,
		CharacterName:        "Alex",
		ProductionTitle:      "Pilot Season",
		ProductionType:       "Single Cam Sitcom",
		SceneText:            "ALEX: Hi.",
		PrimaryHtml:          "<h1>Alex</h1>",
		SecondaryRequested:   true,
		Status:               entity.GuideStatusPrimaryReady,
		ProviderUsed:         "anthropic",
		ExtractionMethod:     "document-ai",
		ExtractionConfidence: "medium",
		RetrievalSources:     []string{"uta-hagen-questions", "comedy-timing"},
	}
}

func TestSelectBackend(t *testing.T) {
	db, err := database.OpenSQLite(context.Background(), database.MemoryDSN, implementation.GuideSQLiteSchema)
	require.NoError(t, err)
	defer db.Close()
	secondary := implementation.NewSQLiteGuideRepository(db)

	b, err := SelectBackend(nil, secondary)
	require.NoError(t, err)
	assert.Equal(t, BackendSecondary, b.Kind)

	b, err = SelectBackend(secondary, secondary)
	require.NoError(t, err)
	assert.Equal(t, BackendPrimary, b.Kind)

	_, err = SelectBackend(nil, nil)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = New(Backend{}, logger.NewNop())
	assert.ErrorIs(t, err, ErrStorageUnavailable)
}

func TestGuideStore_CreateGetRoundTrip(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	owner := uuid.New()

	guide := newGuide(owner)
	guide.IsFavorite = true
	require.NoError(t, store.Create(ctx, guide))
	require.NotEqual(t, uuid.Nil, guide.Id)

	got, err := store.Get(ctx, guide.Id, owner)
	require.NoError(t, err)
	assert.Equal(t, guide.Id, got.Id)
	assert.Equal(t, "Pilot Season", got.ProductionTitle)
	assert.True(t, got.SecondaryRequested)
	assert.False(t, got.SecondaryCompleted)
	assert.Nil(t, got.SecondaryHtml)
	assert.True(t, got.IsFavorite)
	assert.False(t, got.IsPublic)
	assert.False(t, got.Degraded)
	assert.Equal(t, []string{"uta-hagen-questions", "comedy-timing"}, got.RetrievalSources)
	assert.Equal(t, "document-ai", got.ExtractionMethod)
	assert.Equal(t, "medium", got.ExtractionConfidence)
	assert.WithinDuration(t, guide.CreatedAt, got.CreatedAt, time.Microsecond)
}

func TestGuideStore_GetChecksOwner(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	guide := newGuide(uuid.New())
	require.NoError(t, store.Create(ctx, guide))

	_, err := store.Get(ctx, guide.Id, uuid.New())
	assert.ErrorIs(t, err, ErrGuideNotFound)

	_, err = store.Get(ctx, uuid.New(), guide.OwnerId)
	assert.ErrorIs(t, err, ErrGuideNotFound)
}

func TestGuideStore_UpdateSecondary(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	guide := newGuide(uuid.New())
	require.NoError(t, store.Create(ctx, guide))

	html := "<h1>Quick</h1>"
	done := true
	status := entity.GuideStatusSecondaryReady
	require.NoError(t, store.Update(ctx, guide.Id, entity.GuidePatch{
		SecondaryHtml:      &html,
		SecondaryCompleted: &done,
		Status:             &status,
	}))

	got, err := store.Get(ctx, guide.Id, guide.OwnerId)
	require.NoError(t, err)
	require.NotNil(t, got.SecondaryHtml)
	assert.Equal(t, html, *got.SecondaryHtml)
	assert.True(t, got.SecondaryCompleted)
	assert.Equal(t, entity.GuideStatusSecondaryReady, got.Status)
	assert.Equal(t, "<h1>Alex</h1>", got.PrimaryHtml)
	assert.NotNil(t, got.UpdatedAt)
}

func TestGuideStore_UpdateRejectsInvalidPatch(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	guide := newGuide(uuid.New())
	require.NoError(t, store.Create(ctx, guide))

	done := true
	err := store.Update(ctx, guide.Id, entity.GuidePatch{SecondaryCompleted: &done})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	empty := " "
	err = store.Update(ctx, guide.Id, entity.GuidePatch{SecondaryHtml: &empty, SecondaryCompleted: &done})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	got, err := store.Get(ctx, guide.Id, guide.OwnerId)
	require.NoError(t, err)
	assert.False(t, got.SecondaryCompleted)
}

func TestGuideStore_UpdateMissingGuide(t *testing.T) {
	store, _ := newSQLiteStore(t)
	fav := true
	err := store.Update(context.Background(), uuid.New(), entity.GuidePatch{IsFavorite: &fav})
	assert.ErrorIs(t, err, ErrGuideNotFound)
}

func TestGuideStore_CreateValidates(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()

	noOwner := newGuide(uuid.Nil)
	assert.ErrorIs(t, store.Create(ctx, noOwner), ErrInvalidGuide)

	noPrimary := newGuide(uuid.New())
	noPrimary.PrimaryHtml = ""
	assert.ErrorIs(t, store.Create(ctx, noPrimary), ErrInvalidGuide)

	unrequested := newGuide(uuid.New())
	unrequested.SecondaryRequested = false
	html := "<p>x</p>"
	unrequested.SecondaryHtml = &html
	assert.ErrorIs(t, store.Create(ctx, unrequested), ErrInvalidGuide)
}

func TestGuideStore_ListNewestFirst(t *testing.T) {
	store, _ := newSQLiteStore(t)
	ctx := context.Background()
	owner := uuid.New()

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, title := range []string{"first", "second", "third"} {
		g := newGuide(owner)
		g.ProductionTitle = title
		g.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, store.Create(ctx, g))
	}
	require.NoError(t, store.Create(ctx, newGuide(uuid.New())))

	guides, err := store.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, guides, 3)
	assert.Equal(t, "third", guides[0].ProductionTitle)
	assert.Equal(t, "first", guides[2].ProductionTitle)
}

func TestGuideStore_LegacyBooleanShapes(t *testing.T) {
	store, db := newSQLiteStore(t)
	ctx := context.Background()
	owner := uuid.New()

	rows := []struct {
		favorite interface{}
		public   interface{}
		want     [2]bool
	}{
		{favorite: "true", public: "0", want: [2]bool{true, false}},
		{favorite: int64(1), public: "yes", want: [2]bool{true, true}},
		{favorite: "false", public: nil, want: [2]bool{false, false}},
	}

	for _, r := range rows {
		id := uuid.New()
		_, err := db.ExecContext(ctx, `INSERT INTO guides
			(id, ownerId, characterName, productionTitle, primaryHtml, status, isFavorite, isPublic, createdAt)
			VALUES (?, ?, 'Alex', 'Show', '<p>x</p>', 'primary_ready', ?, COALESCE(?, 0), ?)`,
			id.String(), owner.String(), r.favorite, r.public, time.Now().UTC().Format("2006-01-02T15:04:05.000000000Z07:00"))
		require.NoError(t, err)

		got, err := store.Get(ctx, id, owner)
		require.NoError(t, err)
		assert.Equal(t, r.want[0], got.IsFavorite, "favorite %v", r.favorite)
		assert.Equal(t, r.want[1], got.IsPublic, "public %v", r.public)
		assert.False(t, got.SecondaryCompleted)
	}
}

package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/model"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/repository/contract"
	"ai-sceneguide-be/internal/repository/guidestore"
	"ai-sceneguide-be/internal/repository/implementation"
	"ai-sceneguide-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormGuideRepository(t *testing.T) {
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("Skipping integration test: DB_CONNECTION_STRING not set")
	}

	gormDB, err := database.NewGormDBFromDSN(dsn, false)
	require.NoError(t, err, "Failed to connect to DB")
	require.NoError(t, gormDB.AutoMigrate(&model.Guide{}))

	backend, err := guidestore.SelectBackend(implementation.NewGuideRepository(gormDB), nil)
	require.NoError(t, err)
	assert.Equal(t, guidestore.BackendPrimary, backend.Kind)

	store, err := guidestore.New(backend, logger.NewNop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Ping(ctx))

	owner := uuid.New()
	guide := &entity.Guide{
		OwnerId:            owner,
		CharacterName:      "Alex",
		ProductionTitle:    "Integration Pilot",
		ProductionType:     "Single Cam Sitcom",
		SceneText:          "ALEX: Hi.",
		PrimaryHtml:        "<h1>Alex</h1>",
		SecondaryRequested: true,
		Status:             entity.GuideStatusPrimaryReady,
		ProviderUsed:       "template",
		Degraded:           true,
		RetrievalSources:   []string{"comedy-timing"},
	}
	require.NoError(t, store.Create(ctx, guide))
	t.Cleanup(func() {
		gormDB.Where("id = ?", guide.Id).Delete(&model.Guide{})
	})

	t.Run("Duplicate id is rejected", func(t *testing.T) {
		dup := *guide
		err := store.Create(ctx, &dup)
		assert.ErrorIs(t, err, contract.ErrDuplicateGuide)
	})

	t.Run("Round trip keeps booleans and sources", func(t *testing.T) {
		got, err := store.Get(ctx, guide.Id, owner)
		require.NoError(t, err)
		assert.True(t, got.SecondaryRequested)
		assert.False(t, got.SecondaryCompleted)
		assert.True(t, got.Degraded)
		assert.Equal(t, []string{"comedy-timing"}, got.RetrievalSources)
	})

	t.Run("Secondary update", func(t *testing.T) {
		html := "<h1>Quick</h1>"
		done := true
		status := entity.GuideStatusSecondaryReady
		require.NoError(t, store.Update(ctx, guide.Id, entity.GuidePatch{
			SecondaryHtml:      &html,
			SecondaryCompleted: &done,
			Status:             &status,
		}))

		got, err := store.Get(ctx, guide.Id, owner)
		require.NoError(t, err)
		assert.True(t, got.SecondaryCompleted)
		assert.Equal(t, "<h1>Alex</h1>", got.PrimaryHtml)
	})

	t.Run("Other owner cannot read", func(t *testing.T) {
		_, err := store.Get(ctx, guide.Id, uuid.New())
		assert.ErrorIs(t, err, guidestore.ErrGuideNotFound)
	})
}

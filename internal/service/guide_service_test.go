package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"ai-sceneguide-be/internal/dto"
	"ai-sceneguide-be/internal/entity"
	"ai-sceneguide-be/internal/pkg/logger"
	"ai-sceneguide-be/internal/repository/guidestore"
	"ai-sceneguide-be/internal/repository/memory"
	"ai-sceneguide-be/pkg/lock"
	"ai-sceneguide-be/pkg/workflow"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	inputs  []workflow.Input
	ctxErrs []error
	started chan struct{}
	proceed chan struct{}
}

func (f *fakeRunner) Run(ctx context.Context, in workflow.Input) (*workflow.Outcome, error) {
	if f.started != nil {
		f.started <- struct{}{}
		<-f.proceed
	}
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	f.mu.Unlock()

	return &workflow.Outcome{Guide: &entity.Guide{
		Id:                 uuid.New(),
		OwnerId:            in.OwnerId,
		CharacterName:      in.CharacterName,
		PrimaryHtml:        "<h1>guide</h1>",
		SecondaryRequested: in.SecondaryRequested,
		Status:             entity.GuideStatusPrimaryReady,
	}}, nil
}

func (f *fakeRunner) RetrySecondary(_ context.Context, guideId, ownerId uuid.UUID, _ string) (*workflow.Outcome, error) {
	return &workflow.Outcome{Guide: &entity.Guide{Id: guideId, OwnerId: ownerId}}, nil
}

type memGuides struct {
	guides map[uuid.UUID]*entity.Guide
}

func (m *memGuides) Get(_ context.Context, id, ownerId uuid.UUID) (*entity.Guide, error) {
	g, ok := m.guides[id]
	if !ok || g.OwnerId != ownerId {
		return nil, guidestore.ErrGuideNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *memGuides) List(_ context.Context, ownerId uuid.UUID) ([]*entity.Guide, error) {
	var out []*entity.Guide
	for _, g := range m.guides {
		if g.OwnerId == ownerId {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *memGuides) Update(_ context.Context, id uuid.UUID, patch entity.GuidePatch) error {
	g, ok := m.guides[id]
	if !ok {
		return guidestore.ErrGuideNotFound
	}
	patch.Apply(g)
	return nil
}

func newGuideService(runner *fakeRunner, sessions *memory.UploadSessionRepository, store *memGuides) IGuideService {
	if store == nil {
		store = &memGuides{guides: map[uuid.UUID]*entity.Guide{}}
	}
	return NewGuideService(runner, store, sessions, lock.NewMemoryLocker(), time.Minute, logger.NewNop())
}

func saveSession(sessions *memory.UploadSessionRepository, owner uuid.UUID) uuid.UUID {
	id := uuid.New()
	sessions.Save(&entity.UploadSession{
		Id:               id,
		OwnerId:          owner,
		Text:             "ALEX: You ate the whole cake?",
		Confidence:       "low",
		ExtractionMethod: "gemini-ocr",
		CreatedAt:        time.Now(),
	})
	return id
}

func TestGenerate_FromUploadSession(t *testing.T) {
	runner := &fakeRunner{}
	sessions := memory.NewUploadSessionRepository(0)
	owner := uuid.New()
	uploadId := saveSession(sessions, owner)
	svc := newGuideService(runner, sessions, nil)

	res, err := svc.Generate(context.Background(), owner, &dto.GenerateGuideRequest{
		UploadId:           uploadId.String(),
		CharacterName:      " Alex ",
		ProductionTitle:    "Pilot Season",
		SecondaryRequested: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "<h1>guide</h1>", res.PrimaryHtml)
	assert.Equal(t, []string{}, res.RetrievalSources)

	require.Len(t, runner.inputs, 1)
	in := runner.inputs[0]
	assert.Equal(t, "Alex", in.CharacterName)
	assert.Equal(t, "low", in.Confidence)
	assert.Equal(t, "gemini-ocr", in.ExtractionMethod)
	assert.True(t, in.SecondaryRequested)
}

func TestGenerate_UploadOwnedByAnotherUser(t *testing.T) {
	sessions := memory.NewUploadSessionRepository(0)
	uploadId := saveSession(sessions, uuid.New())
	svc := newGuideService(&fakeRunner{}, sessions, nil)

	_, err := svc.Generate(context.Background(), uuid.New(), &dto.GenerateGuideRequest{
		UploadId:      uploadId.String(),
		CharacterName: "Alex",
	})
	assert.ErrorIs(t, err, ErrUploadNotFound)

	_, err = svc.Generate(context.Background(), uuid.New(), &dto.GenerateGuideRequest{
		UploadId:      uuid.NewString(),
		CharacterName: "Alex",
	})
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestGenerate_RawText(t *testing.T) {
	runner := &fakeRunner{}
	svc := newGuideService(runner, memory.NewUploadSessionRepository(0), nil)

	_, err := svc.Generate(context.Background(), uuid.New(), &dto.GenerateGuideRequest{
		RawText:       "  ALEX: It was my wedding cake.  ",
		CharacterName: "Alex",
	})
	require.NoError(t, err)
	require.Len(t, runner.inputs, 1)
	assert.Equal(t, "ALEX: It was my wedding cake.", runner.inputs[0].SceneText)
	assert.Equal(t, MethodRawText, runner.inputs[0].ExtractionMethod)
	assert.Equal(t, "low", runner.inputs[0].Confidence)
}

func TestGenerate_DetachedFromRequestContext(t *testing.T) {
	runner := &fakeRunner{}
	svc := newGuideService(runner, memory.NewUploadSessionRepository(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Generate(ctx, uuid.New(), &dto.GenerateGuideRequest{
		RawText:       "ALEX: It was my wedding cake.",
		CharacterName: "Alex",
	})
	require.NoError(t, err)
	assert.NoError(t, runner.ctxErrs[0])
}

func TestGenerate_ConcurrentRequestForSameUploadConflicts(t *testing.T) {
	runner := &fakeRunner{started: make(chan struct{}), proceed: make(chan struct{})}
	sessions := memory.NewUploadSessionRepository(0)
	owner := uuid.New()
	uploadId := saveSession(sessions, owner)
	svc := newGuideService(runner, sessions, nil)
	req := &dto.GenerateGuideRequest{UploadId: uploadId.String(), CharacterName: "Alex"}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), owner, req)
		done <- err
	}()
	<-runner.started

	_, err := svc.Generate(context.Background(), owner, req)
	assert.ErrorIs(t, err, ErrGenerationInProgress)

	close(runner.proceed)
	require.NoError(t, <-done)

	runner.started = nil
	_, err = svc.Generate(context.Background(), owner, req)
	assert.NoError(t, err, "lock must be released after the first run")
}

func TestUpdateFlags_ChecksOwner(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	store := &memGuides{guides: map[uuid.UUID]*entity.Guide{
		id: {Id: id, OwnerId: owner, PrimaryHtml: "<p>x</p>"},
	}}
	svc := newGuideService(&fakeRunner{}, memory.NewUploadSessionRepository(0), store)
	fav := true

	_, err := svc.UpdateFlags(context.Background(), uuid.New(), id, &dto.UpdateGuideFlagsRequest{IsFavorite: &fav})
	assert.ErrorIs(t, err, guidestore.ErrGuideNotFound)
	assert.False(t, store.guides[id].IsFavorite)

	res, err := svc.UpdateFlags(context.Background(), owner, id, &dto.UpdateGuideFlagsRequest{IsFavorite: &fav})
	require.NoError(t, err)
	assert.True(t, res.IsFavorite)
	assert.False(t, res.IsPublic)
}

func TestGetAll(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()
	store := &memGuides{guides: map[uuid.UUID]*entity.Guide{
		id:         {Id: id, OwnerId: owner, CharacterName: "Alex", Status: entity.GuideStatusSecondaryReady, SecondaryCompleted: true},
		uuid.New(): {Id: uuid.New(), OwnerId: uuid.New()},
	}}
	svc := newGuideService(&fakeRunner{}, memory.NewUploadSessionRepository(0), store)

	res, err := svc.GetAll(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "secondary_ready", res[0].Status)
	assert.True(t, res[0].SecondaryCompleted)
}

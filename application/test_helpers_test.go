package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gamerit/application"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/infrastructure"
	"gamerit/repository/testutil"
)

// fakeContentSource serves posts from memory. Scores and existence can be
// changed between passes.
type fakeContentSource struct {
	mu         sync.Mutex
	candidates []*entities.ContentItem
	scores     map[string]int64
	deleted    map[string]bool
	down       bool
}

func newFakeContentSource(candidates ...*entities.ContentItem) *fakeContentSource {
	return &fakeContentSource{
		candidates: candidates,
		scores:     make(map[string]int64),
		deleted:    make(map[string]bool),
	}
}

func (f *fakeContentSource) setScore(id string, score int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[id] = score
}

func (f *fakeContentSource) setDeleted(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted[id] = true
}

func (f *fakeContentSource) setDown(down bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down = down
}

func (f *fakeContentSource) FetchScore(ctx context.Context, contentID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return 0, domain.ErrUpstreamUnavailable
	}
	score, ok := f.scores[contentID]
	if !ok {
		return 0, errors.New("post not found")
	}
	return score, nil
}

func (f *fakeContentSource) FetchExists(ctx context.Context, contentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return false, domain.ErrUpstreamUnavailable
	}
	return !f.deleted[contentID], nil
}

func (f *fakeContentSource) ListCandidates(ctx context.Context) ([]*entities.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return nil, domain.ErrUpstreamUnavailable
	}
	return f.candidates, nil
}

func post(id, author string, score int64, upvoteRatio float64) *entities.ContentItem {
	return &entities.ContentItem{
		ID:          id,
		Title:       "post " + id,
		Author:      author,
		Subreddit:   "memes",
		Score:       score,
		UpvoteRatio: upvoteRatio,
		CreatedAt:   time.Now().Add(-time.Hour),
	}
}

// setupHandlers wires handlers against a fresh test database
func setupHandlers(t *testing.T) (application.UnitOfWorkFactory, *testutil.TestDatabase) {
	testDB := testutil.SetupTestDatabase(t)
	return infrastructure.NewUnitOfWorkFactory(testDB.DB, infrastructure.NewNoopEventPublisher()), testDB
}

func balanceOf(t *testing.T, queries application.QueryHandler, externalID string) int64 {
	t.Helper()
	player, err := queries.GetPlayer(context.Background(), externalID)
	if err != nil {
		t.Fatalf("failed to get player %s: %v", externalID, err)
	}
	return player.Points
}

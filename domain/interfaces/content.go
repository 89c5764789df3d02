package interfaces

import (
	"context"

	"gamerit/domain/entities"
)

// ContentSource is the external post provider rounds are built from
type ContentSource interface {
	// FetchScore returns the current score of a post
	FetchScore(ctx context.Context, contentID string) (int64, error)

	// FetchExists reports whether a post is still up. A post that was removed
	// or deleted reports false; an unreachable source returns an error.
	FetchExists(ctx context.Context, contentID string) (bool, error)

	// ListCandidates returns posts eligible to seed a new round
	ListCandidates(ctx context.Context) ([]*entities.ContentItem, error)
}

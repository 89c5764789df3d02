package services

import (
	"context"
	"math/rand/v2"
	"time"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type outcomeResolver struct {
	config  *config.Config
	content interfaces.ContentSource
	coin    func() entities.Side
}

// NewOutcomeResolver creates a resolver reading post state from content
func NewOutcomeResolver(content interfaces.ContentSource) interfaces.OutcomeResolver {
	return newOutcomeResolver(content, flipCoin)
}

func newOutcomeResolver(content interfaces.ContentSource, coin func() entities.Side) *outcomeResolver {
	return &outcomeResolver{
		config:  config.Get(),
		content: content,
		coin:    coin,
	}
}

func flipCoin() entities.Side {
	if rand.IntN(2) == 0 {
		return entities.SideA
	}
	return entities.SideB
}

// DetermineOutcome fetches both final scores and picks the strictly higher side
func (r *outcomeResolver) DetermineOutcome(ctx context.Context, round *entities.Round) *entities.RoundOutcome {
	scoreA, fallbackA := r.finalScore(ctx, round.ID, &round.PostA)
	scoreB, fallbackB := r.finalScore(ctx, round.ID, &round.PostB)

	outcome := &entities.RoundOutcome{
		FinalScoreA:   scoreA,
		FinalScoreB:   scoreB,
		UsedFallbackA: fallbackA,
		UsedFallbackB: fallbackB,
	}

	switch {
	case scoreA > scoreB:
		winner := entities.SideA
		outcome.Winner = &winner
	case scoreB > scoreA:
		winner := entities.SideB
		outcome.Winner = &winner
	case r.config.TieBreakPolicy == config.TieBreakRefund:
		// No winner; every stake is refunded
	default:
		winner := r.coin()
		outcome.Winner = &winner
		outcome.TieBroken = true
	}

	return outcome
}

// finalScore returns the post's current score, or its score at round creation
// when the content source cannot answer in time
func (r *outcomeResolver) finalScore(ctx context.Context, roundID int64, post *entities.PostSnapshot) (int64, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.config.ContentTimeout)
	defer cancel()

	score, err := r.content.FetchScore(ctx, post.ID)
	if err != nil {
		log.WithFields(log.Fields{
			"roundID":      roundID,
			"postID":       post.ID,
			"initialScore": post.InitialScore,
			"error":        err,
		}).Warn("Score fetch failed, using initial score")
		return post.InitialScore, true
	}
	return score, false
}

// ObserveHotPotato checks whether the round's post still exists
func (r *outcomeResolver) ObserveHotPotato(ctx context.Context, round *entities.HotPotatoRound, now time.Time) (*entities.HotPotatoObservation, error) {
	checkCtx, cancel := context.WithTimeout(ctx, r.config.ContentTimeout)
	defer cancel()

	exists, err := r.content.FetchExists(checkCtx, round.ContentID)
	if err != nil {
		if round.IsExpired(now) {
			return &entities.HotPotatoObservation{Status: entities.HotPotatoStatusExpired, ObservedAt: now}, nil
		}
		return nil, domain.ErrUpstreamUnavailable.Wrap(err)
	}

	if !exists {
		observedAt := now
		if observedAt.After(round.ExpiresAt) {
			observedAt = round.ExpiresAt
		}
		return &entities.HotPotatoObservation{Status: entities.HotPotatoStatusDeleted, ObservedAt: observedAt}, nil
	}

	if round.IsExpired(now) {
		return &entities.HotPotatoObservation{Status: entities.HotPotatoStatusSurvived, ObservedAt: now}, nil
	}

	return nil, nil
}

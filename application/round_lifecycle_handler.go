package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gamerit/config"
	"gamerit/domain"
	"gamerit/domain/entities"
	"gamerit/domain/interfaces"
	"gamerit/domain/services"

	log "github.com/sirupsen/logrus"
)

// RoundLifecycleHandlerImpl implements the RoundLifecycleHandler interface.
// Calls to the content source never run inside a transaction.
type RoundLifecycleHandlerImpl struct {
	config     *config.Config
	uowFactory UnitOfWorkFactory
	content    interfaces.ContentSource
	resolver   interfaces.OutcomeResolver
}

// NewRoundLifecycleHandler creates a new round lifecycle handler
func NewRoundLifecycleHandler(uowFactory UnitOfWorkFactory, content interfaces.ContentSource) RoundLifecycleHandler {
	return &RoundLifecycleHandlerImpl{
		config:     config.Get(),
		uowFactory: uowFactory,
		content:    content,
		resolver:   services.NewOutcomeResolver(content),
	}
}

// CheckAndCreateRound opens a classic round if one is due
func (h *RoundLifecycleHandlerImpl) CheckAndCreateRound(ctx context.Context, now time.Time) (*entities.RoundAdmission, error) {
	admission, recent, err := h.roundAdmission(ctx, now)
	if err != nil {
		return nil, err
	}
	if admission.Reason != entities.AdmissionDue {
		log.WithFields(log.Fields{
			"reason":  admission.Reason,
			"roundID": admission.RoundID,
		}).Debug("Round creation not due")
		return admission, nil
	}

	candidates, err := h.content.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate posts: %w", err)
	}
	postA, postB, ok := services.SelectContentPair(candidates, recent)
	if !ok {
		log.WithField("candidates", len(candidates)).Warn("No eligible post pair for a new round")
		return &entities.RoundAdmission{Reason: entities.AdmissionNoCandidates}, nil
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := roundService(uow).CreateRound(ctx, postA, postB, now)
	if err != nil {
		if errors.Is(err, domain.ErrActiveRoundExists) {
			// Lost the race to a concurrent creator
			return &entities.RoundAdmission{Reason: entities.AdmissionActiveRoundExists}, nil
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit round creation: %w", err)
	}

	return &entities.RoundAdmission{Created: true, Reason: entities.AdmissionCreated, RoundID: round.ID}, nil
}

func (h *RoundLifecycleHandlerImpl) roundAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, []string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	rounds := roundService(uow)
	admission, err := rounds.CheckAdmission(ctx, now)
	if err != nil {
		return nil, nil, err
	}
	if admission.Reason != entities.AdmissionDue {
		return admission, nil, nil
	}

	recent, err := rounds.RecentPostIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return admission, recent, nil
}

// SettleDueRounds settles every due round and re-runs payouts for rounds left
// in pending_payout by an earlier failed pass
func (h *RoundLifecycleHandlerImpl) SettleDueRounds(ctx context.Context, now time.Time) (*entities.SettlementReport, error) {
	report := &entities.SettlementReport{}

	due, err := h.listRounds(ctx, func(repo interfaces.RoundRepository) ([]*entities.Round, error) {
		return repo.ListDue(ctx, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list due rounds: %w", err)
	}

	for _, round := range due {
		outcome := h.resolver.DetermineOutcome(ctx, round)

		fenced, err := h.fenceRound(ctx, round.ID, outcome, now)
		if err != nil {
			log.WithFields(log.Fields{
				"roundID": round.ID,
				"error":   err,
			}).Error("Failed to fence round")
			report.Failed++
			continue
		}
		if !fenced {
			// Another settler won the fence
			report.Skipped++
			continue
		}
		report.Settled++

		paid, err := h.payOutRound(ctx, round.ID, now)
		report.Paid += paid
		if err != nil {
			log.WithFields(log.Fields{
				"roundID": round.ID,
				"error":   err,
			}).Error("Payout failed, round left pending for recovery")
			report.Failed++
		}
	}

	stuck, err := h.listRounds(ctx, func(repo interfaces.RoundRepository) ([]*entities.Round, error) {
		return repo.ListPendingPayout(ctx, now.Add(-h.config.PendingPayoutRetryAfter))
	})
	if err != nil {
		return report, fmt.Errorf("failed to list pending payout rounds: %w", err)
	}

	for _, round := range stuck {
		paid, err := h.payOutRound(ctx, round.ID, now)
		report.Paid += paid
		if err != nil {
			log.WithFields(log.Fields{
				"roundID": round.ID,
				"error":   err,
			}).Error("Payout recovery failed")
			report.Failed++
			continue
		}
		report.Recovered++
	}

	log.WithFields(log.Fields{
		"due":       len(due),
		"settled":   report.Settled,
		"skipped":   report.Skipped,
		"recovered": report.Recovered,
		"failed":    report.Failed,
		"paid":      report.Paid,
	}).Info("Settlement pass complete")

	return report, nil
}

func (h *RoundLifecycleHandlerImpl) listRounds(ctx context.Context, list func(interfaces.RoundRepository) ([]*entities.Round, error)) ([]*entities.Round, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return list(uow.RoundRepository())
}

func (h *RoundLifecycleHandlerImpl) fenceRound(ctx context.Context, roundID int64, outcome *entities.RoundOutcome, now time.Time) (bool, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement := h.settlementService(uow)
	fenced, err := settlement.FenceRound(ctx, roundID, outcome, now)
	if err != nil {
		if errors.Is(err, domain.ErrRoundNotDue) {
			return false, nil
		}
		return false, err
	}
	if !fenced {
		return false, nil
	}

	if err := uow.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit fence: %w", err)
	}
	return true, nil
}

// payOutRound credits every owed wager and finishes the round in one
// transaction. On any failure nothing is credited and the round stays in
// pending_payout for the recovery pass.
func (h *RoundLifecycleHandlerImpl) payOutRound(ctx context.Context, roundID int64, now time.Time) (int, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	settlement := h.settlementService(uow)
	owed, err := settlement.OutstandingPayouts(ctx, roundID)
	if err != nil {
		return 0, err
	}

	paid := 0
	for _, wager := range owed {
		credited, err := settlement.PayWager(ctx, roundID, wager.ID, now)
		if err != nil {
			log.WithFields(log.Fields{
				"roundID":  roundID,
				"wagerID":  wager.ID,
				"playerID": wager.PlayerID,
				"amount":   wager.Amount,
				"error":    err,
			}).Error("Failed to credit wager payout")
			return 0, fmt.Errorf("failed to pay wager %d: %w", wager.ID, err)
		}
		if credited > 0 {
			paid++
		}
	}

	finished, err := settlement.FinalizeRound(ctx, roundID, now)
	if err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit payouts: %w", err)
	}

	log.WithFields(log.Fields{
		"roundID":  roundID,
		"paid":     paid,
		"finished": finished,
	}).Info("Round payouts committed")

	return paid, nil
}

func (h *RoundLifecycleHandlerImpl) settlementService(uow UnitOfWork) interfaces.SettlementService {
	return services.NewSettlementService(
		uow.RoundRepository(),
		uow.WagerRepository(),
		uow.PlayerRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}

func hotPotatoService(uow UnitOfWork) interfaces.HotPotatoService {
	return services.NewHotPotatoService(
		uow.HotPotatoRepository(),
		uow.HotPotatoWagerRepository(),
		uow.PlayerRepository(),
		uow.BalanceHistoryRepository(),
		uow.EventBus(),
	)
}

// CheckAndCreateHotPotato opens a hot potato round if the active cap allows it
func (h *RoundLifecycleHandlerImpl) CheckAndCreateHotPotato(ctx context.Context, now time.Time) (*entities.RoundAdmission, error) {
	admission, recent, err := h.hotPotatoAdmission(ctx, now)
	if err != nil {
		return nil, err
	}
	if admission.Reason != entities.AdmissionDue {
		return admission, nil
	}

	candidates, err := h.content.ListCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidate posts: %w", err)
	}
	item, ok := services.SelectHotPotatoCandidate(candidates, recent)
	if !ok {
		log.WithField("candidates", len(candidates)).Warn("No eligible post for a hot potato round")
		return &entities.RoundAdmission{Reason: entities.AdmissionNoCandidates}, nil
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	round, err := hotPotatoService(uow).CreateRound(ctx, item, now)
	if err != nil {
		if errors.Is(err, domain.ErrActiveRoundExists) {
			return &entities.RoundAdmission{Reason: entities.AdmissionActiveCapReached}, nil
		}
		if errors.Is(err, domain.ErrContentRecentlyUsed) {
			log.WithField("contentID", item.ID).Info("Hot potato candidate was taken by a concurrent round")
			return &entities.RoundAdmission{Reason: entities.AdmissionNoCandidates}, nil
		}
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hot potato creation: %w", err)
	}

	return &entities.RoundAdmission{Created: true, Reason: entities.AdmissionCreated, RoundID: round.ID}, nil
}

func (h *RoundLifecycleHandlerImpl) hotPotatoAdmission(ctx context.Context, now time.Time) (*entities.RoundAdmission, []string, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	hotPotatoSvc := hotPotatoService(uow)
	admission, err := hotPotatoSvc.CheckAdmission(ctx, now)
	if err != nil {
		return nil, nil, err
	}
	if admission.Reason != entities.AdmissionDue {
		return admission, nil, nil
	}

	recent, err := hotPotatoSvc.RecentContentIDs(ctx)
	if err != nil {
		return nil, nil, err
	}
	return admission, recent, nil
}

// ResolveHotPotatoRounds observes every active hot potato round and resolves
// the ones that reached a terminal status
func (h *RoundLifecycleHandlerImpl) ResolveHotPotatoRounds(ctx context.Context, now time.Time) (*entities.HotPotatoReport, error) {
	active, err := h.activeHotPotatoRounds(ctx)
	if err != nil {
		return nil, err
	}

	report := &entities.HotPotatoReport{}
	for _, round := range active {
		observation, err := h.resolver.ObserveHotPotato(ctx, round, now)
		if err != nil {
			log.WithFields(log.Fields{
				"roundID":   round.ID,
				"contentID": round.ContentID,
				"error":     err,
			}).Warn("Could not observe hot potato post, retrying next pass")
			report.Pending++
			continue
		}
		if observation == nil {
			report.Pending++
			continue
		}

		resolution, err := h.resolveHotPotato(ctx, round.ID, observation)
		if err != nil {
			log.WithFields(log.Fields{
				"roundID": round.ID,
				"status":  observation.Status,
				"error":   err,
			}).Error("Failed to resolve hot potato round")
			report.Failed++
			continue
		}
		if resolution == nil {
			report.Skipped++
			continue
		}
		report.Resolved++
	}

	log.WithFields(log.Fields{
		"active":   len(active),
		"resolved": report.Resolved,
		"pending":  report.Pending,
		"skipped":  report.Skipped,
		"failed":   report.Failed,
	}).Info("Hot potato pass complete")

	return report, nil
}

func (h *RoundLifecycleHandlerImpl) activeHotPotatoRounds(ctx context.Context) ([]*entities.HotPotatoRound, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return hotPotatoService(uow).ListActive(ctx)
}

func (h *RoundLifecycleHandlerImpl) resolveHotPotato(ctx context.Context, roundID int64, observation *entities.HotPotatoObservation) (*entities.HotPotatoResolution, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	resolution, err := hotPotatoService(uow).Resolve(ctx, roundID, observation)
	if err != nil {
		return nil, err
	}
	if resolution == nil {
		return nil, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit hot potato resolution: %w", err)
	}
	return resolution, nil
}

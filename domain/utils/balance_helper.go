package utils

import (
	"context"
	"fmt"

	"gamerit/domain/entities"
	"gamerit/domain/events"
	"gamerit/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// RecordBalanceChange is the only way a balance change enters the ledger.
// It appends history and raises BalanceChangeEvent, plus PlayerCreatedEvent
// for the initial grant. The entry must balance: before + change == after.
func RecordBalanceChange(ctx context.Context, repo interfaces.BalanceHistoryRepository, publisher interfaces.EventPublisher, history *entities.BalanceHistory) error {
	if history.BalanceBefore+history.ChangeAmount != history.BalanceAfter {
		return fmt.Errorf("unbalanced %s entry for player %d: %d %+d != %d",
			history.TransactionType, history.PlayerID, history.BalanceBefore, history.ChangeAmount, history.BalanceAfter)
	}
	if err := repo.Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	raised := []events.Event{events.BalanceChangeEvent{
		PlayerID:        history.PlayerID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	}}
	if history.TransactionType == entities.TransactionTypeInitial {
		externalID, _ := history.TransactionMetadata["external_id"].(string)
		username, _ := history.TransactionMetadata["username"].(string)
		raised = append(raised, events.PlayerCreatedEvent{
			PlayerID:       history.PlayerID,
			ExternalID:     externalID,
			Username:       username,
			InitialBalance: history.BalanceAfter,
		})
	}

	// The ledger row is the source of truth; a lost event only delays push and cache refresh
	for _, event := range raised {
		if err := publisher.Publish(event); err != nil {
			log.WithFields(log.Fields{
				"playerID":  history.PlayerID,
				"eventType": event.Type(),
				"error":     err,
			}).Error("Failed to publish balance event")
		}
	}
	return nil
}

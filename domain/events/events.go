package events

import (
	"gamerit/domain/entities"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePlayerCreated     EventType = "player_created"
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeRoundCreated      EventType = "round_created"
	EventTypeRoundStateChange  EventType = "round_state_change"
	EventTypeWagerPlaced       EventType = "wager_placed"
	EventTypeHotPotatoCreated  EventType = "hot_potato_created"
	EventTypeHotPotatoResolved EventType = "hot_potato_resolved"
	EventTypeTradeExecuted     EventType = "trade_executed"
	EventTypeStockPriceUpdated EventType = "stock_price_updated"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PlayerCreatedEvent is published the first time a player logs in
type PlayerCreatedEvent struct {
	PlayerID       int64  `json:"player_id"`
	ExternalID     string `json:"external_id"`
	Username       string `json:"username"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e PlayerCreatedEvent) Type() EventType {
	return EventTypePlayerCreated
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	PlayerID        int64                    `json:"player_id"`
	OldBalance      int64                    `json:"old_balance"`
	NewBalance      int64                    `json:"new_balance"`
	TransactionType entities.TransactionType `json:"transaction_type"`
	ChangeAmount    int64                    `json:"change_amount"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// RoundCreatedEvent is published when a classic round opens
type RoundCreatedEvent struct {
	RoundID int64  `json:"round_id"`
	PostAID string `json:"post_a_id"`
	PostBID string `json:"post_b_id"`
	EndsAt  string `json:"ends_at"`
}

func (e RoundCreatedEvent) Type() EventType {
	return EventTypeRoundCreated
}

// RoundStateChangeEvent represents a classic round status transition
type RoundStateChangeEvent struct {
	RoundID  int64                `json:"round_id"`
	OldState entities.RoundStatus `json:"old_state"`
	NewState entities.RoundStatus `json:"new_state"`
	Winner   *entities.Side       `json:"winner,omitempty"`
}

func (e RoundStateChangeEvent) Type() EventType {
	return EventTypeRoundStateChange
}

// WagerPlacedEvent is published after a wager has been recorded and debited
type WagerPlacedEvent struct {
	WagerID   int64  `json:"wager_id"`
	RoundID   int64  `json:"round_id"`
	PlayerID  int64  `json:"player_id"`
	RoundKind string `json:"round_kind"`
	Amount    int64  `json:"amount"`
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// HotPotatoCreatedEvent is published when a hot potato round opens
type HotPotatoCreatedEvent struct {
	RoundID   int64  `json:"round_id"`
	ContentID string `json:"content_id"`
	ExpiresAt string `json:"expires_at"`
}

func (e HotPotatoCreatedEvent) Type() EventType {
	return EventTypeHotPotatoCreated
}

// HotPotatoResolvedEvent represents a hot potato round reaching a terminal status
type HotPotatoResolvedEvent struct {
	RoundID     int64                    `json:"round_id"`
	Status      entities.HotPotatoStatus `json:"status"`
	Pot         int64                    `json:"pot"`
	WinnerCount int                      `json:"winner_count"`
	ShareEach   int64                    `json:"share_each"`
}

func (e HotPotatoResolvedEvent) Type() EventType {
	return EventTypeHotPotatoResolved
}

// TradeExecutedEvent is published after a buy or sell commits
type TradeExecutedEvent struct {
	PlayerID int64              `json:"player_id"`
	Symbol   string             `json:"symbol"`
	Side     entities.TradeSide `json:"side"`
	Shares   int64              `json:"shares"`
	Price    int64              `json:"price"`
}

func (e TradeExecutedEvent) Type() EventType {
	return EventTypeTradeExecuted
}

// StockPriceUpdatedEvent is published when the market scan records a new price
type StockPriceUpdatedEvent struct {
	Symbol   string `json:"symbol"`
	OldValue int64  `json:"old_value"`
	NewValue int64  `json:"new_value"`
	IsActive bool   `json:"is_active"`
}

func (e StockPriceUpdatedEvent) Type() EventType {
	return EventTypeStockPriceUpdated
}

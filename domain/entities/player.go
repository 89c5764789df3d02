package entities

import "time"

// Player is a Gamerit account keyed by the external (Reddit) account id
type Player struct {
	ID         int64     `db:"id" json:"id"`
	ExternalID string    `db:"external_id" json:"external_id"`
	Username   string    `db:"username" json:"username"`
	Points     int64     `db:"points" json:"points"`
	XP         int64     `db:"xp" json:"xp"`
	Level      int       `db:"level" json:"level"`
	MinBalance int64     `db:"min_balance" json:"min_balance"`
	MaxBalance int64     `db:"max_balance" json:"max_balance"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// CanAfford returns true if the player holds at least amount chips
func (p *Player) CanAfford(amount int64) bool {
	return amount >= 0 && p.Points >= amount
}

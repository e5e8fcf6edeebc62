package domain

import "time"

// TradeStatus is the trade state machine state.
// Active -> Locked -> {Completed, Cancelled}; any non-terminal state may also
// transition to Cancelled.
type TradeStatus string

const (
	TradeActive    TradeStatus = "active"
	TradeLocked    TradeStatus = "locked"
	TradeCompleted TradeStatus = "completed"
	TradeCancelled TradeStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s TradeStatus) Terminal() bool {
	return s == TradeCompleted || s == TradeCancelled
}

// Trade is a two-party negotiation session. At most one non-terminal trade
// may exist per (user, guild), enforced by the trade_participants table.
type Trade struct {
	ID                 int64       `json:"trade_id"`
	InitiatorID        int64       `json:"initiator_id"`
	PartnerID          int64       `json:"partner_id"`
	GuildID            int64       `json:"guild_id"`
	Status             TradeStatus `json:"status"`
	InitiatorLockedAt  *time.Time  `json:"initiator_locked_at,omitempty"`
	PartnerLockedAt    *time.Time  `json:"partner_locked_at,omitempty"`
	InitiatorConfirmed bool        `json:"initiator_confirmed"`
	PartnerConfirmed   bool        `json:"partner_confirmed"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// IsParticipant reports whether userID is one of the two parties.
func (t Trade) IsParticipant(userID int64) bool {
	return userID == t.InitiatorID || userID == t.PartnerID
}

// Counterpart returns the other participant.
func (t Trade) Counterpart(userID int64) int64 {
	if userID == t.InitiatorID {
		return t.PartnerID
	}
	return t.InitiatorID
}

// LockedAt returns the lock timestamp recorded for userID, if any.
func (t Trade) LockedAt(userID int64) *time.Time {
	if userID == t.InitiatorID {
		return t.InitiatorLockedAt
	}
	return t.PartnerLockedAt
}

// Confirmed reports whether userID has confirmed the locked trade.
func (t Trade) Confirmed(userID int64) bool {
	if userID == t.InitiatorID {
		return t.InitiatorConfirmed
	}
	return t.PartnerConfirmed
}

// BothLocked reports whether both sides have locked their offers.
func (t Trade) BothLocked() bool {
	return t.InitiatorLockedAt != nil && t.PartnerLockedAt != nil
}

// BothConfirmed reports whether both sides have confirmed execution.
func (t Trade) BothConfirmed() bool {
	return t.InitiatorConfirmed && t.PartnerConfirmed
}

// TradeLine is one offered stack: qty copies of an item offered by the
// owning user. Quantity is re-verified against the owner's ledger at
// execution time, never trusted from the time the line was added.
type TradeLine struct {
	TradeID  int64 `json:"trade_id"`
	UserID   int64 `json:"user_id"`
	ItemID   int   `json:"item_id"`
	Quantity int   `json:"quantity"`
}

// TradeLockDelay is the settle window after the first participant locks
// before the second may lock, so the first locker always gets a review
// window against last-second offer changes.
const TradeLockDelay = 15 * time.Second

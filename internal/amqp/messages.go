package amqp

import (
	"encoding/json"
	"time"

	"clarify/internal/core"
)

// Badge sources identify the evaluation path that issued a badge.
const (
	SourceMonthly = "monthly"
	SourceGoal    = "goal"
)

// BadgeAwardedMessage announces a committed badge. It carries the full badge so
// consumers do not need database access to render it.
type BadgeAwardedMessage struct {
	BadgeID     string    `json:"badge_id"`
	GroupID     string    `json:"group_id"`
	Tier        string    `json:"tier"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	IssuedAt    time.Time `json:"issued_at"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewBadgeAwardedMessage builds the event for a persisted badge.
func NewBadgeAwardedMessage(b core.Badge, source string) *BadgeAwardedMessage {
	return &BadgeAwardedMessage{
		BadgeID:     b.ID,
		GroupID:     b.GroupID,
		Tier:        string(b.Tier),
		Description: b.Description,
		Source:      source,
		IssuedAt:    b.IssuedAt,
		Timestamp:   time.Now(),
	}
}

// Badge converts the message back into the domain badge.
func (m *BadgeAwardedMessage) Badge() core.Badge {
	return core.Badge{
		ID:          m.BadgeID,
		GroupID:     m.GroupID,
		Tier:        core.BadgeTier(m.Tier),
		Description: m.Description,
		IssuedAt:    m.IssuedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *BadgeAwardedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BadgeAwardedMessageFromJSON decodes and sanity-checks a message body.
func BadgeAwardedMessageFromJSON(data []byte) (*BadgeAwardedMessage, error) {
	var msg BadgeAwardedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.BadgeID == "" || msg.GroupID == "" {
		return nil, errMissingIdentifiers
	}
	if err := core.BadgeTier(msg.Tier).Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

package dialogue

import "time"

// Role identifies which side of the conversation produced a turn.
type Role string

const (
	RoleAgent Role = "agent"
	RoleUser  Role = "user"
)

// Turn is a single message in the transcript. Turns are immutable once
// created; the transcript is append-only until the session resets.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Sentiment string    `json:"sentiment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

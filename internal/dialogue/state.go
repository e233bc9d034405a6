package dialogue

import (
	"encoding/json"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// Phase is the controller's position in a dialogue.
type Phase int

const (
	PhaseQuestion Phase = iota
	PhaseOptionSelection
)

func (p Phase) String() string {
	switch p {
	case PhaseQuestion:
		return "question"
	case PhaseOptionSelection:
		return "optionSelection"
	default:
		return "unknown"
	}
}

func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

type Sender string

const (
	SenderAI   Sender = "ai"
	SenderUser Sender = "user"
)

// Exchange is one entry of the dialogue history.
type Exchange struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// State is a point-in-time copy of a dialogue.
type State struct {
	Topic          domain.Topic `json:"topic"`
	Subject        string       `json:"subject,omitempty"`
	Busy           bool         `json:"busy"`
	Phase          Phase        `json:"phase"`
	History        []Exchange   `json:"exchangeHistory"`
	TurnIndex      int          `json:"turnIndex"`
	Draft          string       `json:"draft,omitempty"`
	Analysis       string       `json:"analysis,omitempty"`
	Options        []string     `json:"optionSet,omitempty"`
	Selected       []string     `json:"selected,omitempty"`
	Custom         string       `json:"custom,omitempty"`
	Regenerations  int          `json:"regenerationCount"`
	MaxGenerations int          `json:"maxGenerations"`
	SelectionLimit int          `json:"selectionLimit"`
	CanGenerate    bool         `json:"canGenerateMore"`
}

// Confirmation is what a confirmed dialogue hands back to its caller.
type Confirmation struct {
	Items []string `json:"items"`
	// Pending is how many new items the caller must merge.
	Pending int `json:"pending"`
	// Overflow is how many of them do not fit the caller's remaining
	// capacity. Zero when the caller set no capacity.
	Overflow int `json:"overflow"`
}

// EffectiveLimit narrows limit when only availableSlots new items fit
// elsewhere: min(limit, availableSlots+1).
func EffectiveLimit(limit, availableSlots int) int {
	return max(min(limit, availableSlots+1), 1)
}

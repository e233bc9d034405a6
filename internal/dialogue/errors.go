package dialogue

import "errors"

var (
	ErrWrongPhase           = errors.New("operation not allowed in current dialogue phase")
	ErrSelectionLimit       = errors.New("selection limit reached")
	ErrUnknownOption        = errors.New("option is not in the current option set")
	ErrGenerationsExhausted = errors.New("no option regenerations left")
	ErrDialogueOpen         = errors.New("a dialogue is already open for this topic")
	ErrNoDialogue           = errors.New("no dialogue open for this topic")
	ErrUnknownTopic         = errors.New("unknown dialogue topic")
	ErrTurnInFlight         = errors.New("a dialogue turn is already in flight")
)

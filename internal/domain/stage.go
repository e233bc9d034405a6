package domain

// Stage names a wizard step that can request assistance.
type Stage string

const (
	StagePainPoint                   Stage = "pain_point"
	StageRootCause                   Stage = "root_cause"
	StageIdentifyAssumptions         Stage = "identify_assumptions"
	StageIdentifyAssumptionsDiscover Stage = "identify_assumptions_discovery"
	StageSelfContribution            Stage = "self_contribution"
	StagePerpetuation                Stage = "perpetuation"
	StageActionPlanning              Stage = "action_planning"
	StageFearAnalysis                Stage = "fear_analysis"
	StageCauseDialogue               Stage = "cause_dialogue"
	StageActionDialogue              Stage = "action_dialogue"
	StageFearDialogue                Stage = "fear_dialogue"
	StageSummary                     Stage = "summary"
)

// Topic identifies what a clarification dialogue narrows toward.
type Topic string

const (
	TopicCause  Topic = "cause"
	TopicAction Topic = "action"
	TopicFear   Topic = "fear"
)

// DialogueStage returns the assistance stage that drives dialogues for t.
func (t Topic) DialogueStage() (Stage, bool) {
	switch t {
	case TopicCause:
		return StageCauseDialogue, true
	case TopicAction:
		return StageActionDialogue, true
	case TopicFear:
		return StageFearDialogue, true
	default:
		return "", false
	}
}

// ValidTopics is the canonical set of accepted topic strings.
var ValidTopics = map[string]bool{
	"cause": true, "action": true, "fear": true,
}

// Stages lists every known stage in wizard order.
func Stages() []Stage {
	return []Stage{
		StagePainPoint,
		StageRootCause,
		StageIdentifyAssumptions,
		StageIdentifyAssumptionsDiscover,
		StageSelfContribution,
		StagePerpetuation,
		StageActionPlanning,
		StageFearAnalysis,
		StageCauseDialogue,
		StageActionDialogue,
		StageFearDialogue,
		StageSummary,
	}
}

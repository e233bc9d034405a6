package domain

import "maps"

// SessionContext maps named wizard fields (painPoint, causes, solutions,
// fears, ...) to heterogeneous values: a string, an ordered list of strings
// or records, or a keyed record of strings or records. Values usually arrive
// JSON-decoded, so lists are []any and records are map[string]any.
type SessionContext map[string]any

// Clone returns a shallow copy so callers can add keys without mutating the
// caller-owned context.
func (c SessionContext) Clone() SessionContext {
	out := make(SessionContext, len(c)+4)
	maps.Copy(out, c)
	return out
}

// Well-known context keys.
const (
	KeyPainPoint     = "painPoint"
	KeyCauses        = "causes"
	KeyAssumptions   = "assumptions"
	KeyPerpetuations = "perpetuations"
	KeySolutions     = "solutions"
	KeyFears         = "fears"
	KeyHistory       = "conversationHistory"
	KeyOptions       = "existingOptions"
	KeyRegenerate    = "regenerate"
	KeyTopicSubject  = "subject"
)

package prompt

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/gdkelly153/Nuudle-MVP-sub000/internal/domain"
)

// RuleKind selects how a context field is flattened into prompt text.
type RuleKind int

const (
	// RuleText passes strings through unchanged.
	RuleText RuleKind = iota
	// RuleList joins non-blank list items with ", ". Record items contribute
	// their Primary property.
	RuleList
	// RuleActions joins the non-blank values of a keyed record with ", ".
	RuleActions
	// RuleParts renders each entry of a keyed record as "Label: value" parts
	// joined with "; ", entries joined with " | ".
	RuleParts
	// RuleTranscript renders {sender, text} exchanges one per line.
	RuleTranscript
)

// Part names one component of a multi-part record.
type Part struct {
	Key   string
	Label string
}

// FieldRule describes how one context key is formatted.
type FieldRule struct {
	Kind    RuleKind
	Primary string // RuleList
	Parts   []Part // RuleParts
}

// Formatter converts heterogeneous session-context values into flat strings.
// It is deterministic: map entries are visited in sorted key order.
type Formatter struct {
	rules map[string]FieldRule
}

// DefaultRules returns the formatting rules for the wizard's context fields.
func DefaultRules() map[string]FieldRule {
	return map[string]FieldRule{
		domain.KeyPainPoint:     {Kind: RuleText},
		domain.KeyTopicSubject:  {Kind: RuleText},
		domain.KeyCauses:        {Kind: RuleList, Primary: "cause"},
		domain.KeyAssumptions:   {Kind: RuleList, Primary: "assumption"},
		domain.KeyPerpetuations: {Kind: RuleList, Primary: "text"},
		domain.KeyOptions:       {Kind: RuleList, Primary: "text"},
		domain.KeySolutions:     {Kind: RuleActions},
		domain.KeyFears: {Kind: RuleParts, Parts: []Part{
			{Key: "name", Label: "Fear"},
			{Key: "mitigation", Label: "Mitigation"},
			{Key: "contingency", Label: "Contingency"},
		}},
		domain.KeyHistory: {Kind: RuleTranscript},
	}
}

// NewFormatter creates a Formatter. A nil rules map uses DefaultRules.
func NewFormatter(rules map[string]FieldRule) *Formatter {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Formatter{rules: rules}
}

// Format flattens value according to the rule registered for key, or by
// best-effort stringification for unknown keys. The result never contains
// "{{".
func (f *Formatter) Format(key string, value any) string {
	rule, ok := f.rules[key]
	if !ok {
		return defuse(stringify(value))
	}

	var out string
	switch rule.Kind {
	case RuleText:
		out = stringify(value)
	case RuleList:
		out = strings.Join(listItems(value, rule.Primary), ", ")
	case RuleActions:
		out = formatActions(value)
	case RuleParts:
		out = formatParts(value, rule.Parts)
	case RuleTranscript:
		out = formatTranscript(value)
	}
	return defuse(out)
}

// Items returns the non-blank text items of a list field, using the field's
// primary property for record items.
func (f *Formatter) Items(key string, value any) []string {
	return listItems(value, f.rules[key].Primary)
}

func listItems(value any, primary string) []string {
	elems, ok := asList(value)
	if !ok {
		if s := strings.TrimSpace(stringify(value)); s != "" {
			return []string{s}
		}
		return nil
	}

	var out []string
	for _, e := range elems {
		var s string
		if rec, ok := asRecord(e); ok && primary != "" {
			s = stringify(rec[primary])
		} else {
			s = stringify(e)
		}
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func formatActions(value any) string {
	rec, ok := asRecord(value)
	if !ok {
		return strings.Join(listItems(value, "text"), ", ")
	}
	var out []string
	for _, k := range sortedKeys(rec) {
		if s := stringify(rec[k]); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, ", ")
}

func formatParts(value any, parts []Part) string {
	var entries []any
	if rec, ok := asRecord(value); ok {
		for _, k := range sortedKeys(rec) {
			entries = append(entries, rec[k])
		}
	} else if list, ok := asList(value); ok {
		entries = list
	} else {
		return stringify(value)
	}

	var rendered []string
	for _, e := range entries {
		rec, ok := asRecord(e)
		if !ok {
			if s := stringify(e); strings.TrimSpace(s) != "" {
				rendered = append(rendered, s)
			}
			continue
		}
		var segs []string
		for _, p := range parts {
			if s := stringify(rec[p.Key]); strings.TrimSpace(s) != "" {
				segs = append(segs, p.Label+": "+s)
			}
		}
		if len(segs) > 0 {
			rendered = append(rendered, strings.Join(segs, "; "))
		}
	}
	return strings.Join(rendered, " | ")
}

func formatTranscript(value any) string {
	elems, ok := asList(value)
	if !ok {
		return stringify(value)
	}
	var lines []string
	for _, e := range elems {
		rec, ok := asRecord(e)
		if !ok {
			continue
		}
		text := stringify(rec["text"])
		if strings.TrimSpace(text) == "" {
			continue
		}
		speaker := "User"
		if stringify(rec["sender"]) == "ai" {
			speaker = "AI"
		}
		lines = append(lines, speaker+": "+text)
	}
	return strings.Join(lines, "\n")
}

// stringify renders any context value: strings as-is, lists comma-joined,
// records as their values comma-joined in key order.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	if list, ok := asList(value); ok {
		var out []string
		for _, e := range list {
			if s := stringify(e); strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return strings.Join(out, ", ")
	}
	if rec, ok := asRecord(value); ok {
		var out []string
		for _, k := range sortedKeys(rec) {
			if s := stringify(rec[k]); strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return strings.Join(out, ", ")
	}
	return fmt.Sprint(value)
}

func asList(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(v))
		for i, m := range v {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

func asRecord(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case domain.SessionContext:
		return v, true
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, s := range v {
			out[k] = s
		}
		return out, true
	}
	return nil, false
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

// defuse breaks any "{{" so substituted text can never read as a placeholder.
func defuse(s string) string {
	for strings.Contains(s, "{{") {
		s = strings.ReplaceAll(s, "{{", "{ {")
	}
	return s
}

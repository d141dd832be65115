package userinfo

import (
	"strconv"
	"strings"
)

// UserProfile aggregates what the extraction model has learned about one
// user across all of their sessions. Every field except UserID is optional
// and stays at its zero value until a conversation mentions it.
type UserProfile struct {
	UserID               string   `json:"user_id"`
	Age                  int      `json:"age,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	Location             string   `json:"location,omitempty"`
	SchoolType           string   `json:"school_type,omitempty"`
	Grade                string   `json:"grade,omitempty"`
	PreferredSocialMedia []string `json:"preferred_social_media,omitempty"`
	DailyInternetHours   string   `json:"daily_internet_hours,omitempty"`
	NewsSources          []string `json:"news_sources,omitempty"`

	FactCheckingAwareness    string `json:"fact_checking_awareness,omitempty"`
	SourceVerificationHabits string `json:"source_verification_habits,omitempty"`
	CriticalThinkingLevel    string `json:"critical_thinking_level,omitempty"`
}

// Fragment is the result of one extraction pass: the fields the model found
// explicitly mentioned in a transcript. Zero values mean "not mentioned".
// The flex types absorb the shape drift of model-produced JSON.
type Fragment struct {
	Age                  FlexInt     `json:"age"`
	Gender               FlexString  `json:"gender"`
	Location             FlexString  `json:"location"`
	SchoolType           FlexString  `json:"school_type"`
	Grade                FlexString  `json:"grade"`
	PreferredSocialMedia FlexStrings `json:"preferred_social_media"`
	DailyInternetHours   FlexString  `json:"daily_internet_hours"`
	NewsSources          FlexStrings `json:"news_sources"`

	FactCheckingAwareness    FlexString `json:"fact_checking_awareness"`
	SourceVerificationHabits FlexString `json:"source_verification_habits"`
	CriticalThinkingLevel    FlexString `json:"critical_thinking_level"`
}

// Apply merges a fragment into the profile. Scalar fields follow last-write
// wins for values the fragment actually carries; list fields are unioned,
// existing entries keeping their order.
func (p *UserProfile) Apply(f Fragment) {
	if f.Age > 0 {
		p.Age = int(f.Age)
	}
	if f.Gender != "" {
		p.Gender = string(f.Gender)
	}
	if f.Location != "" {
		p.Location = string(f.Location)
	}
	if f.SchoolType != "" {
		p.SchoolType = string(f.SchoolType)
	}
	if f.Grade != "" {
		p.Grade = string(f.Grade)
	}
	if f.DailyInternetHours != "" {
		p.DailyInternetHours = string(f.DailyInternetHours)
	}
	if f.FactCheckingAwareness != "" {
		p.FactCheckingAwareness = string(f.FactCheckingAwareness)
	}
	if f.SourceVerificationHabits != "" {
		p.SourceVerificationHabits = string(f.SourceVerificationHabits)
	}
	if f.CriticalThinkingLevel != "" {
		p.CriticalThinkingLevel = string(f.CriticalThinkingLevel)
	}

	p.PreferredSocialMedia = unionStrings(p.PreferredSocialMedia, f.PreferredSocialMedia)
	p.NewsSources = unionStrings(p.NewsSources, f.NewsSources)
}

// Clone returns a deep copy. Stores hand out clones so a caller can never
// alias the stored representation.
func (p *UserProfile) Clone() *UserProfile {
	clone := *p
	clone.PreferredSocialMedia = append([]string(nil), p.PreferredSocialMedia...)
	clone.NewsSources = append([]string(nil), p.NewsSources...)
	return &clone
}

// Summary renders the known fields as German label/value lines for prompt
// injection. Unknown fields are omitted; a profile with no known fields
// renders as the empty string.
func (p *UserProfile) Summary() string {
	var lines []string
	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	if p.Age > 0 {
		add("Alter", strconv.Itoa(p.Age))
	}
	add("Geschlecht", p.Gender)
	add("Wohnort", p.Location)
	add("Schulform", p.SchoolType)
	add("Klassenstufe", p.Grade)
	add("Bevorzugte soziale Medien", strings.Join(p.PreferredSocialMedia, ", "))
	add("Tägliche Internetnutzung", p.DailyInternetHours)
	add("Nachrichtenquellen", strings.Join(p.NewsSources, ", "))
	add("Faktencheck-Bewusstsein", p.FactCheckingAwareness)
	add("Quellenbewertung", p.SourceVerificationHabits)
	add("Kritisches Denken", p.CriticalThinkingLevel)

	return strings.Join(lines, "\n")
}

// unionStrings appends the incoming entries that are not yet present.
// Existing duplicates are collapsed while their first-seen order is kept.
func unionStrings(existing, incoming []string) []string {
	if len(incoming) == 0 {
		return existing
	}

	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]string, 0, len(existing)+len(incoming))

	for _, s := range existing {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range incoming {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		merged = append(merged, s)
	}

	return merged
}

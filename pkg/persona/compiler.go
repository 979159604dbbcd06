package persona

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"acquisition-arena-be/internal/constant"
)

// VoiceSettings are the text-to-speech parameters sent with the agent.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// Input is everything the compiler reads from a persona.
type Input struct {
	Name        string
	Description string
	Traits      Traits
	// VoiceID overrides the quadrant voice selection when set.
	VoiceID string
}

// AgentConfig is the compiled voice-agent configuration.
type AgentConfig struct {
	AgentName         string
	SystemPrompt      string
	FirstMessage      string
	OpeningBucket     string
	OpeningCandidates []string
	VoiceID           string
	VoiceSettings     VoiceSettings
	Language          string
	// Defaulted lists trait keys that were missing and compiled as DefaultScore.
	Defaulted []string
}

// Compile turns persona data into an agent configuration. Everything except
// the choice of first message within its bucket is a pure function of in;
// pass a seeded rng to make that choice reproducible too.
func Compile(in Input, rng *rand.Rand) AgentConfig {
	resolved := Resolve(in.Traits)

	var defaulted []string
	for _, r := range resolved {
		if r.Defaulted {
			defaulted = append(defaulted, r.Key)
		}
	}

	temper := scoreOf(resolved, TemperLevel)
	chattiness := scoreOf(resolved, ChattinessLevel)
	skepticism := scoreOf(resolved, SkepticismLevel)

	bucket := OpeningBucket(temper, skepticism, chattiness)
	candidates := make([]string, 0, len(OpeningLines[bucket]))
	for _, line := range OpeningLines[bucket] {
		candidates = append(candidates, strings.ReplaceAll(line, "{persona_name}", in.Name))
	}

	voiceID := in.VoiceID
	if voiceID == "" {
		voiceID = SelectVoice(temper, chattiness)
	}

	return AgentConfig{
		AgentName:         fmt.Sprintf("%s - Land Seller Agent", in.Name),
		SystemPrompt:      SystemPrompt(in.Name, in.Description, resolved),
		FirstMessage:      pick(candidates, rng),
		OpeningBucket:     bucket,
		OpeningCandidates: candidates,
		VoiceID:           voiceID,
		VoiceSettings:     BuildVoiceSettings(resolved),
		Language:          "en",
		Defaulted:         defaulted,
	}
}

// SystemPrompt renders the persona template with one line per trait.
func SystemPrompt(name, description string, resolved []ResolvedTrait) string {
	r := strings.NewReplacer(
		"{persona_name}", name,
		"{persona_description}", strings.TrimSpace(description),
		"{characteristics}", TraitLines(resolved),
		"{personality_traits}", personalitySummary(resolved),
		"{motivation_level}", motivation(resolved),
		"{conversation_style}", conversationStyle(resolved),
	)
	return strings.TrimSpace(r.Replace(constant.PersonaBasePrompt))
}

// TraitLines renders "<Humanized name> (<score>): <rationale>" per trait.
func TraitLines(resolved []ResolvedTrait) string {
	lines := make([]string, 0, len(resolved))
	for _, t := range resolved {
		desc := t.Description
		if desc == "" {
			desc = "No description provided"
		}
		lines = append(lines, fmt.Sprintf("- %s (%.2f): %s", Humanize(t.Key), t.Score, desc))
	}
	return strings.Join(lines, "\n")
}

// BuildVoiceSettings: a hotter temper steadies delivery, attachment adds style.
func BuildVoiceSettings(resolved []ResolvedTrait) VoiceSettings {
	return VoiceSettings{
		Stability:       clamp(0.5 + scoreOf(resolved, TemperLevel)*0.3),
		SimilarityBoost: 0.7,
		Style:           clamp(scoreOf(resolved, EmotionalAttachment) * 0.5),
		UseSpeakerBoost: true,
	}
}

func personalitySummary(resolved []ResolvedTrait) string {
	return strings.Join([]string{
		TemperTable.Lookup(scoreOf(resolved, TemperLevel)),
		KnowledgeTable.Lookup(scoreOf(resolved, KnowledgeLevel)),
		ChattinessTable.Lookup(scoreOf(resolved, ChattinessLevel)),
		DecisionSpeedTable.Lookup(scoreOf(resolved, DecisionMakingSpeed)),
	}, ". ") + "."
}

func motivation(resolved []ResolvedTrait) string {
	combined := (scoreOf(resolved, UrgencyLevel) + scoreOf(resolved, FinancialDesperation)) / 2
	return MotivationTable.Lookup(combined)
}

func conversationStyle(resolved []ResolvedTrait) string {
	return strings.Join([]string{
		SkepticismTable.Lookup(scoreOf(resolved, SkepticismLevel)),
		AttachmentTable.Lookup(scoreOf(resolved, EmotionalAttachment)),
	}, ". ") + "."
}

func pick(candidates []string, rng *rand.Rand) string {
	if len(candidates) == 0 {
		return ""
	}
	if rng == nil {
		return candidates[rand.IntN(len(candidates))]
	}
	return candidates[rng.IntN(len(candidates))]
}

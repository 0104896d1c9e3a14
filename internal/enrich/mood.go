package enrich

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/samber/lo"

	"dreamweaver-ai/internal/contextutil"
	"dreamweaver-ai/internal/llm"
)

// Vocabulary is the fixed set of mood labels.
var Vocabulary = []string{
	"joy", "happy", "excited", "calm", "reflective", "anxious",
	"sad", "angry", "stress", "grateful", "motivated",
}

const (
	// FallbackMood is used whenever no label can be derived.
	FallbackMood = "neutral"
	// DefaultMood is assigned to directly created entries that carry no mood.
	DefaultMood = "reflective"
)

// ErrUnrecognizedMood is returned when a model reply names no known mood.
var ErrUnrecognizedMood = errors.New("reply does not name a known mood")

// moodAliases maps common inflections onto vocabulary words.
var moodAliases = map[string]string{
	"joyful":     "joy",
	"happiness":  "happy",
	"excitement": "excited",
	"calmness":   "calm",
	"peaceful":   "calm",
	"reflection": "reflective",
	"anxiety":    "anxious",
	"sadness":    "sad",
	"anger":      "angry",
	"stressed":   "stress",
	"stressful":  "stress",
	"gratitude":  "grateful",
	"thankful":   "grateful",
	"motivation": "motivated",
}

var (
	parenthetical  = regexp.MustCompile(`\(.*?\)`)
	moodSeparators = regexp.MustCompile(`[;,/]|\bbut\b|\band\b`)
	moodPrefix     = regexp.MustCompile(`^(mood|tone|emotion)\s*:\s*`)
)

// MoodLabeler classifies cleaned text into one word of Vocabulary.
type MoodLabeler struct {
	llm llm.Generator
}

// NewMoodLabeler creates a new MoodLabeler.
func NewMoodLabeler(gen llm.Generator) *MoodLabeler {
	return &MoodLabeler{llm: gen}
}

// Label asks the model for a mood and parses the reply.
// Backend failures are *GenerationError; replies naming no known mood wrap ErrUnrecognizedMood.
func (m *MoodLabeler) Label(ctx context.Context, text string) Result[string] {
	if strings.TrimSpace(text) == "" {
		return Err[string](&GenerationError{Op: "mood", Err: ErrEmptyText})
	}

	reply, err := m.llm.Generate(ctx, MoodPrompt(text))
	if err != nil {
		return Err[string](&GenerationError{Op: "mood", Err: err})
	}

	mood, ok := ParseMood(reply)
	if !ok {
		return Err[string](fmt.Errorf("%w: %q", ErrUnrecognizedMood, reply))
	}
	return Ok(mood)
}

// Detect returns a vocabulary mood for text, or FallbackMood. It never fails.
func (m *MoodLabeler) Detect(ctx context.Context, text string) (mood string) {
	logger := contextutil.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.WarnContext(ctx, "mood labeling panicked", "panic", r)
			mood = FallbackMood
		}
	}()

	result := m.Label(ctx, text)
	if result.IsErr() {
		logger.DebugContext(ctx, "mood labeling fell back", "fallback", FallbackMood, "error", result.Error())
		return FallbackMood
	}
	return result.UnwrapOr(FallbackMood)
}

// ParseMood extracts a vocabulary mood from a free-text model reply.
// The reply is lower-cased, parenthetical asides are removed and the first segment before
// any of ; , / "but" "and" is examined first. If that segment names no known mood the whole
// reply is scanned. A mood directly after "not", "no" or "never" does not count.
// Returns false when nothing matches.
func ParseMood(raw string) (string, bool) {
	cleaned := strings.TrimSpace(parenthetical.ReplaceAllString(strings.ToLower(raw), ""))
	if cleaned == "" {
		return "", false
	}

	segment := ""
	for _, part := range moodSeparators.Split(cleaned, -1) {
		if p := strings.TrimSpace(part); p != "" {
			segment = p
			break
		}
	}
	segment = moodPrefix.ReplaceAllString(segment, "")

	if mood, ok := firstMood(segment); ok {
		return mood, true
	}
	return firstMood(cleaned)
}

// negations cancel the mood word that directly follows them.
var negations = map[string]bool{"not": true, "no": true, "never": true}

func firstMood(s string) (string, bool) {
	words := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	for i, w := range words {
		if i > 0 && negations[words[i-1]] {
			continue
		}
		if lo.Contains(Vocabulary, w) {
			return w, true
		}
		if alias, ok := moodAliases[w]; ok {
			return alias, true
		}
	}
	return "", false
}

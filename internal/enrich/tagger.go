package enrich

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"dreamweaver-ai/internal/llm"
)

// MaxTags is the most tags kept on an entry.
const MaxTags = 7

// ErrEmptyText is returned when there is nothing to enrich.
var ErrEmptyText = errors.New("text is empty")

// GenerationError reports a failed LLM call made while enriching an entry.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// TagGenerator derives topical tags from cleaned entry text.
type TagGenerator struct {
	llm llm.Generator
}

// NewTagGenerator creates a new TagGenerator.
func NewTagGenerator(gen llm.Generator) *TagGenerator {
	return &TagGenerator{llm: gen}
}

// Generate prompts the model for tags and returns them normalized and comma-separated.
// Every failure is a *GenerationError. An empty string with a nil error means the model offered no usable tags.
func (g *TagGenerator) Generate(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Op: "tag", Err: ErrEmptyText}
	}

	reply, err := g.llm.Generate(ctx, TaggingPrompt(text))
	if err != nil {
		return "", &GenerationError{Op: "tag", Err: err}
	}

	return JoinTags(NormalizeTags(reply)), nil
}

var (
	tagSeparators = regexp.MustCompile(`[,;\n\r]+`)
	tagPrefix     = regexp.MustCompile(`(?i)^(tags?\s*:\s*|\d+[.)]\s*|[-*•#]+\s*)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// NormalizeTags applies the storage policy for tags from any source: split on commas or newlines,
// trim whitespace and list punctuation, drop blanks, dedupe case-insensitively keeping the first,
// cap at MaxTags and capitalize each word. Existing capitals such as acronyms are kept.
func NormalizeTags(raw string) []string {
	parts := tagSeparators.Split(raw, -1)

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.TrimSpace(p)
		for {
			stripped := strings.TrimSpace(tagPrefix.ReplaceAllString(tag, ""))
			if stripped == tag {
				break
			}
			tag = stripped
		}
		tag = strings.Trim(tag, `"'.!?`+"`")
		tag = whitespace.ReplaceAllString(strings.TrimSpace(tag), " ")
		if tag != "" {
			tags = append(tags, tag)
		}
	}

	tags = lo.UniqBy(tags, strings.ToLower)
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	// Casers hold state and must not be shared across goroutines.
	caser := cases.Title(language.English, cases.NoLower)
	return lo.Map(tags, func(tag string, _ int) string {
		return caser.String(tag)
	})
}

// JoinTags renders tags in the stored comma-separated form.
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

package prompt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/airplanegirl/cards-for-care-api/internal/models"
)

// ErrUnvalidatedRequest is returned when the builder is handed a zero CardRequest
var ErrUnvalidatedRequest = errors.New("prompt: card request was not validated")

// Builder builds image prompts for greeting card fronts
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// Build turns a validated card request into the image prompt.
// Only the upper-cased card type is meant to appear as text on the image.
func (b *Builder) Build(req models.CardRequest) (string, error) {
	if !req.Valid() {
		return "", ErrUnvalidatedRequest
	}

	rules, err := b.loader.GetDesignRules()
	if err != nil {
		return "", fmt.Errorf("failed to load design rules: %w", err)
	}

	lines := []string{
		"Create a greeting card FRONT design (portrait).",
		fmt.Sprintf("Headline text (must be readable): %q.", strings.ToUpper(req.CardType())),
		fmt.Sprintf("Recipient: %s.", req.WhoFor()),
		fmt.Sprintf("Theme: %s.", req.Theme()),
		fmt.Sprintf("Vibe: %s.", req.Vibe()),
		"",
		rules,
	}

	return strings.Join(lines, "\n"), nil
}

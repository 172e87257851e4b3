package prompt

import (
	"strings"

	"github.com/airplanegirl/cards-for-care-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetDesignRules loads the layout and content rules appended to every card prompt
func (l *Loader) GetDesignRules() (string, error) {
	return strings.TrimSpace(string(embedded.DesignRulesTxt)), nil
}

package embedded

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardOptionsJSONIsValid(t *testing.T) {
	var lists map[string][]string
	require.NoError(t, json.Unmarshal(CardOptionsJSON, &lists))

	assert.Len(t, lists["cardType"], 5)
	assert.Len(t, lists["whoFor"], 6)
	assert.Len(t, lists["theme"], 6)
	assert.Len(t, lists["vibe"], 3)
}

func TestDesignRulesNotEmpty(t *testing.T) {
	assert.Contains(t, string(DesignRulesTxt), "Design rules:")
}

package embedded

import (
	_ "embed"
)

// CardOptionsJSON holds the default allow-lists offered by the front-end dropdowns
//
//go:embed data/card_options.json
var CardOptionsJSON []byte

// DesignRulesTxt holds the layout and safety rules appended to every card prompt
//
//go:embed data/design_rules.txt
var DesignRulesTxt []byte

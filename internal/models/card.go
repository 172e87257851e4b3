package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/airplanegirl/cards-for-care-api/pkg/embedded"
)

// Field identifies one of the card form fields
type Field string

const (
	FieldCardType Field = "cardType"
	FieldWhoFor   Field = "whoFor"
	FieldTheme    Field = "theme"
	FieldVibe     Field = "vibe"
)

// Fields lists every card form field in request order
var Fields = []Field{FieldCardType, FieldWhoFor, FieldTheme, FieldVibe}

// CardOptions is the immutable set of allow-lists a card request is checked against.
// Lists are copied on construction and never handed out by reference.
type CardOptions struct {
	lists map[Field][]string
	sets  map[Field]map[string]struct{}
}

// NewCardOptions builds CardOptions from one list per field. Every list must be non-empty.
func NewCardOptions(lists map[Field][]string) (CardOptions, error) {
	opts := CardOptions{
		lists: make(map[Field][]string, len(Fields)),
		sets:  make(map[Field]map[string]struct{}, len(Fields)),
	}

	for _, f := range Fields {
		values := lists[f]
		if len(values) == 0 {
			return CardOptions{}, fmt.Errorf("card options: %s has no allowed values", f)
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			if v == "" {
				return CardOptions{}, fmt.Errorf("card options: %s contains an empty value", f)
			}
			set[v] = struct{}{}
		}
		opts.lists[f] = append([]string(nil), values...)
		opts.sets[f] = set
	}

	return opts, nil
}

// ParseCardOptions decodes a JSON document of the form {"cardType": [...], "whoFor": [...], ...}
func ParseCardOptions(data []byte) (CardOptions, error) {
	var raw map[Field][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return CardOptions{}, fmt.Errorf("card options: decode: %w", err)
	}
	return NewCardOptions(raw)
}

// LoadCardOptions reads allow-lists from path, or returns the embedded defaults when path is empty
func LoadCardOptions(path string) (CardOptions, error) {
	if path == "" {
		return ParseCardOptions(embedded.CardOptionsJSON)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CardOptions{}, fmt.Errorf("card options: read %s: %w", path, err)
	}
	return ParseCardOptions(data)
}

// DefaultCardOptions returns the embedded allow-lists shipped with the front-end
func DefaultCardOptions() CardOptions {
	opts, err := ParseCardOptions(embedded.CardOptionsJSON)
	if err != nil {
		panic(err)
	}
	return opts
}

// Values returns a copy of the allowed values for a field
func (o CardOptions) Values(f Field) []string {
	return append([]string(nil), o.lists[f]...)
}

// Allows reports whether v is an exact member of the field's allow-list
func (o CardOptions) Allows(f Field, v string) bool {
	_, ok := o.sets[f][v]
	return ok
}

// CardPayload is the raw request body. Pointers distinguish absent fields from empty ones.
type CardPayload struct {
	CardType *string `json:"cardType"`
	WhoFor   *string `json:"whoFor"`
	Theme    *string `json:"theme"`
	Vibe     *string `json:"vibe"`
}

func (p CardPayload) value(f Field) *string {
	switch f {
	case FieldCardType:
		return p.CardType
	case FieldWhoFor:
		return p.WhoFor
	case FieldTheme:
		return p.Theme
	case FieldVibe:
		return p.Vibe
	}
	return nil
}

// CardRequest is a card request whose every field passed the allow-lists.
// It can only be built by CardOptions.Validate.
type CardRequest struct {
	cardType string
	whoFor   string
	theme    string
	vibe     string
}

func (r CardRequest) CardType() string { return r.cardType }
func (r CardRequest) WhoFor() string   { return r.whoFor }
func (r CardRequest) Theme() string    { return r.theme }
func (r CardRequest) Vibe() string     { return r.vibe }

// Valid is false for the zero value
func (r CardRequest) Valid() bool {
	return r.cardType != "" && r.whoFor != "" && r.theme != "" && r.vibe != ""
}

// ValidationError lists the fields that were missing or outside their allow-lists
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Fields, ", ")
}

// Validate checks every field of the payload and returns a CardRequest only if all of them pass
func (o CardOptions) Validate(p CardPayload) (CardRequest, error) {
	var bad []string
	for _, f := range Fields {
		v := p.value(f)
		if v == nil || !o.Allows(f, *v) {
			bad = append(bad, string(f))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return CardRequest{}, &ValidationError{Fields: bad}
	}

	return CardRequest{
		cardType: *p.CardType,
		whoFor:   *p.WhoFor,
		theme:    *p.Theme,
		vibe:     *p.Vibe,
	}, nil
}

// ParseCardRequest decodes a raw request body and validates it.
// An empty body is treated as an object with every field absent.
func (o CardOptions) ParseCardRequest(body []byte) (CardRequest, error) {
	var p CardPayload
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &p); err != nil {
			return CardRequest{}, InvalidBody()
		}
	}
	return o.Validate(p)
}

// InvalidBody is the validation error for a body that is not a JSON object of strings
func InvalidBody() *ValidationError {
	return &ValidationError{Fields: []string{"body"}}
}

package apple

import (
	"encoding/json"
	"fmt"
)

// AddressLevels are resolved in order; each selection narrows the next.
var AddressLevels = []string{"state", "city", "district"}

type addressLookupResponse struct {
	Body map[string]json.RawMessage `json:"body"`
}

// AddressOption is one selectable value of an address level.
type AddressOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// AddressLevel is either a list of options to choose from or, when the
// previous selections already determine it, a fixed value.
type AddressLevel struct {
	Options []AddressOption
	Value   string
}

// AddressLookup is the decoded body of an address-lookup response.
type AddressLookup struct {
	fields map[string]json.RawMessage
}

// Level decodes the named address level.
func (a *AddressLookup) Level(name string) (AddressLevel, error) {
	raw, ok := a.fields[name]
	if !ok {
		return AddressLevel{}, fmt.Errorf("%w: address level %q missing", ErrDecode, name)
	}

	var value string
	if err := json.Unmarshal(raw, &value); err == nil {
		return AddressLevel{Value: value}, nil
	}

	var choices struct {
		Data []AddressOption `json:"data"`
	}
	if err := json.Unmarshal(raw, &choices); err != nil {
		return AddressLevel{}, fmt.Errorf("%w: address level %q: %v", ErrDecode, name, err)
	}
	if len(choices.Data) == 0 {
		return AddressLevel{}, fmt.Errorf("%w: address level %q has no options", ErrDecode, name)
	}
	return AddressLevel{Options: choices.Data}, nil
}

// Location returns the composite provinceCityDistrict token used by the
// fulfillment lookup.
func (a *AddressLookup) Location() (string, error) {
	raw, ok := a.fields["provinceCityDistrict"]
	if !ok {
		return "", fmt.Errorf("%w: provinceCityDistrict missing", ErrDecode)
	}
	var location string
	if err := json.Unmarshal(raw, &location); err != nil || location == "" {
		return "", fmt.Errorf("%w: provinceCityDistrict is not a string", ErrDecode)
	}
	return location, nil
}

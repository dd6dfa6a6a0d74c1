package siteconfig

import (
	"encoding/json"
	"slices"
)

// Document is the small, rarely changing site configuration.
type Document struct {
	Neighborhoods  []string   `json:"neighborhoods"`
	Species        []string   `json:"species"`
	Cities         StringList `json:"cities,omitempty"`
	DailyLimit     int        `json:"dailyLimit"`
	ExpirationDays int        `json:"expirationDays"`
}

// Default is used whenever the remote document cannot be obtained.
func Default() Document {
	return Document{
		Neighborhoods:  []string{"Centro", "Vila Nova", "Jardim", "Industrial", "Outro"},
		Species:        []string{"dog", "cat", "other"},
		DailyLimit:     3,
		ExpirationDays: 30,
	}
}

// withDefaults fills fields the remote document left empty.
func (d Document) withDefaults() Document {
	def := Default()
	if len(d.Neighborhoods) == 0 {
		d.Neighborhoods = def.Neighborhoods
	}
	if len(d.Species) == 0 {
		d.Species = def.Species
	}
	if d.DailyLimit <= 0 {
		d.DailyLimit = def.DailyLimit
	}
	if d.ExpirationDays <= 0 {
		d.ExpirationDays = def.ExpirationDays
	}
	return d
}

// HasNeighborhood reports whether name is one of the configured neighborhoods.
func (d Document) HasNeighborhood(name string) bool {
	return slices.Contains(d.Neighborhoods, name)
}

// StringList decodes from either a JSON string or an array of strings.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

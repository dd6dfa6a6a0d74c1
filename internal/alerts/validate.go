package alerts

import (
	"slices"
	"strings"
	"unicode/utf8"

	"pataalerta/internal/failure"
	"pataalerta/internal/model"
	"pataalerta/internal/parse"
)

// Species accepted on the form.
var Species = []string{"dog", "cat", "other"}

var types = []model.AlertType{model.TypeLost, model.TypeFound, model.TypeAdoption}

const (
	minDescription = 10
	maxDescription = 500
	minReason      = 5
)

// NewAlert is the submitted form.
type NewAlert struct {
	Type          model.AlertType `json:"type" form:"type"`
	Species       string          `json:"species" form:"species"`
	PetName       string          `json:"petName" form:"petName"`
	Description   string          `json:"description" form:"description"`
	PhotoURL      string          `json:"photoUrl" form:"photoUrl"`
	Neighborhood  string          `json:"neighborhood" form:"neighborhood"`
	City          string          `json:"city" form:"city"`
	WhatsApp      string          `json:"whatsapp" form:"whatsapp"`
	ContactName   string          `json:"contactName" form:"contactName"`
	AcceptedTerms bool            `json:"acceptedTerms" form:"acceptedTerms"`
}

func (n NewAlert) normalized() NewAlert {
	n.Species = strings.TrimSpace(n.Species)
	n.PetName = strings.TrimSpace(n.PetName)
	n.Description = strings.TrimSpace(n.Description)
	n.PhotoURL = strings.TrimSpace(n.PhotoURL)
	n.Neighborhood = strings.TrimSpace(n.Neighborhood)
	n.City = strings.TrimSpace(n.City)
	n.ContactName = strings.TrimSpace(n.ContactName)
	n.WhatsApp = parse.Digits(n.WhatsApp)
	return n
}

// ValidateNewAlert checks every field and returns one failure per offending
// field, in form order. An empty result means the form is valid. The photo is
// not checked here; it has its own step before the form is complete.
func ValidateNewAlert(n NewAlert) []*failure.Failure {
	n = n.normalized()
	var out []*failure.Failure
	add := func(field, msg string) {
		out = append(out, failure.Validation(field, msg))
	}

	if !slices.Contains(types, n.Type) {
		add("type", "Select what happened")
	}
	if !slices.Contains(Species, n.Species) {
		add("species", "Select the animal")
	}
	switch l := utf8.RuneCountInString(n.Description); {
	case l < minDescription:
		add("description", "Description must be at least 10 characters")
	case l > maxDescription:
		add("description", "Description must be at most 500 characters")
	}
	if n.Neighborhood == "" {
		add("neighborhood", "Select the neighborhood")
	}
	if utf8.RuneCountInString(n.City) < 2 {
		add("city", "City must be at least 2 characters")
	}
	if utf8.RuneCountInString(n.ContactName) < 2 {
		add("contactName", "Name must be at least 2 characters")
	}
	if !parse.ValidWhatsApp(n.WhatsApp) {
		add("whatsapp", "Invalid WhatsApp. Use area code + number")
	}
	if n.PhotoURL == "" {
		add("photo", "Add a photo of the animal")
	}
	if !n.AcceptedTerms {
		add("terms", "You must accept the terms")
	}
	return out
}

// validateReason checks a report reason.
func validateReason(reason string) *failure.Failure {
	if utf8.RuneCountInString(strings.TrimSpace(reason)) < minReason {
		return failure.Validation("reason", "Describe the reason (at least 5 characters)")
	}
	return nil
}

package alerts

import (
	"pataalerta/internal/model"
	"pataalerta/internal/parse"
)

const shareEmoji = "🐾"

// DisplayName is the pet's name, or its species when it has none.
func DisplayName(a model.Alert) string {
	if a.PetName != "" {
		return a.PetName
	}
	return parse.Capitalize(a.Species)
}

// ShareText is the message posted when sharing an alert on WhatsApp.
func ShareText(a model.Alert, link string) string {
	lead := shareEmoji + " "
	body := "in the " + a.Neighborhood + " neighborhood! " + parse.Capitalize(a.Species) + ", " + parse.Truncate(a.Description, 80)
	switch a.Type {
	case model.TypeLost:
		return lead + "Lost animal " + body + " Help find it: " + link
	case model.TypeFound:
		return lead + "Found animal " + body + " Know the owner? " + link
	case model.TypeAdoption:
		return lead + "Animal for adoption " + body + " See: " + link
	}
	return lead + "See this alert on PataAlerta: " + link
}

// ContactLink opens a WhatsApp chat with the alert's author.
func ContactLink(a model.Alert) string {
	return parse.WhatsAppLink(a.WhatsApp, "Hi! I saw your alert on PataAlerta about "+DisplayName(a)+".")
}

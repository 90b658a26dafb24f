package app

import (
	"github.com/nimasrn/reddit-matchbot/internal/config"
	"github.com/nimasrn/reddit-matchbot/internal/matcher"
)

// Variant captures what differs between the two entry points.
type Variant struct {
	Name             string
	CredentialSource config.CredentialSource
	UserAgent        string
	FoldHeaders      bool
	Templates        matcher.Templates
}

// ScheduledVariant runs from CI with the service account passed as a base64
// blob.
func ScheduledVariant() Variant {
	return Variant{
		Name:             "scheduled",
		CredentialSource: config.CredentialsFromBase64,
		UserAgent:        "RedditMatchBot/1.0 (GitHub Actions)",
		Templates:        matcher.ScheduledTemplates(),
	}
}

// ImmediateVariant runs by hand next to a credentials file and tolerates
// header case changes made by whoever edits the form.
func ImmediateVariant() Variant {
	return Variant{
		Name:             "immediate",
		CredentialSource: config.CredentialsFromFile,
		UserAgent:        "RedditMatchBot/1.0",
		FoldHeaders:      true,
		Templates:        matcher.ImmediateTemplates(),
	}
}

package terraform

import "strings"

type Provider string

const (
	ProviderAWS   Provider = "AWS"
	ProviderGCP   Provider = "GCP"
	ProviderAzure Provider = "Azure"
)

var providerAliases = map[string]Provider{
	"aws":    ProviderAWS,
	"amazon": ProviderAWS,
	"gcp":    ProviderGCP,
	"google": ProviderGCP,
	"azure":  ProviderAzure,
}

// ParseProvider accepts the canonical spelling or a known alias, case-insensitive.
func ParseProvider(value string) (Provider, bool) {
	p, ok := providerAliases[strings.ToLower(strings.TrimSpace(value))]
	return p, ok
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderAWS, ProviderGCP, ProviderAzure:
		return true
	}
	return false
}

// TagNoun is the plural word the provider uses for resource annotations.
func (p Provider) TagNoun() string {
	if p == ProviderGCP {
		return "labels"
	}
	return "tags"
}

func (p Provider) TagNounSingular() string {
	if p == ProviderGCP {
		return "label"
	}
	return "tag"
}

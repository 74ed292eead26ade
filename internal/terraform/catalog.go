package terraform

import "strings"

type ProviderInfo struct {
	Provider    Provider `json:"provider"`
	Name        string   `json:"name"`
	AccentColor string   `json:"accentColor"`
	AccentDark  string   `json:"accentDark"`
	AccentRGB   string   `json:"accentRgb"`
	TagLabel    string   `json:"tagLabel"`
	TagsLabel   string   `json:"tagsLabel"`
}

// DefaultAccent is used while no provider is selected.
var DefaultAccent = ProviderInfo{
	Name:        "",
	AccentColor: "#0A84FF",
	AccentDark:  "#0060DF",
	AccentRGB:   "10, 132, 255",
	TagLabel:    "Tag",
	TagsLabel:   "Tags",
}

var providerCatalog = map[Provider]ProviderInfo{
	ProviderAWS: {
		Provider:    ProviderAWS,
		Name:        "Amazon Web Services",
		AccentColor: "#FF9900",
		AccentDark:  "#EC7211",
		AccentRGB:   "255, 153, 0",
	},
	ProviderGCP: {
		Provider:    ProviderGCP,
		Name:        "Google Cloud Platform",
		AccentColor: "#34A853",
		AccentDark:  "#188038",
		AccentRGB:   "52, 168, 83",
	},
	ProviderAzure: {
		Provider:    ProviderAzure,
		Name:        "Microsoft Azure",
		AccentColor: "#0078D4",
		AccentDark:  "#005A9E",
		AccentRGB:   "0, 120, 212",
	},
}

func Providers() []ProviderInfo {
	order := []Provider{ProviderAWS, ProviderGCP, ProviderAzure}

	out := make([]ProviderInfo, 0, len(order))
	for _, p := range order {
		out = append(out, Describe(p))
	}
	return out
}

func Describe(p Provider) ProviderInfo {
	info, ok := providerCatalog[p]
	if !ok {
		return DefaultAccent
	}
	info.TagsLabel = capitalize(p.TagNoun())
	info.TagLabel = capitalize(p.TagNounSingular())
	return info
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

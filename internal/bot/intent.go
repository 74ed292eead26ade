package bot

import (
	"strings"
	"unicode"

	"diagram2terraform/internal/terraform"
)

// providerFromCaption finds the first word in a photo caption that names a
// provider, so "aws please" or "Azure!" select one.
func providerFromCaption(caption string) (terraform.Provider, bool) {
	words := strings.FieldsFunc(caption, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if p, ok := terraform.ParseProvider(w); ok {
			return p, true
		}
	}
	return "", false
}

// parseTagArgs reads "key=value", "key: value" or "key value".
func parseTagArgs(args string) (key, value string, ok bool) {
	args = strings.TrimSpace(args)
	if args == "" {
		return "", "", false
	}

	if key, value, ok := terraform.SplitTagPair(args); ok {
		return key, value, true
	}

	fields := strings.Fields(args)
	if len(fields) < 2 {
		return fields[0], "", true
	}
	return fields[0], strings.TrimSpace(strings.TrimPrefix(args, fields[0])), true
}

package terraform

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	FallbackFileName = "generated_code.tf"
	StructureWarning = "Warning: AI did not structure the output into separate files as requested. Displaying raw output as " + FallbackFileName + "."
)

type GeneratedFile struct {
	FileName string `json:"fileName"`
	Content  string `json:"content"`
}

type ParseResult struct {
	Files []GeneratedFile
	// Warning is set when the response ignored the marker contract and the
	// fallback file was produced.
	Warning string
}

func (r ParseResult) Fallback() bool {
	return r.Warning != ""
}

type tokenKind int

const (
	tokenContent tokenKind = iota
	tokenStart
	tokenEnd
)

type token struct {
	kind tokenKind
	name string
	line string
}

var markerLineRegex = regexp.MustCompile(`^//\s*(START_FILE|END_FILE):\s*([A-Za-z0-9_.-]+\.tf)$`)

// ParseFiles extracts the marker-delimited files from a model response.
// Matching is leftmost and non-overlapping: a START marker pairs with the
// first later END marker carrying the same file name; starts with no such
// partner are skipped.
func ParseFiles(text string) ParseResult {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	files := reduce(tokenize(text))
	if len(files) > 0 {
		return ParseResult{Files: files}
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ParseResult{}
	}

	return ParseResult{
		Files:   []GeneratedFile{{FileName: FallbackFileName, Content: stripFence(trimmed)}},
		Warning: StructureWarning,
	}
}

func tokenize(text string) []token {
	lines := strings.Split(text, "\n")
	tokens := make([]token, 0, len(lines))

	for _, line := range lines {
		tokens = append(tokens, classify(line))
	}
	return tokens
}

func classify(line string) token {
	m := markerLineRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return token{kind: tokenContent, line: line}
	}

	kind := tokenStart
	if m[1]+":" == endMarker {
		kind = tokenEnd
	}
	return token{kind: kind, name: m[2], line: line}
}

func reduce(tokens []token) []GeneratedFile {
	var files []GeneratedFile

	for i := 0; i < len(tokens); {
		if tokens[i].kind != tokenStart {
			i++
			continue
		}

		end := findEnd(tokens, i+1, tokens[i].name)
		if end < 0 {
			i++
			continue
		}

		files = append(files, GeneratedFile{
			FileName: tokens[i].name,
			Content:  strings.TrimSpace(joinLines(tokens[i+1 : end])),
		})
		i = end + 1
	}

	return files
}

func findEnd(tokens []token, from int, name string) int {
	for j := from; j < len(tokens); j++ {
		if tokens[j].kind == tokenEnd && tokens[j].name == name {
			return j
		}
	}
	return -1
}

func joinLines(tokens []token) string {
	var b strings.Builder
	for i, t := range tokens {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(t.line)
	}
	return b.String()
}

// stripFence unwraps text that is entirely one markdown code fence,
// dropping the optional language tag. Anything else is returned unchanged.
func stripFence(text string) string {
	const fence = "```"

	if len(text) < 2*len(fence) || !strings.HasPrefix(text, fence) || !strings.HasSuffix(text, fence) {
		return text
	}

	inner := text[len(fence) : len(text)-len(fence)]
	if strings.Contains(inner, fence) {
		return text
	}

	inner = strings.TrimLeftFunc(inner, func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	})
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return text
	}
	return inner
}

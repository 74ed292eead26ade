package terraform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiles(t *testing.T) {
	t.Run("single well-formed block", func(t *testing.T) {
		res := ParseFiles("// START_FILE: main.tf\nresource \"x\" {}\n// END_FILE: main.tf")

		require.Len(t, res.Files, 1)
		assert.Equal(t, GeneratedFile{FileName: "main.tf", Content: "resource \"x\" {}"}, res.Files[0])
		assert.Empty(t, res.Warning)
	})

	t.Run("multiple blocks keep source order and trimmed content", func(t *testing.T) {
		input := "// START_FILE: variables.tf\n\n  variable \"a\" {}\n\n// END_FILE: variables.tf\n" +
			"// START_FILE: main.tf\nresource \"b\" \"c\" {\n  name = var.a\n}\n// END_FILE: main.tf\n" +
			"// START_FILE: outputs.tf\noutput \"o\" { value = 1 }\n// END_FILE: outputs.tf\n"

		res := ParseFiles(input)

		require.Len(t, res.Files, 3)
		assert.Equal(t, "variables.tf", res.Files[0].FileName)
		assert.Equal(t, "variable \"a\" {}", res.Files[0].Content)
		assert.Equal(t, "main.tf", res.Files[1].FileName)
		assert.Equal(t, "resource \"b\" \"c\" {\n  name = var.a\n}", res.Files[1].Content)
		assert.Equal(t, "outputs.tf", res.Files[2].FileName)
		assert.False(t, res.Fallback())
	})

	t.Run("mismatched names contribute no file", func(t *testing.T) {
		input := "// START_FILE: main.tf\nresource \"x\" {}\n// END_FILE: other.tf\n" +
			"// START_FILE: outputs.tf\noutput \"o\" {}\n// END_FILE: outputs.tf"

		res := ParseFiles(input)

		require.Len(t, res.Files, 1)
		assert.Equal(t, "outputs.tf", res.Files[0].FileName)
		assert.Equal(t, "output \"o\" {}", res.Files[0].Content)
	})

	t.Run("duplicate file names are kept", func(t *testing.T) {
		input := "// START_FILE: main.tf\na\n// END_FILE: main.tf\n// START_FILE: main.tf\nb\n// END_FILE: main.tf"

		res := ParseFiles(input)

		require.Len(t, res.Files, 2)
		assert.Equal(t, "a", res.Files[0].Content)
		assert.Equal(t, "b", res.Files[1].Content)
	})

	t.Run("outer block swallows foreign markers", func(t *testing.T) {
		input := "// START_FILE: main.tf\nx\n// START_FILE: net.tf\ny\n// END_FILE: net.tf\n// END_FILE: main.tf"

		res := ParseFiles(input)

		require.Len(t, res.Files, 1)
		assert.Equal(t, "main.tf", res.Files[0].FileName)
		assert.Equal(t, "x\n// START_FILE: net.tf\ny\n// END_FILE: net.tf", res.Files[0].Content)
	})

	t.Run("unterminated start is skipped", func(t *testing.T) {
		input := "// START_FILE: main.tf\nx\n// START_FILE: net.tf\ny\n// END_FILE: net.tf"

		res := ParseFiles(input)

		require.Len(t, res.Files, 1)
		assert.Equal(t, "net.tf", res.Files[0].FileName)
		assert.Equal(t, "y", res.Files[0].Content)
	})

	t.Run("surrounding chatter and CRLF are tolerated", func(t *testing.T) {
		input := "Here you go:\r\n  //START_FILE:main.tf  \r\nresource \"x\" {}\r\n//   END_FILE:   main.tf\r\nThanks!"

		res := ParseFiles(input)

		require.Len(t, res.Files, 1)
		assert.Equal(t, "main.tf", res.Files[0].FileName)
		assert.Equal(t, "resource \"x\" {}", res.Files[0].Content)
	})

	t.Run("non tf names are not markers", func(t *testing.T) {
		res := ParseFiles("// START_FILE: main.go\npackage main\n// END_FILE: main.go")

		require.Len(t, res.Files, 1)
		assert.Equal(t, FallbackFileName, res.Files[0].FileName)
		assert.Equal(t, StructureWarning, res.Warning)
	})

	t.Run("empty input yields nothing", func(t *testing.T) {
		for _, input := range []string{"", "   ", "\n\t\n"} {
			res := ParseFiles(input)
			assert.Empty(t, res.Files)
			assert.Empty(t, res.Warning)
		}
	})

	t.Run("fenced fallback is unwrapped", func(t *testing.T) {
		res := ParseFiles("```hcl\nresource \"x\" {}\n```")

		require.Len(t, res.Files, 1)
		assert.Equal(t, GeneratedFile{FileName: FallbackFileName, Content: "resource \"x\" {}"}, res.Files[0])
		assert.Equal(t, StructureWarning, res.Warning)
		assert.True(t, res.Fallback())
	})

	t.Run("plain fallback keeps trimmed text", func(t *testing.T) {
		res := ParseFiles("\n  resource \"x\" {}\n  ")

		require.Len(t, res.Files, 1)
		assert.Equal(t, "resource \"x\" {}", res.Files[0].Content)
		assert.NotEmpty(t, res.Warning)
	})
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no language tag", input: "```\nabc\n```", want: "abc"},
		{name: "language tag", input: "```terraform\nabc\ndef\n```", want: "abc\ndef"},
		{name: "not fenced", input: "abc", want: "abc"},
		{name: "two fences", input: "```\na\n```\ntext\n```\nb\n```", want: "```\na\n```\ntext\n```\nb\n```"},
		{name: "only opening fence", input: "```hcl\nabc", want: "```hcl\nabc"},
		{name: "empty fence", input: "``````", want: "``````"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripFence(tt.input))
		})
	}
}

func TestTokenize(t *testing.T) {
	tokens := tokenize("// START_FILE: a.tf\nbody\n// END_FILE: a.tf")

	require.Len(t, tokens, 3)
	assert.Equal(t, tokenStart, tokens[0].kind)
	assert.Equal(t, "a.tf", tokens[0].name)
	assert.Equal(t, tokenContent, tokens[1].kind)
	assert.Equal(t, tokenEnd, tokens[2].kind)
	assert.Equal(t, "a.tf", tokens[2].name)
}

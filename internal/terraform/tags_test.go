package terraform

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagStore(t *testing.T) {
	t.Run("add trims and keeps insertion order", func(t *testing.T) {
		s := NewTagStore()
		require.NoError(t, s.Add("  env ", " prod "))
		require.NoError(t, s.Add("team", "platform"))

		assert.Equal(t, []Tag{{Key: "env", Value: "prod"}, {Key: "team", Value: "platform"}}, s.Tags())
	})

	t.Run("duplicate key is rejected without mutation", func(t *testing.T) {
		s := NewTagStore()
		require.NoError(t, s.Add("env", "prod"))

		err := s.Add("env ", "dev")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDuplicateTag))
		assert.Equal(t, []Tag{{Key: "env", Value: "prod"}}, s.Tags())
	})

	t.Run("key comparison is case-sensitive", func(t *testing.T) {
		s := NewTagStore()
		require.NoError(t, s.Add("env", "prod"))
		require.NoError(t, s.Add("Env", "dev"))
		assert.Equal(t, 2, s.Len())
	})

	t.Run("empty key or value is rejected", func(t *testing.T) {
		s := NewTagStore()
		for _, kv := range [][2]string{{"", "v"}, {"k", ""}, {"  ", "v"}, {"k", "\t"}} {
			err := s.Add(kv[0], kv[1])
			assert.ErrorIs(t, err, ErrEmptyTag)
		}
		assert.Equal(t, 0, s.Len())
	})

	t.Run("remove is exact and absent keys are a no-op", func(t *testing.T) {
		s := NewTagStore()
		require.NoError(t, s.Add("env", "prod"))
		require.NoError(t, s.Add("team", "core"))

		s.Remove("missing")
		s.Remove("ENV")
		assert.Equal(t, 2, s.Len())

		s.Remove("env")
		assert.Equal(t, []Tag{{Key: "team", Value: "core"}}, s.Tags())
	})

	t.Run("tags returns a copy", func(t *testing.T) {
		s := NewTagStore()
		require.NoError(t, s.Add("env", "prod"))

		tags := s.Tags()
		tags[0].Value = "changed"
		assert.Equal(t, "prod", s.Tags()[0].Value)
	})
}

func TestTagErrorMessage(t *testing.T) {
	s := NewTagStore()
	require.NoError(t, s.Add("env", "prod"))

	var tagErr *TagError
	require.ErrorAs(t, s.Add("env", "x"), &tagErr)
	assert.Equal(t, `A tag with key "env" already exists.`, tagErr.Message(ProviderAWS))
	assert.Equal(t, `A label with key "env" already exists.`, tagErr.Message(ProviderGCP))

	require.ErrorAs(t, s.Add("", "x"), &tagErr)
	assert.Equal(t, "Key and Value for tags cannot be empty.", tagErr.Message(ProviderAzure))
	assert.Equal(t, "Key and Value for labels cannot be empty.", tagErr.Message(ProviderGCP))
}

func TestSplitTagPair(t *testing.T) {
	tests := []struct {
		raw   string
		key   string
		value string
		ok    bool
	}{
		{raw: "env=prod", key: "env", value: "prod", ok: true},
		{raw: " owner : team-a ", key: "owner", value: "team-a", ok: true},
		{raw: "url=http://x", key: "url", value: "http://x", ok: true},
		{raw: "novalue", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			key, value, ok := SplitTagPair(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.value, value)
		})
	}
}

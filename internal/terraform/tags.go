package terraform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyTag     = errors.New("tag key and value must not be empty")
	ErrDuplicateTag = errors.New("tag key already exists")
)

type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TagError carries the offending key so callers can word the message
// with the provider's own noun.
type TagError struct {
	Key string
	Err error
}

func (e *TagError) Error() string {
	return fmt.Sprintf("%s: %q", e.Err, e.Key)
}

func (e *TagError) Unwrap() error {
	return e.Err
}

// Message renders the error the way the user sees it for provider p.
func (e *TagError) Message(p Provider) string {
	switch {
	case errors.Is(e.Err, ErrEmptyTag):
		return fmt.Sprintf("Key and Value for %s cannot be empty.", p.TagNoun())
	case errors.Is(e.Err, ErrDuplicateTag):
		return fmt.Sprintf("A %s with key %q already exists.", p.TagNounSingular(), e.Key)
	default:
		return e.Error()
	}
}

// TagStore is an insertion-ordered set of tags keyed by exact key.
// It is not safe for concurrent use; the owning workflow serializes access.
type TagStore struct {
	tags []Tag
}

func NewTagStore() *TagStore {
	return &TagStore{}
}

func (s *TagStore) Add(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if key == "" || value == "" {
		return &TagError{Key: key, Err: ErrEmptyTag}
	}
	for _, t := range s.tags {
		if t.Key == key {
			return &TagError{Key: key, Err: ErrDuplicateTag}
		}
	}

	s.tags = append(s.tags, Tag{Key: key, Value: value})
	return nil
}

func (s *TagStore) Remove(key string) {
	out := s.tags[:0]
	for _, t := range s.tags {
		if t.Key == key {
			continue
		}
		out = append(out, t)
	}
	s.tags = out
}

func (s *TagStore) Tags() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

func (s *TagStore) Len() int {
	return len(s.tags)
}

// SplitTagPair splits "key=value" or "key: value" on the first separator.
func SplitTagPair(raw string) (key, value string, ok bool) {
	idx := strings.IndexAny(raw, "=:")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(raw[:idx]), strings.TrimSpace(raw[idx+1:]), true
}

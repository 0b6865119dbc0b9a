package errors

import (
	"strings"
	"unicode"

	"github.com/matzehuels/storyboard/pkg/story"
)

// maxIDLength bounds node and branch IDs accepted from API requests.
const maxIDLength = 256

// ValidateID validates a node or branch ID taken from a request.
//
// The rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or surrounding whitespace
//   - Maximum length of 256 characters
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidInput, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "%s id contains invalid control characters", kind)
		}
	}
	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidInput, "%s id has leading or trailing whitespace", kind)
	}
	return nil
}

// ValidateNodeState parses a node state name.
func ValidateNodeState(s string) (story.NodeState, error) {
	state := story.NodeState(s)
	if !state.Valid() {
		names := make([]string, len(story.States))
		for i, st := range story.States {
			names[i] = string(st)
		}
		return "", New(ErrCodeInvalidNodeState, "invalid node state: %q (must be one of: %s)", s, strings.Join(names, ", "))
	}
	return state, nil
}

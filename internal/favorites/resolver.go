package favorites

import (
	"strconv"

	"github.com/starkeep/starkeep/internal/types"
)

// FormatRef encodes a log position as a message ref.
func FormatRef(position int) string {
	return strconv.Itoa(position)
}

// ParseRef decodes a string message ref into a log position.
func ParseRef(ref string) (int, bool) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Resolve looks up the message a ref points at in the given log. The second
// return is false when the ref does not parse or falls outside the log, which
// callers must treat as "message deleted", not as an error.
func Resolve(ref string, log []types.Message) (types.Message, bool) {
	n, ok := ParseRef(ref)
	if !ok || n >= len(log) {
		return types.Message{}, false
	}
	return log[n], true
}

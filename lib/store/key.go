package store

import (
	"fmt"
	"strings"
)

// KeySeparator joins base and scope of a storage key
const KeySeparator = "_"

// absentScope is the textual form of a missing scope, it never qualifies a key
const absentScope = "undefined"

// BuildKey returns base if scope is empty (or the literal "undefined"), otherwise base_scope.
func BuildKey(base, scope string) string {
	if scope == "" || scope == absentScope {
		return base
	}
	return base + KeySeparator + scope
}

// ValidateKeyParts checks base and scope of a scoped key operation.
// The base must not be empty, and neither part may contain the separator,
// otherwise two different (base, scope) pairs could map to the same storage key.
func ValidateKeyParts(base, scope string) error {
	if base == "" {
		return NewError(RetCInvalidKey, "base key must not be empty")
	}
	if strings.Contains(base, KeySeparator) {
		return NewError(RetCInvalidKey, fmt.Sprintf("base key %q must not contain %q", base, KeySeparator))
	}
	if strings.Contains(scope, KeySeparator) {
		return NewError(RetCInvalidKey, fmt.Sprintf("scope %q must not contain %q", scope, KeySeparator))
	}
	return nil
}

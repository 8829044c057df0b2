// Package sqlexec executes operator-supplied raw SQL behind the sql:execute
// permission. Classification is heuristic prefix inspection, not SQL
// analysis: the real safety boundary is the authorization gate in front of
// this package, plus a denylist against casual destructive mistakes.
package sqlexec

import (
	"fmt"
	"strings"

	"github.com/opsgate/opsgate/internal/shared"
)

// StatementKind is the read/write tag assigned to a raw statement by prefix
// inspection. It governs how the result is shaped, nothing more.
type StatementKind string

const (
	StatementRead  StatementKind = "read"
	StatementWrite StatementKind = "write"
)

// deniedPrefixes lists the destructive-schema verbs rejected outright. This
// is a prefix check against casual mistakes, not a security boundary against
// an adversary who already holds sql:execute.
var deniedPrefixes = []string{
	"drop table",
	"drop database",
	"truncate table",
	"alter table",
}

// Classify inspects a copy of the statement; the text that will actually be
// executed is never mutated here.
func Classify(raw string) (StatementKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return "", fmt.Errorf("%w: statement must not be empty", shared.ErrValidation)
	}
	for _, prefix := range deniedPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return "", fmt.Errorf("%w: statement blocked: %s", shared.ErrForbidden, prefix)
		}
	}
	if strings.HasPrefix(normalized, "select") {
		return StatementRead, nil
	}
	return StatementWrite, nil
}

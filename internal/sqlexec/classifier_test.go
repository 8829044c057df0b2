package sqlexec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsgate/opsgate/internal/shared"
)

func TestClassifyRead(t *testing.T) {
	for _, stmt := range []string{
		"SELECT * FROM users",
		"  select id from roles  ",
		"SeLeCt 1",
	} {
		kind, err := Classify(stmt)
		require.NoError(t, err, stmt)
		assert.Equal(t, StatementRead, kind, stmt)
	}
}

func TestClassifyWrite(t *testing.T) {
	for _, stmt := range []string{
		"UPDATE users SET role_name='USER' WHERE id=5",
		"insert into roles (name) values ('X')",
		"DELETE FROM users WHERE id = 9",
		"WITH t AS (SELECT 1) SELECT * FROM t", // not a select prefix; binary classifier, not a grammar
	} {
		kind, err := Classify(stmt)
		require.NoError(t, err, stmt)
		assert.Equal(t, StatementWrite, kind, stmt)
	}
}

func TestClassifyDenylist(t *testing.T) {
	cases := map[string]string{
		"DROP TABLE users;":            "drop table",
		"  drop database opsgate":      "drop database",
		"TRUNCATE TABLE audit_logs":    "truncate table",
		"Alter Table users ADD x text": "alter table",
	}
	for stmt, verb := range cases {
		_, err := Classify(stmt)
		require.Error(t, err, stmt)
		assert.True(t, errors.Is(err, shared.ErrForbidden), stmt)
		assert.Contains(t, err.Error(), verb, "message names the offending verb")
	}
}

func TestClassifyDenylistIsPrefixOnly(t *testing.T) {
	// Embedded verbs pass the prefix check; the permission gate is the
	// actual trust boundary.
	kind, err := Classify("SELECT 'drop table users'")
	require.NoError(t, err)
	assert.Equal(t, StatementRead, kind)
}

func TestClassifyEmpty(t *testing.T) {
	for _, stmt := range []string{"", "   ", "\n\t"} {
		_, err := Classify(stmt)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		assert.False(t, errors.Is(err, shared.ErrExecutionFailed), "empty input is rejected before the store")
	}
}

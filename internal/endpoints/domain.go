package endpoints

import "time"

// Definition is an operator-authored custom admin action: a path, a verb, a
// description and a query template. Definitions are inert configuration:
// nothing dispatches live requests through them.
type Definition struct {
	ID            int64
	Path          string
	Method        string
	Description   string
	QueryTemplate string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

package sqlexec

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/opsgate/opsgate/internal/observability"
	"github.com/opsgate/opsgate/internal/shared"
)

// Store is the narrow execution boundary the engine drives. Query returns the
// result's column names in result order alongside the rows; Exec returns the
// number of rows affected.
type Store interface {
	Query(ctx context.Context, sql string) (columns []string, rows []map[string]any, err error)
	Exec(ctx context.Context, sql string) (int64, error)
}

// Result wraps a successful execution. Kind records the classification so
// callers can render the two shapes differently. For reads, Columns preserves
// the result's column order (row maps alone cannot); for writes only Affected
// is meaningful.
type Result struct {
	Kind     StatementKind
	Columns  []string
	Rows     []map[string]any
	RowCount int
	Affected int64
}

// Engine classifies, filters and runs raw statements against the store.
type Engine struct {
	store   Store
	audit   *shared.AuditLogger
	metrics *observability.Metrics
}

// NewEngine constructs an Engine.
func NewEngine(store Store, audit *shared.AuditLogger, metrics *observability.Metrics) *Engine {
	return &Engine{store: store, audit: audit, metrics: metrics}
}

// Execute runs one raw statement. The original text is submitted verbatim:
// no rewriting, no parameter binding. A rejected statement never reaches the
// store. Store failures surface as a single ExecutionFailed outcome carrying
// the store's raw message; they are never retried.
func (e *Engine) Execute(ctx context.Context, raw string) (Result, error) {
	kind, err := Classify(raw)
	if err != nil {
		e.metrics.SQLStatement("rejected", "error")
		return Result{}, err
	}

	var result Result
	switch kind {
	case StatementRead:
		columns, rows, err := e.store.Query(ctx, raw)
		if err != nil {
			e.metrics.SQLStatement(string(kind), "error")
			return Result{}, fmt.Errorf("%w: %v", shared.ErrExecutionFailed, err)
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		result = Result{Kind: StatementRead, Columns: columns, Rows: rows, RowCount: len(rows)}
	default:
		affected, err := e.store.Exec(ctx, raw)
		if err != nil {
			e.metrics.SQLStatement(string(kind), "error")
			return Result{}, fmt.Errorf("%w: %v", shared.ErrExecutionFailed, err)
		}
		result = Result{Kind: StatementWrite, Affected: affected}
	}

	e.metrics.SQLStatement(string(kind), "ok")
	e.record(ctx, kind, result)
	return result, nil
}

func (e *Engine) record(ctx context.Context, kind StatementKind, result Result) {
	if e.audit == nil {
		return
	}
	var actor int64
	id := shared.IdentityFromContext(ctx)
	if id != nil {
		actor = id.ID
	}
	meta := map[string]any{"kind": string(kind)}
	if kind == StatementRead {
		meta["rows"] = result.RowCount
	} else {
		meta["affected"] = result.Affected
	}
	// Statement text is deliberately not persisted: it may contain secrets.
	e.audit.Write(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   "sql.execute",
		Entity:   "statement",
		EntityID: uuid.NewString(),
		Meta:     meta,
	})
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/projecthub/backend/domain"
)

// execer is satisfied by both *pgxpool.Pool and pgx.Tx so ledger inserts
// can join an aggregate save transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertProjectActivities(ctx context.Context, q execer, projectID string, entries []domain.ActivityEntry) error {
	const query = `
	INSERT INTO project_activities (id, project_id, type, performed_by, performed_by_snapshot, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
	`
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if _, err := q.Exec(ctx, query,
			entry.ID,
			projectID,
			string(entry.Type),
			entry.PerformedBy,
			marshalJSON(entry.Performer),
			marshalJSON(entry.Metadata),
			nullTime(entry.CreatedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

func insertTaskActivities(ctx context.Context, q execer, taskID, projectID string, entries []domain.ActivityEntry) error {
	const query = `
	INSERT INTO task_activities (id, task_id, project_id, type, performed_by, performed_by_snapshot, metadata, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
	`
	for _, entry := range entries {
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if _, err := q.Exec(ctx, query,
			entry.ID,
			taskID,
			projectID,
			string(entry.Type),
			entry.PerformedBy,
			marshalJSON(entry.Performer),
			marshalJSON(entry.Metadata),
			nullTime(entry.CreatedAt),
		); err != nil {
			return err
		}
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// listActivities reads a ledger table filtered by type set and createdAt
// range, newest or oldest first. table and ownerColumn are trusted
// compile-time constants, never user input.
func listActivities(ctx context.Context, q querier, table, ownerColumn, ownerID string, filter domain.ActivityFilter) ([]domain.ActivityEntry, int, error) {
	filter.Normalize()

	direction := "DESC"
	if filter.Sort == domain.ActivitySortAsc {
		direction = "ASC"
	}

	var types []string
	for _, t := range filter.Types {
		types = append(types, string(t))
	}

	countQuery := fmt.Sprintf(`
	SELECT COUNT(*)
	FROM %s
	WHERE %s = $1
	  AND ($2::text[] IS NULL OR type = ANY($2))
	  AND ($3::timestamptz IS NULL OR created_at >= $3)
	  AND ($4::timestamptz IS NULL OR created_at < $4)
	`, table, ownerColumn)

	var total int
	if err := q.QueryRow(ctx, countQuery, ownerID, types, nullTime(filter.From), nullTime(filter.To)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
	SELECT id, project_id, %s, type, performed_by, performed_by_snapshot, metadata, created_at
	FROM %s
	WHERE %s = $1
	  AND ($2::text[] IS NULL OR type = ANY($2))
	  AND ($3::timestamptz IS NULL OR created_at >= $3)
	  AND ($4::timestamptz IS NULL OR created_at < $4)
	ORDER BY created_at %s
	LIMIT $5 OFFSET $6
	`, taskIDExpr(table), table, ownerColumn, direction)

	rows, err := q.Query(ctx, query,
		ownerID,
		types,
		nullTime(filter.From),
		nullTime(filter.To),
		clampLimit(filter.Limit),
		pageOffset(filter.Page, filter.Limit),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []domain.ActivityEntry
	for rows.Next() {
		entry, err := scanActivity(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, total, rows.Err()
}

// taskIDExpr compensates for the project ledger not carrying a task_id
// column.
func taskIDExpr(table string) string {
	if table == "task_activities" {
		return "task_id"
	}
	return "''::text"
}

func scanActivity(row interface {
	Scan(dest ...interface{}) error
}) (*domain.ActivityEntry, error) {
	var entry domain.ActivityEntry
	var (
		typ      string
		snapshot []byte
		metadata []byte
	)

	if err := row.Scan(
		&entry.ID,
		&entry.ProjectID,
		&entry.TaskID,
		&typ,
		&entry.PerformedBy,
		&snapshot,
		&metadata,
		&entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	entry.Type = domain.ActivityType(typ)
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &entry.Performer); err != nil {
			return nil, fmt.Errorf("decode actor snapshot: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("decode activity metadata: %w", err)
		}
	}
	return &entry, nil
}

package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/todolab/internal/shared/domain"
	sharedDB "github.com/davicafu/todolab/internal/shared/infra/platform/db"
	sharedQuery "github.com/davicafu/todolab/internal/shared/infra/platform/query"
	sharedUtils "github.com/davicafu/todolab/internal/shared/infra/utils"
	todoDomain "github.com/davicafu/todolab/internal/todo/domain"
)

const todoColumns = "id, user_id, description, due_date, labels, is_completed, completed_at, priority, created_at"

var filterable = map[string]bool{
	"user_id":      true,
	"is_completed": true,
	"description":  true,
	"priority":     true,
}

// TodoRepo sirve a SQLite y Postgres; solo cambian los placeholders.
type TodoRepo struct {
	db      *sql.DB
	dialect sharedDB.Dialect
}

func NewTodoRepo(db *sql.DB, dialect sharedDB.Dialect) *TodoRepo {
	return &TodoRepo{db: db, dialect: dialect}
}

// ------------------ Escritura ------------------

func (r *TodoRepo) Insert(ctx context.Context, t *todoDomain.TodoItem) error {
	labels, err := json.Marshal(nonNil(t.Labels))
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	q := r.dialect.Rebind(`INSERT INTO todos (` + todoColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = sharedDB.Conn(ctx, r.db).ExecContext(ctx, q,
		t.ID.String(),
		t.UserID.String(),
		t.Description,
		sharedDB.FormatNullTime(t.DueDate),
		string(labels),
		t.IsCompleted,
		sharedDB.FormatNullTime(t.CompletedAt),
		int(t.Priority),
		sharedDB.FormatTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert todo: %w", err)
	}
	return nil
}

func (r *TodoRepo) Update(ctx context.Context, t *todoDomain.TodoItem) error {
	labels, err := json.Marshal(nonNil(t.Labels))
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	q := r.dialect.Rebind(`UPDATE todos
		SET description = ?, due_date = ?, labels = ?, is_completed = ?, completed_at = ?, priority = ?
		WHERE id = ?`)
	res, err := sharedDB.Conn(ctx, r.db).ExecContext(ctx, q,
		t.Description,
		sharedDB.FormatNullTime(t.DueDate),
		string(labels),
		t.IsCompleted,
		sharedDB.FormatNullTime(t.CompletedAt),
		int(t.Priority),
		t.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update todo: %w", err)
	}
	return expectOneRow(res)
}

func (r *TodoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := sharedDB.Conn(ctx, r.db).ExecContext(ctx, r.dialect.Rebind(`DELETE FROM todos WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("delete todo: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return todoDomain.ErrTodoNotFound
	}
	return nil
}

// ------------------ Lectura ------------------

func (r *TodoRepo) GetByID(ctx context.Context, id uuid.UUID) (*todoDomain.TodoItem, error) {
	q := r.dialect.Rebind(`SELECT ` + todoColumns + ` FROM todos WHERE id = ?`)
	t, err := scanTodo(sharedDB.Conn(ctx, r.db).QueryRowContext(ctx, q, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, todoDomain.ErrTodoNotFound
	}
	return t, err
}

func (r *TodoRepo) List(ctx context.Context, criteria sharedDomain.Criteria, page sharedQuery.OffsetPagination, sort sharedQuery.Sort) ([]*todoDomain.TodoItem, error) {
	where, args, err := sharedDB.WhereClause(criteria, filterable)
	if err != nil {
		return nil, err
	}
	field := sort.Field
	if !todoDomain.SortableFields[field] {
		field = "created_at"
	}
	page = page.Normalize()

	q := `SELECT ` + todoColumns + ` FROM todos` + where +
		fmt.Sprintf(" ORDER BY %s %s, id LIMIT ? OFFSET ?", field, sharedUtils.Ternary(sort.Desc, "DESC", "ASC"))
	args = append(args, page.Limit, page.Offset)

	rows, err := sharedDB.Conn(ctx, r.db).QueryContext(ctx, r.dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	defer rows.Close()

	todos := []*todoDomain.TodoItem{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTodo(row scanner) (*todoDomain.TodoItem, error) {
	var (
		t                             todoDomain.TodoItem
		id, userID, labels, createdAt string
		dueDate, completedAt          sql.NullString
		priority                      int
	)
	if err := row.Scan(&id, &userID, &t.Description, &dueDate, &labels, &t.IsCompleted, &completedAt, &priority, &createdAt); err != nil {
		return nil, err
	}

	var err error
	if t.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("todo id: %w", err)
	}
	if t.UserID, err = uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("todo user_id: %w", err)
	}
	if t.DueDate, err = sharedDB.ParseNullTime(dueDate); err != nil {
		return nil, err
	}
	if t.CompletedAt, err = sharedDB.ParseNullTime(completedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = sharedDB.ParseTime(createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labels), &t.Labels); err != nil {
		return nil, fmt.Errorf("todo labels: %w", err)
	}
	t.Priority = todoDomain.Priority(priority)
	return &t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ todoDomain.TodoRepository = (*TodoRepo)(nil)

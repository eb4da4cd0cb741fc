package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Task struct {
	ID           int64
	OwnerID      int64
	Title        string
	Description  sql.NullString
	AssigneeID   sql.NullInt64
	AssigneeName sql.NullString
	AttachmentID uuid.NullUUID
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskUpdate describes a partial update: nil pointers leave the column as is,
// Clear* flags reset the optional columns.
type TaskUpdate struct {
	Title           *string
	Description     *string
	AssigneeID      *int64
	AssigneeName    *string
	ClearAssignee   bool
	ClearAttachment bool
}

const taskColumns = `id, owner_id, title, description, assignee_id, assignee_name, attachment_id, created_at, updated_at`

func scanTask(row interface{ Scan(dest ...any) error }) (*Task, error) {
	t := &Task{}
	err := row.Scan(&t.ID, &t.OwnerID, &t.Title, &t.Description, &t.AssigneeID,
		&t.AssigneeName, &t.AttachmentID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (d *DB) CreateTask(ctx context.Context, t *Task) (int64, error) {
	if strings.TrimSpace(t.Title) == "" {
		return 0, ErrEmptyTitle
	}
	now := Now()
	res, err := d.SQL.ExecContext(ctx, `
        INSERT INTO tasks (owner_id, title, description, assignee_id, assignee_name, attachment_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, NULL, ?, ?)
    `, t.OwnerID, t.Title, t.Description, t.AssigneeID, t.AssigneeName, now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	t.ID = id
	return id, nil
}

// CreateTaskWithAttachment commits the task row and its attachment row
// atomically. The attachment row goes in first so the task's attachment_id
// never points at a missing row.
func (d *DB) CreateTaskWithAttachment(ctx context.Context, t *Task, a *Attachment) (int64, error) {
	if strings.TrimSpace(t.Title) == "" {
		return 0, ErrEmptyTitle
	}
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := Now()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO attachments (id, blob_ref, filename, task_id, created_at)
        VALUES (?, ?, ?, NULL, ?)
    `, a.ID, a.BlobRef, a.Filename, now); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `
        INSERT INTO tasks (owner_id, title, description, assignee_id, assignee_name, attachment_id, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, t.OwnerID, t.Title, t.Description, t.AssigneeID, t.AssigneeName, a.ID, now, now)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	if _, err := tx.ExecContext(ctx, `UPDATE attachments SET task_id=? WHERE id=?`, id, a.ID); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	t.ID = id
	t.AttachmentID = uuid.NullUUID{UUID: a.ID, Valid: true}
	a.TaskID = sql.NullInt64{Int64: id, Valid: true}
	return id, nil
}

func (d *DB) GetTask(ctx context.Context, id int64) (*Task, error) {
	row := d.SQL.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return t, err
}

func (d *DB) ListTasks(ctx context.Context, ownerID int64) ([]*Task, error) {
	rows, err := d.SQL.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE owner_id=? ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (d *DB) UpdateTask(ctx context.Context, id int64, upd TaskUpdate) (*Task, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		if strings.TrimSpace(*upd.Title) == "" {
			return nil, ErrEmptyTitle
		}
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = sql.NullString{String: *upd.Description, Valid: true}
	}
	if upd.AssigneeID != nil {
		t.AssigneeID = sql.NullInt64{Int64: *upd.AssigneeID, Valid: *upd.AssigneeID != 0}
	}
	if upd.AssigneeName != nil {
		t.AssigneeName = sql.NullString{String: *upd.AssigneeName, Valid: true}
	}
	if upd.ClearAssignee {
		t.AssigneeID = sql.NullInt64{}
		t.AssigneeName = sql.NullString{}
	}
	if upd.ClearAttachment {
		t.AttachmentID = uuid.NullUUID{}
	}
	t.UpdatedAt = Now()

	if _, err := tx.ExecContext(ctx, `
        UPDATE tasks SET title=?, description=?, assignee_id=?, assignee_name=?, attachment_id=?, updated_at=?
        WHERE id=?
    `, t.Title, t.Description, t.AssigneeID, t.AssigneeName, t.AttachmentID, t.UpdatedAt, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTask removes the task and its attachment row in one transaction.
// The returned blob ref (if any) belongs to the caller: the backing file
// must be removed from blob storage afterwards. Deleting a missing task
// is a no-op.
func (d *DB) DeleteTask(ctx context.Context, id int64) (uuid.NullUUID, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	defer tx.Rollback()

	var blob uuid.NullUUID
	row := tx.QueryRowContext(ctx, `
        SELECT a.blob_ref FROM attachments a
        JOIN tasks t ON t.attachment_id = a.id
        WHERE t.id=?
    `, id)
	if err := row.Scan(&blob); err != nil && err != sql.ErrNoRows {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE id=(SELECT attachment_id FROM tasks WHERE id=?)`, id); err != nil {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id=?`, id); err != nil {
		return uuid.NullUUID{}, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.NullUUID{}, err
	}
	return blob, nil
}

// ReplaceTaskAttachment attaches a new attachment row to the task, dropping
// the previous one if present. Returns the blob ref of the replaced
// attachment so the caller can clean up its file.
func (d *DB) ReplaceTaskAttachment(ctx context.Context, taskID int64, a *Attachment) (uuid.NullUUID, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, taskID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return uuid.NullUUID{}, ErrNotFound
	}
	if err != nil {
		return uuid.NullUUID{}, err
	}

	var old uuid.NullUUID
	if t.AttachmentID.Valid {
		r := tx.QueryRowContext(ctx, `SELECT blob_ref FROM attachments WHERE id=?`, t.AttachmentID.UUID)
		if err := r.Scan(&old); err != nil && err != sql.ErrNoRows {
			return uuid.NullUUID{}, err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE id=?`, t.AttachmentID.UUID); err != nil {
			return uuid.NullUUID{}, err
		}
	}

	now := Now()
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO attachments (id, blob_ref, filename, task_id, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, a.ID, a.BlobRef, a.Filename, taskID, now); err != nil {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET attachment_id=?, updated_at=? WHERE id=?`, a.ID, now, taskID); err != nil {
		return uuid.NullUUID{}, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.NullUUID{}, err
	}
	a.TaskID = sql.NullInt64{Int64: taskID, Valid: true}
	return old, nil
}

// RemoveTaskAttachment detaches and deletes the task's attachment row,
// returning its blob ref. No-op when the task has no attachment.
func (d *DB) RemoveTaskAttachment(ctx context.Context, taskID int64) (uuid.NullUUID, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id=?`, taskID)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return uuid.NullUUID{}, ErrNotFound
	}
	if err != nil {
		return uuid.NullUUID{}, err
	}
	if !t.AttachmentID.Valid {
		return uuid.NullUUID{}, tx.Commit()
	}

	var blob uuid.NullUUID
	r := tx.QueryRowContext(ctx, `SELECT blob_ref FROM attachments WHERE id=?`, t.AttachmentID.UUID)
	if err := r.Scan(&blob); err != nil && err != sql.ErrNoRows {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE id=?`, t.AttachmentID.UUID); err != nil {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET attachment_id=NULL, updated_at=? WHERE id=?`, Now(), taskID); err != nil {
		return uuid.NullUUID{}, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.NullUUID{}, err
	}
	return blob, nil
}

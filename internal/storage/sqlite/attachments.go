package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Attachment struct {
	ID        uuid.UUID
	BlobRef   uuid.UUID
	Filename  string
	TaskID    sql.NullInt64
	CreatedAt time.Time
}

func (d *DB) CreateAttachment(ctx context.Context, a *Attachment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = Now()
	_, err := d.SQL.ExecContext(ctx, `
        INSERT INTO attachments (id, blob_ref, filename, task_id, created_at)
        VALUES (?, ?, ?, ?, ?)
    `, a.ID, a.BlobRef, a.Filename, a.TaskID, a.CreatedAt)
	return err
}

func (d *DB) GetAttachment(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	row := d.SQL.QueryRowContext(ctx, `
        SELECT id, blob_ref, filename, task_id, created_at FROM attachments WHERE id=?
    `, id)
	a := &Attachment{}
	err := row.Scan(&a.ID, &a.BlobRef, &a.Filename, &a.TaskID, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteAttachment removes the metadata row and detaches it from its task.
// Returns the blob ref for file cleanup; deleting a missing attachment is
// a no-op.
func (d *DB) DeleteAttachment(ctx context.Context, id uuid.UUID) (uuid.NullUUID, error) {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	defer tx.Rollback()

	var blob uuid.NullUUID
	row := tx.QueryRowContext(ctx, `SELECT blob_ref FROM attachments WHERE id=?`, id)
	if err := row.Scan(&blob); err != nil {
		if err == sql.ErrNoRows {
			return uuid.NullUUID{}, nil
		}
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE tasks SET attachment_id=NULL WHERE attachment_id=?`, id); err != nil {
		return uuid.NullUUID{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE id=?`, id); err != nil {
		return uuid.NullUUID{}, err
	}
	if err := tx.Commit(); err != nil {
		return uuid.NullUUID{}, err
	}
	return blob, nil
}

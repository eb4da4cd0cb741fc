package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ryasnov/todo-bot/internal/storage/blob"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

// cursor is the pagination position round-tripped through nav button
// payloads: the window offset plus the ids of the messages already sent
// for this listing, so a page flip edits them instead of sending new ones.
type cursor struct {
	start int
	ids   []int
}

func parseCursor(s string) (cursor, error) {
	startStr, idsStr, ok := strings.Cut(s, ":")
	if !ok {
		return cursor{}, fmt.Errorf("malformed cursor %q", s)
	}
	start, err := strconv.Atoi(startStr)
	if err != nil || start < 0 {
		return cursor{}, fmt.Errorf("malformed cursor offset %q", startStr)
	}
	c := cursor{start: start}
	for _, p := range strings.Split(idsStr, ",") {
		id, err := strconv.Atoi(p)
		if err != nil {
			return cursor{}, fmt.Errorf("malformed cursor message id %q", p)
		}
		c.ids = append(c.ids, id)
	}
	return c, nil
}

func (c cursor) encode() string {
	parts := make([]string, len(c.ids))
	for i, id := range c.ids {
		parts[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("pg:%d:%s", c.start, strings.Join(parts, ","))
}

// renderTaskList sends the first page of the listing, or re-renders the
// window in place when a nav button supplied a cursor.
func (b *Bot) renderTaskList(ctx context.Context, chatID, ownerID int64, cur *cursor) error {
	tasks, err := b.db.ListTasks(ctx, ownerID)
	if err != nil {
		return err
	}
	if cur != nil {
		return b.redrawPage(ctx, chatID, *cur, tasks)
	}

	if len(tasks) == 0 {
		return b.send(ctx, chatID, emptyListAnswer())
	}
	if err := b.send(ctx, chatID, Outgoing{Text: fmt.Sprintf(msgTaskListCount, len(tasks))}); err != nil {
		return err
	}
	if len(tasks) <= b.pageSize {
		for _, t := range tasks {
			if err := b.send(ctx, chatID, taskItemAnswer(t)); err != nil {
				return err
			}
		}
		return nil
	}

	window := tasks[:b.pageSize]
	ids := make([]int, 0, len(window))
	for _, t := range window {
		id, err := b.tr.Send(ctx, chatID, taskItemAnswer(t))
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	// Nav payloads need every message id of the page, so the buttons can
	// only be attached once all messages are out: re-edit the last one.
	c := cursor{start: 0, ids: ids}
	out := taskItemAnswer(window[len(window)-1])
	out.Buttons = append(out.Buttons, b.navButtons(c, len(tasks))...)
	return b.tr.Edit(ctx, chatID, ids[len(ids)-1], out)
}

func (b *Bot) redrawPage(ctx context.Context, chatID int64, cur cursor, tasks []*sqlite.Task) error {
	if len(cur.ids) == 0 {
		return nil
	}
	start := cur.start
	if start > len(tasks) {
		start = len(tasks)
	}
	end := start + b.pageSize
	if end > len(tasks) {
		end = len(tasks)
	}
	window := tasks[start:end]

	for i, id := range cur.ids {
		var out Outgoing
		switch {
		case i < len(window):
			out = taskItemAnswer(window[i])
		case i == len(cur.ids)-1:
			out = Outgoing{Text: msgListEnd}
		default:
			out = Outgoing{Text: msgEmptyListSlot}
		}
		if i == len(cur.ids)-1 {
			out.Buttons = append(out.Buttons, b.navButtons(cur, len(tasks))...)
		}
		if err := b.tr.Edit(ctx, chatID, id, out); err != nil {
			return err
		}
	}
	return nil
}

// navButtons computes the prev/next row: prev is absent on the first page,
// next on the last. Labels carry 1-based item ranges.
func (b *Bot) navButtons(c cursor, total int) [][]Button {
	var row []Button
	if c.start >= b.pageSize {
		left := c.start - b.pageSize
		row = append(row, Button{
			Label: fmt.Sprintf(labelPagePrev, left+1, c.start),
			Data:  cursor{start: left, ids: c.ids}.encode(),
		})
	}
	if c.start+b.pageSize < total {
		left := c.start + b.pageSize
		right := left + b.pageSize
		if right > total {
			right = total
		}
		row = append(row, Button{
			Label: fmt.Sprintf(labelPageNext, left+1, right),
			Data:  cursor{start: left, ids: c.ids}.encode(),
		})
	}
	if len(row) == 0 {
		return nil
	}
	return [][]Button{row}
}

// expandTask renders the full task. With an attachment present the file is
// delivered through a placeholder message that is edited in place once the
// blob is read.
func (b *Bot) expandTask(ctx context.Context, chatID, id int64) error {
	t, err := b.db.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !t.AttachmentID.Valid {
		return b.send(ctx, chatID, fullTaskAnswer(t, taskActionButtons(t)))
	}

	if err := b.send(ctx, chatID, fullTaskAnswer(t, nil)); err != nil {
		return err
	}
	placeholder, err := b.tr.Send(ctx, chatID, Outgoing{Text: msgUploadingFile})
	if err != nil {
		return err
	}
	att, err := b.db.GetAttachment(ctx, t.AttachmentID.UUID)
	if err != nil {
		return err
	}
	rc, err := b.blobs.Open(att.BlobRef)
	if errors.Is(err, blob.ErrNotFound) {
		return b.tr.Edit(ctx, chatID, placeholder, Outgoing{Text: msgAttachmentLost, Buttons: taskActionButtons(t)})
	}
	if err != nil {
		return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", att.BlobRef, err)
	}
	return b.tr.Edit(ctx, chatID, placeholder, Outgoing{
		Document: &Document{Name: att.Filename, Data: data},
		Buttons:  taskActionButtons(t),
	})
}

package bot

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

func seedTasks(t *testing.T, b *Bot, ownerID int64, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		mustCreateTask(t, b, &sqlite.Task{OwnerID: ownerID, Title: fmt.Sprintf("Задача %d", i)})
	}
}

// navRow digs the prev/next row out of an edited message: it is always the
// last button row, and its payloads carry the pg: prefix.
func navRow(t *testing.T, out Outgoing) []Button {
	t.Helper()
	if len(out.Buttons) == 0 {
		t.Fatalf("expected buttons, got %+v", out)
	}
	row := out.Buttons[len(out.Buttons)-1]
	for _, btn := range row {
		if !strings.HasPrefix(btn.Data, "pg:") {
			t.Fatalf("expected a nav row, got %+v", row)
		}
	}
	return row
}

func TestListEmpty(t *testing.T) {
	b, tr, _ := newTestBot(t)
	b.HandleIncoming(context.Background(), cmdMsg(1, "tasks"))

	out := tr.lastSent(t)
	if out.Text != msgEmptyTaskList {
		t.Fatalf("expected empty-list answer, got %q", out.Text)
	}
	if len(out.Buttons) != 1 || out.Buttons[0][0].Data != dataCreateTask {
		t.Fatalf("expected the create button, got %+v", out.Buttons)
	}
}

func TestListSinglePage(t *testing.T) {
	b, tr, _ := newTestBot(t)
	seedTasks(t, b, 2, 2)

	b.HandleIncoming(context.Background(), cmdMsg(2, "tasks"))

	if len(tr.sent) != 3 {
		t.Fatalf("expected header plus 2 items, got %d messages", len(tr.sent))
	}
	if got := tr.sent[0].out.Text; got != fmt.Sprintf(msgTaskListCount, 2) {
		t.Fatalf("expected count header, got %q", got)
	}
	if len(tr.edits) != 0 {
		t.Fatalf("a single page needs no nav edit, got %+v", tr.edits)
	}
	for _, m := range tr.sent[1:] {
		if !strings.HasPrefix(m.out.Buttons[0][0].Data, "task:expand:") {
			t.Fatalf("expected an expand button, got %+v", m.out.Buttons)
		}
	}
}

func TestListFirstPageNav(t *testing.T) {
	b, tr, _ := newTestBot(t)
	seedTasks(t, b, 3, 5)

	b.HandleIncoming(context.Background(), cmdMsg(3, "tasks"))

	// Header plus one page of items; the nav row lands via an edit of the
	// last item once all message ids are known.
	if len(tr.sent) != 3 {
		t.Fatalf("expected 3 sends, got %d", len(tr.sent))
	}
	if len(tr.edits) != 1 {
		t.Fatalf("expected 1 nav edit, got %d", len(tr.edits))
	}
	lastItemID := tr.sent[2].id
	if tr.edits[0].id != lastItemID {
		t.Fatalf("nav must be attached to the last item %d, got %d", lastItemID, tr.edits[0].id)
	}

	row := navRow(t, tr.edits[0].out)
	if len(row) != 1 {
		t.Fatalf("first page has only the next button, got %+v", row)
	}
	if row[0].Label != fmt.Sprintf(labelPageNext, 3, 4) {
		t.Fatalf("unexpected next label %q", row[0].Label)
	}
	cur, err := parseCursor(strings.TrimPrefix(row[0].Data, "pg:"))
	if err != nil {
		t.Fatalf("parse cursor: %v", err)
	}
	if cur.start != 2 {
		t.Fatalf("expected cursor start 2, got %d", cur.start)
	}
	if len(cur.ids) != 2 || cur.ids[0] != tr.sent[1].id || cur.ids[1] != tr.sent[2].id {
		t.Fatalf("cursor must carry the page message ids, got %v", cur.ids)
	}
}

func TestListPageFlipEditsInPlace(t *testing.T) {
	b, tr, _ := newTestBot(t)
	seedTasks(t, b, 4, 5)
	ctx := context.Background()

	b.HandleIncoming(ctx, cmdMsg(4, "tasks"))
	next := navRow(t, tr.edits[0].out)[0]
	pageIDs := []int{tr.sent[1].id, tr.sent[2].id}

	// Middle page: both slots filled, prev and next present.
	tr.reset()
	b.HandleIncoming(ctx, buttonTap(4, next.Data))

	if len(tr.sent) != 0 {
		t.Fatalf("a page flip sends nothing new, got %+v", tr.sent)
	}
	if len(tr.edits) != 2 {
		t.Fatalf("expected both page messages edited, got %d", len(tr.edits))
	}
	for i, e := range tr.edits {
		if e.id != pageIDs[i] {
			t.Fatalf("edit %d targets %d, expected %d", i, e.id, pageIDs[i])
		}
	}
	if got := tr.edits[0].out.Text; !strings.Contains(got, "Задача 3") {
		t.Fatalf("expected third task in slot 0, got %q", got)
	}
	if got := tr.edits[1].out.Text; !strings.Contains(got, "Задача 4") {
		t.Fatalf("expected fourth task in slot 1, got %q", got)
	}
	row := navRow(t, tr.edits[1].out)
	if len(row) != 2 {
		t.Fatalf("middle page carries prev and next, got %+v", row)
	}
	if row[0].Label != fmt.Sprintf(labelPagePrev, 1, 2) || row[1].Label != fmt.Sprintf(labelPageNext, 5, 5) {
		t.Fatalf("unexpected nav labels %q / %q", row[0].Label, row[1].Label)
	}

	// Last page: one task left, the trailing slot closes the list.
	next = row[1]
	tr.reset()
	b.HandleIncoming(ctx, buttonTap(4, next.Data))

	if len(tr.edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(tr.edits))
	}
	if got := tr.edits[0].out.Text; !strings.Contains(got, "Задача 5") {
		t.Fatalf("expected fifth task, got %q", got)
	}
	if got := tr.edits[1].out.Text; got != msgListEnd {
		t.Fatalf("expected list end marker, got %q", got)
	}
	row = navRow(t, tr.edits[1].out)
	if len(row) != 1 || row[0].Label != fmt.Sprintf(labelPagePrev, 3, 4) {
		t.Fatalf("last page carries only prev, got %+v", row)
	}

	// And back through the middle page to the first one: no prev there.
	prev := row[0]
	tr.reset()
	b.HandleIncoming(ctx, buttonTap(4, prev.Data))
	prev = navRow(t, tr.edits[1].out)[0]
	tr.reset()
	b.HandleIncoming(ctx, buttonTap(4, prev.Data))

	row = navRow(t, tr.edits[1].out)
	if len(row) != 1 || row[0].Label != fmt.Sprintf(labelPageNext, 3, 4) {
		t.Fatalf("first page carries only next, got %+v", row)
	}
}

func TestExpandPlainTask(t *testing.T) {
	b, tr, _ := newTestBot(t)
	ctx := context.Background()

	id := mustCreateTask(t, b, &sqlite.Task{OwnerID: 5, Title: "Без файла"})
	b.HandleIncoming(ctx, buttonTap(5, fmt.Sprintf("task:expand:%d", id)))

	if len(tr.sent) != 1 {
		t.Fatalf("expected a single message, got %d", len(tr.sent))
	}
	out := tr.sent[0].out
	if !strings.Contains(out.Text, "Без файла") || !strings.Contains(out.Text, noAttachmentPlaceholder) {
		t.Fatalf("unexpected full view %q", out.Text)
	}
	if len(out.Buttons) != 1 || len(out.Buttons[0]) != 2 {
		t.Fatalf("expected edit and delete buttons, got %+v", out.Buttons)
	}
}

func TestExpandWithAttachment(t *testing.T) {
	b, tr, _ := newTestBot(t)
	ctx := context.Background()

	body := []byte("file body")
	ref := mustAttachBlob(t, b, body)
	att := &sqlite.Attachment{ID: uuid.New(), BlobRef: ref, Filename: "report.pdf"}
	id, err := b.db.CreateTaskWithAttachment(ctx, &sqlite.Task{OwnerID: 6, Title: "С файлом"}, att)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b.HandleIncoming(ctx, buttonTap(6, fmt.Sprintf("task:expand:%d", id)))

	// Full view first, then a placeholder that morphs into the document.
	if len(tr.sent) != 2 {
		t.Fatalf("expected full view and placeholder, got %d messages", len(tr.sent))
	}
	if len(tr.sent[0].out.Buttons) != 0 {
		t.Fatalf("full view carries no buttons when a file follows, got %+v", tr.sent[0].out.Buttons)
	}
	if got := tr.sent[1].out.Text; got != msgUploadingFile {
		t.Fatalf("expected placeholder, got %q", got)
	}

	if len(tr.edits) != 1 || tr.edits[0].id != tr.sent[1].id {
		t.Fatalf("expected the placeholder edited in place, got %+v", tr.edits)
	}
	doc := tr.edits[0].out.Document
	if doc == nil || doc.Name != "report.pdf" || !bytes.Equal(doc.Data, body) {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(tr.edits[0].out.Buttons) != 1 {
		t.Fatalf("expected action buttons on the document, got %+v", tr.edits[0].out.Buttons)
	}
}

func TestExpandLostBlob(t *testing.T) {
	b, tr, _ := newTestBot(t)
	ctx := context.Background()

	att := &sqlite.Attachment{ID: uuid.New(), BlobRef: uuid.New(), Filename: "ghost.pdf"}
	id, err := b.db.CreateTaskWithAttachment(ctx, &sqlite.Task{OwnerID: 7, Title: "Потеря"}, att)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	b.HandleIncoming(ctx, buttonTap(7, fmt.Sprintf("task:expand:%d", id)))

	if len(tr.edits) != 1 {
		t.Fatalf("expected the placeholder edited, got %+v", tr.edits)
	}
	if got := tr.edits[0].out.Text; got != msgAttachmentLost {
		t.Fatalf("expected lost-attachment notice, got %q", got)
	}
}

func TestMenuCreateButtonStartsDialog(t *testing.T) {
	b, tr, sessions := newTestBot(t)
	ctx := context.Background()

	b.HandleIncoming(ctx, cmdMsg(8, "tasks"))
	b.HandleIncoming(ctx, buttonTap(8, dataCreateTask))

	if got := tr.lastSent(t).Text; got != msgInputTitle {
		t.Fatalf("expected title prompt, got %q", got)
	}
	state, _ := loadDraft(t, sessions, 8)
	if state != stateTitle {
		t.Fatalf("expected creation dialog open, got %q", state)
	}
}

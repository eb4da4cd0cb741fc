package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

// handleTaskAction serves the hidden, button-only operations. Task lookups
// may hit a stale button whose task is long gone; ErrNotFound propagates to
// the top-level handler which answers with a friendly message.
func (b *Bot) handleTaskAction(ctx context.Context, in *Incoming, action string, id int64) error {
	switch action {
	case "expand":
		return b.expandTask(ctx, in.ChatID, id)
	case "edit":
		t, err := b.db.GetTask(ctx, id)
		if err != nil {
			return err
		}
		return b.send(ctx, in.ChatID, editMenuAnswer(t))
	case "edit_title":
		return b.enterEditState(ctx, in, stateEditTitle, id, msgEditTitle)
	case "edit_description":
		return b.enterEditState(ctx, in, stateEditDescription, id, msgEditDescription)
	case "edit_mention":
		return b.toggleMention(ctx, in, id)
	case "edit_attachment":
		return b.toggleAttachment(ctx, in, id)
	case "delete":
		blobRef, err := b.db.DeleteTask(ctx, id)
		if err != nil {
			return err
		}
		b.removeBlob(blobRef)
		return b.send(ctx, in.ChatID, banner(msgTaskDeleted))
	}
	return nil
}

func (b *Bot) enterEditState(ctx context.Context, in *Incoming, state string, taskID int64, prompt string) error {
	if _, err := b.db.GetTask(ctx, taskID); err != nil {
		return err
	}
	key := sessionKey(in.UserID)
	b.discardStaged(ctx, key)
	if err := b.sessions.Save(ctx, key, state, &Draft{TaskID: taskID}); err != nil {
		return err
	}
	return b.send(ctx, in.ChatID, dialogPrompt(prompt, false))
}

// toggleMention: the edit-menu button either starts the add-mention dialog
// or, when a mention is already set, removes it right away.
func (b *Bot) toggleMention(ctx context.Context, in *Incoming, taskID int64) error {
	t, err := b.db.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !t.AssigneeName.Valid {
		return b.enterEditState(ctx, in, stateEditMention, taskID, msgEditMention)
	}
	t, err = b.db.UpdateTask(ctx, taskID, sqlite.TaskUpdate{ClearAssignee: true})
	if err != nil {
		return err
	}
	if err := b.send(ctx, in.ChatID, Outgoing{Text: msgMentionDeleted}); err != nil {
		return err
	}
	return b.send(ctx, in.ChatID, editMenuAnswer(t))
}

func (b *Bot) toggleAttachment(ctx context.Context, in *Incoming, taskID int64) error {
	t, err := b.db.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !t.AttachmentID.Valid {
		return b.enterEditState(ctx, in, stateEditAttachment, taskID, msgEditAttachment)
	}
	blobRef, err := b.db.RemoveTaskAttachment(ctx, taskID)
	if err != nil {
		return err
	}
	b.removeBlob(blobRef)
	t, err = b.db.GetTask(ctx, taskID)
	if err != nil {
		return err
	}
	if err := b.send(ctx, in.ChatID, Outgoing{Text: msgAttachmentDeleted}); err != nil {
		return err
	}
	return b.send(ctx, in.ChatID, editMenuAnswer(t))
}

// Edit flow states: one valid input finishes the dialog.

func (b *Bot) waitEditTitle(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	title := strings.TrimSpace(in.Text)
	if title == "" {
		return cont(stateEditTitle), b.send(ctx, in.ChatID, dialogPrompt(msgTitleRequired, false))
	}
	t, err := b.db.UpdateTask(ctx, d.TaskID, sqlite.TaskUpdate{Title: &title})
	if err != nil {
		return step{}, err
	}
	return finish, b.sendEditResult(ctx, in.ChatID, msgTitleEdited, t)
}

func (b *Bot) waitEditDescription(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return cont(stateEditDescription), b.send(ctx, in.ChatID, dialogPrompt(msgDescriptionRequired, false))
	}
	t, err := b.db.UpdateTask(ctx, d.TaskID, sqlite.TaskUpdate{Description: &text})
	if err != nil {
		return step{}, err
	}
	return finish, b.sendEditResult(ctx, in.ChatID, msgDescriptionEdited, t)
}

func (b *Bot) waitEditMention(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	if len(in.Mentions) != 1 {
		return cont(stateEditMention), b.send(ctx, in.ChatID, dialogPrompt(msgMentionValidation, false))
	}
	m := in.Mentions[0]
	t, err := b.db.UpdateTask(ctx, d.TaskID, sqlite.TaskUpdate{
		AssigneeID:   &m.UserID,
		AssigneeName: &m.Label,
	})
	if err != nil {
		return step{}, err
	}
	return finish, b.sendEditResult(ctx, in.ChatID, msgMentionAdded, t)
}

func (b *Bot) waitEditAttachment(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	if in.File == nil {
		return cont(stateEditAttachment), b.send(ctx, in.ChatID, dialogPrompt(msgFileRequired, false))
	}
	if !supportedFile(in.File.Name) {
		return cont(stateEditAttachment), b.send(ctx, in.ChatID, dialogPrompt(msgFileNotSupported, false))
	}
	ref, err := b.stageFile(ctx, in.File)
	if err != nil {
		return step{}, err
	}
	att := &sqlite.Attachment{ID: uuid.New(), BlobRef: ref, Filename: in.File.Name}
	old, err := b.db.ReplaceTaskAttachment(ctx, d.TaskID, att)
	if err != nil {
		b.removeBlob(uuid.NullUUID{UUID: ref, Valid: true})
		return step{}, err
	}
	b.removeBlob(old)
	t, err := b.db.GetTask(ctx, d.TaskID)
	if err != nil {
		return step{}, err
	}
	return finish, b.sendEditResult(ctx, in.ChatID, msgAttachmentAdded, t)
}

func (b *Bot) sendEditResult(ctx context.Context, chatID int64, text string, t *sqlite.Task) error {
	if err := b.send(ctx, chatID, banner(text)); err != nil {
		return err
	}
	return b.send(ctx, chatID, editMenuAnswer(t))
}

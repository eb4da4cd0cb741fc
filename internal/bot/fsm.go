package bot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/ryasnov/todo-bot/internal/session"
	"github.com/ryasnov/todo-bot/internal/storage/blob"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

// dispatchDialog routes a plain message (or an fsm:* button tap) to the
// handler of the user's current state. Cancel is cross-cutting and checked
// before any state handler runs.
func (b *Bot) dispatchDialog(ctx context.Context, in *Incoming) error {
	key := sessionKey(in.UserID)
	var d Draft
	state, err := b.sessions.Load(ctx, key, &d)
	if errors.Is(err, session.ErrNoSession) {
		if in.Callback != nil {
			return nil // button from a finished dialog
		}
		if in.Forwarded && strings.TrimSpace(in.Text) != "" {
			return b.startForwardDialog(ctx, in)
		}
		return b.send(ctx, in.ChatID, Outgoing{Text: msgDefault})
	}
	if err != nil {
		return err
	}

	if isCancel(in) {
		return b.cancelDialog(ctx, in.ChatID, key, &d)
	}

	h, ok := b.handlers[state]
	if !ok {
		if err := b.sessions.Clear(ctx, key); err != nil {
			return err
		}
		return b.send(ctx, in.ChatID, banner(msgSomethingWentWrong))
	}
	res, err := h(ctx, in, &d)
	if err != nil {
		return err
	}
	if res.done {
		return b.sessions.Clear(ctx, key)
	}
	return b.sessions.Save(ctx, key, res.next, &d)
}

func (b *Bot) cancelDialog(ctx context.Context, chatID int64, key string, d *Draft) error {
	b.removeBlob(d.BlobRef)
	if err := b.sessions.Clear(ctx, key); err != nil {
		return err
	}
	return b.send(ctx, chatID, banner(msgDialogCancelled))
}

func (b *Bot) removeBlob(ref uuid.NullUUID) {
	if !ref.Valid {
		return
	}
	if err := b.blobs.Remove(ref.UUID); err != nil && !errors.Is(err, blob.ErrNotFound) {
		log.Printf("remove blob %s: %v", ref.UUID, err)
	}
}

func (b *Bot) startForwardDialog(ctx context.Context, in *Incoming) error {
	d := Draft{ForwardText: strings.TrimSpace(in.Text)}
	if err := b.sessions.Save(ctx, sessionKey(in.UserID), stateForwardDecision, &d); err != nil {
		return err
	}
	return b.send(ctx, in.ChatID, yesNoAnswer(msgForwardDecision))
}

// Creation flow.

func (b *Bot) waitTitle(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	title := strings.TrimSpace(in.Text)
	if title == "" {
		return cont(stateTitle), b.send(ctx, in.ChatID, dialogPrompt(msgTitleRequired, false))
	}
	d.Title = title
	// A forward saved as description joins the flow past the description step.
	if d.Description != "" {
		return cont(stateMention), b.send(ctx, in.ChatID, dialogPrompt(msgInputMention, true))
	}
	return cont(stateDescription), b.send(ctx, in.ChatID, dialogPrompt(msgInputDescription, true))
}

func (b *Bot) waitDescription(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	if !isSkip(in) {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return cont(stateDescription), b.send(ctx, in.ChatID, dialogPrompt(msgDescriptionRequired, true))
		}
		d.Description = text
	}
	return cont(stateMention), b.send(ctx, in.ChatID, dialogPrompt(msgInputMention, true))
}

func (b *Bot) waitMention(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	if !isSkip(in) {
		if len(in.Mentions) != 1 {
			return cont(stateMention), b.send(ctx, in.ChatID, dialogPrompt(msgMentionValidation, true))
		}
		d.AssigneeID = in.Mentions[0].UserID
		d.AssigneeName = in.Mentions[0].Label
	}
	return cont(stateAttachment), b.send(ctx, in.ChatID, dialogPrompt(msgInputAttachment, true))
}

func (b *Bot) waitAttachment(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	if !isSkip(in) {
		if in.File == nil {
			return cont(stateAttachment), b.send(ctx, in.ChatID, dialogPrompt(msgFileRequired, true))
		}
		if !supportedFile(in.File.Name) {
			return cont(stateAttachment), b.send(ctx, in.ChatID, dialogPrompt(msgFileNotSupported, true))
		}
		ref, err := b.stageFile(ctx, in.File)
		if err != nil {
			return step{}, err
		}
		d.BlobRef = uuid.NullUUID{UUID: ref, Valid: true}
		d.Filename = in.File.Name
	}
	if err := b.send(ctx, in.ChatID, Outgoing{Text: msgCheckingData}); err != nil {
		return step{}, err
	}
	return cont(stateApprove), b.send(ctx, in.ChatID, draftPreviewAnswer(d))
}

func (b *Bot) waitApprove(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	switch {
	case isYes(in):
		if err := b.commitDraft(ctx, in.UserID, d); err != nil {
			return step{}, err
		}
		return finish, b.send(ctx, in.ChatID, banner(msgTaskCreated))
	case isNo(in):
		b.removeBlob(d.BlobRef)
		*d = Draft{}
		return cont(stateTitle), b.send(ctx, in.ChatID, dialogPrompt(msgInputTitle, false))
	default:
		if err := b.send(ctx, in.ChatID, Outgoing{Text: msgReCheckingData}); err != nil {
			return step{}, err
		}
		return cont(stateApprove), b.send(ctx, in.ChatID, draftPreviewAnswer(d))
	}
}

// Forward-message side entry.

func (b *Bot) waitForwardDecision(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	switch {
	case isYes(in):
		return cont(stateForwardTarget), b.send(ctx, in.ChatID, forwardTargetAnswer())
	case isNo(in):
		return finish, b.send(ctx, in.ChatID, banner(msgCreationCancelled))
	default:
		if err := b.send(ctx, in.ChatID, Outgoing{Text: msgAnswerWithBtns}); err != nil {
			return step{}, err
		}
		return cont(stateForwardDecision), b.send(ctx, in.ChatID, yesNoAnswer(msgForwardDecision))
	}
}

func (b *Bot) waitForwardTarget(ctx context.Context, in *Incoming, d *Draft) (step, error) {
	switch in.data() {
	case dataAsTitle:
		d.Title = d.ForwardText
		d.ForwardText = ""
		return cont(stateDescription), b.send(ctx, in.ChatID, dialogPrompt(msgInputDescription, true))
	case dataAsDescription:
		d.Description = d.ForwardText
		d.ForwardText = ""
		return cont(stateTitle), b.send(ctx, in.ChatID, dialogPrompt(msgInputTitle, false))
	default:
		if err := b.send(ctx, in.ChatID, Outgoing{Text: msgAnswerWithBtns}); err != nil {
			return step{}, err
		}
		return cont(stateForwardTarget), b.send(ctx, in.ChatID, forwardTargetAnswer())
	}
}

// stageFile downloads the inbound file into blob storage. The DB row is
// created only at commit time; until then the draft alone references the
// blob.
func (b *Bot) stageFile(ctx context.Context, f *File) (uuid.UUID, error) {
	rc, err := f.Open(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("fetch attachment: %w", err)
	}
	defer rc.Close()
	ref, err := b.blobs.Save(rc)
	if err != nil {
		return uuid.Nil, fmt.Errorf("stage attachment: %w", err)
	}
	return ref, nil
}

func (b *Bot) commitDraft(ctx context.Context, ownerID int64, d *Draft) error {
	t := &sqlite.Task{
		OwnerID: ownerID,
		Title:   d.Title,
	}
	if d.Description != "" {
		t.Description = sql.NullString{String: d.Description, Valid: true}
	}
	if d.AssigneeName != "" {
		t.AssigneeName = sql.NullString{String: d.AssigneeName, Valid: true}
		t.AssigneeID = sql.NullInt64{Int64: d.AssigneeID, Valid: d.AssigneeID != 0}
	}
	if d.BlobRef.Valid {
		att := &sqlite.Attachment{
			ID:       uuid.New(),
			BlobRef:  d.BlobRef.UUID,
			Filename: d.Filename,
		}
		_, err := b.db.CreateTaskWithAttachment(ctx, t, att)
		return err
	}
	_, err := b.db.CreateTask(ctx, t)
	return err
}

// Input predicates. Buttons answer with fsm:* payloads; the same words
// typed by hand are accepted too.

func isCancel(in *Incoming) bool {
	if in.data() == dataCancel || in.Command == "cancel" {
		return true
	}
	t := strings.TrimSpace(in.Text)
	return strings.EqualFold(t, labelCancel) || strings.EqualFold(t, "Отмена")
}

func isSkip(in *Incoming) bool {
	return in.data() == dataSkip || strings.EqualFold(strings.TrimSpace(in.Text), labelSkip)
}

func isYes(in *Incoming) bool {
	t := strings.TrimSpace(in.Text)
	return in.data() == dataYes || strings.EqualFold(t, labelYes) || strings.EqualFold(t, "yes")
}

func isNo(in *Incoming) bool {
	t := strings.TrimSpace(in.Text)
	return in.data() == dataNo || strings.EqualFold(t, labelNo) || strings.EqualFold(t, "no")
}

// Package bot implements the dialog core: command routing, the creation and
// editing state machines, and the paginated task list.
package bot

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/ryasnov/todo-bot/internal/session"
	"github.com/ryasnov/todo-bot/internal/storage/blob"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

type Bot struct {
	tr       Transport
	db       *sqlite.DB
	blobs    *blob.Storage
	sessions session.Store
	pageSize int
	handlers map[string]handlerFunc
}

type handlerFunc func(ctx context.Context, in *Incoming, d *Draft) (step, error)

func New(tr Transport, db *sqlite.DB, blobs *blob.Storage, sessions session.Store, pageSize int) *Bot {
	if pageSize <= 0 {
		pageSize = 2
	}
	b := &Bot{tr: tr, db: db, blobs: blobs, sessions: sessions, pageSize: pageSize}
	b.handlers = map[string]handlerFunc{
		stateTitle:       b.waitTitle,
		stateDescription: b.waitDescription,
		stateMention:     b.waitMention,
		stateAttachment:  b.waitAttachment,
		stateApprove:     b.waitApprove,

		stateForwardDecision: b.waitForwardDecision,
		stateForwardTarget:   b.waitForwardTarget,

		stateEditTitle:       b.waitEditTitle,
		stateEditDescription: b.waitEditDescription,
		stateEditMention:     b.waitEditMention,
		stateEditAttachment:  b.waitEditAttachment,
	}
	return b
}

// HandleIncoming is the top-level entry point for one chat event. Errors
// from handlers end up here: logged, and turned into a service message
// without leaking internals.
func (b *Bot) HandleIncoming(ctx context.Context, in *Incoming) {
	if in.Callback != nil {
		if err := b.tr.AnswerCallback(ctx, in.Callback.ID, ""); err != nil {
			log.Printf("answer callback for user %d: %v", in.UserID, err)
		}
	}
	if err := b.handle(ctx, in); err != nil {
		log.Printf("handle event from user %d: %v", in.UserID, err)
		out := banner(msgSomethingWentWrong)
		if errors.Is(err, sqlite.ErrNotFound) || errors.Is(err, blob.ErrNotFound) {
			out = banner(msgTaskGone)
			if cerr := b.sessions.Clear(ctx, sessionKey(in.UserID)); cerr != nil {
				log.Printf("clear session for user %d: %v", in.UserID, cerr)
			}
		}
		if err := b.send(ctx, in.ChatID, out); err != nil {
			log.Printf("notify chat %d: %v", in.ChatID, err)
		}
	}
}

func (b *Bot) handle(ctx context.Context, in *Incoming) error {
	switch in.Command {
	case "create":
		return b.startCreation(ctx, in)
	case "cancel":
		return b.cancelCommand(ctx, in)
	case "start", "help", "tasks":
		// An open dialog swallows every message, commands included.
		if b.hasSession(ctx, in.UserID) {
			return b.dispatchDialog(ctx, in)
		}
		switch in.Command {
		case "start":
			return b.send(ctx, in.ChatID, Outgoing{Text: msgStart})
		case "help":
			return b.send(ctx, in.ChatID, Outgoing{Text: msgHelp})
		case "tasks":
			return b.renderTaskList(ctx, in.ChatID, in.UserID, nil)
		}
	case "":
	default:
		if b.hasSession(ctx, in.UserID) {
			return b.dispatchDialog(ctx, in)
		}
		return b.send(ctx, in.ChatID, Outgoing{Text: msgDefault})
	}

	if data := in.data(); data != "" && !strings.HasPrefix(data, "fsm:") {
		return b.handleCallbackData(ctx, in, data)
	}
	return b.dispatchDialog(ctx, in)
}

func (b *Bot) handleCallbackData(ctx context.Context, in *Incoming, data string) error {
	if data == dataCreateTask {
		return b.startCreation(ctx, in)
	}
	if rest, ok := strings.CutPrefix(data, "pg:"); ok {
		cur, err := parseCursor(rest)
		if err != nil {
			return nil // malformed payload, nothing to do
		}
		return b.renderTaskList(ctx, in.ChatID, in.UserID, &cur)
	}
	if rest, ok := strings.CutPrefix(data, "task:"); ok {
		action, idStr, ok := strings.Cut(rest, ":")
		if !ok {
			return nil
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return nil
		}
		return b.handleTaskAction(ctx, in, action, id)
	}
	return nil
}

// startCreation opens a fresh creation dialog. An already-open dialog is
// silently dropped, staged blob included.
func (b *Bot) startCreation(ctx context.Context, in *Incoming) error {
	key := sessionKey(in.UserID)
	b.discardStaged(ctx, key)
	if err := b.sessions.Save(ctx, key, stateTitle, &Draft{}); err != nil {
		return err
	}
	return b.send(ctx, in.ChatID, dialogPrompt(msgInputTitle, false))
}

func (b *Bot) cancelCommand(ctx context.Context, in *Incoming) error {
	key := sessionKey(in.UserID)
	var d Draft
	if _, err := b.sessions.Load(ctx, key, &d); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			return b.send(ctx, in.ChatID, banner(msgDialogCancelled))
		}
		return err
	}
	return b.cancelDialog(ctx, in.ChatID, key, &d)
}

func (b *Bot) hasSession(ctx context.Context, userID int64) bool {
	_, err := b.sessions.Load(ctx, sessionKey(userID), nil)
	return err == nil
}

// discardStaged removes a staged-but-uncommitted blob left in an open draft.
func (b *Bot) discardStaged(ctx context.Context, key string) {
	var d Draft
	if _, err := b.sessions.Load(ctx, key, &d); err != nil {
		return
	}
	b.removeBlob(d.BlobRef)
}

func (b *Bot) send(ctx context.Context, chatID int64, out Outgoing) error {
	_, err := b.tr.Send(ctx, chatID, out)
	return err
}

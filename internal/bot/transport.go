package bot

import (
	"context"
	"io"
)

// Button is one inline button: a label plus the callback payload it sends
// back when tapped.
type Button struct {
	Label string
	Data  string
}

type Document struct {
	Name string
	Data []byte
}

// Outgoing is a platform-independent message to send or edit.
type Outgoing struct {
	Text           string
	Buttons        [][]Button
	Keyboard       [][]string
	RemoveKeyboard bool
	Document       *Document
}

// Transport is the messaging platform as the bot consumes it: send returns
// an identifier usable for later in-place edits.
type Transport interface {
	Send(ctx context.Context, chatID int64, out Outgoing) (int, error)
	Edit(ctx context.Context, chatID int64, messageID int, out Outgoing) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

type Mention struct {
	UserID int64
	Label  string
}

// File is an inbound attachment; Open fetches the payload from the platform.
type File struct {
	Name string
	Open func(ctx context.Context) (io.ReadCloser, error)
}

type Callback struct {
	ID        string
	Data      string
	MessageID int
}

// Incoming is one inbound chat event, either a message or a button tap.
type Incoming struct {
	ChatID      int64
	UserID      int64
	Text        string
	Command     string
	CommandArgs string
	Mentions    []Mention
	File        *File
	Forwarded   bool
	Callback    *Callback
}

func (in *Incoming) data() string {
	if in.Callback != nil {
		return in.Callback.Data
	}
	return ""
}

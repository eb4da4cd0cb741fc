package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"testing"

	"github.com/ryasnov/todo-bot/internal/session"
	"github.com/ryasnov/todo-bot/internal/storage/blob"
	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

// fakeTransport records everything the bot sends or edits.

type sentMessage struct {
	chatID int64
	id     int
	out    Outgoing
}

type editedMessage struct {
	chatID int64
	id     int
	out    Outgoing
}

type fakeTransport struct {
	nextID int
	sent   []sentMessage
	edits  []editedMessage
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, out Outgoing) (int, error) {
	f.nextID++
	f.sent = append(f.sent, sentMessage{chatID: chatID, id: f.nextID, out: out})
	return f.nextID, nil
}

func (f *fakeTransport) Edit(_ context.Context, chatID int64, messageID int, out Outgoing) error {
	f.edits = append(f.edits, editedMessage{chatID: chatID, id: messageID, out: out})
	return nil
}

func (f *fakeTransport) AnswerCallback(context.Context, string, string) error { return nil }

func (f *fakeTransport) lastSent(t *testing.T) Outgoing {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return f.sent[len(f.sent)-1].out
}

func (f *fakeTransport) reset() {
	f.sent = nil
	f.edits = nil
}

// memSessions is an in-memory session.Store for tests.

type memRecord struct {
	state   string
	payload []byte
}

type memSessions struct {
	m map[string]memRecord
}

func newMemSessions() *memSessions {
	return &memSessions{m: map[string]memRecord{}}
}

func (s *memSessions) Save(_ context.Context, key, state string, payload any) error {
	rec := memRecord{state: state}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		rec.payload = b
	}
	s.m[key] = rec
	return nil
}

func (s *memSessions) Load(_ context.Context, key string, dst any) (string, error) {
	rec, ok := s.m[key]
	if !ok {
		return "", session.ErrNoSession
	}
	if dst != nil && len(rec.payload) > 0 {
		if err := json.Unmarshal(rec.payload, dst); err != nil {
			return "", err
		}
	}
	return rec.state, nil
}

func (s *memSessions) Clear(_ context.Context, key string) error {
	delete(s.m, key)
	return nil
}

func newTestBot(t *testing.T) (*Bot, *fakeTransport, *memSessions) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.SQL.Close() })
	blobs, err := blob.New(t.TempDir())
	if err != nil {
		t.Fatalf("open blob storage: %v", err)
	}
	tr := &fakeTransport{}
	sessions := newMemSessions()
	return New(tr, db, blobs, sessions, 2), tr, sessions
}

// Incoming constructors.

func textMsg(userID int64, text string) *Incoming {
	return &Incoming{ChatID: userID, UserID: userID, Text: text}
}

func cmdMsg(userID int64, cmd string) *Incoming {
	return &Incoming{ChatID: userID, UserID: userID, Text: "/" + cmd, Command: cmd}
}

func buttonTap(userID int64, data string) *Incoming {
	return &Incoming{
		ChatID:   userID,
		UserID:   userID,
		Callback: &Callback{ID: "cb", Data: data},
	}
}

func fileMsg(userID int64, name string, data []byte) *Incoming {
	return &Incoming{
		ChatID: userID,
		UserID: userID,
		File: &File{
			Name: name,
			Open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		},
	}
}

func mentionMsg(userID int64, mentions ...Mention) *Incoming {
	in := textMsg(userID, "для коллеги")
	in.Mentions = mentions
	return in
}

func loadDraft(t *testing.T, sessions *memSessions, userID int64) (string, Draft) {
	t.Helper()
	var d Draft
	state, err := sessions.Load(context.Background(), sessionKey(userID), &d)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	return state, d
}

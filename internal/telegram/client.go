// Package telegram adapts the Telegram Bot API to the transport the dialog
// core consumes.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/ryasnov/todo-bot/internal/bot"
)

type Client struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

func New(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	api.Debug = false
	return &Client{
		api:  api,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

// RegisterCommands publishes the visible command surface; the rest of the
// operations stay button-only.
func (c *Client) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "create", Description: "Создать новую задачу"},
		tgbotapi.BotCommand{Command: "tasks", Description: "Все мои задачи"},
		tgbotapi.BotCommand{Command: "help", Description: "Справка по командам"},
	)
	_, err := c.api.Request(cfg)
	return err
}

func (c *Client) Send(ctx context.Context, chatID int64, out bot.Outgoing) (int, error) {
	if out.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: out.Document.Name, Bytes: out.Document.Data})
		doc.Caption = out.Text
		if markup := inlineMarkup(out.Buttons); markup != nil {
			doc.ReplyMarkup = markup
		}
		msg, err := c.api.Send(doc)
		if err != nil {
			return 0, err
		}
		return msg.MessageID, nil
	}

	msg := tgbotapi.NewMessage(chatID, out.Text)
	// Telegram allows a single markup per message: inline buttons win over
	// the reply keyboard, which persists from earlier prompts anyway.
	switch {
	case len(out.Buttons) > 0:
		msg.ReplyMarkup = inlineMarkup(out.Buttons)
	case len(out.Keyboard) > 0:
		msg.ReplyMarkup = replyKeyboard(out.Keyboard)
	case out.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, out bot.Outgoing) error {
	if out.Document != nil {
		// Telegram cannot turn a text message into a media one; emulate
		// the in-place edit with delete + send.
		if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
			return err
		}
		_, err := c.Send(ctx, chatID, out)
		return err
	}
	if markup := inlineMarkup(out.Buttons); markup != nil {
		_, err := c.api.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, out.Text, *markup))
		return err
	}
	_, err := c.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, out.Text))
	return err
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	_, err := c.api.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

// Run consumes the long-poll update stream, converting each update into a
// transport-independent event. One goroutine per update, like for like with
// Telegram's per-chat serial delivery.
func (c *Client) Run(ctx context.Context, handle func(context.Context, *bot.Incoming)) error {
	upd := tgbotapi.NewUpdate(0)
	upd.Timeout = 30
	updates := c.api.GetUpdatesChan(upd)
	for {
		select {
		case <-ctx.Done():
			c.api.StopReceivingUpdates()
			return ctx.Err()
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			in := c.convert(&u)
			if in == nil {
				continue
			}
			go handle(ctx, in)
		}
	}
}

func (c *Client) convert(u *tgbotapi.Update) *bot.Incoming {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return c.fromMessage(u.Message)
	case u.CallbackQuery != nil && u.CallbackQuery.Message != nil:
		cq := u.CallbackQuery
		return &bot.Incoming{
			ChatID: cq.Message.Chat.ID,
			UserID: cq.From.ID,
			Callback: &bot.Callback{
				ID:        cq.ID,
				Data:      cq.Data,
				MessageID: cq.Message.MessageID,
			},
		}
	}
	return nil
}

func (c *Client) fromMessage(m *tgbotapi.Message) *bot.Incoming {
	in := &bot.Incoming{
		ChatID:    m.Chat.ID,
		UserID:    m.From.ID,
		Text:      m.Text,
		Forwarded: m.ForwardDate != 0,
	}
	entities := m.Entities
	if in.Text == "" {
		in.Text = m.Caption
		entities = m.CaptionEntities
	}
	if m.IsCommand() {
		in.Command = m.Command()
		in.CommandArgs = m.CommandArguments()
	}
	for _, e := range entities {
		switch e.Type {
		case "text_mention":
			if e.User != nil {
				in.Mentions = append(in.Mentions, bot.Mention{
					UserID: e.User.ID,
					Label:  userLabel(e.User),
				})
			}
		case "mention":
			in.Mentions = append(in.Mentions, bot.Mention{Label: entityText(in.Text, e)})
		}
	}
	if m.Document != nil {
		fileID := m.Document.FileID
		in.File = &bot.File{
			Name: m.Document.FileName,
			Open: func(ctx context.Context) (io.ReadCloser, error) {
				return c.downloadFile(ctx, fileID)
			},
		}
	}
	return in
}

func (c *Client) downloadFile(ctx context.Context, fileID string) (io.ReadCloser, error) {
	f, err := c.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.Link(c.api.Token), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

func inlineMarkup(buttons [][]bot.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, row := range buttons {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		rows = append(rows, btns)
	}
	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

func replyKeyboard(keyboard [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, row := range keyboard {
		btns := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			btns = append(btns, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, btns)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func userLabel(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	if u.UserName != "" {
		return "@" + u.UserName
	}
	return fmt.Sprintf("user-%d", u.ID)
}

// entityText slices the entity's span out of the message text. Telegram
// entity offsets count UTF-16 code units.
func entityText(text string, e tgbotapi.MessageEntity) string {
	u := utf16.Encode([]rune(text))
	if e.Offset < 0 || e.Offset+e.Length > len(u) {
		return ""
	}
	return string(utf16.Decode(u[e.Offset : e.Offset+e.Length]))
}

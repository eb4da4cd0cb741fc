package bot

import (
	"fmt"
	"strings"

	"github.com/ryasnov/todo-bot/internal/storage/sqlite"
)

// Answer builders: pure Outgoing constructors, no I/O.

const previewLimit = 80

var cancelKeyboard = [][]string{{labelCancel}}

// dialogPrompt renders an in-dialog prompt. The cancel keyboard is always
// attached; the skip button only where skipping is legal.
func dialogPrompt(text string, allowSkip bool) Outgoing {
	out := Outgoing{Text: text, Keyboard: cancelKeyboard}
	if allowSkip {
		out.Buttons = [][]Button{{{Label: labelSkip, Data: dataSkip}}}
	}
	return out
}

func banner(text string) Outgoing {
	return Outgoing{Text: text, RemoveKeyboard: true}
}

func yesNoAnswer(text string) Outgoing {
	return Outgoing{
		Text: text,
		Buttons: [][]Button{{
			{Label: labelYes, Data: dataYes},
			{Label: labelNo, Data: dataNo},
		}},
		Keyboard: cancelKeyboard,
	}
}

func forwardTargetAnswer() Outgoing {
	return Outgoing{
		Text: msgForwardTarget,
		Buttons: [][]Button{{
			{Label: labelAsTitle, Data: dataAsTitle},
			{Label: labelAsDescription, Data: dataAsDescription},
		}},
		Keyboard: cancelKeyboard,
	}
}

func draftPreviewAnswer(d *Draft) Outgoing {
	contact := noContactPlaceholder
	if d.AssigneeName != "" {
		contact = d.AssigneeName
	}
	attachment := noAttachmentPlaceholder
	if d.BlobRef.Valid {
		attachment = d.Filename
	}
	out := yesNoAnswer(taskCard(d.Title, d.Description, contact, attachment))
	return out
}

func taskCard(title, description, contact, attachment string) string {
	if description == "" {
		description = "-"
	}
	return fmt.Sprintf("Название: %s\nОписание: %s\nКонтакт: %s\nВложение: %s",
		title, description, contact, attachment)
}

func taskContact(t *sqlite.Task) string {
	if t.AssigneeName.Valid {
		return t.AssigneeName.String
	}
	return noContactPlaceholder
}

// taskItemAnswer is one list entry: truncated preview plus the expand button.
func taskItemAnswer(t *sqlite.Task) Outgoing {
	text := fmt.Sprintf("• %s", t.Title)
	if t.Description.Valid && t.Description.String != "" {
		text += "\n" + truncate(t.Description.String, previewLimit)
	}
	return Outgoing{
		Text: text,
		Buttons: [][]Button{{
			{Label: labelExpand, Data: fmt.Sprintf("task:expand:%d", t.ID)},
		}},
	}
}

func taskActionButtons(t *sqlite.Task) [][]Button {
	return [][]Button{{
		{Label: labelEdit, Data: fmt.Sprintf("task:edit:%d", t.ID)},
		{Label: labelDelete, Data: fmt.Sprintf("task:delete:%d", t.ID)},
	}}
}

func fullTaskAnswer(t *sqlite.Task, buttons [][]Button) Outgoing {
	attachment := noAttachmentPlaceholder
	if t.AttachmentID.Valid {
		attachment = "ниже 📎"
	}
	description := ""
	if t.Description.Valid {
		description = t.Description.String
	}
	return Outgoing{
		Text:    taskCard(t.Title, description, taskContact(t), attachment),
		Buttons: buttons,
	}
}

func editMenuAnswer(t *sqlite.Task) Outgoing {
	mentionLabel := labelAddMention
	if t.AssigneeName.Valid {
		mentionLabel = labelDeleteMention
	}
	attachmentLabel := labelAddAttachment
	if t.AttachmentID.Valid {
		attachmentLabel = labelDeleteAttachment
	}
	return Outgoing{
		Text: msgEditMenu,
		Buttons: [][]Button{
			{
				{Label: labelEditTitle, Data: fmt.Sprintf("task:edit_title:%d", t.ID)},
				{Label: labelEditDescription, Data: fmt.Sprintf("task:edit_description:%d", t.ID)},
			},
			{
				{Label: mentionLabel, Data: fmt.Sprintf("task:edit_mention:%d", t.ID)},
				{Label: attachmentLabel, Data: fmt.Sprintf("task:edit_attachment:%d", t.ID)},
			},
		},
	}
}

func emptyListAnswer() Outgoing {
	return Outgoing{
		Text:    msgEmptyTaskList,
		Buttons: [][]Button{{{Label: labelCreateTask, Data: dataCreateTask}}},
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit])) + "…"
}

func supportedFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

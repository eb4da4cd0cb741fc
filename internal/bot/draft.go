package bot

import (
	"fmt"

	"github.com/google/uuid"
)

// Dialog states. Creation walks the create_* chain in order; edit_* states
// are entered directly from the edit menu and finish after one valid input.
const (
	stateTitle       = "create_title"
	stateDescription = "create_description"
	stateMention     = "create_mention"
	stateAttachment  = "create_attachment"
	stateApprove     = "create_approve"

	stateForwardDecision = "forward_decision"
	stateForwardTarget   = "forward_target"

	stateEditTitle       = "edit_title"
	stateEditDescription = "edit_description"
	stateEditMention     = "edit_mention"
	stateEditAttachment  = "edit_attachment"
)

// Draft is the in-progress dialog data. It lives in the session store for
// the lifetime of one dialog and never reaches the task DB directly.
type Draft struct {
	Title        string        `json:"title,omitempty"`
	Description  string        `json:"description,omitempty"`
	AssigneeID   int64         `json:"assignee_id,omitempty"`
	AssigneeName string        `json:"assignee_name,omitempty"`
	BlobRef      uuid.NullUUID `json:"blob_ref,omitempty"`
	Filename     string        `json:"filename,omitempty"`
	ForwardText  string        `json:"forward_text,omitempty"`

	// TaskID is set only in edit_* states.
	TaskID int64 `json:"task_id,omitempty"`
}

func sessionKey(userID int64) string {
	return fmt.Sprintf("fsm:%d", userID)
}

// step is a handler's transition decision: either continue in `next` or
// finish the dialog.
type step struct {
	next string
	done bool
}

func cont(next string) step {
	return step{next: next}
}

var finish = step{done: true}

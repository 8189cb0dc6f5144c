package session

import (
	"encoding/json"
	"fmt"
)

// Intent is a user action. Only the reducer interprets it.
type Intent interface {
	Name() string
}

// RecordDraft stores an answer without grading it. Empty answers are ignored.
type RecordDraft struct {
	QuestionID int
	Answer     json.RawMessage
}

// CheckAnswer grades one question and emits a single record with no attempt key.
// A non-empty Answer is recorded as a draft first.
type CheckAnswer struct {
	QuestionID int
	Answer     json.RawMessage
}

// NavigateTo moves the cursor, saving Answer for the question being left.
type NavigateTo struct {
	Index  int
	Answer json.RawMessage
}

type RequestHint struct{ QuestionID int }

// SaveProgress emits one record per question under a fresh attempt key.
type SaveProgress struct{}

// FinishPractice grades every answered question and emits the full attempt.
type FinishPractice struct{}

// StartNewAttempt clears all answers.
type StartNewAttempt struct{}

func (RecordDraft) Name() string     { return "record_draft" }
func (CheckAnswer) Name() string     { return "check_answer" }
func (NavigateTo) Name() string      { return "navigate" }
func (RequestHint) Name() string     { return "hint" }
func (SaveProgress) Name() string    { return "save_progress" }
func (FinishPractice) Name() string  { return "finish" }
func (StartNewAttempt) Name() string { return "start_new_attempt" }

type envelope struct {
	Type       string          `json:"type"`
	QuestionID int             `json:"question_id"`
	Index      int             `json:"index"`
	Answer     json.RawMessage `json:"answer"`
}

// DecodeIntent parses {"type": "...", ...} as sent by clients.
func DecodeIntent(b []byte) (Intent, error) {
	var e envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownIntent, err)
	}
	switch e.Type {
	case "record_draft":
		return RecordDraft{QuestionID: e.QuestionID, Answer: e.Answer}, nil
	case "check_answer":
		return CheckAnswer{QuestionID: e.QuestionID, Answer: e.Answer}, nil
	case "navigate":
		return NavigateTo{Index: e.Index, Answer: e.Answer}, nil
	case "hint":
		return RequestHint{QuestionID: e.QuestionID}, nil
	case "save_progress":
		return SaveProgress{}, nil
	case "finish":
		return FinishPractice{}, nil
	case "start_new_attempt":
		return StartNewAttempt{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, e.Type)
	}
}

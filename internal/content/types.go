package content

import "strings"

const (
	MinGrade = 1
	MaxGrade = 12

	// QuestionCount is the number of multiple-choice questions per Content.
	QuestionCount = 3

	// OptionCount is the number of options per question, labelled A-D.
	OptionCount = 4
)

// OptionLetters labels options by position.
var OptionLetters = []string{"A", "B", "C", "D"}

// Request is the immutable input to a generation: a grade and a topic.
type Request struct {
	Grade int    `json:"grade"`
	Topic string `json:"topic"`
}

// Validate rejects grades outside 1-12 and blank topics.
func (r Request) Validate() error {
	if r.Grade < MinGrade || r.Grade > MaxGrade {
		return &InvalidInputError{
			Field:   "grade",
			Message: "grade must be between 1 and 12",
		}
	}
	if strings.TrimSpace(r.Topic) == "" {
		return &InvalidInputError{
			Field:   "topic",
			Message: "topic must not be empty",
		}
	}
	return nil
}

// Question is a single multiple-choice question.
type Question struct {
	// Question is the prompt shown to the learner.
	Question string `json:"question"`

	// Options holds exactly 4 options, usually prefixed "A. ", "B. " etc.
	Options []string `json:"options"`

	// Answer is the correct option letter, one of A, B, C, D.
	Answer string `json:"answer"`
}

// AnswerIndex returns the position of the correct option, or -1 when the
// answer letter is not one of A-D.
func (q Question) AnswerIndex() int {
	for i, l := range OptionLetters {
		if q.Answer == l {
			return i
		}
	}
	return -1
}

// Content is an explanation plus its question set.
type Content struct {
	Explanation string     `json:"explanation"`
	Questions   []Question `json:"mcqs"`
}

// Status is the reviewer's binary judgment.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// Verdict is the reviewer's judgment of a Content.
type Verdict struct {
	Status   Status   `json:"status"`
	Feedback []string `json:"feedback"`
}

// Passed reports whether the content passed review.
func (v Verdict) Passed() bool {
	return v.Status == StatusPass
}

// Actionable reports whether the verdict warrants a refinement pass: the
// content failed and the reviewer said what to fix.
func (v Verdict) Actionable() bool {
	return v.Status == StatusFail && len(v.Feedback) > 0
}

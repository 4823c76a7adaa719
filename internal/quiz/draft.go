package quiz

import (
	"errors"
	"fmt"
	"strings"
)

const (
	defaultDraftTimeLimit = 5
	minDraftQuestions     = 1
	minDraftOptions       = 2
)

var ErrInvalidQuiz = errors.New("invalid quiz")

// ValidationError lists every rule the draft breaks.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid quiz: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuiz
}

type DraftOption struct {
	Text      string
	IsCorrect bool
}

type DraftQuestion struct {
	Text        string
	Explanation string
	Points      int
	Options     []DraftOption
}

// Draft is the quiz authoring form.
type Draft struct {
	Title            string
	Description      string
	TimeLimitMinutes int
	Questions        []DraftQuestion
}

func NewDraft() Draft {
	return Draft{
		TimeLimitMinutes: defaultDraftTimeLimit,
		Questions:        []DraftQuestion{newDraftQuestion()},
	}
}

func newDraftQuestion() DraftQuestion {
	return DraftQuestion{
		Points: 1,
		Options: []DraftOption{
			{IsCorrect: false},
			{IsCorrect: true},
		},
	}
}

func (d *Draft) Reset() {
	*d = NewDraft()
}

func (d *Draft) AddQuestion() int {
	d.Questions = append(d.Questions, newDraftQuestion())
	return len(d.Questions) - 1
}

// RemoveQuestion reports false when the index is out of range or the draft
// would be left without questions.
func (d *Draft) RemoveQuestion(index int) bool {
	if index < 0 || index >= len(d.Questions) || len(d.Questions) <= minDraftQuestions {
		return false
	}
	d.Questions = append(d.Questions[:index], d.Questions[index+1:]...)
	return true
}

func (d *Draft) AddOption(questionIndex int) bool {
	if questionIndex < 0 || questionIndex >= len(d.Questions) {
		return false
	}
	d.Questions[questionIndex].Options = append(d.Questions[questionIndex].Options, DraftOption{})
	return true
}

func (d *Draft) RemoveOption(questionIndex, optionIndex int) bool {
	if questionIndex < 0 || questionIndex >= len(d.Questions) {
		return false
	}
	options := d.Questions[questionIndex].Options
	if optionIndex < 0 || optionIndex >= len(options) || len(options) <= minDraftOptions {
		return false
	}
	d.Questions[questionIndex].Options = append(options[:optionIndex], options[optionIndex+1:]...)
	return true
}

func (d Draft) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Title) == "" {
		problems = append(problems, "title is required")
	}
	if d.TimeLimitMinutes < 1 {
		problems = append(problems, "time limit must be at least 1 minute")
	}
	if len(d.Questions) == 0 {
		problems = append(problems, "at least one question is required")
	}

	for idx, question := range d.Questions {
		number := idx + 1
		if strings.TrimSpace(question.Text) == "" {
			problems = append(problems, fmt.Sprintf("question %d: text is required", number))
		}
		if question.Points < 1 {
			problems = append(problems, fmt.Sprintf("question %d: points must be at least 1", number))
		}

		hasText := false
		hasCorrect := false
		for _, option := range question.Options {
			if strings.TrimSpace(option.Text) != "" {
				hasText = true
			}
			if option.IsCorrect {
				hasCorrect = true
			}
		}
		if !hasText {
			problems = append(problems, fmt.Sprintf("question %d: at least one option needs text", number))
		}
		if !hasCorrect {
			problems = append(problems, fmt.Sprintf("question %d: mark at least one option correct", number))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (d Draft) IsValid() bool {
	return d.Validate() == nil
}

// Request converts the draft into the creation payload, dropping options
// whose text is blank.
func (d Draft) Request() CreateQuizRequest {
	request := CreateQuizRequest{
		Title:            d.Title,
		Description:      d.Description,
		TimeLimitMinutes: d.TimeLimitMinutes,
		Questions:        make([]CreateQuestionRequest, 0, len(d.Questions)),
	}

	for _, question := range d.Questions {
		item := CreateQuestionRequest{
			Text:        question.Text,
			Explanation: question.Explanation,
			Points:      question.Points,
			Options:     make([]CreateOptionRequest, 0, len(question.Options)),
		}
		for _, option := range question.Options {
			if strings.TrimSpace(option.Text) == "" {
				continue
			}
			item.Options = append(item.Options, CreateOptionRequest{
				Text:      option.Text,
				IsCorrect: option.IsCorrect,
			})
		}
		request.Questions = append(request.Questions, item)
	}

	return request
}

// Clone deep-copies the draft so snapshots never alias the live form.
func (d Draft) Clone() Draft {
	clone := d
	clone.Questions = make([]DraftQuestion, len(d.Questions))
	for idx, question := range d.Questions {
		question.Options = append([]DraftOption(nil), question.Options...)
		clone.Questions[idx] = question
	}
	return clone
}

package mock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-client/internal/quiz"
)

const (
	defaultQuestionsPerQuiz = 10
	defaultBankCategory     = "Programming"
	minGeneratedBankSize    = 10
	generatedBankSizeSpread = 20
	defaultBankQuizMinutes  = 10
)

func seedBanks(now time.Time) []QuestionBank {
	day := 24 * time.Hour
	return []QuestionBank{
		{
			ID:                 1,
			Name:               "Programming Basics",
			Description:        "Core programming questions",
			Category:           "Programming",
			Tags:               "python, basics, algorithms",
			IsPublic:           true,
			RandomizeQuestions: true,
			QuestionsPerQuiz:   10,
			CreatedAt:          now,
			QuestionCount:      25,
		},
		{
			ID:                 2,
			Name:               "Web Development",
			Description:        "HTML, CSS and JavaScript questions",
			Category:           "Web Development",
			Tags:               "html, css, javascript, web",
			RandomizeQuestions: true,
			RandomizeOptions:   true,
			QuestionsPerQuiz:   15,
			CreatedAt:          now.Add(-3 * day),
			QuestionCount:      30,
		},
		{
			ID:                 3,
			Name:               "Databases",
			Description:        "SQL and database questions",
			Category:           "Databases",
			Tags:               "sql, database, mysql, postgresql",
			IsPublic:           true,
			RandomizeQuestions: true,
			RandomizeOptions:   true,
			QuestionsPerQuiz:   12,
			CreatedAt:          now.Add(-5 * day),
			QuestionCount:      40,
		},
	}
}

// categoryQuestions stands in for real bank contents: generation draws from
// these tables, never from the bank's stored questions.
var categoryQuestions = map[string][]quiz.CreateQuestionRequest{
	"Programming": {
		{
			Text:        "What is a variable in programming?",
			Explanation: "A variable is a named memory location that stores data.",
			Points:      2,
			Options: []quiz.CreateOptionRequest{
				{Text: "A container for data that can change", IsCorrect: true},
				{Text: "A constant value that cannot change"},
				{Text: "A function that prints data"},
				{Text: "A data type in Python"},
			},
		},
		{
			Text:        "Which programming language is interpreted?",
			Explanation: "Python, JavaScript and PHP are interpreted languages.",
			Points:      3,
			Options: []quiz.CreateOptionRequest{
				{Text: "Python", IsCorrect: true},
				{Text: "C++"},
				{Text: "Java"},
				{Text: "All of the above"},
			},
		},
	},
	"Web Development": {
		{
			Text:        "What does HTML stand for?",
			Explanation: "HTML is the HyperText Markup Language.",
			Points:      2,
			Options: []quiz.CreateOptionRequest{
				{Text: "HyperText Markup Language", IsCorrect: true},
				{Text: "Hyper Transfer Markup Language"},
				{Text: "High Tech Modern Language"},
				{Text: "Hyper Tool Markup Language"},
			},
		},
		{
			Text:        "Which HTML tag creates a link?",
			Explanation: "The <a> tag creates hyperlinks.",
			Points:      2,
			Options: []quiz.CreateOptionRequest{
				{Text: "<a>", IsCorrect: true},
				{Text: "<link>"},
				{Text: "<href>"},
				{Text: "<url>"},
			},
		},
	},
	"Databases": {
		{
			Text:        "What is SQL?",
			Explanation: "SQL is the Structured Query Language.",
			Points:      2,
			Options: []quiz.CreateOptionRequest{
				{Text: "A language for working with databases", IsCorrect: true},
				{Text: "A database management system"},
				{Text: "A type of database"},
				{Text: "A general purpose programming language"},
			},
		},
		{
			Text:        "Which SQL statement retrieves data?",
			Explanation: "SELECT reads rows from tables.",
			Points:      2,
			Options: []quiz.CreateOptionRequest{
				{Text: "SELECT", IsCorrect: true},
				{Text: "GET"},
				{Text: "FIND"},
				{Text: "QUERY"},
			},
		},
	},
}

// QuestionBanks lists user-created banks first, newest first, followed by the
// seeded ones.
func (s *LocalService) QuestionBanks(ctx context.Context) ([]QuestionBank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadBanksLocked(ctx); err != nil {
		return nil, err
	}
	return append([]QuestionBank(nil), s.banks...), nil
}

func (s *LocalService) QuestionBank(ctx context.Context, id int) (QuestionBank, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadBanksLocked(ctx); err != nil {
		return QuestionBank{}, err
	}
	return s.findBankLocked(id)
}

func (s *LocalService) findBankLocked(id int) (QuestionBank, error) {
	for _, bank := range s.banks {
		if bank.ID == id {
			return bank, nil
		}
	}
	return QuestionBank{}, fmt.Errorf("%w: %d", ErrBankNotFound, id)
}

func (s *LocalService) CreateQuestionBank(ctx context.Context, draft BankDraft) (QuestionBank, error) {
	if strings.TrimSpace(draft.Name) == "" {
		return QuestionBank{}, fmt.Errorf("%w: name is required", ErrInvalidBank)
	}
	if draft.QuestionsPerQuiz < 1 {
		return QuestionBank{}, fmt.Errorf("%w: questions per quiz must be at least 1", ErrInvalidBank)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadBanksLocked(ctx); err != nil {
		return QuestionBank{}, err
	}

	nextID := 1
	for _, bank := range s.banks {
		if bank.ID >= nextID {
			nextID = bank.ID + 1
		}
	}

	bank := QuestionBank{
		ID:                 nextID,
		Name:               strings.TrimSpace(draft.Name),
		Description:        draft.Description,
		Category:           draft.Category,
		Tags:               draft.Tags,
		IsPublic:           draft.IsPublic,
		RandomizeQuestions: draft.RandomizeQuestions,
		RandomizeOptions:   draft.RandomizeOptions,
		QuestionsPerQuiz:   draft.QuestionsPerQuiz,
		CreatedAt:          s.now().UTC(),
		QuestionCount:      minGeneratedBankSize + s.rng.Intn(generatedBankSizeSpread),
	}

	if s.store != nil {
		if err := s.store.SaveQuestionBank(ctx, bank); err != nil {
			return QuestionBank{}, err
		}
	}
	s.banks = append([]QuestionBank{bank}, s.banks...)
	return bank, nil
}

// DefaultQuizFromBank is what the generation dialog is pre-filled with.
func DefaultQuizFromBank(bank QuestionBank) QuizFromBank {
	return QuizFromBank{
		Title:            bank.Name + " - Quiz",
		Description:      fmt.Sprintf("Automatically generated quiz from bank %q", bank.Name),
		TimeLimitMinutes: defaultBankQuizMinutes,
		IsActive:         true,
	}
}

// GenerateQuiz builds a quiz from the bank's category table. Unknown
// categories use the Programming table. At most QuestionsPerQuiz questions are
// taken; options and then questions are shuffled when the bank asks for it.
func (s *LocalService) GenerateQuiz(ctx context.Context, bankID int, params QuizFromBank) (quiz.CreateQuizRequest, error) {
	if strings.TrimSpace(params.Title) == "" {
		return quiz.CreateQuizRequest{}, fmt.Errorf("%w: quiz title is required", quiz.ErrInvalidQuiz)
	}
	if params.TimeLimitMinutes < 1 {
		return quiz.CreateQuizRequest{}, fmt.Errorf("%w: time limit must be at least 1 minute", quiz.ErrInvalidQuiz)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadBanksLocked(ctx); err != nil {
		return quiz.CreateQuizRequest{}, err
	}
	bank, err := s.findBankLocked(bankID)
	if err != nil {
		return quiz.CreateQuizRequest{}, err
	}

	table, ok := categoryQuestions[bank.Category]
	if !ok {
		table = categoryQuestions[defaultBankCategory]
	}

	count := min(bank.QuestionsPerQuiz, len(table))
	questions := make([]quiz.CreateQuestionRequest, 0, count)
	for _, source := range table[:count] {
		question := source
		question.Options = append([]quiz.CreateOptionRequest(nil), source.Options...)
		if bank.RandomizeOptions {
			s.rng.Shuffle(len(question.Options), func(i, j int) {
				question.Options[i], question.Options[j] = question.Options[j], question.Options[i]
			})
		}
		questions = append(questions, question)
	}
	if bank.RandomizeQuestions {
		s.rng.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
	}

	return quiz.CreateQuizRequest{
		Title:            params.Title,
		Description:      params.Description,
		TimeLimitMinutes: params.TimeLimitMinutes,
		Questions:        questions,
	}, nil
}

func (s *LocalService) loadBanksLocked(ctx context.Context) error {
	if s.banksLoaded {
		return nil
	}

	banks := seedBanks(s.now().UTC())
	if s.store != nil {
		stored, err := s.store.QuestionBanks(ctx)
		if err != nil {
			return err
		}
		banks = append(stored, banks...)
	}

	s.banks = banks
	s.banksLoaded = true
	return nil
}

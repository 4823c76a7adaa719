package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-client/internal/api"
	"quiz-client/internal/apitest"
	"quiz-client/internal/app"
	"quiz-client/internal/attempt"
	"quiz-client/internal/export"
	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
)

// Controller actions report their own failures as notifications, which the
// terminal already prints. Only errors the user did not see are returned.

// demoAccounts are the accounts seeded by the stub server, reachable as
// "login admin" and "login user".
var demoAccounts = map[string][2]string{
	"admin": {apitest.AdminEmail, apitest.AdminPassword},
	"user":  {apitest.UserEmail, apitest.UserPassword},
}

func (t *Terminal) runLogin(ctx context.Context, args []string) error {
	switch len(args) {
	case 2:
		account, ok := demoAccounts[strings.ToLower(args[1])]
		if !ok {
			fmt.Fprintln(t.out, "usage: login <email> <password> | login admin | login user")
			return nil
		}
		fmt.Fprintf(t.out, "Using demo account %s\n", account[0])
		_, _ = t.controller.Login(ctx, account[0], account[1])
	case 3:
		_, _ = t.controller.Login(ctx, args[1], args[2])
	default:
		fmt.Fprintln(t.out, "usage: login <email> <password> | login admin | login user")
	}
	return nil
}

func (t *Terminal) runRegister(ctx context.Context) error {
	var (
		request api.RegisterRequest
		err     error
	)
	if request.Email, err = promptLine(t.reader, t.out, "Email: "); err != nil {
		return err
	}
	if request.Username, err = promptLine(t.reader, t.out, "Username: "); err != nil {
		return err
	}
	if request.FullName, err = promptLine(t.reader, t.out, "Full name (optional): "); err != nil {
		return err
	}
	if request.Password, err = promptLine(t.reader, t.out, "Password: "); err != nil {
		return err
	}

	_, _ = t.controller.Register(ctx, request)
	return nil
}

func (t *Terminal) requireUser() (*quiz.User, bool) {
	user := t.controller.State().User
	if user == nil {
		fmt.Fprintln(t.out, "Sign in first: login <email> <password>")
		return nil, false
	}
	return user, true
}

func (t *Terminal) runProfile(ctx context.Context) error {
	if _, ok := t.requireUser(); !ok {
		return nil
	}
	if err := t.controller.LoadProfile(ctx); err != nil {
		return err
	}
	if err := t.controller.LoadUserData(ctx); err != nil {
		return err
	}

	t.controller.SetView(app.ViewProfile)
	state := t.controller.State()
	if state.User == nil {
		return app.ErrNotLoggedIn
	}
	printProfile(t.out, *state.User, state.Stats)
	return nil
}

func (t *Terminal) runQuizzes(ctx context.Context, args []string) error {
	if len(args) > 1 {
		filter, err := quiz.ParseFilter(args[1])
		if err != nil {
			return err
		}
		t.controller.SetFilter(filter)
		t.controller.SetSearch(strings.Join(args[2:], " "))
	}

	t.controller.SetView(app.ViewQuizzes)
	if err := t.controller.LoadQuizzes(ctx); err != nil {
		if t.controller.State().User == nil {
			fmt.Fprintln(t.out, "Sign in to see the quiz list.")
		}
		return nil
	}
	printQuizzes(t.out, t.controller.FilteredQuizzes(), t.controller.State().Filter)
	return nil
}

func (t *Terminal) runTake(ctx context.Context, args []string) error {
	quizID, err := parseID(args, 1, "quiz id")
	if err != nil {
		return err
	}
	if err := t.controller.StartQuiz(ctx, quizID); err != nil {
		return nil
	}

	snapshot := t.controller.State().Attempt
	fmt.Fprintf(t.out, "%s: %d questions, %s to finish. Use select/next/prev, then submit.\n",
		snapshot.Quiz.Title,
		len(snapshot.Quiz.Questions),
		export.FormatTime(snapshot.Remaining),
	)
	printQuestion(t.out, snapshot)
	return nil
}

func (t *Terminal) runSelect(args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(t.out, "usage: select <letter>")
		return nil
	}

	snapshot := t.controller.State().Attempt
	if snapshot.State != attempt.StateInProgress {
		return app.ErrNoActiveAttempt
	}
	question := snapshot.Quiz.Questions[snapshot.Index]
	index, ok := parseLetter(args[1], len(question.Options))
	if !ok {
		return fmt.Errorf("choose a letter from A to %s", optionLetter(len(question.Options)-1))
	}

	if err := t.controller.SelectOption(question.Options[index].ID); err != nil {
		return err
	}
	printQuestion(t.out, t.controller.State().Attempt)
	return nil
}

func (t *Terminal) runMove(move func() bool, boundary string) error {
	if t.controller.State().Attempt.State != attempt.StateInProgress {
		return app.ErrNoActiveAttempt
	}
	if !move() {
		fmt.Fprintln(t.out, boundary)
		return nil
	}
	printQuestion(t.out, t.controller.State().Attempt)
	return nil
}

func (t *Terminal) printStatus() {
	printStatus(t.out, t.controller.State().Attempt)
}

func (t *Terminal) runSubmit(ctx context.Context) error {
	_, err := t.controller.SubmitQuiz(ctx)
	if errors.Is(err, app.ErrNoActiveAttempt) {
		return err
	}
	return nil
}

func (t *Terminal) runResults(ctx context.Context) error {
	if _, ok := t.requireUser(); !ok {
		return nil
	}
	if err := t.controller.LoadUserData(ctx); err != nil {
		return err
	}
	printAttempts(t.out, t.controller.State().Attempts, t.controller.QuizTitle)
	return nil
}

func (t *Terminal) runResult(ctx context.Context, args []string) error {
	attemptID, err := parseID(args, 1, "attempt id")
	if err != nil {
		return err
	}
	t.forgetResult()
	_, _ = t.controller.ViewAttemptResult(ctx, attemptID)
	return nil
}

func (t *Terminal) runExport(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 4 {
		fmt.Fprintln(t.out, "usage: export <csv|json> [from YYYY-MM-DD] [to YYYY-MM-DD]")
		return nil
	}
	format, err := export.ParseFormat(args[1])
	if err != nil {
		return err
	}

	var from, to time.Time
	if len(args) > 2 {
		if from, err = time.ParseInLocation(dateLayout, args[2], time.Local); err != nil {
			return fmt.Errorf("invalid from date: %w", err)
		}
	}
	if len(args) > 3 {
		if to, err = time.ParseInLocation(dateLayout, args[3], time.Local); err != nil {
			return fmt.Errorf("invalid to date: %w", err)
		}
	}

	_, _ = t.controller.ExportResults(ctx, format, from, to)
	return nil
}

func (t *Terminal) runExportOne(ctx context.Context, args []string) error {
	attemptID, err := parseID(args, 1, "attempt id")
	if err != nil {
		return err
	}
	_, _ = t.controller.ExportSingleResult(ctx, attemptID)
	return nil
}

func (t *Terminal) runNewQuiz(ctx context.Context) error {
	user, ok := t.requireUser()
	if !ok {
		return nil
	}
	if !user.IsAdmin() {
		fmt.Fprintln(t.out, "Only administrators can create quizzes.")
		return nil
	}

	draft, err := t.promptDraft()
	if err != nil {
		return err
	}
	t.controller.SetView(app.ViewCreateQuiz)
	t.controller.UpdateDraft(func(d *quiz.Draft) {
		*d = draft
	})

	_, _ = t.controller.CreateQuiz(ctx)
	return nil
}

// promptDraft walks through the authoring form. A blank question text ends
// the question list; a blank option text ends the option list.
func (t *Terminal) promptDraft() (quiz.Draft, error) {
	draft := quiz.NewDraft()
	draft.Questions = nil

	var err error
	if draft.Title, err = promptLine(t.reader, t.out, "Title: "); err != nil {
		return quiz.Draft{}, err
	}
	if draft.Description, err = promptLine(t.reader, t.out, "Description: "); err != nil {
		return quiz.Draft{}, err
	}
	if draft.TimeLimitMinutes, err = promptInt(t.reader, t.out, "Time limit (minutes)", draft.TimeLimitMinutes, defaultMaxInvalidAnswers); err != nil {
		return quiz.Draft{}, err
	}

	for number := 1; ; number++ {
		text, err := promptLine(t.reader, t.out, fmt.Sprintf("Question %d (blank to finish): ", number))
		if err != nil {
			return quiz.Draft{}, err
		}
		if text == "" {
			break
		}

		question := quiz.DraftQuestion{Text: text}
		if question.Points, err = promptInt(t.reader, t.out, "Points", 1, defaultMaxInvalidAnswers); err != nil {
			return quiz.Draft{}, err
		}
		if question.Explanation, err = promptLine(t.reader, t.out, "Explanation (optional): "); err != nil {
			return quiz.Draft{}, err
		}

		for idx := 0; ; idx++ {
			option, err := promptLine(t.reader, t.out, fmt.Sprintf("  Option %s (blank to finish): ", optionLetter(idx)))
			if err != nil {
				return quiz.Draft{}, err
			}
			if option == "" {
				break
			}
			question.Options = append(question.Options, quiz.DraftOption{Text: option})
		}

		if len(question.Options) > 0 {
			correct, err := promptLine(t.reader, t.out, "Correct option letters (e.g. A or A,C): ")
			if err != nil {
				return quiz.Draft{}, err
			}
			for _, letter := range strings.FieldsFunc(correct, func(r rune) bool { return r == ',' || r == ' ' }) {
				if index, ok := parseLetter(letter, len(question.Options)); ok {
					question.Options[index].IsCorrect = true
				}
			}
		}
		draft.Questions = append(draft.Questions, question)
	}
	return draft, nil
}

func (t *Terminal) runNewBank(ctx context.Context) error {
	draft := mock.NewBankDraft()

	var err error
	if draft.Name, err = promptLine(t.reader, t.out, "Name: "); err != nil {
		return err
	}
	if draft.Description, err = promptLine(t.reader, t.out, "Description: "); err != nil {
		return err
	}
	if draft.Category, err = promptDefault(t.reader, t.out, "Category", "Programming"); err != nil {
		return err
	}
	if draft.Tags, err = promptLine(t.reader, t.out, "Tags (comma separated): "); err != nil {
		return err
	}
	if draft.IsPublic, err = promptYesNo(t.reader, t.out, "Public? (yes/no): "); err != nil {
		return err
	}
	if draft.RandomizeQuestions, err = promptYesNo(t.reader, t.out, "Shuffle questions? (yes/no): "); err != nil {
		return err
	}
	if draft.RandomizeOptions, err = promptYesNo(t.reader, t.out, "Shuffle options? (yes/no): "); err != nil {
		return err
	}
	if draft.QuestionsPerQuiz, err = promptInt(t.reader, t.out, "Questions per quiz", draft.QuestionsPerQuiz, defaultMaxInvalidAnswers); err != nil {
		return err
	}

	if _, err := t.controller.CreateQuestionBank(ctx, draft); err == nil {
		printBanks(t.out, t.controller.State().Banks)
	}
	return nil
}

func (t *Terminal) runBankQuiz(ctx context.Context, args []string) error {
	bankID, err := parseID(args, 1, "bank id")
	if err != nil {
		return err
	}

	created, err := t.controller.GenerateQuizFromBank(ctx, bankID)
	switch {
	case errors.Is(err, app.ErrCancelled):
		fmt.Fprintln(t.out, "Cancelled.")
	case err == nil:
		fmt.Fprintf(t.out, "Quiz %d %q is ready: take %d\n", created.ID, created.Title, created.ID)
	}
	return nil
}

func (t *Terminal) runCertify(ctx context.Context, args []string) error {
	attemptID, err := parseID(args, 1, "attempt id")
	if err != nil {
		return err
	}
	cert, err := t.controller.GenerateCertificate(ctx, attemptID)
	if err == nil {
		fmt.Fprintf(t.out, "%s issued for %s (%d%%)\n", cert.CertificateID, cert.QuizTitle, cert.ScorePercentage)
	}
	return nil
}

func (t *Terminal) runDownload(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(t.out, "usage: download <certificate_id>")
		return nil
	}
	_, _ = t.controller.DownloadCertificate(ctx, args[1])
	return nil
}

func (t *Terminal) runShare(ctx context.Context, args []string) error {
	if len(args) != 2 {
		fmt.Fprintln(t.out, "usage: share <certificate_id>")
		return nil
	}
	_, _ = t.controller.ShareCertificate(ctx, args[1])
	return nil
}

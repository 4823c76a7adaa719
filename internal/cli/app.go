// Package cli is the interactive terminal front end of the quiz client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"quiz-client/internal/app"
)

const (
	defaultMaxInvalidAnswers = 3
	dateLayout               = "2006-01-02"
)

// Terminal is a line-oriented command loop over an app.Controller. It is
// also the controller's Dialog, so prompts read from the command input.
type Terminal struct {
	reader     *bufio.Reader
	out        *syncWriter
	serverURL  string
	controller *app.Controller

	mu            sync.Mutex
	lastNoteID    int
	printedResult int
	warnedAt      int
}

func NewTerminal(in io.Reader, out io.Writer, serverURL string) *Terminal {
	return &Terminal{
		reader:    bufio.NewReader(in),
		out:       &syncWriter{w: out},
		serverURL: serverURL,
	}
}

// syncWriter serializes writes from the command loop and from state
// listeners running on the countdown goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Run restores the saved session and processes commands until exit or EOF.
func (t *Terminal) Run(ctx context.Context, controller *app.Controller) error {
	t.controller = controller
	unsubscribe := controller.Subscribe(t.onState)
	defer unsubscribe()

	out := t.out
	fmt.Fprintf(out, "quiz-client\nserver=%s\n\n", t.serverURL)
	if err := controller.Init(ctx); err != nil {
		slog.Debug("initial quiz list unavailable", "error", err)
	}
	if user := controller.State().User; user != nil {
		fmt.Fprintf(out, "Signed in as %s\n", user.Username)
	}
	printHelp(out)

	for {
		fmt.Fprint(out, "\n> ")
		line, err := t.reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		args := strings.Fields(line)
		command := strings.ToLower(args[0])
		if command == "exit" || command == "quit" {
			return nil
		}
		if err := t.dispatch(ctx, command, args); err != nil {
			fmt.Fprintf(out, "error: %v\n", describeClientError(err, t.serverURL))
		}
	}
}

func (t *Terminal) dispatch(ctx context.Context, command string, args []string) error {
	switch command {
	case "help":
		printHelp(t.out)
		return nil
	case "login":
		return t.runLogin(ctx, args)
	case "register":
		return t.runRegister(ctx)
	case "logout":
		t.controller.Logout(ctx)
		return nil
	case "profile":
		return t.runProfile(ctx)
	case "quizzes":
		return t.runQuizzes(ctx, args)
	case "take":
		return t.runTake(ctx, args)
	case "select":
		return t.runSelect(args)
	case "next":
		return t.runMove(t.controller.NextQuestion, "Already at the last question.")
	case "prev":
		return t.runMove(t.controller.PrevQuestion, "Already at the first question.")
	case "status":
		t.printStatus()
		return nil
	case "submit":
		return t.runSubmit(ctx)
	case "results":
		return t.runResults(ctx)
	case "result":
		return t.runResult(ctx, args)
	case "export":
		return t.runExport(ctx, args)
	case "export-one":
		return t.runExportOne(ctx, args)
	case "new-quiz":
		return t.runNewQuiz(ctx)
	case "banks":
		printBanks(t.out, t.controller.LoadQuestionBanks(ctx))
		return nil
	case "new-bank":
		return t.runNewBank(ctx)
	case "bank-quiz":
		return t.runBankQuiz(ctx, args)
	case "achievements":
		t.controller.SetView(app.ViewAchievements)
		state := t.controller.State()
		printAchievements(t.out, state.Achievements, state.UserAchievements)
		return nil
	case "leaderboard":
		t.controller.UpdateLeaderboard()
		t.controller.SetView(app.ViewLeaderboard)
		printLeaderboard(t.out, t.controller.State())
		return nil
	case "certificates":
		t.controller.SetView(app.ViewCertificates)
		printCertificates(t.out, t.controller.State().Certificates)
		return nil
	case "certify":
		return t.runCertify(ctx, args)
	case "download":
		return t.runDownload(ctx, args)
	case "share":
		return t.runShare(ctx, args)
	default:
		fmt.Fprintln(t.out, "unknown command. type 'help' for usage.")
		return nil
	}
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help")
	fmt.Fprintln(out, "  login <email> <password> | login admin|user | register | logout | profile")
	fmt.Fprintln(out, "  quizzes [active|my|all] [search...]")
	fmt.Fprintln(out, "  take <quiz_id> | select <letter> | next | prev | status | submit")
	fmt.Fprintln(out, "  results | result <attempt_id>")
	fmt.Fprintln(out, "  export <csv|json> [from YYYY-MM-DD] [to YYYY-MM-DD] | export-one <attempt_id>")
	fmt.Fprintln(out, "  new-quiz | banks | new-bank | bank-quiz <bank_id>")
	fmt.Fprintln(out, "  achievements | leaderboard")
	fmt.Fprintln(out, "  certificates | certify <attempt_id> | download <certificate_id> | share <certificate_id>")
	fmt.Fprintln(out, "  exit")
}

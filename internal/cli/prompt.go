package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"quiz-client/internal/api"
	"quiz-client/internal/mock"
)

// parseLetter maps "a".."z" (any case) to an option index below optionCount.
func parseLetter(value string, optionCount int) (int, bool) {
	if optionCount < 1 {
		return -1, false
	}
	answer := strings.ToUpper(strings.TrimSpace(value))
	if len(answer) != 1 {
		return -1, false
	}
	letter := answer[0]
	maxLetter := byte('A' + optionCount - 1)
	if letter < 'A' || letter > maxLetter {
		return -1, false
	}
	return int(letter - 'A'), true
}

func optionLetter(index int) string {
	return string(rune('A' + index))
}

func parseID(args []string, index int, name string) (int, error) {
	if len(args) <= index {
		return 0, fmt.Errorf("usage: %s <id>", args[0])
	}
	value, err := strconv.Atoi(args[index])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", name)
	}
	return value, nil
}

func promptLine(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptDefault returns fallback when the answer is blank.
func promptDefault(reader *bufio.Reader, out io.Writer, prompt, fallback string) (string, error) {
	if fallback != "" {
		prompt = fmt.Sprintf("%s [%s]: ", prompt, fallback)
	} else {
		prompt += ": "
	}
	line, err := promptLine(reader, out, prompt)
	if err != nil {
		return "", err
	}
	if line == "" {
		return fallback, nil
	}
	return line, nil
}

func promptInt(reader *bufio.Reader, out io.Writer, prompt string, fallback, maxInvalid int) (int, error) {
	for attempt := 1; ; attempt++ {
		line, err := promptDefault(reader, out, prompt, strconv.Itoa(fallback))
		if err != nil {
			return 0, err
		}
		value, err := strconv.Atoi(line)
		if err == nil && value > 0 {
			return value, nil
		}
		if attempt >= maxInvalid {
			return 0, errors.New("too many invalid responses")
		}
		fmt.Fprintln(out, "Please enter a positive number.")
	}
}

func promptYesNo(reader *bufio.Reader, out io.Writer, prompt string) (bool, error) {
	for {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		switch answer {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		default:
			fmt.Fprintln(out, "Please answer yes or no.")
		}
	}
}

// ConfirmQuizFromBank lets the user edit the suggested title, description and
// time limit. An answer of "no" to the final question cancels.
func (t *Terminal) ConfirmQuizFromBank(_ context.Context, bank mock.QuestionBank, defaults mock.QuizFromBank) (mock.QuizFromBank, bool, error) {
	fmt.Fprintf(t.out, "Create a quiz from %q (%d questions per quiz)\n", bank.Name, bank.QuestionsPerQuiz)

	params := defaults
	var err error
	if params.Title, err = promptDefault(t.reader, t.out, "Title", defaults.Title); err != nil {
		return mock.QuizFromBank{}, false, err
	}
	if params.Description, err = promptDefault(t.reader, t.out, "Description", defaults.Description); err != nil {
		return mock.QuizFromBank{}, false, err
	}
	if params.TimeLimitMinutes, err = promptInt(t.reader, t.out, "Time limit (minutes)", defaults.TimeLimitMinutes, defaultMaxInvalidAnswers); err != nil {
		return mock.QuizFromBank{}, false, err
	}

	ok, err := promptYesNo(t.reader, t.out, "Create this quiz? (yes/no): ")
	if err != nil {
		return mock.QuizFromBank{}, false, err
	}
	return params, ok, nil
}

func describeClientError(err error, serverURL string) error {
	if errors.Is(err, api.ErrServiceUnavailable) {
		return fmt.Errorf("quiz service unavailable at %s", serverURL)
	}
	return err
}

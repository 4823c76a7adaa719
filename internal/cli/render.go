package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"quiz-client/internal/app"
	"quiz-client/internal/attempt"
	"quiz-client/internal/certificate"
	"quiz-client/internal/export"
	"quiz-client/internal/mock"
	"quiz-client/internal/quiz"
)

const displayTimeLayout = "2006-01-02 15:04"

// countdownWarnings are the remaining-seconds marks announced while a quiz
// runs.
var countdownWarnings = []int{60, 10}

// onState prints new notifications, results that appear without a command
// (the countdown submitting on its own) and countdown warnings.
func (t *Terminal) onState(state app.State) {
	t.mu.Lock()
	var note *app.Notification
	if state.Notification != nil && state.Notification.ID != t.lastNoteID {
		t.lastNoteID = state.Notification.ID
		note = state.Notification
	}

	var result *quiz.Attempt
	switch {
	case state.View != app.ViewQuizResult || state.Result == nil:
		t.printedResult = 0
	case state.Result.ID != t.printedResult:
		t.printedResult = state.Result.ID
		result = state.Result
	}

	warn := 0
	if state.Attempt.State == attempt.StateInProgress && state.Attempt.Remaining != t.warnedAt {
		for _, mark := range countdownWarnings {
			if state.Attempt.Remaining == mark {
				warn = mark
				t.warnedAt = mark
			}
		}
	}
	t.mu.Unlock()

	if note != nil {
		printNotification(t.out, *note)
	}
	if result != nil {
		printResult(t.out, *result, state.CurrentQuiz)
	}
	if warn > 0 {
		fmt.Fprintln(t.out, color.YellowString("%s left!", export.FormatTime(warn)))
	}
}

// forgetResult makes the next result view print again, even for the same
// attempt.
func (t *Terminal) forgetResult() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.printedResult = 0
}

func printNotification(out io.Writer, note app.Notification) {
	switch note.Kind {
	case app.NotifySuccess:
		fmt.Fprintln(out, color.GreenString("✔ %s", note.Message))
	case app.NotifyError:
		fmt.Fprintln(out, color.RedString("✖ %s", note.Message))
	default:
		fmt.Fprintln(out, color.CyanString("ℹ %s", note.Message))
	}
}

func printQuizzes(out io.Writer, quizzes []quiz.Quiz, filter quiz.Filter) {
	if len(quizzes) == 0 {
		fmt.Fprintf(out, "No quizzes match (filter=%s).\n", filter)
		return
	}

	fmt.Fprintf(out, "Quizzes (filter=%s):\n", filter)
	for _, item := range quizzes {
		status := ""
		if !item.IsActive {
			status = color.YellowString(" [inactive]")
		}
		fmt.Fprintf(out, "%3d. %s%s (%d questions, %d min)\n",
			item.ID,
			item.Title,
			status,
			item.QuestionsCount,
			item.TimeLimitMinutes,
		)
		if item.Description != "" {
			fmt.Fprintf(out, "     %s\n", item.Description)
		}
	}
}

func printQuestion(out io.Writer, snapshot attempt.Snapshot) {
	questions := snapshot.Quiz.Questions
	if snapshot.Index < 0 || snapshot.Index >= len(questions) {
		return
	}
	question := questions[snapshot.Index]

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Question %d/%d (%d pt) %s\n\n",
		snapshot.Index+1,
		len(questions),
		question.Points,
		color.HiBlackString("time left %s", export.FormatTime(snapshot.Remaining)),
	)
	fmt.Fprintf(out, "%s\n\n", question.Text)
	for idx, option := range question.Options {
		marker := " "
		if option.ID == snapshot.Selected {
			marker = color.GreenString("*")
		}
		fmt.Fprintf(out, "%s %s. %s\n", marker, optionLetter(idx), option.Text)
	}
}

func printStatus(out io.Writer, snapshot attempt.Snapshot) {
	if snapshot.State != attempt.StateInProgress && snapshot.State != attempt.StateSubmitting {
		fmt.Fprintln(out, "No quiz in progress.")
		return
	}
	fmt.Fprintf(out, "%s: question %d/%d, answered %d, time left %s\n",
		snapshot.Quiz.Title,
		snapshot.Index+1,
		len(snapshot.Quiz.Questions),
		snapshot.Answered(),
		export.FormatTime(snapshot.Remaining),
	)
}

func printResult(out io.Writer, result quiz.Attempt, current *quiz.Quiz) {
	title := fmt.Sprintf("Quiz #%d", result.QuizID)
	if current != nil && current.ID == result.QuizID && current.Title != "" {
		title = current.Title
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Result for %s (attempt %d)\n", title, result.ID)
	fmt.Fprintf(out, "Score: %d/%d (%d%%) in %s\n",
		result.TotalPoints,
		result.MaxPoints,
		result.ScorePercentage(),
		export.FormatTime(result.TimeSpent()),
	)
	if current == nil || len(current.Questions) == 0 {
		return
	}

	for _, answer := range result.Answers {
		question, ok := current.Question(answer.QuestionID)
		if !ok {
			continue
		}
		mark := color.RedString("✖")
		if answer.IsCorrect {
			mark = color.GreenString("✔")
		}
		fmt.Fprintf(out, "%s %s (+%d)\n", mark, question.Text, answer.PointsEarned)
		if question.Explanation != "" {
			fmt.Fprintf(out, "    %s\n", question.Explanation)
		}
	}
}

func printAttempts(out io.Writer, attempts []quiz.Attempt, titleFn func(int) string) {
	if len(attempts) == 0 {
		fmt.Fprintln(out, "No attempts yet.")
		return
	}

	fmt.Fprintln(out, "Attempts:")
	for _, item := range attempts {
		status := "in progress"
		if item.IsCompleted {
			status = fmt.Sprintf("%d/%d (%d%%)", item.TotalPoints, item.MaxPoints, item.ScorePercentage())
		}
		fmt.Fprintf(out, "%3d. %s %s started %s\n",
			item.ID,
			titleFn(item.QuizID),
			status,
			item.StartedAt.Local().Format(displayTimeLayout),
		)
	}
}

func printProfile(out io.Writer, user quiz.User, stats quiz.UserStats) {
	name := user.FullName
	if name == "" {
		name = user.Username
	}
	fmt.Fprintf(out, "%s (%s, %s)\n", name, user.Email, user.Role)
	fmt.Fprintf(out, "attempts=%d quizzes=%d points=%d avg=%.1f%% best=%.1f%% streak=%d\n",
		stats.TotalAttempts,
		stats.TotalQuizzes,
		stats.TotalPoints,
		stats.AvgScore,
		stats.BestScore,
		stats.StreakDays,
	)
}

func printAchievements(out io.Writer, catalog []mock.Achievement, earned []mock.UserAchievement) {
	earnedAt := make(map[int]string, len(earned))
	for _, award := range earned {
		earnedAt[award.AchievementID] = award.EarnedAt.Local().Format(displayTimeLayout)
	}

	fmt.Fprintf(out, "Achievements (%d/%d):\n", len(earned), len(catalog))
	for _, item := range catalog {
		if when, ok := earnedAt[item.ID]; ok {
			fmt.Fprintf(out, "%s %s: %s (earned %s)\n", color.GreenString("✔"), item.Name, item.Description, when)
			continue
		}
		fmt.Fprintf(out, "  %s: %s\n", item.Name, item.Description)
	}
}

func printLeaderboard(out io.Writer, state app.State) {
	fmt.Fprintln(out, "Leaderboard:")
	for _, entry := range state.Leaderboard {
		line := fmt.Sprintf("%2d. %-12s points=%d quizzes=%d achievements=%d",
			entry.Rank,
			entry.Username,
			entry.TotalPoints,
			entry.CompletedQuizzes,
			entry.AchievementsCount,
		)
		if state.User != nil && entry.UserID == state.User.ID {
			line = color.CyanString("%s (you)", line)
		}
		fmt.Fprintln(out, line)
	}
}

func printBanks(out io.Writer, banks []mock.QuestionBank) {
	if len(banks) == 0 {
		fmt.Fprintln(out, "No question banks.")
		return
	}

	fmt.Fprintln(out, "Question banks:")
	for _, bank := range banks {
		visibility := "private"
		if bank.IsPublic {
			visibility = "public"
		}
		fmt.Fprintf(out, "%3d. %s [%s, %s] %d questions, %d per quiz\n",
			bank.ID,
			bank.Name,
			bank.Category,
			visibility,
			bank.QuestionCount,
			bank.QuestionsPerQuiz,
		)
		if bank.Tags != "" {
			fmt.Fprintf(out, "     tags: %s\n", bank.Tags)
		}
	}
}

func printCertificates(out io.Writer, certs []certificate.Certificate) {
	if len(certs) == 0 {
		fmt.Fprintf(out, "No certificates yet. Score at least %d%% to earn one.\n", int(certificate.Threshold*100))
		return
	}

	fmt.Fprintln(out, "Certificates:")
	for _, cert := range certs {
		fmt.Fprintf(out, "%s  %s %d%% issued %s\n",
			cert.CertificateID,
			cert.QuizTitle,
			cert.ScorePercentage,
			cert.IssuedAt.Local().Format(displayTimeLayout),
		)
	}
}

// Package export serializes attempt history for download.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"quiz-client/internal/quiz"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON, "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", value)
	}
}

const (
	dateLayout     = "January 2, 2006 15:04"
	fileDateLayout = "2006-01-02"
)

type Field struct {
	Key   string
	Value any
}

// Record keeps its fields in insertion order, which is also the CSV column
// order and the JSON key order.
type Record []Field

func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for _, field := range r {
		keys = append(keys, field.Key)
	}
	return keys
}

func (r Record) Get(key string) (any, bool) {
	for _, field := range r {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for idx, field := range r {
		if idx > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(field.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// FormatTime renders seconds as MM:SS; minutes are not capped at 59.
func FormatTime(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatDate(value *time.Time) string {
	if value == nil || value.IsZero() {
		return ""
	}
	return value.Format(dateLayout)
}

// ResultRecords builds one export row per attempt.
func ResultRecords(attempts []quiz.Attempt, username string, titleFn func(quizID int) string) []Record {
	records := make([]Record, 0, len(attempts))
	for _, attempt := range attempts {
		started := attempt.StartedAt
		records = append(records, Record{
			{Key: "attempt_id", Value: attempt.ID},
			{Key: "quiz_title", Value: titleFn(attempt.QuizID)},
			{Key: "user", Value: username},
			{Key: "started_at", Value: formatDate(&started)},
			{Key: "finished_at", Value: formatDate(attempt.FinishedAt)},
			{Key: "time_spent", Value: FormatTime(attempt.TimeSpent())},
			{Key: "total_points", Value: attempt.TotalPoints},
			{Key: "max_points", Value: attempt.MaxPoints},
			{Key: "score_percentage", Value: attempt.ScorePercentage()},
			{Key: "is_completed", Value: attempt.IsCompleted},
		})
	}
	return records
}

// FilterByDate keeps attempts started within [from, to]. A zero bound is
// open; to covers its whole day when it has no time of day.
func FilterByDate(attempts []quiz.Attempt, from, to time.Time) []quiz.Attempt {
	if !to.IsZero() && to.Equal(truncateDay(to)) {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	filtered := make([]quiz.Attempt, 0, len(attempts))
	for _, attempt := range attempts {
		if !from.IsZero() && attempt.StartedAt.Before(from) {
			continue
		}
		if !to.IsZero() && attempt.StartedAt.After(to) {
			continue
		}
		filtered = append(filtered, attempt)
	}
	return filtered
}

func truncateDay(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, value.Location())
}

// CSV writes the keys of the first record as the header and one row per
// record. String values are wrapped in double quotes without escaping, so
// values containing quotes or commas produce ambiguous rows.
func CSV(records []Record) []byte {
	lines := make([]string, 0, len(records)+1)
	if len(records) == 0 {
		lines = append(lines, "")
	} else {
		lines = append(lines, strings.Join(records[0].Keys(), ","))
	}

	for _, record := range records {
		values := make([]string, 0, len(record))
		for _, field := range record {
			values = append(values, csvValue(field.Value))
		}
		lines = append(lines, strings.Join(values, ","))
	}
	return []byte(strings.Join(lines, "\n"))
}

func csvValue(value any) string {
	switch typed := value.(type) {
	case string:
		return `"` + typed + `"`
	case nil:
		return ""
	case bool:
		return strconv.FormatBool(typed)
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	default:
		return fmt.Sprint(typed)
	}
}

func JSON(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.MarshalIndent(records, "", "  ")
}

// Encode renders records in format and returns the download file name for
// the export taken at now.
func Encode(format Format, records []Record, now time.Time) ([]byte, string, error) {
	switch format {
	case FormatCSV:
		return CSV(records), ResultsFileName(FormatCSV, now), nil
	case FormatJSON:
		content, err := JSON(records)
		if err != nil {
			return nil, "", err
		}
		return content, ResultsFileName(FormatJSON, now), nil
	default:
		return nil, "", fmt.Errorf("unknown export format %q", format)
	}
}

func ResultsFileName(format Format, now time.Time) string {
	return fmt.Sprintf("quiz_results_%s.%s", now.UTC().Format(fileDateLayout), format)
}

func SingleResultFileName(attemptID int, now time.Time) string {
	return fmt.Sprintf("quiz_result_%d_%s.json", attemptID, now.UTC().Format(fileDateLayout))
}

// SingleResult is the detailed export of one attempt. A nil user exports as
// "Unknown" with a null user_id.
func SingleResult(attempt quiz.Attempt, user *quiz.User, quizTitle string, now time.Time) ([]byte, error) {
	username := "Unknown"
	var userID any
	if user != nil {
		username = user.Username
		userID = user.ID
	}

	var finishedAt any
	if attempt.FinishedAt != nil {
		finishedAt = attempt.FinishedAt.UTC().Format(time.RFC3339)
	}

	record := Record{
		{Key: "quiz_attempt_id", Value: attempt.ID},
		{Key: "quiz_id", Value: attempt.QuizID},
		{Key: "quiz_title", Value: quizTitle},
		{Key: "user", Value: username},
		{Key: "user_id", Value: userID},
		{Key: "started_at", Value: attempt.StartedAt.UTC().Format(time.RFC3339)},
		{Key: "finished_at", Value: finishedAt},
		{Key: "time_spent_seconds", Value: attempt.TimeSpent()},
		{Key: "total_points", Value: attempt.TotalPoints},
		{Key: "max_points", Value: attempt.MaxPoints},
		{Key: "score_percentage", Value: attempt.ScorePercentage()},
		{Key: "is_completed", Value: attempt.IsCompleted},
		{Key: "exported_at", Value: now.UTC().Format(time.RFC3339)},
		{Key: "export_format", Value: "JSON"},
	}
	return json.MarshalIndent(record, "", "  ")
}

package sqlite

import (
	"context"
	"time"

	"quiz-client/internal/certificate"
	"quiz-client/internal/mock"
)

// SaveUserAchievement ignores a second award of the same achievement.
func (s *SQLiteStore) SaveUserAchievement(ctx context.Context, award mock.UserAchievement) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO user_achievements (id, user_id, achievement_id, earned_at_unix, progress)
		 VALUES (?, ?, ?, ?, ?)`,
		award.ID,
		award.UserID,
		award.AchievementID,
		award.EarnedAt.UnixNano(),
		award.Progress,
	)
	return err
}

func (s *SQLiteStore) UserAchievements(ctx context.Context, userID int) ([]mock.UserAchievement, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, user_id, achievement_id, earned_at_unix, progress
		 FROM user_achievements
		 WHERE user_id = ?
		 ORDER BY seq ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var awards []mock.UserAchievement
	for rows.Next() {
		var (
			award    mock.UserAchievement
			earnedAt int64
		)
		if err := rows.Scan(&award.ID, &award.UserID, &award.AchievementID, &earnedAt, &award.Progress); err != nil {
			return nil, err
		}
		award.EarnedAt = time.Unix(0, earnedAt).UTC()
		awards = append(awards, award)
	}
	return awards, rows.Err()
}

func (s *SQLiteStore) SaveCertificate(ctx context.Context, cert certificate.Certificate) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO certificates (id, certificate_id, user_id, attempt_id, quiz_title, score_percentage, issued_at_unix)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cert.ID,
		cert.CertificateID,
		cert.UserID,
		cert.AttemptID,
		cert.QuizTitle,
		cert.ScorePercentage,
		cert.IssuedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) Certificates(ctx context.Context, userID int) ([]certificate.Certificate, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, certificate_id, user_id, attempt_id, quiz_title, score_percentage, issued_at_unix
		 FROM certificates
		 WHERE user_id = ?
		 ORDER BY seq DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var certs []certificate.Certificate
	for rows.Next() {
		var (
			cert     certificate.Certificate
			issuedAt int64
		)
		if err := rows.Scan(
			&cert.ID,
			&cert.CertificateID,
			&cert.UserID,
			&cert.AttemptID,
			&cert.QuizTitle,
			&cert.ScorePercentage,
			&issuedAt,
		); err != nil {
			return nil, err
		}
		cert.IssuedAt = time.Unix(0, issuedAt).UTC()
		certs = append(certs, cert)
	}
	return certs, rows.Err()
}

func (s *SQLiteStore) DeleteCertificates(ctx context.Context, userID int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM certificates WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteStore) SaveQuestionBank(ctx context.Context, bank mock.QuestionBank) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO question_banks (
			id, name, description, category, tags, is_public,
			randomize_questions, randomize_options, questions_per_quiz, question_count, created_at_unix
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bank.ID,
		bank.Name,
		bank.Description,
		bank.Category,
		bank.Tags,
		boolToInt(bank.IsPublic),
		boolToInt(bank.RandomizeQuestions),
		boolToInt(bank.RandomizeOptions),
		bank.QuestionsPerQuiz,
		bank.QuestionCount,
		bank.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) QuestionBanks(ctx context.Context) ([]mock.QuestionBank, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, name, description, category, tags, is_public,
			randomize_questions, randomize_options, questions_per_quiz, question_count, created_at_unix
		 FROM question_banks
		 ORDER BY seq DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var banks []mock.QuestionBank
	for rows.Next() {
		var (
			bank                                  mock.QuestionBank
			isPublic, randQuestions, randOptions int
			createdAt                             int64
		)
		if err := rows.Scan(
			&bank.ID,
			&bank.Name,
			&bank.Description,
			&bank.Category,
			&bank.Tags,
			&isPublic,
			&randQuestions,
			&randOptions,
			&bank.QuestionsPerQuiz,
			&bank.QuestionCount,
			&createdAt,
		); err != nil {
			return nil, err
		}
		bank.IsPublic = isPublic == 1
		bank.RandomizeQuestions = randQuestions == 1
		bank.RandomizeOptions = randOptions == 1
		bank.CreatedAt = time.Unix(0, createdAt).UTC()
		banks = append(banks, bank)
	}
	return banks, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"credentia/pkg/domain"
	"credentia/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL for deployments that need
// durability across restarts. Token IDs come from the table's identity
// sequence; the service's validate-then-write ordering keeps them dense.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the credentials table when absent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credentials (
			token_id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
			student           TEXT        NOT NULL,
			course_id         BIGINT      NOT NULL,
			skill_achieved    TEXT        NOT NULL,
			competency_level  INT         NOT NULL,
			issue_date        TIMESTAMPTZ NOT NULL,
			expiry_date       TIMESTAMPTZ,
			fingerprint       TEXT        NOT NULL,
			assessment_score  BIGINT      NOT NULL,
			is_revoked        BOOLEAN     NOT NULL DEFAULT FALSE
		);
		CREATE INDEX IF NOT EXISTS credentials_student_idx ON credentials (student);
	`)
	if err != nil {
		return fmt.Errorf("migrate credentials: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, credential Credential) (uint64, error) {
	var expiry sql.NullTime
	if !credential.ExpiryDate.IsZero() {
		expiry = sql.NullTime{Time: credential.ExpiryDate, Valid: true}
	}
	var tokenID uint64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO credentials
			(student, course_id, skill_achieved, competency_level,
			 issue_date, expiry_date, fingerprint, assessment_score, is_revoked)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING token_id`,
		credential.Student.String(), credential.CourseID, credential.SkillAchieved,
		credential.CompetencyLevel, credential.IssueDate, expiry,
		credential.VerificationFingerprint, credential.AssessmentScore, credential.IsRevoked,
	).Scan(&tokenID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, sentinel.ErrConflict
		}
		return 0, fmt.Errorf("insert credential: %w", err)
	}
	return tokenID, nil
}

func (s *PostgresStore) Update(ctx context.Context, credential Credential) error {
	var expiry sql.NullTime
	if !credential.ExpiryDate.IsZero() {
		expiry = sql.NullTime{Time: credential.ExpiryDate, Valid: true}
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE credentials
		SET expiry_date = $2, is_revoked = $3
		WHERE token_id = $1`,
		credential.TokenID, expiry, credential.IsRevoked,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByTokenID(ctx context.Context, tokenID uint64) (Credential, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT token_id, student, course_id, skill_achieved, competency_level,
		       issue_date, expiry_date, fingerprint, assessment_score, is_revoked
		FROM credentials WHERE token_id = $1`, tokenID)
	credential, err := scanCredential(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Credential{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Credential{}, fmt.Errorf("find credential by token id: %w", err)
	}
	return credential, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, student domain.Address) ([]Credential, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token_id, student, course_id, skill_achieved, competency_level,
		       issue_date, expiry_date, fingerprint, assessment_score, is_revoked
		FROM credentials WHERE student = $1 ORDER BY token_id`, student.String())
	if err != nil {
		return nil, fmt.Errorf("list credentials by student: %w", err)
	}
	defer rows.Close()

	var out []Credential
	for rows.Next() {
		credential, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, credential)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list credentials by student: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Count(ctx context.Context) (uint64, error) {
	var count uint64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCredential(row rowScanner) (Credential, error) {
	var (
		credential Credential
		student    string
		expiry     sql.NullTime
	)
	err := row.Scan(
		&credential.TokenID, &student, &credential.CourseID,
		&credential.SkillAchieved, &credential.CompetencyLevel,
		&credential.IssueDate, &expiry, &credential.VerificationFingerprint,
		&credential.AssessmentScore, &credential.IsRevoked,
	)
	if err != nil {
		return Credential{}, err
	}
	credential.Student = domain.Address(student)
	if expiry.Valid {
		credential.ExpiryDate = expiry.Time
	}
	return credential, nil
}

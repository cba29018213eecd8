package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Go-Pr0/stock-analyze-backend/config"
	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
)

// ErrNotFound is returned when a requested row does not exist or does not
// belong to the requesting user.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a uniqueness constraint.
var ErrDuplicate = errors.New("already exists")

const pqUniqueViolation = "23505"

type Store struct {
	DB *sql.DB
}

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
}

// New opens a Postgres connection from config and verifies it.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	return NewWithDSN(ctx, cfg.DSN())
}

// NewWithDSN constructs the Store using an explicit Postgres DSN
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// User operations

func (s *Store) CreateUser(ctx context.Context, email, hash string, isAdmin bool) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, is_admin) VALUES ($1,$2,$3) RETURNING id`,
		email, hash, isAdmin).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrDuplicate
	}
	return id, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_admin, created_at FROM users WHERE email=$1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id string) (User, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_admin, created_at FROM users WHERE id=$1`,
		id).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	return u, err
}

// Whitelist operations. Signup is gated on a pre-approved email list.

func (s *Store) IsEmailWhitelisted(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM whitelisted_emails WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *Store) AddWhitelistedEmail(ctx context.Context, email string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO whitelisted_emails (email) VALUES ($1) ON CONFLICT (email) DO NOTHING`, email)
	return err
}

func (s *Store) RemoveWhitelistedEmail(ctx context.Context, email string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM whitelisted_emails WHERE email=$1`, email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListWhitelistedEmails(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT email FROM whitelisted_emails ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		out = append(out, email)
	}
	return out, rows.Err()
}

// Report operations

// SaveReport persists a completed report for ownerID. Competitor sets are
// stored as JSON columns alongside the main report payload.
func (s *Store) SaveReport(ctx context.Context, report research.ResearchReport, ownerID string) error {
	data, err := json.Marshal(report.Data)
	if err != nil {
		return fmt.Errorf("marshal report data: %w", err)
	}
	var globalJSON, nationalJSON []byte
	if report.Data.Competitive != nil {
		if globalJSON, err = json.Marshal(report.Data.Competitive.GlobalCompetitors); err != nil {
			return fmt.Errorf("marshal global competitors: %w", err)
		}
		if nationalJSON, err = json.Marshal(report.Data.Competitive.NationalCompetitors); err != nil {
			return fmt.Errorf("marshal national competitors: %w", err)
		}
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO research_reports (id, user_id, company_name, created_at, report_data, global_competitors, national_competitors)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  report_data          = EXCLUDED.report_data,
  global_competitors   = EXCLUDED.global_competitors,
  national_competitors = EXCLUDED.national_competitors;
`, report.ID, ownerID, report.CompanyName, report.Timestamp, data, nullableJSON(globalJSON), nullableJSON(nationalJSON))
	return err
}

func nullableJSON(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func (s *Store) GetReportsByUser(ctx context.Context, userID string, limit int) ([]research.ResearchReport, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, company_name, created_at, report_data, global_competitors, national_competitors
FROM research_reports
WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []research.ResearchReport
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, report)
	}
	return out, rows.Err()
}

func (s *Store) GetReportByID(ctx context.Context, id, userID string) (research.ResearchReport, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, company_name, created_at, report_data, global_competitors, national_competitors
FROM research_reports
WHERE id=$1 AND user_id=$2
`, id, userID)
	report, err := scanReport(row)
	if err == sql.ErrNoRows {
		return research.ResearchReport{}, ErrNotFound
	}
	return report, err
}

func (s *Store) DeleteReport(ctx context.Context, id, userID string) error {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM research_reports WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (research.ResearchReport, error) {
	var (
		report       research.ResearchReport
		createdAt    time.Time
		dataBytes    []byte
		globalJSON   []byte
		nationalJSON []byte
	)
	if err := row.Scan(&report.ID, &report.CompanyName, &createdAt, &dataBytes, &globalJSON, &nationalJSON); err != nil {
		return research.ResearchReport{}, err
	}
	report.Timestamp = research.FormatTimestamp(createdAt)
	if err := json.Unmarshal(dataBytes, &report.Data); err != nil {
		return research.ResearchReport{}, fmt.Errorf("unmarshal report data: %w", err)
	}
	// Competitor columns are authoritative when present; older rows only
	// carry the embedded payload.
	if len(globalJSON) > 0 || len(nationalJSON) > 0 {
		comp := &research.CompetitiveAnalysis{}
		if len(globalJSON) > 0 {
			if err := json.Unmarshal(globalJSON, &comp.GlobalCompetitors); err != nil {
				return research.ResearchReport{}, fmt.Errorf("unmarshal global competitors: %w", err)
			}
		}
		if len(nationalJSON) > 0 {
			if err := json.Unmarshal(nationalJSON, &comp.NationalCompetitors); err != nil {
				return research.ResearchReport{}, fmt.Errorf("unmarshal national competitors: %w", err)
			}
		}
		if len(comp.GlobalCompetitors) > 0 || len(comp.NationalCompetitors) > 0 {
			report.Data.Competitive = comp
		}
	}
	return report, nil
}

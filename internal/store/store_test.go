package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/Go-Pr0/stock-analyze-backend/internal/research"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return &Store{DB: db}, mock, func() { db.Close() }
}

func sampleReport() research.ResearchReport {
	return research.ResearchReport{
		ID:          "report-1",
		CompanyName: "Analyze the growth potential for Apple",
		Timestamp:   "2026-03-01T12:00:00.000000Z",
		Data: research.ReportData{
			Overview: research.CompanyOverview{
				Name: "Apple Inc.", Ticker: "AAPL", Sector: "Technology",
				MarketCap: "$2.8T", Price: "$185.92", Change: "+1.24%",
			},
			Financials: research.Financials{
				Revenue: "$394.3B", NetIncome: "$99.8B", EPS: "$6.16", PERatio: "30.2",
			},
			Analysis: "## Executive Summary\nSolid growth.",
			Competitive: &research.CompetitiveAnalysis{
				GlobalCompetitors: []research.CompetitorRecord{
					{Ticker: "MSFT", Name: "Microsoft Corporation"},
				},
				NationalCompetitors: []research.CompetitorRecord{
					{Ticker: "GOOG", Name: "Alphabet Inc."},
				},
			},
		},
	}
}

func TestCreateUserDuplicate(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO users (email, password_hash, is_admin) VALUES ($1,$2,$3) RETURNING id`)).
		WithArgs("a@b.com", "hash", false).
		WillReturnError(&pq.Error{Code: "23505"})

	if _, err := st.CreateUser(context.Background(), "a@b.com", "hash", false); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "is_admin", "created_at"}).
		AddRow("user-1", "a@b.com", "hash", true, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, is_admin, created_at FROM users WHERE email=$1`)).
		WithArgs("a@b.com").
		WillReturnRows(rows)

	u, err := st.GetUserByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.ID != "user-1" || !u.IsAdmin {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetUserByEmailNotFound(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, is_admin, created_at FROM users WHERE email=$1`)).
		WithArgs("missing@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "is_admin", "created_at"}))

	if _, err := st.GetUserByEmail(context.Background(), "missing@b.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveReport(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	report := sampleReport()
	query := regexp.QuoteMeta(`
INSERT INTO research_reports (id, user_id, company_name, created_at, report_data, global_competitors, national_competitors)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  report_data          = EXCLUDED.report_data,
  global_competitors   = EXCLUDED.global_competitors,
  national_competitors = EXCLUDED.national_competitors;
`)
	mock.ExpectExec(query).
		WithArgs(report.ID, "user-1", report.CompanyName, report.Timestamp,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.SaveReport(context.Background(), report, "user-1"); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveReportWithoutCompetitive(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	report := sampleReport()
	report.Data.Competitive = nil
	mock.ExpectExec("INSERT INTO research_reports").
		WithArgs(report.ID, "user-1", report.CompanyName, report.Timestamp,
			sqlmock.AnyArg(), nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := st.SaveReport(context.Background(), report, "user-1"); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func reportRows(t *testing.T, report research.ResearchReport) *sqlmock.Rows {
	t.Helper()
	data, err := json.Marshal(report.Data)
	if err != nil {
		t.Fatalf("marshal report data: %v", err)
	}
	var globalJSON, nationalJSON interface{}
	if report.Data.Competitive != nil {
		g, _ := json.Marshal(report.Data.Competitive.GlobalCompetitors)
		n, _ := json.Marshal(report.Data.Competitive.NationalCompetitors)
		globalJSON, nationalJSON = g, n
	}
	created, err := time.Parse("2006-01-02T15:04:05.000000Z07:00", report.Timestamp)
	if err != nil {
		t.Fatalf("parse timestamp: %v", err)
	}
	return sqlmock.NewRows([]string{"id", "company_name", "created_at", "report_data", "global_competitors", "national_competitors"}).
		AddRow(report.ID, report.CompanyName, created, data, globalJSON, nationalJSON)
}

func TestGetReportByID(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	want := sampleReport()
	mock.ExpectQuery("SELECT id, company_name, created_at, report_data, global_competitors, national_competitors").
		WithArgs(want.ID, "user-1").
		WillReturnRows(reportRows(t, want))

	got, err := st.GetReportByID(context.Background(), want.ID, "user-1")
	if err != nil {
		t.Fatalf("GetReportByID: %v", err)
	}
	if got.ID != want.ID || got.CompanyName != want.CompanyName {
		t.Fatalf("unexpected report identity: %+v", got)
	}
	if got.Timestamp != want.Timestamp {
		t.Fatalf("timestamp = %q, want %q", got.Timestamp, want.Timestamp)
	}
	if got.Data.Competitive == nil {
		t.Fatal("expected competitive section")
	}
	if got.Data.Competitive.GlobalCompetitors[0].Ticker != "MSFT" {
		t.Fatalf("unexpected global competitors: %+v", got.Data.Competitive.GlobalCompetitors)
	}
}

func TestGetReportByIDNotFound(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	mock.ExpectQuery("SELECT id, company_name, created_at, report_data").
		WithArgs("missing", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_name", "created_at", "report_data", "global_competitors", "national_competitors"}))

	if _, err := st.GetReportByID(context.Background(), "missing", "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReportsByUserDefaultsLimit(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	want := sampleReport()
	mock.ExpectQuery("SELECT id, company_name, created_at, report_data").
		WithArgs("user-1", 50).
		WillReturnRows(reportRows(t, want))

	got, err := st.GetReportsByUser(context.Background(), "user-1", 0)
	if err != nil {
		t.Fatalf("GetReportsByUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != want.ID {
		t.Fatalf("unexpected reports: %+v", got)
	}
}

func TestDeleteReportNotOwned(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("DELETE FROM research_reports").
		WithArgs("report-1", "other-user").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := st.DeleteReport(context.Background(), "report-1", "other-user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWhitelistRoundtrip(t *testing.T) {
	st, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("INSERT INTO whitelisted_emails").
		WithArgs("a@b.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT 1 FROM whitelisted_emails WHERE email=$1)`)).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	if err := st.AddWhitelistedEmail(context.Background(), "a@b.com"); err != nil {
		t.Fatalf("AddWhitelistedEmail: %v", err)
	}
	ok, err := st.IsEmailWhitelisted(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("IsEmailWhitelisted: %v", err)
	}
	if !ok {
		t.Fatal("expected email to be whitelisted")
	}
}

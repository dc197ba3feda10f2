/*
Package sqlite provides a SQLite-backed implementation of pension.Store.

PURPOSE:
  Persists case files, career segments, cotisation periods, payments,
  documents and payment statistics. Services only see pension.Store.

KEY TABLES:
  case_files:         both case-file kinds, beneficiary columns inlined
  careers:            career segments         (cascade on case-file delete)
  cotisation_periods: cotisation periods      (cascade on case-file delete)
  documents:          metadata + content BLOB (cascade on case-file delete)
  payments:           disbursements           (case_file_id SET NULL on delete)
  payment_statistics: one snapshot per period (upsert)

ENCODING:
  - Decimals are TEXT (decimal.String), never REAL
  - Calendar dates are TEXT "2006-01-02"
  - Timestamps are TEXT in a fixed-width UTC layout so they sort as text
  - Periods are TEXT "YYYY-MM"

SCHEMA:
  Versioned SQL files in migrations/, embedded and applied by
  golang-migrate on New(). See migrate.go.

CONCURRENCY:
  sync.RWMutex serialises writers. SQLite is opened with foreign keys on
  and WAL journaling.

USAGE:
  store, err := sqlite.New("./data/pension.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - pension/store.go: interface definitions
  - pension/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/pension-engine/pension"
)

// Store implements pension.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ pension.Store = (*Store)(nil)

// New opens the database at dbPath and applies pending migrations.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	store, err := Open(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.MigrateUp(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Open opens the database without touching the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a distinct database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Reset deletes every row, keeping the schema.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"payment_statistics", "documents", "payments", "cotisation_periods", "careers", "case_files"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// CASE FILES (pension.CaseFileStore)
// =============================================================================

const caseFileColumns = `id, reference, kind, status, owner_id, social_security_number,
	last_name, first_name, birth_date, address, email, phone,
	created_at, filed_at, validated_at, cached_pension`

func (s *Store) SaveCaseFile(ctx context.Context, cf pension.CaseFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cached sql.NullString
	if cf.CachedPension != nil {
		cached = sql.NullString{String: cf.CachedPension.String(), Valid: true}
	}

	query := `
		INSERT INTO case_files (` + caseFileColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			reference = excluded.reference,
			kind = excluded.kind,
			status = excluded.status,
			owner_id = excluded.owner_id,
			social_security_number = excluded.social_security_number,
			last_name = excluded.last_name,
			first_name = excluded.first_name,
			birth_date = excluded.birth_date,
			address = excluded.address,
			email = excluded.email,
			phone = excluded.phone,
			filed_at = excluded.filed_at,
			validated_at = excluded.validated_at,
			cached_pension = excluded.cached_pension
	`
	b := cf.Beneficiary
	_, err := s.db.ExecContext(ctx, query,
		cf.ID,
		cf.Reference,
		string(cf.Kind),
		string(cf.Status),
		nullString(cf.OwnerID),
		nullString(cf.SocialSecurityNumber),
		nullString(b.LastName),
		nullString(b.FirstName),
		nullDate(b.BirthDate),
		nullString(b.Address),
		nullString(b.Email),
		nullString(b.Phone),
		formatTimestamp(cf.CreatedAt),
		nullDate(cf.FiledAt),
		nullTimestamp(cf.ValidatedAt),
		cached,
	)
	if err != nil {
		return fmt.Errorf("failed to save case file: %w", err)
	}
	return nil
}

func (s *Store) GetCaseFile(ctx context.Context, id string) (pension.CaseFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+caseFileColumns+` FROM case_files WHERE id = ?`, id)
	cf, err := scanCaseFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.CaseFile{}, pension.NotFound("case file", id)
	}
	return cf, err
}

func (s *Store) ListCaseFiles(ctx context.Context, filter pension.CaseFileFilter) ([]pension.CaseFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := []string{"1 = 1"}, []any{}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	query := `SELECT ` + caseFileColumns + ` FROM case_files WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query case files: %w", err)
	}
	defer rows.Close()

	out := make([]pension.CaseFile, 0)
	for rows.Next() {
		cf, err := scanCaseFile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cf)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCaseFile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// careers, periods and documents cascade; payments are set null
	res, err := s.db.ExecContext(ctx, "DELETE FROM case_files WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete case file: %w", err)
	}
	return requireAffected(res, "case file", id)
}

func scanCaseFile(row scanner) (pension.CaseFile, error) {
	var (
		cf                                          pension.CaseFile
		kind, status, createdAt                     string
		ownerID, ssn, lastName, firstName, birth    sql.NullString
		address, email, phone, filed, validated, cp sql.NullString
	)
	err := row.Scan(&cf.ID, &cf.Reference, &kind, &status, &ownerID, &ssn,
		&lastName, &firstName, &birth, &address, &email, &phone,
		&createdAt, &filed, &validated, &cp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cf, err
		}
		return cf, fmt.Errorf("failed to scan case file: %w", err)
	}

	cf.Kind = pension.Kind(kind)
	cf.Status = pension.Status(status)
	cf.OwnerID = ownerID.String
	cf.SocialSecurityNumber = ssn.String
	cf.Beneficiary = pension.Beneficiary{
		LastName:  lastName.String,
		FirstName: firstName.String,
		BirthDate: parseNullDate(birth),
		Address:   address.String,
		Email:     email.String,
		Phone:     phone.String,
	}
	cf.CreatedAt = parseTimestamp(createdAt)
	cf.FiledAt = parseNullDate(filed)
	cf.ValidatedAt = parseNullTimestamp(validated)
	if cp.Valid {
		d := pension.MustParseDecimal(cp.String)
		cf.CachedPension = &d
	}
	return cf, nil
}

// =============================================================================
// CAREERS (pension.CareerStore)
// =============================================================================

const careerColumns = `id, case_file_id, employer, position, start_date, end_date,
	average_salary, regime, validated_quarters`

func (s *Store) SaveCareer(ctx context.Context, seg pension.CareerSegment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO careers (` + careerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employer = excluded.employer,
			position = excluded.position,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			average_salary = excluded.average_salary,
			regime = excluded.regime,
			validated_quarters = excluded.validated_quarters
	`
	_, err := s.db.ExecContext(ctx, query,
		seg.ID,
		seg.CaseFileID,
		seg.Employer,
		seg.Position,
		formatDate(seg.StartDate),
		nullDate(seg.EndDate),
		seg.AverageSalary.String(),
		string(seg.Regime),
		seg.ValidatedQuarters,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return pension.NotFound("case file", seg.CaseFileID)
		}
		return fmt.Errorf("failed to save career: %w", err)
	}
	return nil
}

func (s *Store) GetCareer(ctx context.Context, id string) (pension.CareerSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+careerColumns+` FROM careers WHERE id = ?`, id)
	seg, err := scanCareer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.CareerSegment{}, pension.NotFound("career", id)
	}
	return seg, err
}

func (s *Store) ListCareers(ctx context.Context, filter pension.CareerFilter) ([]pension.CareerSegment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := []string{"1 = 1"}, []any{}
	if filter.CaseFileID != "" {
		where = append(where, "case_file_id = ?")
		args = append(args, filter.CaseFileID)
	}
	if filter.Regime != "" {
		where = append(where, "regime = ?")
		args = append(args, string(filter.Regime))
	}
	if filter.Employer != "" {
		where = append(where, "instr(lower(employer), lower(?)) > 0")
		args = append(args, filter.Employer)
	}

	query := `SELECT ` + careerColumns + ` FROM careers WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY start_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query careers: %w", err)
	}
	defer rows.Close()

	out := make([]pension.CareerSegment, 0)
	for rows.Next() {
		seg, err := scanCareer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}

func (s *Store) DeleteCareer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM careers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete career: %w", err)
	}
	return requireAffected(res, "career", id)
}

func scanCareer(row scanner) (pension.CareerSegment, error) {
	var (
		seg                   pension.CareerSegment
		start, salary, regime string
		end                   sql.NullString
	)
	err := row.Scan(&seg.ID, &seg.CaseFileID, &seg.Employer, &seg.Position,
		&start, &end, &salary, &regime, &seg.ValidatedQuarters)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return seg, err
		}
		return seg, fmt.Errorf("failed to scan career: %w", err)
	}
	seg.StartDate = parseDate(start)
	seg.EndDate = parseNullDate(end)
	seg.AverageSalary = pension.MustParseDecimal(salary)
	seg.Regime = pension.CareerRegime(regime)
	return seg, nil
}

// =============================================================================
// COTISATION PERIODS (pension.PeriodStore)
// =============================================================================

const periodColumns = `id, case_file_id, start_date, end_date, contributed_salary, regime`

func (s *Store) SavePeriod(ctx context.Context, p pension.CotisationPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO cotisation_periods (` + periodColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			contributed_salary = excluded.contributed_salary,
			regime = excluded.regime
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.CaseFileID,
		formatDate(p.StartDate),
		formatDate(p.EndDate),
		p.ContributedSalary.String(),
		string(p.Regime),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return pension.NotFound("case file", p.CaseFileID)
		}
		return fmt.Errorf("failed to save period: %w", err)
	}
	return nil
}

func (s *Store) GetPeriod(ctx context.Context, id string) (pension.CotisationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+periodColumns+` FROM cotisation_periods WHERE id = ?`, id)
	p, err := scanPeriod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.CotisationPeriod{}, pension.NotFound("period", id)
	}
	return p, err
}

func (s *Store) ListPeriods(ctx context.Context, caseFileID string) ([]pension.CotisationPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + periodColumns + ` FROM cotisation_periods`
	var args []any
	if caseFileID != "" {
		query += ` WHERE case_file_id = ?`
		args = append(args, caseFileID)
	}
	query += ` ORDER BY start_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	out := make([]pension.CotisationPeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) DeletePeriod(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM cotisation_periods WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete period: %w", err)
	}
	return requireAffected(res, "period", id)
}

func scanPeriod(row scanner) (pension.CotisationPeriod, error) {
	var (
		p                          pension.CotisationPeriod
		start, end, salary, regime string
	)
	if err := row.Scan(&p.ID, &p.CaseFileID, &start, &end, &salary, &regime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan period: %w", err)
	}
	p.StartDate = parseDate(start)
	p.EndDate = parseDate(end)
	p.ContributedSalary = pension.MustParseDecimal(salary)
	p.Regime = pension.CotisationRegime(regime)
	return p, nil
}

// =============================================================================
// PAYMENTS (pension.PaymentStore)
// =============================================================================

const paymentColumns = `id, case_file_id, amount, transfer_date, iban, period, type, status`

func (s *Store) SavePayment(ctx context.Context, p pension.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			case_file_id = excluded.case_file_id,
			amount = excluded.amount,
			transfer_date = excluded.transfer_date,
			iban = excluded.iban,
			period = excluded.period,
			type = excluded.type,
			status = excluded.status
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		nullString(p.CaseFileID),
		p.Amount.String(),
		formatDate(p.TransferDate),
		p.IBAN,
		p.Period.String(),
		string(p.Type),
		string(p.Status),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return pension.NotFound("case file", p.CaseFileID)
		}
		return fmt.Errorf("failed to save payment: %w", err)
	}
	return nil
}

func (s *Store) GetPayment(ctx context.Context, id string) (pension.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	p, err := scanPayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.Payment{}, pension.NotFound("payment", id)
	}
	return p, err
}

func (s *Store) ListPayments(ctx context.Context, filter pension.PaymentFilter) ([]pension.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := []string{"1 = 1"}, []any{}
	if filter.CaseFileID != "" {
		where = append(where, "case_file_id = ?")
		args = append(args, filter.CaseFileID)
	}
	if !filter.Period.IsZero() {
		where = append(where, "period = ?")
		args = append(args, filter.Period.String())
	}

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY transfer_date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	out := make([]pension.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPayment(row scanner) (pension.Payment, error) {
	var (
		p                                   pension.Payment
		caseFileID                          sql.NullString
		amount, transfer, period, typ, stat string
	)
	if err := row.Scan(&p.ID, &caseFileID, &amount, &transfer, &p.IBAN, &period, &typ, &stat); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan payment: %w", err)
	}
	p.CaseFileID = caseFileID.String
	p.Amount = pension.MustParseDecimal(amount)
	p.TransferDate = parseDate(transfer)
	p.Period, _ = pension.ParseYearMonth(period)
	p.Type = pension.PaymentType(typ)
	p.Status = pension.PaymentStatus(stat)
	return p, nil
}

// =============================================================================
// DOCUMENTS (pension.DocumentStore)
// =============================================================================

const documentColumns = `id, case_file_id, name, file_name, mime_type, size, description, uploaded_at`

func (s *Store) SaveDocument(ctx context.Context, d pension.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO documents (` + documentColumns + `, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			file_name = excluded.file_name,
			mime_type = excluded.mime_type,
			size = excluded.size,
			description = excluded.description,
			uploaded_at = excluded.uploaded_at,
			content = excluded.content
	`
	content := d.Content
	if content == nil {
		content = []byte{}
	}
	_, err := s.db.ExecContext(ctx, query,
		d.ID,
		d.CaseFileID,
		d.Name,
		d.FileName,
		d.MimeType,
		d.Size,
		nullString(d.Description),
		formatTimestamp(d.UploadedAt),
		content,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return pension.NotFound("case file", d.CaseFileID)
		}
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (pension.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.Document{}, pension.NotFound("document", id)
	}
	return d, err
}

func (s *Store) GetDocumentContent(ctx context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var content []byte
	err := s.db.QueryRowContext(ctx, "SELECT content FROM documents WHERE id = ?", id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, pension.NotFound("document", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load document content: %w", err)
	}
	return content, nil
}

func (s *Store) ListDocuments(ctx context.Context, caseFileID string) ([]pension.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + documentColumns + ` FROM documents`
	var args []any
	if caseFileID != "" {
		query += ` WHERE case_file_id = ?`
		args = append(args, caseFileID)
	}
	query += ` ORDER BY uploaded_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	out := make([]pension.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDocumentDescription(ctx context.Context, id, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE documents SET description = ? WHERE id = ?", nullString(description), id)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return requireAffected(res, "document", id)
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return requireAffected(res, "document", id)
}

func scanDocument(row scanner) (pension.Document, error) {
	var (
		d           pension.Document
		description sql.NullString
		uploadedAt  string
	)
	err := row.Scan(&d.ID, &d.CaseFileID, &d.Name, &d.FileName, &d.MimeType, &d.Size, &description, &uploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d, err
		}
		return d, fmt.Errorf("failed to scan document: %w", err)
	}
	d.Description = description.String
	d.UploadedAt = parseTimestamp(uploadedAt)
	return d, nil
}

// =============================================================================
// STATISTICS (pension.StatisticsStore)
// =============================================================================

func (s *Store) SaveStatistics(ctx context.Context, st pension.PaymentStatistics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO payment_statistics (period, total_disbursed, file_count, average, recorded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(period) DO UPDATE SET
			total_disbursed = excluded.total_disbursed,
			file_count = excluded.file_count,
			average = excluded.average,
			recorded_at = excluded.recorded_at
	`
	_, err := s.db.ExecContext(ctx, query,
		st.Period.String(),
		st.TotalDisbursed.String(),
		st.FileCount,
		st.Average.String(),
		formatTimestamp(st.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save statistics: %w", err)
	}
	return nil
}

func (s *Store) GetStatistics(ctx context.Context, period pension.YearMonth) (pension.PaymentStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT period, total_disbursed, file_count, average, recorded_at
		FROM payment_statistics WHERE period = ?`, period.String())
	st, err := scanStatistics(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pension.PaymentStatistics{}, pension.NotFound("statistics", period.Display())
	}
	return st, err
}

func (s *Store) ListStatistics(ctx context.Context) ([]pension.PaymentStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT period, total_disbursed, file_count, average, recorded_at
		FROM payment_statistics ORDER BY period ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query statistics: %w", err)
	}
	defer rows.Close()

	out := make([]pension.PaymentStatistics, 0)
	for rows.Next() {
		st, err := scanStatistics(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func scanStatistics(row scanner) (pension.PaymentStatistics, error) {
	var (
		st                                 pension.PaymentStatistics
		period, total, average, recordedAt string
	)
	if err := row.Scan(&period, &total, &st.FileCount, &average, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return st, err
		}
		return st, fmt.Errorf("failed to scan statistics: %w", err)
	}
	st.Period, _ = pension.ParseYearMonth(period)
	st.TotalDisbursed = pension.MustParseDecimal(total)
	st.Average = pension.MustParseDecimal(average)
	st.RecordedAt = parseTimestamp(recordedAt)
	return st, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

// timestampLayout is fixed-width so that text order equals time order.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t
}

func nullTimestamp(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(*t), Valid: true}
}

func parseNullTimestamp(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTimestamp(s.String)
	return &t
}

func formatDate(t time.Time) string {
	return t.Format(pension.DateLayout)
}

func parseDate(s string) time.Time {
	t, _ := time.Parse(pension.DateLayout, s)
	return t
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatDate(*t), Valid: true}
}

func parseNullDate(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseDate(s.String)
	return &t
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return pension.NotFound(resource, id)
	}
	return nil
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var created = time.Date(2025, time.February, 3, 8, 15, 30, 0, time.UTC)

func saveCaseFile(t *testing.T, store *sqlite.Store, id string, kind pension.Kind) pension.CaseFile {
	t.Helper()
	birth := pension.NewDate(1958, 4, 12)
	cf := pension.CaseFile{
		ID:                   id,
		Reference:            "DOS-2025-" + id,
		Kind:                 kind,
		Status:               pension.InitialStatus(kind),
		SocialSecurityNumber: "158047512345678",
		Beneficiary: pension.Beneficiary{
			LastName:  "Durand",
			FirstName: "Marie",
			BirthDate: &birth,
			Email:     "marie.durand@example.org",
		},
		CreatedAt: created,
	}
	if kind == pension.KindCotisation {
		cf.OwnerID = "user-1"
	}
	require.NoError(t, store.SaveCaseFile(context.Background(), cf))
	return cf
}

// =============================================================================
// SCHEMA
// =============================================================================

func TestMigrations_Applied(t *testing.T) {
	store := newTestStore(t)

	version, dirty, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// applying again is a no-op
	require.NoError(t, store.MigrateUp())
}

func TestMigrations_DownAndUp(t *testing.T) {
	store := newTestStore(t)
	saveCaseFile(t, store, "cf-1", pension.KindCareer)

	require.NoError(t, store.MigrateDown())
	version, _, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)

	require.NoError(t, store.MigrateUp())
	files, err := store.ListCaseFiles(context.Background(), pension.CaseFileFilter{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

// =============================================================================
// CASE FILES
// =============================================================================

func TestCaseFile_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cf := saveCaseFile(t, store, "cf-1", pension.KindCotisation)

	got, err := store.GetCaseFile(ctx, "cf-1")
	require.NoError(t, err)
	assert.Equal(t, cf.Reference, got.Reference)
	assert.Equal(t, pension.KindCotisation, got.Kind)
	assert.Equal(t, pension.StatusDraft, got.Status)
	assert.Equal(t, "user-1", got.OwnerID)
	assert.Equal(t, "Durand", got.Beneficiary.LastName)
	require.NotNil(t, got.Beneficiary.BirthDate)
	assert.Equal(t, pension.NewDate(1958, 4, 12), *got.Beneficiary.BirthDate)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.ValidatedAt)
	assert.Nil(t, got.CachedPension)

	// update through the upsert
	validatedAt := created.Add(48 * time.Hour)
	amount := pension.MustParseDecimal("2700.0000")
	got.Status = pension.StatusValidated
	got.ValidatedAt = &validatedAt
	got.CachedPension = &amount
	require.NoError(t, store.SaveCaseFile(ctx, got))

	again, err := store.GetCaseFile(ctx, "cf-1")
	require.NoError(t, err)
	assert.Equal(t, pension.StatusValidated, again.Status)
	require.NotNil(t, again.ValidatedAt)
	assert.True(t, validatedAt.Equal(*again.ValidatedAt))
	require.NotNil(t, again.CachedPension)
	assert.True(t, amount.Equal(*again.CachedPension))
}

func TestCaseFile_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetCaseFile(ctx, "nope")
	var nf *pension.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "case file", nf.Resource)

	assert.True(t, pension.IsNotFound(store.DeleteCaseFile(ctx, "nope")))
}

func TestCaseFile_ListFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCareer)
	saveCaseFile(t, store, "cf-2", pension.KindCotisation)
	saveCaseFile(t, store, "cf-3", pension.KindCareer)

	all, err := store.ListCaseFiles(ctx, pension.CaseFileFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "cf-1", all[0].ID, "ties on created_at break by id")

	careers, err := store.ListCaseFiles(ctx, pension.CaseFileFilter{Kind: pension.KindCareer})
	require.NoError(t, err)
	assert.Len(t, careers, 2)

	owned, err := store.ListCaseFiles(ctx, pension.CaseFileFilter{OwnerID: "user-1", Status: pension.StatusDraft})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "cf-2", owned[0].ID)
}

func TestCaseFile_DeleteCascades(t *testing.T) {
	// GIVEN: A career case file with a segment, a document and a payment
	// WHEN: Deleting the case file
	// THEN: Segment and document are gone, payment is kept and detached

	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCareer)

	require.NoError(t, store.SaveCareer(ctx, pension.CareerSegment{
		ID: "car-1", CaseFileID: "cf-1", Employer: "Acme", Position: "Clerk",
		StartDate: pension.NewDate(1990, 1, 1), AverageSalary: pension.MustParseDecimal("30000"),
		Regime: pension.RegimeGeneral, ValidatedQuarters: 40,
	}))
	require.NoError(t, store.SaveDocument(ctx, pension.Document{
		ID: "doc-1", CaseFileID: "cf-1", Name: "a.pdf", FileName: "a.pdf", MimeType: "application/pdf",
		Size: 3, UploadedAt: created, Content: []byte("pdf"),
	}))
	require.NoError(t, store.SavePayment(ctx, pension.Payment{
		ID: "pay-1", CaseFileID: "cf-1", Amount: pension.MustParseDecimal("100"),
		TransferDate: pension.NewDate(2025, 2, 3), IBAN: "FR7630006000011234567890189",
		Period: pension.YearMonth{Year: 2025, Month: time.February}, Type: pension.PaymentPension, Status: pension.PaymentPending,
	}))

	require.NoError(t, store.DeleteCaseFile(ctx, "cf-1"))

	_, err := store.GetCareer(ctx, "car-1")
	assert.True(t, pension.IsNotFound(err))
	_, err = store.GetDocument(ctx, "doc-1")
	assert.True(t, pension.IsNotFound(err))

	p, err := store.GetPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Empty(t, p.CaseFileID)
}

// =============================================================================
// CAREERS AND PERIODS
// =============================================================================

func TestCareers_SaveListSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCareer)

	end := pension.NewDate(1999, 12, 31)
	require.NoError(t, store.SaveCareer(ctx, pension.CareerSegment{
		ID: "car-2", CaseFileID: "cf-1", Employer: "City Hall", Position: "Clerk",
		StartDate: pension.NewDate(2000, 1, 1), AverageSalary: pension.MustParseDecimal("25000.50"),
		Regime: pension.RegimePublicService, ValidatedQuarters: 60,
	}))
	require.NoError(t, store.SaveCareer(ctx, pension.CareerSegment{
		ID: "car-1", CaseFileID: "cf-1", Employer: "ACME Industries", Position: "Welder",
		StartDate: pension.NewDate(1990, 1, 1), EndDate: &end, AverageSalary: pension.MustParseDecimal("30000"),
		Regime: pension.RegimeGeneral, ValidatedQuarters: 40,
	}))

	list, err := store.ListCareers(ctx, pension.CareerFilter{CaseFileID: "cf-1"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "car-1", list[0].ID, "ordered by start date")
	require.NotNil(t, list[0].EndDate)
	assert.Equal(t, end, *list[0].EndDate)
	assert.True(t, pension.MustParseDecimal("25000.5").Equal(list[1].AverageSalary))

	found, err := store.ListCareers(ctx, pension.CareerFilter{Employer: "acme"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "car-1", found[0].ID)

	public, err := store.ListCareers(ctx, pension.CareerFilter{Regime: pension.RegimePublicService})
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "car-2", public[0].ID)

	require.NoError(t, store.DeleteCareer(ctx, "car-2"))
	assert.True(t, pension.IsNotFound(store.DeleteCareer(ctx, "car-2")))
}

func TestCareers_UnknownCaseFile(t *testing.T) {
	store := newTestStore(t)

	err := store.SaveCareer(context.Background(), pension.CareerSegment{
		ID: "car-1", CaseFileID: "missing", Employer: "Acme", Position: "Clerk",
		StartDate: pension.NewDate(1990, 1, 1), Regime: pension.RegimeGeneral,
	})
	assert.True(t, pension.IsNotFound(err))
}

func TestPeriods_SaveList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCotisation)

	require.NoError(t, store.SavePeriod(ctx, pension.CotisationPeriod{
		ID: "per-1", CaseFileID: "cf-1",
		StartDate: pension.NewDate(2010, 1, 1), EndDate: pension.NewDate(2020, 1, 1),
		ContributedSalary: pension.MustParseDecimal("36000"), Regime: pension.CotisationPrivate,
	}))

	periods, err := store.ListPeriods(ctx, "cf-1")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, pension.NewDate(2020, 1, 1), periods[0].EndDate)
	assert.Equal(t, pension.CotisationPrivate, periods[0].Regime)

	all, err := store.ListPeriods(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.DeletePeriod(ctx, "per-1"))
	_, err = store.GetPeriod(ctx, "per-1")
	assert.True(t, pension.IsNotFound(err))
}

// =============================================================================
// PAYMENTS, DOCUMENTS, STATISTICS
// =============================================================================

func TestPayments_FilterByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	jan := pension.YearMonth{Year: 2025, Month: time.January}
	feb := jan.AddMonths(1)

	for i, period := range []pension.YearMonth{jan, feb, feb} {
		require.NoError(t, store.SavePayment(ctx, pension.Payment{
			ID: string(rune('a' + i)), Amount: pension.MustParseDecimal("10"),
			TransferDate: period.Start(), IBAN: "FR7630006000011234567890189",
			Period: period, Type: pension.PaymentPension, Status: pension.PaymentPending,
		}))
	}

	inFeb, err := store.ListPayments(ctx, pension.PaymentFilter{Period: feb})
	require.NoError(t, err)
	assert.Len(t, inFeb, 2)
	assert.Equal(t, feb, inFeb[0].Period)
}

func TestDocuments_ContentSeparateFromMetadata(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCareer)

	require.NoError(t, store.SaveDocument(ctx, pension.Document{
		ID: "doc-1", CaseFileID: "cf-1", Name: "scan.png", FileName: "scan.png", MimeType: "image/png",
		Size: 4, Description: "ID card", UploadedAt: created, Content: []byte{1, 2, 3, 4},
	}))

	meta, err := store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Nil(t, meta.Content)
	assert.Equal(t, "ID card", meta.Description)
	assert.True(t, created.Equal(meta.UploadedAt))

	content, err := store.GetDocumentContent(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, content)

	require.NoError(t, store.UpdateDocumentDescription(ctx, "doc-1", "passport"))
	meta, err = store.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "passport", meta.Description)

	assert.True(t, pension.IsNotFound(store.UpdateDocumentDescription(ctx, "doc-2", "x")))
}

func TestStatistics_UpsertByPeriod(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	march := pension.YearMonth{Year: 2025, Month: time.March}

	require.NoError(t, store.SaveStatistics(ctx, pension.PaymentStatistics{
		Period: march, TotalDisbursed: pension.MustParseDecimal("100"), FileCount: 1,
		Average: pension.MustParseDecimal("100"), RecordedAt: created,
	}))
	require.NoError(t, store.SaveStatistics(ctx, pension.PaymentStatistics{
		Period: march, TotalDisbursed: pension.MustParseDecimal("300"), FileCount: 2,
		Average: pension.MustParseDecimal("150"), RecordedAt: created.Add(time.Hour),
	}))

	all, err := store.ListStatistics(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2, all[0].FileCount)

	got, err := store.GetStatistics(ctx, march)
	require.NoError(t, err)
	assert.True(t, pension.MustParseDecimal("150").Equal(got.Average))
	assert.Equal(t, march, got.Period)

	_, err = store.GetStatistics(ctx, march.Previous())
	assert.True(t, pension.IsNotFound(err))
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	saveCaseFile(t, store, "cf-1", pension.KindCareer)

	require.NoError(t, store.Reset(ctx))

	files, err := store.ListCaseFiles(ctx, pension.CaseFileFilter{})
	require.NoError(t, err)
	assert.Empty(t, files)
}

package dossier_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pension-engine/dossier"
	"github.com/warp/pension-engine/pension"
	"github.com/warp/pension-engine/pension/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type stubClock struct {
	now time.Time
}

func (s stubClock) Now() time.Time { return s.now }

var testNow = time.Date(2025, time.March, 14, 9, 30, 0, 0, time.UTC)

func newServices(t *testing.T) (*dossier.Services, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	svc := dossier.New(mem, pension.NewEngine(pension.DefaultRules()), dossier.Options{
		Clock:           stubClock{now: testNow},
		MaxDocumentSize: 1024,
	})
	return svc, mem
}

func createCareerFile(t *testing.T, svc *dossier.Services) pension.CaseFile {
	t.Helper()
	cf, err := svc.CaseFiles.Create(context.Background(), dossier.CreateCaseFileInput{
		Kind:                 pension.KindCareer,
		SocialSecurityNumber: "185057800608436",
		Beneficiary:          pension.Beneficiary{LastName: "Martin", FirstName: "Paul"},
	})
	require.NoError(t, err)
	return cf
}

func createCotisationFile(t *testing.T, svc *dossier.Services, owner string) pension.CaseFile {
	t.Helper()
	cf, err := svc.CaseFiles.Create(context.Background(), dossier.CreateCaseFileInput{
		Kind:    pension.KindCotisation,
		OwnerID: owner,
	})
	require.NoError(t, err)
	return cf
}

func careerSegment(salary string, quarters int) pension.CareerSegment {
	return pension.CareerSegment{
		Employer:          "Acme Industries",
		Position:          "Engineer",
		StartDate:         pension.NewDate(1990, 1, 1),
		AverageSalary:     pension.MustParseDecimal(salary),
		Regime:            pension.RegimeGeneral,
		ValidatedQuarters: quarters,
	}
}

// =============================================================================
// CASE FILES
// =============================================================================

func TestCreate_CareerStartsInProgress(t *testing.T) {
	svc, _ := newServices(t)

	cf := createCareerFile(t, svc)

	assert.Equal(t, pension.StatusInProgress, cf.Status)
	assert.Equal(t, testNow, cf.CreatedAt)
	assert.Nil(t, cf.FiledAt)
	assert.True(t, strings.HasPrefix(cf.Reference, "DOS-2025-"), cf.Reference)
	assert.Len(t, cf.ID, 36)
}

func TestCreate_CotisationStartsDraftAndFiledToday(t *testing.T) {
	svc, _ := newServices(t)

	cf := createCotisationFile(t, svc, "user-1")

	assert.Equal(t, pension.StatusDraft, cf.Status)
	require.NotNil(t, cf.FiledAt)
	assert.Equal(t, pension.NewDate(2025, 3, 14), *cf.FiledAt)
}

func TestCreate_CotisationWithoutOwnerRejected(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.CaseFiles.Create(context.Background(), dossier.CreateCaseFileInput{Kind: pension.KindCotisation})
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestCreate_UnknownKindRejected(t *testing.T) {
	svc, _ := newServices(t)

	_, err := svc.CaseFiles.Create(context.Background(), dossier.CreateCaseFileInput{Kind: "legacy"})
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestUpdateStatus_EnforcesMachine(t *testing.T) {
	// GIVEN: An IN_PROGRESS career case file
	// WHEN: Validating, then trying to go back
	// THEN: First succeeds and stamps ValidatedAt, second is a conflict

	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	validated, err := svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusValidated)
	require.NoError(t, err)
	assert.Equal(t, pension.StatusValidated, validated.Status)
	require.NotNil(t, validated.ValidatedAt)

	_, err = svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusInProgress)
	assert.ErrorIs(t, err, pension.ErrInvalidTransition)

	again, err := svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusValidated)
	require.NoError(t, err, "re-applying the current status is a no-op")
	assert.Equal(t, pension.StatusValidated, again.Status)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	email := "paul.martin@example.org"
	updated, err := svc.CaseFiles.Update(ctx, dossier.UpdateCaseFileInput{
		ID:          cf.ID,
		Beneficiary: dossier.BeneficiaryUpdate{Email: &email},
	})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Beneficiary.Email)
	assert.Equal(t, "Martin", updated.Beneficiary.LastName)

	bad := "not-an-email"
	_, err = svc.CaseFiles.Update(ctx, dossier.UpdateCaseFileInput{
		ID:          cf.ID,
		Beneficiary: dossier.BeneficiaryUpdate{Email: &bad},
	})
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestOwnerScoping(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	mine := createCotisationFile(t, svc, "alice")
	createCotisationFile(t, svc, "bob")

	list, err := svc.CaseFiles.ListOwned(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = svc.CaseFiles.GetOwned(ctx, "bob", mine.ID)
	assert.ErrorIs(t, err, pension.ErrForbidden)

	_, err = svc.CaseFiles.Submit(ctx, "bob", mine.ID)
	assert.ErrorIs(t, err, pension.ErrForbidden)
}

func TestSubmitAndValidate_CachesPension(t *testing.T) {
	// GIVEN: A DRAFT cotisation case file with one 10-year period
	// WHEN: The owner submits then validates it
	// THEN: Status is VALIDATED and the pension (2700) is cached

	svc, mem := newServices(t)
	ctx := context.Background()
	cf := createCotisationFile(t, svc, "alice")

	_, err := svc.Periods.Add(ctx, cf.ID, pension.CotisationPeriod{
		StartDate:         pension.NewDate(2010, 1, 1),
		EndDate:           pension.NewDate(2020, 1, 1),
		ContributedSalary: pension.MustParseDecimal("36000"),
		Regime:            pension.CotisationPrivate,
	})
	require.NoError(t, err)

	_, err = svc.CaseFiles.Validate(ctx, "alice", cf.ID)
	assert.ErrorIs(t, err, pension.ErrInvalidTransition, "cannot validate a draft")

	submitted, err := svc.CaseFiles.Submit(ctx, "alice", cf.ID)
	require.NoError(t, err)
	assert.Equal(t, pension.StatusInProgress, submitted.Status)

	validated, err := svc.CaseFiles.Validate(ctx, "alice", cf.ID)
	require.NoError(t, err)
	assert.Equal(t, pension.StatusValidated, validated.Status)
	require.NotNil(t, validated.CachedPension)
	assert.True(t, validated.CachedPension.Equal(pension.MustParseDecimal("2700")))

	stored, err := mem.GetCaseFile(ctx, cf.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CachedPension)
	assert.True(t, stored.CachedPension.Equal(pension.MustParseDecimal("2700")))
}

func TestUpdateStatus_ValidatedCachesCotisationPension(t *testing.T) {
	// GIVEN: A cotisation case file with one 10-year period of 36000
	svc, mem := newServices(t)
	ctx := context.Background()
	cf := createCotisationFile(t, svc, "alice")
	_, err := svc.Periods.Add(ctx, cf.ID, pension.CotisationPeriod{
		StartDate:         pension.NewDate(2010, 1, 1),
		EndDate:           pension.NewDate(2020, 1, 1),
		ContributedSalary: pension.MustParseDecimal("36000"),
		Regime:            pension.CotisationPrivate,
	})
	require.NoError(t, err)

	// WHEN: Staff move it to IN_PROGRESS then VALIDATED
	_, err = svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusInProgress)
	require.NoError(t, err)
	validated, err := svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusValidated)
	require.NoError(t, err)

	// THEN: The pension is cached as on the owner path
	require.NotNil(t, validated.CachedPension)
	assert.True(t, validated.CachedPension.Equal(pension.MustParseDecimal("2700")))
	stored, err := mem.GetCaseFile(ctx, cf.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CachedPension)
	assert.True(t, stored.CachedPension.Equal(pension.MustParseDecimal("2700")))
}

func TestUpdateStatus_ValidatedCareerNotCached(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	validated, err := svc.CaseFiles.UpdateStatus(ctx, cf.ID, pension.StatusValidated)
	require.NoError(t, err)

	assert.Equal(t, pension.StatusValidated, validated.Status)
	assert.Nil(t, validated.CachedPension)
}

func TestComputePension_Career(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	_, err := svc.Careers.Add(ctx, cf.ID, careerSegment("45000", 4))
	require.NoError(t, err)
	_, err = svc.Careers.Add(ctx, cf.ID, careerSegment("55000", 4))
	require.NoError(t, err)

	result, err := svc.CaseFiles.ComputePension(ctx, cf.ID)
	require.NoError(t, err)
	assert.True(t, result.Amount.Equal(pension.MustParseDecimal("1250")), result.Amount.String())
	assert.Equal(t, 8, result.Breakdown.ValidatedUnits)
}

func TestComputePension_EmptyAndMissing(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	result, err := svc.CaseFiles.ComputePension(ctx, cf.ID)
	require.NoError(t, err)
	assert.True(t, result.Amount.IsZero())

	_, err = svc.CaseFiles.ComputePension(ctx, "missing")
	assert.True(t, pension.IsNotFound(err))
}

func TestDelete_CascadesAndDetachesPayments(t *testing.T) {
	svc, mem := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	seg, err := svc.Careers.Add(ctx, cf.ID, careerSegment("30000", 40))
	require.NoError(t, err)
	doc, err := svc.Documents.Upload(ctx, dossier.UploadInput{CaseFileID: cf.ID, FileName: "id.pdf", Content: []byte("%PDF-1.4")})
	require.NoError(t, err)
	pay, err := svc.Payments.Create(ctx, dossier.CreatePaymentInput{
		CaseFileID: cf.ID,
		Amount:     pension.MustParseDecimal("1200"),
		IBAN:       "FR7630006000011234567890189",
	})
	require.NoError(t, err)

	require.NoError(t, svc.CaseFiles.Delete(ctx, cf.ID))

	_, err = mem.GetCareer(ctx, seg.ID)
	assert.True(t, pension.IsNotFound(err))
	_, err = mem.GetDocument(ctx, doc.ID)
	assert.True(t, pension.IsNotFound(err))

	kept, err := mem.GetPayment(ctx, pay.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.CaseFileID)

	assert.True(t, pension.IsNotFound(svc.CaseFiles.Delete(ctx, cf.ID)))
}

// =============================================================================
// CAREERS AND PERIODS
// =============================================================================

func TestCareers_KindMismatch(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cot := createCotisationFile(t, svc, "alice")
	car := createCareerFile(t, svc)

	_, err := svc.Careers.Add(ctx, cot.ID, careerSegment("1000", 1))
	assert.ErrorIs(t, err, pension.ErrKindMismatch)

	_, err = svc.Periods.Add(ctx, car.ID, pension.CotisationPeriod{
		StartDate: pension.NewDate(2010, 1, 1),
		EndDate:   pension.NewDate(2011, 1, 1),
		Regime:    pension.CotisationPublic,
	})
	assert.ErrorIs(t, err, pension.ErrKindMismatch)
	assert.True(t, pension.IsConflict(err))
}

func TestCareers_InvalidSegmentRejected(t *testing.T) {
	svc, _ := newServices(t)
	cf := createCareerFile(t, svc)

	seg := careerSegment("1000", 1)
	end := pension.NewDate(1980, 1, 1)
	seg.EndDate = &end

	_, err := svc.Careers.Add(context.Background(), cf.ID, seg)
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestCareers_SearchAndUpdate(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	a, err := svc.Careers.Add(ctx, cf.ID, careerSegment("30000", 20))
	require.NoError(t, err)
	other := careerSegment("20000", 10)
	other.Employer = "City Hall"
	other.Regime = pension.RegimePublicService
	_, err = svc.Careers.Add(ctx, cf.ID, other)
	require.NoError(t, err)

	found, err := svc.Careers.Search(ctx, "acme", "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, a.ID, found[0].ID)

	public, err := svc.Careers.Search(ctx, "", pension.RegimePublicService)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "City Hall", public[0].Employer)

	_, err = svc.Careers.Search(ctx, "", "MARITIME")
	assert.ErrorIs(t, err, pension.ErrInvalidInput)

	a.ValidatedQuarters = 24
	a.CaseFileID = "somewhere-else"
	updated, err := svc.Careers.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, cf.ID, updated.CaseFileID, "owning case file is kept")
	assert.Equal(t, 24, updated.ValidatedQuarters)
}

// =============================================================================
// PAYMENTS AND STATISTICS
// =============================================================================

func TestPayments_CreatePendingToday(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()

	p, err := svc.Payments.Create(ctx, dossier.CreatePaymentInput{
		Amount: pension.MustParseDecimal("850.00"),
		IBAN:   "fr76 3000 6000 0112 3456 7890 189",
	})
	require.NoError(t, err)

	assert.Equal(t, pension.PaymentPending, p.Status)
	assert.Equal(t, pension.PaymentPension, p.Type)
	assert.Equal(t, pension.NewDate(2025, 3, 14), p.TransferDate)
	assert.Equal(t, pension.YearMonth{Year: 2025, Month: time.March}, p.Period)
	assert.Equal(t, "FR7630006000011234567890189", p.IBAN)

	done, err := svc.Payments.UpdateStatus(ctx, p.ID, pension.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, pension.PaymentCompleted, done.Status)

	_, err = svc.Payments.UpdateStatus(ctx, p.ID, "LOST")
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestStatistics_RecordGetGlobal(t *testing.T) {
	// GIVEN: Two payments in February, one in March
	// WHEN: Recording February and March
	// THEN: Each snapshot aggregates its month; global sums them

	svc, _ := newServices(t)
	ctx := context.Background()
	feb := pension.YearMonth{Year: 2025, Month: time.February}
	mar := feb.AddMonths(1)

	for _, in := range []dossier.CreatePaymentInput{
		{Amount: pension.MustParseDecimal("1000"), Period: feb},
		{Amount: pension.MustParseDecimal("2000"), Period: feb},
		{Amount: pension.MustParseDecimal("900"), Period: mar},
	} {
		in.IBAN = "FR7630006000011234567890189"
		_, err := svc.Payments.Create(ctx, in)
		require.NoError(t, err)
	}

	_, err := svc.Statistics.Get(ctx, feb)
	assert.True(t, pension.IsNotFound(err))

	stats, err := svc.Statistics.Record(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.FileCount)
	assert.True(t, stats.Average.Equal(pension.MustParseDecimal("1500")))

	got, err := svc.Statistics.Get(ctx, feb)
	require.NoError(t, err)
	assert.True(t, got.TotalDisbursed.Equal(pension.MustParseDecimal("3000")))

	written, err := svc.Statistics.EnsureRecorded(ctx, feb)
	require.NoError(t, err)
	assert.False(t, written, "already recorded")

	written, err = svc.Statistics.EnsureRecorded(ctx, mar)
	require.NoError(t, err)
	assert.True(t, written)

	global, err := svc.Statistics.Global(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, global.FileCount)
	assert.True(t, global.TotalDisbursed.Equal(pension.MustParseDecimal("3900")))
	assert.True(t, global.Average.Equal(pension.MustParseDecimal("1300")))
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestDocuments_UploadLimits(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	_, err := svc.Documents.Upload(ctx, dossier.UploadInput{CaseFileID: cf.ID, FileName: "empty.pdf"})
	assert.ErrorIs(t, err, pension.ErrEmptyDocument)

	_, err = svc.Documents.Upload(ctx, dossier.UploadInput{CaseFileID: cf.ID, FileName: "big.pdf", Content: make([]byte, 1025)})
	assert.ErrorIs(t, err, pension.ErrDocumentTooLarge)
	assert.True(t, pension.IsClientError(err))

	_, err = svc.Documents.Upload(ctx, dossier.UploadInput{CaseFileID: "missing", FileName: "a.pdf", Content: []byte("x")})
	assert.True(t, pension.IsNotFound(err))
}

func TestDocuments_UploadDownloadDescribe(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)

	doc, err := svc.Documents.Upload(ctx, dossier.UploadInput{
		CaseFileID:  cf.ID,
		FileName:    "../../payslip.png",
		Description: "March payslip",
		Content:     []byte("\x89PNG\r\n\x1a\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, "payslip.png", doc.FileName)
	assert.Equal(t, "image/png", doc.MimeType)
	assert.Equal(t, int64(8), doc.Size)
	assert.True(t, doc.IsImage())
	assert.Nil(t, doc.Content)

	full, err := svc.Documents.Download(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), full.Content)

	described, err := svc.Documents.UpdateDescription(ctx, doc.ID, "  April payslip ")
	require.NoError(t, err)
	assert.Equal(t, "April payslip", described.Description)

	list, err := svc.Documents.ListByCaseFile(ctx, cf.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Documents.Delete(ctx, doc.ID))
	all, err := svc.Documents.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

// =============================================================================
// REPORTING
// =============================================================================

func TestReporting(t *testing.T) {
	svc, _ := newServices(t)
	ctx := context.Background()
	cf := createCareerFile(t, svc)
	createCotisationFile(t, svc, "alice")
	_, err := svc.Careers.Add(ctx, cf.ID, careerSegment("30000", 4))
	require.NoError(t, err)

	dash, err := svc.Reporting.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TotalCaseFiles)
	assert.Equal(t, 1, dash.ByStatus[pension.StatusDraft])
	assert.Equal(t, 1, dash.ByStatus[pension.StatusInProgress])
	assert.Equal(t, 1, dash.TotalCareers)

	months, err := svc.Reporting.Monthly(ctx)
	require.NoError(t, err)
	require.Len(t, months, 12)
	assert.Equal(t, 2, months[11].Count)

	feed, err := svc.Reporting.RecentActivity(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

package pension_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pension-engine/pension"
)

// =============================================================================
// STATUS MACHINE
// =============================================================================

func TestTransition_AllowedPaths(t *testing.T) {
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	cf := pension.CaseFile{Status: pension.StatusDraft}
	require.NoError(t, pension.Transition(&cf, pension.StatusInProgress, at))
	assert.Equal(t, pension.StatusInProgress, cf.Status)
	assert.Nil(t, cf.ValidatedAt)

	require.NoError(t, pension.Transition(&cf, pension.StatusValidated, at))
	assert.Equal(t, pension.StatusValidated, cf.Status)
	require.NotNil(t, cf.ValidatedAt)
	assert.Equal(t, at, *cf.ValidatedAt)
}

func TestTransition_Rejected(t *testing.T) {
	cases := []struct {
		from, to pension.Status
	}{
		{pension.StatusDraft, pension.StatusValidated},
		{pension.StatusDraft, pension.StatusRejected},
		{pension.StatusValidated, pension.StatusInProgress},
		{pension.StatusRejected, pension.StatusDraft},
		{pension.StatusInProgress, pension.StatusDraft},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%s->%s", tc.from, tc.to), func(t *testing.T) {
			cf := pension.CaseFile{Status: tc.from}
			err := pension.Transition(&cf, tc.to, time.Now())

			var terr *pension.TransitionError
			require.ErrorAs(t, err, &terr)
			assert.Equal(t, tc.from, terr.From)
			assert.True(t, pension.IsConflict(err))
			assert.Equal(t, tc.from, cf.Status, "status must not change")
		})
	}
}

func TestTransition_SameStatusIsNoop(t *testing.T) {
	validatedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cf := pension.CaseFile{Status: pension.StatusValidated, ValidatedAt: &validatedAt}

	require.NoError(t, pension.Transition(&cf, pension.StatusValidated, time.Now()))
	assert.Equal(t, validatedAt, *cf.ValidatedAt)
}

func TestTransition_UnknownStatus(t *testing.T) {
	cf := pension.CaseFile{Status: pension.StatusDraft}
	err := pension.Transition(&cf, "ARCHIVED", time.Now())
	assert.ErrorIs(t, err, pension.ErrInvalidInput)
}

func TestStatus_Terminal(t *testing.T) {
	assert.True(t, pension.StatusValidated.IsTerminal())
	assert.True(t, pension.StatusRejected.IsTerminal())
	assert.False(t, pension.StatusDraft.IsTerminal())
	assert.False(t, pension.StatusInProgress.IsTerminal())
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, pension.StatusInProgress, pension.InitialStatus(pension.KindCareer))
	assert.Equal(t, pension.StatusDraft, pension.InitialStatus(pension.KindCotisation))
}

// =============================================================================
// DATES AND PERIODS
// =============================================================================

func TestWholeYearsBetween(t *testing.T) {
	cases := []struct {
		start, end time.Time
		want       int
	}{
		{pension.NewDate(2010, 1, 1), pension.NewDate(2020, 1, 1), 10},
		{pension.NewDate(2010, 6, 15), pension.NewDate(2020, 6, 14), 9},
		{pension.NewDate(2010, 6, 15), pension.NewDate(2020, 6, 15), 10},
		{pension.NewDate(2020, 1, 1), pension.NewDate(2020, 12, 31), 0},
		{pension.NewDate(2020, 1, 1), pension.NewDate(2019, 1, 1), 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, pension.WholeYearsBetween(tc.start, tc.end), "%s..%s", tc.start.Format(pension.DateLayout), tc.end.Format(pension.DateLayout))
	}
}

func TestParseYearMonth(t *testing.T) {
	ym, err := pension.ParseYearMonth("07/2025")
	require.NoError(t, err)
	assert.Equal(t, pension.YearMonth{Year: 2025, Month: time.July}, ym)
	assert.Equal(t, "2025-07", ym.String())
	assert.Equal(t, "07/2025", ym.Display())

	ym2, err := pension.ParseYearMonth("2025-07")
	require.NoError(t, err)
	assert.Equal(t, ym, ym2)

	for _, bad := range []string{"", "13/2025", "7-2025x", "2025", "00/2025", "07/25"} {
		_, err := pension.ParseYearMonth(bad)
		assert.ErrorIs(t, err, pension.ErrInvalidInput, "input %q", bad)
	}
}

func TestYearMonth_Navigation(t *testing.T) {
	jan := pension.YearMonth{Year: 2025, Month: time.January}
	assert.Equal(t, pension.YearMonth{Year: 2024, Month: time.December}, jan.Previous())
	assert.Equal(t, pension.YearMonth{Year: 2026, Month: time.February}, jan.AddMonths(13))
	assert.Equal(t, pension.NewDate(2025, 1, 31), jan.End())
	assert.True(t, jan.Contains(pension.NewDate(2025, 1, 15)))
	assert.False(t, jan.Contains(pension.NewDate(2025, 2, 1)))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidateCareerSegment(t *testing.T) {
	ok := segment("1000", 4)
	assert.NoError(t, pension.ValidateCareerSegment(ok))

	endBefore := ok
	end := pension.NewDate(1999, 1, 1)
	endBefore.EndDate = &end
	assertField(t, pension.ValidateCareerSegment(endBefore), "end_date")

	negSalary := ok
	negSalary.AverageSalary = dec("-1")
	assertField(t, pension.ValidateCareerSegment(negSalary), "average_salary")

	negQuarters := ok
	negQuarters.ValidatedQuarters = -1
	assertField(t, pension.ValidateCareerSegment(negQuarters), "validated_quarters")

	badRegime := ok
	badRegime.Regime = "MARITIME"
	assertField(t, pension.ValidateCareerSegment(badRegime), "regime")
}

func TestValidateCaseFile(t *testing.T) {
	cf := pension.CaseFile{Kind: pension.KindCareer, Status: pension.StatusInProgress, SocialSecurityNumber: "185057800608436"}
	assert.NoError(t, pension.ValidateCaseFile(cf))

	short := cf
	short.SocialSecurityNumber = "1850578"
	assertField(t, pension.ValidateCaseFile(short), "social_security_number")

	unowned := pension.CaseFile{Kind: pension.KindCotisation, Status: pension.StatusDraft}
	assertField(t, pension.ValidateCaseFile(unowned), "owner_id")
}

func TestValidatePayment(t *testing.T) {
	p := pension.Payment{
		Amount: dec("1200.50"),
		IBAN:   "FR76 3000 6000 0112 3456 7890 189",
		Type:   pension.PaymentPension,
		Status: pension.PaymentPending,
	}
	assert.NoError(t, pension.ValidatePayment(p))

	zero := p
	zero.Amount = dec("0")
	assertField(t, pension.ValidatePayment(zero), "amount")

	shortIBAN := p
	shortIBAN.IBAN = "FR76"
	assertField(t, pension.ValidatePayment(shortIBAN), "iban")
}

func assertField(t *testing.T, err error, field string) {
	t.Helper()
	var verr *pension.ValidationError
	if assert.ErrorAs(t, err, &verr) {
		assert.Equal(t, field, verr.Field)
	}
	assert.True(t, pension.IsClientError(err))
}

// =============================================================================
// DOCUMENTS
// =============================================================================

func TestDocument_ExtensionHelpers(t *testing.T) {
	assert.True(t, pension.Document{FileName: "attestation.PDF"}.IsPDF())
	assert.True(t, pension.Document{FileName: "scan.jpeg"}.IsImage())
	assert.True(t, pension.Document{FileName: "letter.docx"}.IsWord())
	assert.False(t, pension.Document{FileName: "archive.zip"}.IsImage())
	assert.Equal(t, "png", pension.Document{Name: "photo.png"}.Extension())
	assert.Equal(t, "", pension.Document{FileName: "README"}.Extension())
}

// =============================================================================
// STATISTICS
// =============================================================================

func payment(amount string, period pension.YearMonth) pension.Payment {
	return pension.Payment{Amount: dec(amount), Period: period, Type: pension.PaymentPension, Status: pension.PaymentCompleted}
}

func TestAggregatePayments(t *testing.T) {
	// GIVEN: Three payments in March, one in April
	// WHEN: Aggregating March
	// THEN: Only March counts; average is rounded half-up to 2 dp

	march := pension.YearMonth{Year: 2025, Month: time.March}
	april := march.AddMonths(1)
	at := time.Date(2025, 4, 1, 2, 0, 0, 0, time.UTC)

	stats := pension.AggregatePayments(march, []pension.Payment{
		payment("1000", march),
		payment("1000", march),
		payment("1000.01", march),
		payment("5000", april),
	}, at)

	assert.Equal(t, march, stats.Period)
	assertDecimal(t, "3000.01", stats.TotalDisbursed)
	assert.Equal(t, 3, stats.FileCount)
	assertDecimal(t, "1000", stats.Average)
	assert.Equal(t, at, stats.RecordedAt)
}

func TestAggregatePayments_NoPayments(t *testing.T) {
	stats := pension.AggregatePayments(pension.YearMonth{Year: 2025, Month: 1}, nil, time.Now())
	assert.True(t, stats.TotalDisbursed.IsZero())
	assert.Equal(t, 0, stats.FileCount)
	assert.True(t, stats.Average.IsZero())
}

func TestGlobalStatistics(t *testing.T) {
	global := pension.GlobalStatistics([]pension.PaymentStatistics{
		{TotalDisbursed: dec("3000"), FileCount: 3},
		{TotalDisbursed: dec("1000"), FileCount: 3},
	})
	assertDecimal(t, "4000", global.TotalDisbursed)
	assert.Equal(t, 6, global.FileCount)
	assertDecimal(t, "666.67", global.Average)
	assert.True(t, global.Period.IsZero())
}

// =============================================================================
// REPORTING
// =============================================================================

func TestBuildDashboard(t *testing.T) {
	files := []pension.CaseFile{
		{Status: pension.StatusInProgress},
		{Status: pension.StatusInProgress},
		{Status: pension.StatusValidated},
	}
	careers := []pension.CareerSegment{segment("30000", 4), segment("40000", 4)}
	payments := []pension.Payment{{Amount: dec("100")}, {Amount: dec("250.50")}}

	d := pension.BuildDashboard(files, careers, payments, 4)

	assert.Equal(t, 3, d.TotalCaseFiles)
	assert.Equal(t, 2, d.ByStatus[pension.StatusInProgress])
	assert.Equal(t, 1, d.ByStatus[pension.StatusValidated])
	assert.Equal(t, 0, d.ByStatus[pension.StatusRejected])
	assert.Len(t, d.ByStatus, len(pension.AllStatuses))
	assertDecimal(t, "35000", d.AverageSalary)
	assert.Equal(t, 2, d.TotalPayments)
	assertDecimal(t, "350.5", d.TotalPaymentsSum)
	assert.Equal(t, 4, d.TotalDocuments)
}

func TestMonthlyCreations(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	files := []pension.CaseFile{
		{CreatedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)},
		{CreatedAt: time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)}, // outside the window
	}

	months := pension.MonthlyCreations(files, now)

	require.Len(t, months, 12)
	assert.Equal(t, pension.YearMonth{Year: 2024, Month: time.July}, months[0].Month)
	assert.Equal(t, 1, months[0].Count)
	assert.Equal(t, pension.YearMonth{Year: 2025, Month: time.June}, months[11].Month)
	assert.Equal(t, 2, months[11].Count)
}

func TestRecentActivity_MergedNewestFirst(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var files []pension.CaseFile
	for i := 0; i < 7; i++ {
		files = append(files, pension.CaseFile{ID: fmt.Sprintf("cf-%d", i), Reference: fmt.Sprintf("DOS-%d", i), CreatedAt: base.AddDate(0, 0, i*2)})
	}
	var docs []pension.Document
	for i := 0; i < 7; i++ {
		docs = append(docs, pension.Document{ID: fmt.Sprintf("doc-%d", i), Name: "id card", UploadedAt: base.AddDate(0, 0, i*2+1)})
	}

	feed := pension.RecentActivity(files, docs)

	require.Len(t, feed, pension.RecentActivityLimit)
	assert.Equal(t, "doc-6", feed[0].EntityID)
	assert.Equal(t, pension.ActivityDocumentUploaded, feed[0].Type)
	assert.Equal(t, "cf-6", feed[1].EntityID)
	for i := 1; i < len(feed); i++ {
		assert.False(t, feed[i].At.After(feed[i-1].At))
	}
}

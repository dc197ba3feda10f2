/*
reporting.go - Back-office dashboard aggregation

PURPOSE:
  Read-only summaries computed over whole collections: counts by status,
  monthly creation histogram, and the recent-activity feed. Callers load
  the records; these functions only aggregate.

SEE ALSO:
  - dossier/reporting.go: loads records and calls these
*/
package pension

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Dashboard is the administration overview.
type Dashboard struct {
	TotalCaseFiles   int
	ByStatus         map[Status]int
	TotalCareers     int
	AverageSalary    decimal.Decimal
	TotalPayments    int
	TotalPaymentsSum decimal.Decimal
	TotalDocuments   int
}

// BuildDashboard aggregates the overview. Every status appears in ByStatus,
// zero included.
func BuildDashboard(caseFiles []CaseFile, careers []CareerSegment, payments []Payment, documentCount int) Dashboard {
	d := Dashboard{
		TotalCaseFiles:   len(caseFiles),
		ByStatus:         make(map[Status]int, len(AllStatuses)),
		TotalCareers:     len(careers),
		TotalPayments:    len(payments),
		TotalPaymentsSum: decimal.Zero,
		TotalDocuments:   documentCount,
	}
	for _, s := range AllStatuses {
		d.ByStatus[s] = 0
	}
	for _, cf := range caseFiles {
		d.ByStatus[cf.Status]++
	}

	salaries := make([]decimal.Decimal, 0, len(careers))
	for _, c := range careers {
		salaries = append(salaries, c.AverageSalary)
	}
	d.AverageSalary = Mean(salaries).Round(2)

	for _, p := range payments {
		d.TotalPaymentsSum = d.TotalPaymentsSum.Add(p.Amount)
	}
	return d
}

// MonthlyCount is the number of case files created in a month.
type MonthlyCount struct {
	Month YearMonth
	Count int
}

// MonthsInHistogram is the length of the monthly creation histogram.
const MonthsInHistogram = 12

// MonthlyCreations counts case files created in each of the 12 months
// ending with the month of now, oldest first.
func MonthlyCreations(caseFiles []CaseFile, now time.Time) []MonthlyCount {
	current := YearMonthOf(now)
	out := make([]MonthlyCount, MonthsInHistogram)
	index := make(map[YearMonth]int, MonthsInHistogram)
	for i := 0; i < MonthsInHistogram; i++ {
		m := current.AddMonths(i - (MonthsInHistogram - 1))
		out[i] = MonthlyCount{Month: m}
		index[m] = i
	}
	for _, cf := range caseFiles {
		if cf.CreatedAt.IsZero() {
			continue
		}
		if i, ok := index[YearMonthOf(cf.CreatedAt)]; ok {
			out[i].Count++
		}
	}
	return out
}

// ActivityType tags an entry of the activity feed.
type ActivityType string

const (
	ActivityCaseFileCreated  ActivityType = "CASE_FILE_CREATED"
	ActivityDocumentUploaded ActivityType = "DOCUMENT_UPLOADED"
)

// Activity is one entry of the recent-activity feed.
type Activity struct {
	Type        ActivityType
	Description string
	At          time.Time
	EntityID    string
}

const (
	// RecentPerSource caps entries taken from each source.
	RecentPerSource = 5
	// RecentActivityLimit caps the merged feed.
	RecentActivityLimit = 10
)

// RecentActivity merges the latest case-file creations and document
// uploads, newest first.
func RecentActivity(caseFiles []CaseFile, documents []Document) []Activity {
	files := make([]CaseFile, 0, len(caseFiles))
	for _, cf := range caseFiles {
		if !cf.CreatedAt.IsZero() {
			files = append(files, cf)
		}
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })

	docs := make([]Document, 0, len(documents))
	for _, d := range documents {
		if !d.UploadedAt.IsZero() {
			docs = append(docs, d)
		}
	}
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].UploadedAt.After(docs[j].UploadedAt) })

	var feed []Activity
	for i := 0; i < len(files) && i < RecentPerSource; i++ {
		cf := files[i]
		label := cf.Reference
		if label == "" {
			label = cf.SocialSecurityNumber
		}
		feed = append(feed, Activity{
			Type:        ActivityCaseFileCreated,
			Description: "case file created: " + label,
			At:          cf.CreatedAt,
			EntityID:    cf.ID,
		})
	}
	for i := 0; i < len(docs) && i < RecentPerSource; i++ {
		feed = append(feed, Activity{
			Type:        ActivityDocumentUploaded,
			Description: "document uploaded: " + docs[i].Name,
			At:          docs[i].UploadedAt,
			EntityID:    docs[i].ID,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool { return feed[i].At.After(feed[j].At) })
	if len(feed) > RecentActivityLimit {
		feed = feed[:RecentActivityLimit]
	}
	return feed
}

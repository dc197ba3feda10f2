/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates case files, careers or
	cotisation periods, documents and payments through the dossier
	services, so every record passes the same validation as API input.

AVAILABLE SCENARIOS:

	career-files:     Three career case files with segments, documents, payments
	cotisation-files: Owner-scoped cotisation case files at every stage
	full:             Both of the above

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create case files
 3. Attach careers or cotisation periods
 4. Upload documents, order payments
 5. Record the statistics of the seeded payment months

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "career-files"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Handler
  - dossier/: services used by the loaders
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/warp/pension-engine/dossier"
	"github.com/warp/pension-engine/pension"
)

// DemoOwner is the subject owning the cotisation scenario's case files.
const DemoOwner = "demo-user"

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "career-files",
		Name:        "Career Case Files",
		Description: "Three career case files with segments, documents and payments (quarter-rate pension)",
	},
	{
		ID:          "cotisation-files",
		Name:        "Cotisation Case Files",
		Description: "Case files owned by demo-user: a draft, one under review and one validated (cotisation pension)",
	},
	{
		ID:          "full",
		Name:        "Full Demo",
		Description: "Career and cotisation case files together",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// ErrUnknownScenario is returned for scenario ids outside the catalogue.
var ErrUnknownScenario = errors.New("unknown scenario")

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.ApplyScenario(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, ErrUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ApplyScenario wipes the store and seeds it with the named scenario.
func (h *Handler) ApplyScenario(ctx context.Context, id string) error {
	var loaders []func(context.Context) error
	switch id {
	case "career-files":
		loaders = append(loaders, h.loadCareerScenario)
	case "cotisation-files":
		loaders = append(loaders, h.loadCotisationScenario)
	case "full":
		loaders = append(loaders, h.loadCareerScenario, h.loadCotisationScenario)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	h.currentScenario = ""

	for _, load := range loaders {
		if err := load(ctx); err != nil {
			return err
		}
	}

	h.currentScenario = id
	return nil
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

type demoCareer struct {
	employer, position string
	start, end         string
	salary             string
	quarters           int
}

type demoDocument struct {
	name, description string
}

type demoPayment struct {
	amount string
	period string
	kind   pension.PaymentType
}

type demoCareerFile struct {
	ssn                   string
	last, first, birth    string
	email, phone, address string
	careers               []demoCareer
	documents             []demoDocument
	payments              []demoPayment
}

var careerFiles = []demoCareerFile{
	{
		ssn: "180057512345678", last: "Dupont", first: "Jean", birth: "1980-05-15",
		email: "jean.dupont@email.com", phone: "0123456789", address: "123 Rue de la Paix, Paris",
		careers: []demoCareer{
			{"Entreprise A", "Ingénieur", "2010-01-01", "2020-12-31", "45000.00", 44},
			{"Entreprise B", "Chef de projet", "2021-01-01", "", "55000.00", 16},
		},
		documents: []demoDocument{
			{"Contrat de travail.pdf", "Contrat initial"},
			{"Bulletin de salaire.pdf", "Bulletin 2023"},
		},
		payments: []demoPayment{
			{"1200.00", "01/2024", pension.PaymentPension},
			{"800.00", "02/2024", pension.PaymentAllowance},
		},
	},
	{
		ssn: "275086912345678", last: "Martin", first: "Marie", birth: "1975-08-22",
		email: "marie.martin@email.com", phone: "0987654321", address: "456 Avenue des Champs, Lyon",
		careers: []demoCareer{
			{"Entreprise C", "Comptable", "2005-06-01", "2015-05-31", "35000.00", 40},
			{"Entreprise D", "Directeur financier", "2015-06-01", "", "65000.00", 36},
		},
		documents: []demoDocument{
			{"Certificat de travail.pdf", "Certificat Entreprise C"},
			{"Attestation employeur.pdf", "Attestation 2023"},
		},
		payments: []demoPayment{
			{"1500.00", "01/2024", pension.PaymentPension},
			{"600.00", "02/2024", pension.PaymentSupplement},
		},
	},
	{
		ssn: "185031312345678", last: "Bernard", first: "Pierre", birth: "1985-03-10",
		email: "pierre.bernard@email.com", phone: "0567891234", address: "789 Boulevard Central, Marseille",
		careers: []demoCareer{
			{"Entreprise E", "Développeur", "2012-03-01", "2022-02-28", "40000.00", 40},
			{"Entreprise F", "Architecte logiciel", "2022-03-01", "", "60000.00", 8},
		},
		documents: []demoDocument{
			{"Fiche de paie.pdf", "Fiche de paie janvier 2024"},
		},
		payments: []demoPayment{
			{"1100.00", "01/2024", pension.PaymentPension},
		},
	},
}

// demoPDF is a minimal PDF body for seeded documents.
var demoPDF = []byte("%PDF-1.4\n1 0 obj << /Type /Catalog >> endobj\ntrailer << /Root 1 0 R >>\n%%EOF\n")

// demoIBAN is a syntactically valid French IBAN.
const demoIBAN = "FR7630006000011234567890189"

func (h *Handler) loadCareerScenario(ctx context.Context) error {
	svc := h.Services
	periods := map[pension.YearMonth]bool{}

	for _, f := range careerFiles {
		birth, err := pension.ParseDate(f.birth)
		if err != nil {
			return err
		}
		cf, err := svc.CaseFiles.Create(ctx, dossier.CreateCaseFileInput{
			Kind:                 pension.KindCareer,
			SocialSecurityNumber: f.ssn,
			Beneficiary: pension.Beneficiary{
				LastName:  f.last,
				FirstName: f.first,
				BirthDate: &birth,
				Address:   f.address,
				Email:     f.email,
				Phone:     f.phone,
			},
		})
		if err != nil {
			return fmt.Errorf("case file %s: %w", f.last, err)
		}

		for _, c := range f.careers {
			req := CareerRequest{
				Employer:          c.employer,
				Position:          c.position,
				StartDate:         c.start,
				EndDate:           c.end,
				AverageSalary:     pension.MustParseDecimal(c.salary),
				Regime:            string(pension.RegimeGeneral),
				ValidatedQuarters: c.quarters,
			}
			seg, err := req.toDomain()
			if err != nil {
				return err
			}
			if _, err := svc.Careers.Add(ctx, cf.ID, seg); err != nil {
				return fmt.Errorf("career %s: %w", c.employer, err)
			}
		}

		for _, d := range f.documents {
			if _, err := svc.Documents.Upload(ctx, dossier.UploadInput{
				CaseFileID:  cf.ID,
				FileName:    d.name,
				MimeType:    "application/pdf",
				Description: d.description,
				Content:     demoPDF,
			}); err != nil {
				return fmt.Errorf("document %s: %w", d.name, err)
			}
		}

		for _, p := range f.payments {
			period, err := pension.ParseYearMonth(p.period)
			if err != nil {
				return err
			}
			payment, err := svc.Payments.Create(ctx, dossier.CreatePaymentInput{
				CaseFileID: cf.ID,
				Amount:     pension.MustParseDecimal(p.amount),
				IBAN:       demoIBAN,
				Period:     period,
				Type:       p.kind,
			})
			if err != nil {
				return fmt.Errorf("payment %s: %w", p.period, err)
			}
			if _, err := svc.Payments.UpdateStatus(ctx, payment.ID, pension.PaymentCompleted); err != nil {
				return err
			}
			periods[period] = true
		}
	}

	for period := range periods {
		if _, err := svc.Statistics.Record(ctx, period); err != nil {
			return fmt.Errorf("statistics %s: %w", period.Display(), err)
		}
	}
	return nil
}

type demoPeriod struct {
	start, end string
	salary     string
	regime     pension.CotisationRegime
}

type demoCotisationFile struct {
	ssn         string
	last, first string
	periods     []demoPeriod
	// stage is the status the case file is brought to.
	stage pension.Status
}

var cotisationFiles = []demoCotisationFile{
	{
		ssn: "190017512345678", last: "Leroy", first: "Sophie",
		periods: []demoPeriod{
			{"2014-09-01", "2019-08-31", "32000.00", pension.CotisationPrivate},
		},
		stage: pension.StatusDraft,
	},
	{
		ssn: "168046912345678", last: "Moreau", first: "Luc",
		periods: []demoPeriod{
			{"1990-01-01", "2000-01-01", "28000.00", pension.CotisationPublic},
			{"2000-01-01", "2020-01-01", "41000.00", pension.CotisationMixed},
		},
		stage: pension.StatusInProgress,
	},
	{
		ssn: "162121312345678", last: "Garcia", first: "Ana",
		periods: []demoPeriod{
			{"1985-02-01", "2005-02-01", "30000.00", pension.CotisationPrivate},
			{"2005-02-01", "2022-02-01", "48000.00", pension.CotisationPrivate},
		},
		stage: pension.StatusValidated,
	},
}

func (h *Handler) loadCotisationScenario(ctx context.Context) error {
	svc := h.Services

	for _, f := range cotisationFiles {
		cf, err := svc.CaseFiles.Create(ctx, dossier.CreateCaseFileInput{
			Kind:                 pension.KindCotisation,
			OwnerID:              DemoOwner,
			SocialSecurityNumber: f.ssn,
			Beneficiary:          pension.Beneficiary{LastName: f.last, FirstName: f.first},
		})
		if err != nil {
			return fmt.Errorf("case file %s: %w", f.last, err)
		}

		for _, p := range f.periods {
			req := PeriodRequest{
				StartDate:         p.start,
				EndDate:           p.end,
				ContributedSalary: pension.MustParseDecimal(p.salary),
				Regime:            string(p.regime),
			}
			period, err := req.toDomain()
			if err != nil {
				return err
			}
			if _, err := svc.Periods.Add(ctx, cf.ID, period); err != nil {
				return fmt.Errorf("period %s: %w", p.start, err)
			}
		}

		if f.stage == pension.StatusDraft {
			continue
		}
		if _, err := svc.CaseFiles.Submit(ctx, DemoOwner, cf.ID); err != nil {
			return fmt.Errorf("submit %s: %w", f.last, err)
		}
		if f.stage == pension.StatusValidated {
			if _, err := svc.CaseFiles.Validate(ctx, DemoOwner, cf.ID); err != nil {
				return fmt.Errorf("validate %s: %w", f.last, err)
			}
		}
	}
	return nil
}

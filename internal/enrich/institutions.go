package enrich

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
	"github.com/sells-group/leaseboost/internal/resilience"
	"github.com/sells-group/leaseboost/pkg/hunter"
)

const (
	finderProvider   = "hunter_finder"
	domainProvider   = "hunter_domain"
	verifierProvider = "hunter_verifier"

	// maxCompanyEmails caps the addresses copied from domain search.
	maxCompanyEmails = 5

	// MessageNothingToEnrich is returned when the selection is empty.
	MessageNothingToEnrich = "No institutions to enrich. All institutions already have contact information or no matching institutions found."

	errNoDomain = "Could not determine domain"
)

// InstitutionResult is the institutions enrichment response body.
type InstitutionResult struct {
	Institutions []model.Institution `json:"institutions"`
	Enriched     int                 `json:"enriched"`
	Processed    int                 `json:"processed"`
	Total        int                 `json:"total"`
	Remaining    int                 `json:"remaining"`
	CreditsUsed  int                 `json:"creditsUsed"`
	Message      string              `json:"message,omitempty"`
}

// Institutions finds contact emails for institutions with Hunter.
type Institutions struct {
	client  hunter.Client
	domains *Domains
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
}

// InstitutionsOption configures Institutions.
type InstitutionsOption func(*Institutions)

// WithDomains replaces the name -> domain table.
func WithDomains(d *Domains) InstitutionsOption {
	return func(e *Institutions) {
		if d != nil {
			e.domains = d
		}
	}
}

// WithInstitutionsRetry sets the retry policy for each Hunter call.
func WithInstitutionsRetry(cfg resilience.RetryConfig) InstitutionsOption {
	return func(e *Institutions) { e.retry = cfg }
}

// WithInstitutionsMetrics records Hunter call outcomes.
func WithInstitutionsMetrics(m *metrics.Metrics) InstitutionsOption {
	return func(e *Institutions) { e.metrics = m }
}

// NewInstitutions creates an Institutions enricher using the built-in domain
// table. A nil client makes every call fail with an unavailable error.
func NewInstitutions(client hunter.Client, opts ...InstitutionsOption) *Institutions {
	e := &Institutions{client: client, domains: DefaultDomains(), retry: resilience.DefaultRetryConfig()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Enrich processes the selected institutions. Eligible records are those
// without an email. Each processed institution costs one credit.
func (e *Institutions) Enrich(ctx context.Context, institutions []model.Institution, sel Selection) (*InstitutionResult, error) {
	if e.client == nil {
		return nil, model.Unavailable("Hunter.io API key not configured. Add HUNTER_IO_API_KEY to your .env file.")
	}

	out := slices.Clone(institutions)
	picked := sel.pick(len(out),
		func(i int) string { return out[i].ID },
		func(i int) bool { return !hasEmail(out[i]) },
	)
	if len(picked) == 0 {
		return &InstitutionResult{
			Institutions: out,
			Total:        len(out),
			Remaining:    countWithoutEmail(out),
			Message:      MessageNothingToEnrich,
		}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, i := range picked {
		g.Go(func() error {
			e.enrichOne(gctx, &out[i])
			return nil
		})
	}
	_ = g.Wait()

	enriched := 0
	for _, i := range picked {
		if hasEmail(out[i]) {
			enriched++
		}
	}
	res := &InstitutionResult{
		Institutions: out,
		Enriched:     enriched,
		Processed:    len(picked),
		Total:        len(out),
		Remaining:    countWithoutEmail(out),
		CreditsUsed:  len(picked),
	}
	zap.L().Info("enrich: institutions",
		zap.Int("processed", res.Processed),
		zap.Int("enriched", res.Enriched),
		zap.Int("remaining", res.Remaining),
	)
	return res, nil
}

// enrichOne runs the finder and domain search concurrently, then verifies a
// found address. Every lookup is best-effort.
func (e *Institutions) enrichOne(ctx context.Context, inst *model.Institution) {
	domain := strings.TrimSpace(inst.Domain)
	if domain == "" {
		domain = e.domains.Lookup(inst.Name)
	}
	if domain == "" {
		inst.Error = errNoDomain
		zap.L().Debug("enrich: no domain for institution", zap.String("id", inst.ID), zap.String("name", inst.Name))
		return
	}
	inst.Error = ""

	first, last := splitName(inst.Contact)

	var (
		found   *hunter.FinderResult
		company *hunter.DomainResult
	)
	g, gctx := errgroup.WithContext(ctx)
	if first != "" {
		g.Go(func() error {
			found = e.findEmail(gctx, domain, first, last)
			return nil
		})
	}
	g.Go(func() error {
		company = e.searchDomain(gctx, domain)
		return nil
	})
	_ = g.Wait()

	var verified *hunter.VerifierResult
	if found != nil && found.Email != "" {
		verified = e.verify(ctx, found.Email)
	}

	contact := &model.EnrichedContact{}
	if found != nil {
		contact.Email = model.StringOrNil(found.Email)
		contact.Confidence = found.Score
		if n := len(found.Sources); n > 0 {
			contact.Sources = model.Ptr(n)
		}
	}
	if contact.Email == nil && verified != nil {
		contact.Email = model.StringOrNil(verified.Email)
	}
	if company != nil {
		contact.Phone = model.StringOrNil(company.Phone)
		contact.LinkedIn = model.StringOrNil(company.LinkedIn)
		contact.Twitter = model.StringOrNil(company.Twitter)
		inst.CompanyInfo = companyInfo(company)
	}
	if verified != nil {
		inst.EmailVerification = &model.EmailVerification{Email: verified.Email, Result: verified.Result, Score: verified.Score}
	}
	inst.EnrichedContact = model.MergeContact(inst.EnrichedContact, contact)
}

func (e *Institutions) findEmail(ctx context.Context, domain, first, last string) *hunter.FinderResult {
	start := time.Now()
	res, err := resilience.DoVal(ctx, e.retry.WithLogger(finderProvider, "email_finder"), func(ctx context.Context) (*hunter.FinderResult, error) {
		return e.client.EmailFinder(ctx, hunter.FinderRequest{Domain: domain, FirstName: first, LastName: last})
	})
	observe(e.metrics, finderProvider, err, err == nil && res != nil && res.Email != "", start)
	if err != nil {
		zap.L().Warn("enrich: email finder failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}
	return res
}

func (e *Institutions) searchDomain(ctx context.Context, domain string) *hunter.DomainResult {
	start := time.Now()
	res, err := resilience.DoVal(ctx, e.retry.WithLogger(domainProvider, "domain_search"), func(ctx context.Context) (*hunter.DomainResult, error) {
		return e.client.DomainSearch(ctx, domain)
	})
	observe(e.metrics, domainProvider, err, err == nil && res != nil, start)
	if err != nil {
		zap.L().Warn("enrich: domain search failed", zap.String("domain", domain), zap.Error(err))
		return nil
	}
	return res
}

func (e *Institutions) verify(ctx context.Context, email string) *hunter.VerifierResult {
	start := time.Now()
	res, err := resilience.DoVal(ctx, e.retry.WithLogger(verifierProvider, "email_verifier"), func(ctx context.Context) (*hunter.VerifierResult, error) {
		return e.client.EmailVerifier(ctx, email)
	})
	observe(e.metrics, verifierProvider, err, err == nil && res != nil, start)
	if err != nil {
		zap.L().Warn("enrich: email verifier failed", zap.Error(err))
		return nil
	}
	return res
}

func companyInfo(d *hunter.DomainResult) *model.CompanyInfo {
	emails := make([]string, 0, min(len(d.Emails), maxCompanyEmails))
	for _, em := range d.Emails {
		if len(emails) == maxCompanyEmails {
			break
		}
		if em.Value != "" {
			emails = append(emails, em.Value)
		}
	}
	return &model.CompanyInfo{
		Domain:   model.StringOrNil(d.Domain),
		Company:  model.StringOrNil(d.Organization),
		Phone:    model.StringOrNil(d.Phone),
		LinkedIn: model.StringOrNil(d.LinkedIn),
		Twitter:  model.StringOrNil(d.Twitter),
		Facebook: model.StringOrNil(d.Facebook),
		Emails:   emails,
	}
}

// splitName splits a contact into first name and the remaining words.
func splitName(contact string) (first, last string) {
	parts := strings.Fields(contact)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func hasEmail(inst model.Institution) bool {
	return inst.EnrichedContact != nil && model.Deref(inst.EnrichedContact.Email) != ""
}

func countWithoutEmail(institutions []model.Institution) int {
	n := 0
	for _, inst := range institutions {
		if !hasEmail(inst) {
			n++
		}
	}
	return n
}

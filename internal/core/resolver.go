package core

// resolver.go decides which customer and project a time entry points at.
//
// Two policies exist and callers pick one explicitly:
//
//   - AutoCreate looks a candidate up and creates it when missing. Absent
//     candidates fall back to the configured default customer and project.
//   - ValidateOnly never writes. Unknown references reject the entry, and a
//     project owned by a different customer nulls both references.
//
// Neither policy caches lookups across rows. A row that fails is rolled back
// to its savepoint, and anything it created goes with it.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/timesheet/internal/database"
	"github.com/JonMunkholm/timesheet/internal/logging"
	"github.com/JonMunkholm/timesheet/internal/metrics"
)

// References are normalized candidate keys. An empty string means absent.
type References struct {
	Customer string
	Project  string
}

// Problem is a reference issue the caller should report.
type Problem struct {
	Kind    ErrorKind
	Message string
}

// Resolution is the outcome of resolving one row's references.
type Resolution struct {
	Customer       *string
	CustomerOrigin Origin
	Project        *string
	ProjectOrigin  Origin

	Problems []Problem
	// Rejected entries must not be stored.
	Rejected bool
}

// ReferencePolicy resolves customer and project references.
type ReferencePolicy interface {
	Name() string
	// Prepare runs once per unit of work, before the first Resolve.
	Prepare(ctx context.Context, q database.Querier) error
	// Resolve returns an error only for storage failures. Expected
	// reference issues are reported through Resolution.Problems.
	Resolve(ctx context.Context, q database.Querier, refs References) (Resolution, error)
}

// Defaults configures the fallbacks used by AutoCreate.
type Defaults struct {
	Customer    string
	Project     string
	EmailDomain string
}

const (
	DefaultCustomerName = "Unassigned"
	DefaultProjectID    = "General"
	DefaultEmailDomain  = "imported.invalid"
)

func (d Defaults) withFallbacks() Defaults {
	if d.Customer == "" {
		d.Customer = DefaultCustomerName
	}
	if d.Project == "" {
		d.Project = DefaultProjectID
	}
	if d.EmailDomain == "" {
		d.EmailDomain = DefaultEmailDomain
	}
	return d
}

// ============================================================================
// AutoCreate
// ============================================================================

// AutoCreate is the lenient policy used by uploads and direct creation.
type AutoCreate struct {
	defaults Defaults
	logger   *slog.Logger
}

// NewAutoCreate returns the lenient policy.
func NewAutoCreate(d Defaults, logger *slog.Logger) *AutoCreate {
	return &AutoCreate{defaults: d.withFallbacks(), logger: logging.OrDiscard(logger)}
}

func (p *AutoCreate) Name() string { return "auto_create" }

// Defaults returns the effective defaults.
func (p *AutoCreate) Defaults() Defaults { return p.defaults }

// Prepare makes sure the default customer and project exist so absent
// references never need a lookup.
func (p *AutoCreate) Prepare(ctx context.Context, q database.Querier) error {
	if _, err := p.ensureCustomer(ctx, q, p.defaults.Customer); err != nil {
		return fmt.Errorf("provision default customer %q: %w", p.defaults.Customer, err)
	}
	customer := p.defaults.Customer
	if _, err := p.ensureProject(ctx, q, p.defaults.Project, &customer); err != nil {
		return fmt.Errorf("provision default project %q: %w", p.defaults.Project, err)
	}
	return nil
}

func (p *AutoCreate) Resolve(ctx context.Context, q database.Querier, refs References) (Resolution, error) {
	var res Resolution

	customer, origin, err := p.ResolveCustomer(ctx, q, refs.Customer)
	if err != nil {
		return res, err
	}
	res.Customer, res.CustomerOrigin = &customer, origin

	project, origin, err := p.ResolveProject(ctx, q, refs.Project, customer)
	if err != nil {
		return res, err
	}
	res.Project, res.ProjectOrigin = &project, origin

	return res, nil
}

// ResolveCustomer returns the customer to store for candidate.
func (p *AutoCreate) ResolveCustomer(ctx context.Context, q database.Querier, candidate string) (string, Origin, error) {
	if candidate == "" {
		return p.defaults.Customer, OriginDefault, nil
	}
	created, err := p.ensureCustomer(ctx, q, candidate)
	if err != nil {
		return "", OriginNone, fmt.Errorf("resolve customer %q: %w", candidate, err)
	}
	if created {
		return candidate, OriginCreated, nil
	}
	return candidate, OriginExisting, nil
}

// ResolveProject returns the project to store for candidate. A project
// created here belongs to customer.
func (p *AutoCreate) ResolveProject(ctx context.Context, q database.Querier, candidate, customer string) (string, Origin, error) {
	if candidate == "" {
		return p.defaults.Project, OriginDefault, nil
	}
	var owner *string
	if customer != "" {
		owner = &customer
	}
	created, err := p.ensureProject(ctx, q, candidate, owner)
	if err != nil {
		return "", OriginNone, fmt.Errorf("resolve project %q: %w", candidate, err)
	}
	if created {
		return candidate, OriginCreated, nil
	}
	return candidate, OriginExisting, nil
}

func (p *AutoCreate) ensureCustomer(ctx context.Context, q database.Querier, name string) (bool, error) {
	_, err := q.GetCustomer(ctx, name)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	email := PlaceholderEmail(name, p.defaults.EmailDomain)
	if _, err := q.CreateCustomer(ctx, database.CreateCustomerParams{
		Name:         name,
		ContactEmail: &email,
		Status:       "active",
	}); err != nil {
		return false, err
	}

	metrics.ReferencesCreated.WithLabelValues("customer").Inc()
	p.logger.Debug("customer auto-created", "customer", name, "contact_email", email)
	return true, nil
}

func (p *AutoCreate) ensureProject(ctx context.Context, q database.Querier, projectID string, customer *string) (bool, error) {
	_, err := q.GetProject(ctx, projectID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return false, err
	}

	if _, err := q.CreateProject(ctx, database.CreateProjectParams{
		ProjectID: projectID,
		Name:      projectID,
		Customer:  customer,
		Status:    "active",
	}); err != nil {
		return false, err
	}

	metrics.ReferencesCreated.WithLabelValues("project").Inc()
	p.logger.Debug("project auto-created", "project", projectID, "customer", deref(customer))
	return true, nil
}

// PlaceholderEmail builds the contact address stored on auto-created customers.
func PlaceholderEmail(name, domain string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if slug == "" {
		slug = "customer"
	}
	return slug + "@" + domain
}

// ============================================================================
// ValidateOnly
// ============================================================================

// ValidateOnly is the strict policy used for pre-built batches.
type ValidateOnly struct {
	logger *slog.Logger
}

// NewValidateOnly returns the strict policy.
func NewValidateOnly(logger *slog.Logger) *ValidateOnly {
	return &ValidateOnly{logger: logging.OrDiscard(logger)}
}

func (p *ValidateOnly) Name() string { return "validate_only" }

func (p *ValidateOnly) Prepare(context.Context, database.Querier) error { return nil }

func (p *ValidateOnly) Resolve(ctx context.Context, q database.Querier, refs References) (Resolution, error) {
	var res Resolution

	var customer *database.Customer
	if refs.Customer != "" {
		c, err := q.GetCustomer(ctx, refs.Customer)
		switch {
		case err == nil:
			customer = &c
		case !errors.Is(err, database.ErrNotFound):
			return res, fmt.Errorf("look up customer %q: %w", refs.Customer, err)
		}
	}

	var project *database.Project
	if refs.Project != "" {
		pr, err := q.GetProject(ctx, refs.Project)
		switch {
		case err == nil:
			project = &pr
		case !errors.Is(err, database.ErrNotFound):
			return res, fmt.Errorf("look up project %q: %w", refs.Project, err)
		}
	}

	customerMissing := refs.Customer != "" && customer == nil
	projectMissing := refs.Project != "" && project == nil

	switch {
	case customerMissing && projectMissing:
		res.reject(KindInvalidProjectCustomer, fmt.Sprintf(
			"Customer '%s' and project '%s' not found in database. Please create them first.",
			refs.Customer, refs.Project))
	case customerMissing:
		res.reject(KindInvalidCustomer, fmt.Sprintf(
			"Customer '%s' not found in database. Please create the customer first.", refs.Customer))
	case projectMissing:
		res.reject(KindInvalidProject, fmt.Sprintf(
			"Project '%s' not found in database. Please create the project first.", refs.Project))
	}
	if res.Rejected {
		p.logger.Debug("references rejected", "customer", refs.Customer, "project", refs.Project)
		return res, nil
	}

	if customer != nil {
		res.Customer, res.CustomerOrigin = &customer.Name, OriginExisting
	}
	if project != nil {
		res.Project, res.ProjectOrigin = &project.ProjectID, OriginExisting
	}

	if customer != nil && project != nil && deref(project.Customer) != customer.Name {
		res.Problems = append(res.Problems, Problem{
			Kind:    KindRelationshipMismatch,
			Message: fmt.Sprintf("Project '%s' does not belong to customer '%s'", project.ProjectID, customer.Name),
		})
		res.Customer, res.CustomerOrigin = nil, OriginNone
		res.Project, res.ProjectOrigin = nil, OriginNone
	}

	return res, nil
}

func (r *Resolution) reject(kind ErrorKind, msg string) {
	r.Rejected = true
	r.Problems = append(r.Problems, Problem{Kind: kind, Message: msg})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

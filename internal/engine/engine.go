package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"featurepolicy-admin/internal/model"
	"featurepolicy-admin/internal/parser"
)

// Saver persists rebuilt settings. Each policy type present in the settings
// replaces whatever was stored for it before.
type Saver interface {
	Save(ctx context.Context, settings model.Settings) error
}

type Engine struct {
	catalog *Catalog
	logger  *slog.Logger
}

func NewEngine(catalog *Catalog, logger *slog.Logger) *Engine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{catalog: catalog, logger: logger}
}

// FieldError attaches a validation failure to one directive's sources field.
type FieldError struct {
	PolicyType model.PolicyType
	Directive  model.DirectiveName
	Err        error
}

// Field returns the storage-style path of the offending field.
func (e *FieldError) Field() string {
	return model.DirectiveKey(e.PolicyType, e.Directive, model.FieldSources)
}

func (e *FieldError) Error() string {
	return e.Field() + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// FieldErrors collects every field failure of one submission.
type FieldErrors []*FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, len(fe))
	for i, e := range fe {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d invalid field(s): %s", len(fe), strings.Join(msgs, "; "))
}

func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, len(fe))
	for i, e := range fe {
		errs[i] = e
	}
	return errs
}

// Validate checks the sources text of every (policy type, directive) pair in
// the catalog. Disabled directives and policy types are checked too, so text
// left behind in a hidden field still fails. It never stops at the first
// failure.
func (e *Engine) Validate(sub model.Submission) FieldErrors {
	var errs FieldErrors
	for _, pt := range e.catalog.policyTypes {
		in := sub[pt.Key]
		for _, name := range e.catalog.directives {
			raw := in.Directives[name].Sources
			if raw == "" {
				continue
			}
			if _, err := parser.ValidateSources(raw); err != nil {
				errs = append(errs, &FieldError{PolicyType: pt.Key, Directive: name, Err: err})
			}
		}
	}
	return errs
}

// Submit validates the whole submission and, only when every field passes,
// rebuilds all policy types and saves them. On validation failure the
// returned error is a FieldErrors and nothing is written.
func (e *Engine) Submit(ctx context.Context, saver Saver, sub model.Submission) (model.Settings, error) {
	if errs := e.Validate(sub); len(errs) > 0 {
		e.logger.Warn("Submission rejected", "invalid_fields", len(errs))
		return nil, errs
	}
	settings := e.Rebuild(sub)
	if err := saver.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	for _, pt := range e.catalog.policyTypes {
		e.logger.Info("Policy saved", "policy_type", pt.Key, "enable", settings[pt.Key].Enable, "directives", len(settings[pt.Key].Directives))
	}
	return settings, nil
}

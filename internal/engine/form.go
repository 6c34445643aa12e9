package engine

import (
	"strings"

	"featurepolicy-admin/internal/model"
)

// NoPoliciesEnabled is reported when no policy type has enable set.
const NoPoliciesEnabled = "No policies are currently enabled."

type DirectiveForm struct {
	Name    model.DirectiveName
	Enabled bool
	Base    model.SourceListBase
	Sources string
}

type PolicyForm struct {
	Type       model.PolicyTypeInfo
	Enable     bool
	Directives []DirectiveForm
}

// Form is the settings form's default values, computed from stored settings.
type Form struct {
	// DefaultTab is the last enabled policy type, if any.
	DefaultTab model.PolicyType
	Policies   []PolicyForm
	Warnings   []string
}

// FormState computes what the settings form shows for the stored settings.
func (e *Engine) FormState(settings model.Settings) Form {
	var form Form
	for _, pt := range e.catalog.policyTypes {
		stored := settings[pt.Key]
		if stored.Enable {
			form.DefaultTab = pt.Key
		}
		pf := PolicyForm{Type: pt, Enable: stored.Enable}
		for _, name := range e.catalog.directives {
			df := DirectiveForm{Name: name, Base: model.BaseSelf}
			if dc, ok := stored.Directives[name]; ok {
				df.Enabled = true
				if dc.Base != nil {
					df.Base = *dc.Base
				}
				df.Sources = strings.Join(dc.Sources, " ")
			}
			pf.Directives = append(pf.Directives, df)
		}
		form.Policies = append(form.Policies, pf)
	}
	if form.DefaultTab == "" {
		form.Warnings = append(form.Warnings, NoPoliciesEnabled)
		e.logger.Warn(NoPoliciesEnabled)
	}
	return form
}

// ToSubmission returns the submission that posting the form unchanged would
// produce.
func ToSubmission(form Form) model.Submission {
	sub := make(model.Submission, len(form.Policies))
	for _, pf := range form.Policies {
		in := model.PolicyInput{
			Enable:     pf.Enable,
			Directives: make(map[model.DirectiveName]model.DirectiveInput, len(pf.Directives)),
		}
		for _, df := range pf.Directives {
			in.Directives[df.Name] = model.DirectiveInput{
				Enabled: df.Enabled,
				Base:    df.Base,
				Sources: df.Sources,
			}
		}
		sub[pf.Type.Key] = in
	}
	return sub
}

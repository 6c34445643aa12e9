package engine

import (
	"featurepolicy-admin/internal/model"
	"featurepolicy-admin/internal/parser"
)

// Normalize turns one directive's form input into the configuration to store.
// The second result is false when nothing should be stored, which is how a
// disabled or fully empty directive is cleared.
func Normalize(base model.SourceListBase, rawSources string, enabled bool) (model.DirectiveConfig, bool) {
	if !enabled {
		return model.DirectiveConfig{}, false
	}

	var cfg model.DirectiveConfig
	if base != model.BaseNone {
		if sources := parser.SplitSources(rawSources); len(sources) > 0 {
			cfg.Sources = sources
		}
	}
	// An n/a base is only kept alongside real sources.
	if base != model.BaseNA || len(cfg.Sources) > 0 {
		cfg.Base = model.BasePtr(base)
	}
	if cfg.Empty() {
		return model.DirectiveConfig{}, false
	}
	return cfg, true
}

// RebuildPolicyConfig builds a policy type's configuration from scratch. Every
// catalog directive is normalized in catalog order; prior state is never
// consulted.
func (e *Engine) RebuildPolicyConfig(pt model.PolicyType, enable bool, inputs map[model.DirectiveName]model.DirectiveInput) model.PolicyConfig {
	cfg := model.PolicyConfig{
		Enable:     enable,
		Directives: make(map[model.DirectiveName]model.DirectiveConfig),
	}
	for _, name := range e.catalog.directives {
		in, ok := inputs[name]
		if !ok {
			continue
		}
		if dc, keep := Normalize(in.Base, in.Sources, in.Enabled); keep {
			cfg.Directives[name] = dc
		}
	}
	return cfg
}

// Rebuild rebuilds every catalog policy type, whether or not the submission
// mentions it.
func (e *Engine) Rebuild(sub model.Submission) model.Settings {
	settings := make(model.Settings, len(e.catalog.policyTypes))
	for _, pt := range e.catalog.policyTypes {
		in := sub[pt.Key]
		settings[pt.Key] = e.RebuildPolicyConfig(pt.Key, in.Enable, in.Directives)
	}
	return settings
}

package engine

import (
	"strings"

	"featurepolicy-admin/internal/model"
	"featurepolicy-admin/pkg/wellknown"
)

// DefaultPolicyTypes lists the header variants that can be configured.
var DefaultPolicyTypes = []model.PolicyTypeInfo{
	{Key: model.Enforce, Label: "Enforced"},
}

// Catalog holds the configurable directive names and policy types in a stable
// order.
type Catalog struct {
	directives  []model.DirectiveName
	policyTypes []model.PolicyTypeInfo
}

// NewCatalog de-duplicates names, keeping first occurrences, and drops the
// legacy directive even when a stale source still lists it.
func NewCatalog(names []string, types []model.PolicyTypeInfo) *Catalog {
	c := &Catalog{}
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || name == wellknown.LegacyDirective || seen[name] {
			continue
		}
		seen[name] = true
		c.directives = append(c.directives, model.DirectiveName(name))
	}
	seenTypes := make(map[model.PolicyType]bool, len(types))
	for _, pt := range types {
		if pt.Key == "" || seenTypes[pt.Key] {
			continue
		}
		seenTypes[pt.Key] = true
		c.policyTypes = append(c.policyTypes, pt)
	}
	return c
}

// DefaultCatalog is built from the embedded directive list.
func DefaultCatalog() *Catalog {
	return NewCatalog(wellknown.DirectiveNames(), DefaultPolicyTypes)
}

func (c *Catalog) Directives() []model.DirectiveName {
	out := make([]model.DirectiveName, len(c.directives))
	copy(out, c.directives)
	return out
}

func (c *Catalog) PolicyTypes() []model.PolicyTypeInfo {
	out := make([]model.PolicyTypeInfo, len(c.policyTypes))
	copy(out, c.policyTypes)
	return out
}

// HasDirective reports whether name is configurable.
func (c *Catalog) HasDirective(name model.DirectiveName) bool {
	for _, d := range c.directives {
		if d == name {
			return true
		}
	}
	return false
}

package model

import "strings"

type DirectiveName string // "camera", "geolocation", ...

type PolicyType string // "enforce"

const Enforce PolicyType = "enforce"

type PolicyTypeInfo struct {
	Key   PolicyType
	Label string
}

type SourceListBase string

const (
	BaseSelf SourceListBase = "self"
	BaseNone SourceListBase = "none"
	BaseAny  SourceListBase = "any"
	BaseNA   SourceListBase = ""
)

// Valid reports whether b is one of the radio options offered for a directive.
func (b SourceListBase) Valid() bool {
	switch b {
	case BaseSelf, BaseNone, BaseAny, BaseNA:
		return true
	}
	return false
}

// BasePtr returns a pointer to a copy of b.
func BasePtr(b SourceListBase) *SourceListBase {
	return &b
}

type DirectiveConfig struct {
	Base    *SourceListBase `yaml:"base,omitempty" json:"base,omitempty"`
	Sources []string        `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// Empty reports whether there is nothing to persist for the directive.
func (c DirectiveConfig) Empty() bool {
	return c.Base == nil && len(c.Sources) == 0
}

type PolicyConfig struct {
	Enable     bool                              `yaml:"enable" json:"enable"`
	Directives map[DirectiveName]DirectiveConfig `yaml:"directives,omitempty" json:"directives,omitempty"`
}

// Settings is the whole persisted featurepolicy.settings document.
type Settings map[PolicyType]PolicyConfig

// DirectiveInput is one directive's raw form values.
type DirectiveInput struct {
	Enabled bool
	Base    SourceListBase
	Sources string // free text, split on submit
}

type PolicyInput struct {
	Enable     bool
	Directives map[DirectiveName]DirectiveInput
}

// Submission is one posted settings form, keyed by policy type.
type Submission map[PolicyType]PolicyInput

const (
	FieldBase    = "base"
	FieldSources = "sources"
)

// EnableKey returns the storage key of a policy type's enable flag.
func EnableKey(pt PolicyType) string {
	return string(pt) + ".enable"
}

// DirectiveKey returns the storage key of one directive field.
func DirectiveKey(pt PolicyType, name DirectiveName, field string) string {
	return string(pt) + ".directives." + string(name) + "." + field
}

// SplitKey breaks a storage key into its policy type, directive name and
// field. The directive name is empty for the enable key.
func SplitKey(key string) (pt PolicyType, name DirectiveName, field string, ok bool) {
	parts := strings.Split(key, ".")
	switch {
	case len(parts) == 2 && parts[1] == "enable":
		return PolicyType(parts[0]), "", "enable", true
	case len(parts) == 4 && parts[1] == "directives" && (parts[3] == FieldBase || parts[3] == FieldSources):
		return PolicyType(parts[0]), DirectiveName(parts[2]), parts[3], true
	}
	return "", "", "", false
}

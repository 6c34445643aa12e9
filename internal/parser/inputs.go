package parser

import (
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"

	"featurepolicy-admin/internal/model"

	"gopkg.in/yaml.v3"
)

// defaultBase is the radio preselected for a directive with no stored base.
const defaultBase = model.BaseSelf

type rawDirective struct {
	Enable  bool        `yaml:"enable"`
	Base    *string     `yaml:"base"`
	Sources sourcesText `yaml:"sources"`
}

type rawPolicy struct {
	Enable     bool                    `yaml:"enable"`
	Directives map[string]rawDirective `yaml:"directives"`
}

// sourcesText accepts either the free-text form value or a YAML list, which is
// joined with single spaces the way the form displays stored sources.
type sourcesText string

func (s *sourcesText) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = sourcesText(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*s = sourcesText(strings.Join(items, " "))
		return nil
	}
	return fmt.Errorf("line %d: sources must be a string or a list of strings", node.Line)
}

// ParseSubmissionYAML decodes a submission shaped like the settings form tree:
//
//	enforce:
//	  enable: true
//	  directives:
//	    camera: {enable: true, base: self, sources: "example.com https:"}
func ParseSubmissionYAML(r io.Reader) (model.Submission, error) {
	var doc map[string]rawPolicy
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return model.Submission{}, nil
		}
		return nil, fmt.Errorf("decode submission: %w", err)
	}

	sub := make(model.Submission, len(doc))
	for ptKey, rp := range doc {
		input := model.PolicyInput{
			Enable:     rp.Enable,
			Directives: make(map[model.DirectiveName]model.DirectiveInput, len(rp.Directives)),
		}
		for name, rd := range rp.Directives {
			base := defaultBase
			if rd.Base != nil {
				base = model.SourceListBase(*rd.Base)
			}
			if !base.Valid() {
				return nil, illegalChoice(ptKey, name, string(base))
			}
			input.Directives[model.DirectiveName(name)] = model.DirectiveInput{
				Enabled: rd.Enable,
				Base:    base,
				Sources: string(rd.Sources),
			}
		}
		sub[model.PolicyType(ptKey)] = input
	}
	return sub, nil
}

// ParseSubmissionForm decodes an application/x-www-form-urlencoded body using
// the settings form's field names, e.g. enforce[directives][camera][base]=self.
// Unknown fields are ignored.
func ParseSubmissionForm(r io.Reader) (model.Submission, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read form body: %w", err)
	}
	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse form body: %w", err)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	sub := make(model.Submission)
	bases := make(map[[2]string]bool)
	for _, key := range keys {
		path, ok := splitFieldName(key)
		if !ok {
			continue
		}
		value := values.Get(key)
		pt := model.PolicyType(path[0])
		input := sub[pt]
		if input.Directives == nil {
			input.Directives = make(map[model.DirectiveName]model.DirectiveInput)
		}

		switch {
		case len(path) == 2 && path[1] == "enable":
			input.Enable = checked(value)
		case len(path) == 4 && path[1] == "directives":
			name := model.DirectiveName(path[2])
			d := input.Directives[name]
			switch path[3] {
			case "enable":
				d.Enabled = checked(value)
			case model.FieldBase:
				base := model.SourceListBase(value)
				if !base.Valid() {
					return nil, illegalChoice(path[0], path[2], value)
				}
				d.Base = base
				bases[[2]string{path[0], path[2]}] = true
			case model.FieldSources:
				d.Sources = value
			default:
				continue
			}
			input.Directives[name] = d
		default:
			continue
		}
		sub[pt] = input
	}

	for pt, input := range sub {
		for name, d := range input.Directives {
			if !bases[[2]string{string(pt), string(name)}] {
				d.Base = defaultBase
				input.Directives[name] = d
			}
		}
	}
	return sub, nil
}

// splitFieldName turns "enforce[directives][camera][base]" into its parts.
func splitFieldName(key string) ([]string, bool) {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		return nil, false
	}
	parts := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return nil, false
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, false
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts, true
}

// checked mirrors how a posted checkbox value is read: empty and "0" are off.
func checked(v string) bool {
	return v != "" && v != "0"
}

func illegalChoice(pt, directive, value string) error {
	return fmt.Errorf("%s.directives.%s.base: illegal choice %q", pt, directive, value)
}

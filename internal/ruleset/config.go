// SPDX-License-Identifier: AGPL-3.0-or-later

/*
rulecraft is a Go library implementing the rule-resolution core of a
declarative build engine: a selector algebra, node state machine, and
rule registry evaluated lazily over a dependency graph.
*/

// Package ruleset loads a declarative YAML description of a rule graph and
// compiles it into a *registry.Tasks by driving the same TaskBegin/
// AddSelect*/TaskEnd builder lifecycle a Go caller would use directly. It is
// sugar over the builder API, never a second source of truth for what a
// compiled registry can contain.
package ruleset

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"rulecraft/pkg/registry"
	"rulecraft/pkg/rkey"
)

// ErrConfigNotFound is returned when the ruleset file does not exist at the
// given path.
var ErrConfigNotFound = errors.New("ruleset: config not found")

// Config is the top-level ruleset document: the host's fixed fields and
// type constraints, followed by the rules and intrinsics built from them.
type Config struct {
	Host       HostConfig        `yaml:"host"`
	Rules      []RuleConfig      `yaml:"rules,omitempty"`
	Intrinsics []IntrinsicConfig `yaml:"intrinsics,omitempty"`
}

// HostConfig names the fixed fields and type constraints every resolution
// depends on (spec.md §4.1's "host-supplied constants"). Each value is an
// arbitrary string the loader content-hashes into a Digest via
// rkey.HashBytes, so two rulesets naming the same string always agree on
// identity without either side needing to share raw byte constants.
type HostConfig struct {
	FieldName     string `yaml:"field_name"`
	FieldProducts string `yaml:"field_products"`
	FieldVariants string `yaml:"field_variants"`

	TypeAddress     string `yaml:"type_address"`
	TypeHasProducts string `yaml:"type_has_products"`
	TypeHasVariants string `yaml:"type_has_variants"`

	// NoneKey names the host's "no value" sentinel. If empty, the zero
	// Key (rkey.Empty) is used, matching SPEC_FULL.md §C.1's default.
	NoneKey string `yaml:"none_key,omitempty"`
}

// RuleConfig declares one task rule: a function, the product it produces,
// and an ordered clause of selectors.
type RuleConfig struct {
	Func    string           `yaml:"func"`
	Product string           `yaml:"product"`
	Clause  []SelectorConfig `yaml:"clause,omitempty"`
}

// IntrinsicConfig declares a one-shot intrinsic rule: a function that
// produces product directly from a subject of subject_type, bypassing the
// clause builder (registry.Tasks.IntrinsicAdd).
type IntrinsicConfig struct {
	Func        string `yaml:"func"`
	SubjectType string `yaml:"subject_type"`
	Product     string `yaml:"product"`
}

// SelectorConfig is a tagged union over the four selector kinds a rule
// clause can contain. Exactly one group of fields applies, disambiguated
// by Kind.
type SelectorConfig struct {
	Kind string `yaml:"kind"`

	// kind: select (Optional also applies to select_dependencies and
	// select_projection)
	Product    string `yaml:"product,omitempty"`
	VariantKey string `yaml:"variant_key,omitempty"`
	Optional   bool   `yaml:"optional,omitempty"`

	// kind: select_literal
	SubjectValue string `yaml:"subject_value,omitempty"`
	SubjectType  string `yaml:"subject_type,omitempty"`

	// kind: select_dependencies
	DepProduct string `yaml:"dep_product,omitempty"`
	Field      string `yaml:"field,omitempty"`
	Transitive bool   `yaml:"transitive,omitempty"`

	// kind: select_projection
	ProjectedSubjectType string `yaml:"projected_subject_type,omitempty"`
	InputProduct         string `yaml:"input_product,omitempty"`
}

const (
	kindSelect             = "select"
	kindSelectLiteral      = "select_literal"
	kindSelectDependencies = "select_dependencies"
	kindSelectProjection   = "select_projection"
)

// DefaultConfigPath returns the conventional ruleset file name for the
// current working directory.
func DefaultConfigPath() string {
	return "rulecraft.yml"
}

// Exists reports whether a ruleset file exists at path. It returns
// (false, nil) if the file does not exist.
func Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Load reads and validates the ruleset file at path, returning the decoded
// Config without compiling it. It returns ErrConfigNotFound if the file
// does not exist.
func Load(path string) (*Config, error) {
	exists, err := Exists(path)
	if err != nil {
		return nil, fmt.Errorf("checking ruleset existence: %w", err)
	}
	if !exists {
		return nil, ErrConfigNotFound
	}

	// nolint:gosec // G304: reading a ruleset file from a user-specified path is expected behavior
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ruleset file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing ruleset file: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Host.FieldName == "" || cfg.Host.FieldProducts == "" || cfg.Host.FieldVariants == "" {
		return errors.New("ruleset: host.field_name, host.field_products and host.field_variants are required")
	}
	if cfg.Host.TypeAddress == "" || cfg.Host.TypeHasProducts == "" || cfg.Host.TypeHasVariants == "" {
		return errors.New("ruleset: host.type_address, host.type_has_products and host.type_has_variants are required")
	}
	if len(cfg.Rules) == 0 && len(cfg.Intrinsics) == 0 {
		return errors.New("ruleset: at least one rule or intrinsic is required")
	}
	for i, r := range cfg.Rules {
		if r.Func == "" {
			return fmt.Errorf("ruleset: rules[%d].func is required", i)
		}
		if r.Product == "" {
			return fmt.Errorf("ruleset: rules[%d].product is required", i)
		}
		for j, c := range r.Clause {
			if err := validateSelector(c); err != nil {
				return fmt.Errorf("ruleset: rules[%d].clause[%d]: %w", i, j, err)
			}
		}
	}
	for i, in := range cfg.Intrinsics {
		if in.Func == "" || in.SubjectType == "" || in.Product == "" {
			return fmt.Errorf("ruleset: intrinsics[%d] requires func, subject_type and product", i)
		}
	}
	return nil
}

func validateSelector(c SelectorConfig) error {
	switch c.Kind {
	case kindSelect:
		if c.Product == "" {
			return errors.New("select clause requires product")
		}
	case kindSelectLiteral:
		if c.SubjectValue == "" || c.SubjectType == "" {
			return errors.New("select_literal clause requires subject_value and subject_type")
		}
	case kindSelectDependencies:
		if c.Product == "" || c.DepProduct == "" || c.Field == "" {
			return errors.New("select_dependencies clause requires product, dep_product and field")
		}
	case kindSelectProjection:
		if c.Product == "" || c.ProjectedSubjectType == "" || c.Field == "" || c.InputProduct == "" {
			return errors.New("select_projection clause requires product, projected_subject_type, field and input_product")
		}
	case "":
		return errors.New("clause entry is missing kind")
	default:
		return fmt.Errorf("unknown selector kind %q", c.Kind)
	}
	return nil
}

// Name content-hashes a ruleset string into the Digest it names, so the
// same string anywhere in a ruleset (or across rulesets, or in a CLI
// argument naming the same product/type) always produces the same
// identity. Exported so callers outside this package (the CLI) can refer
// to the same products and types a loaded ruleset names.
func Name(s string) rkey.Digest {
	return rkey.HashBytes([]byte(s))
}

// Key builds a self-typed rkey.Key for s — i.e. a Key whose digest and
// type are both Name(s). This is the representation a ruleset gives to
// fixed fields and other "just a name" handles.
func Key(s string) rkey.Key {
	d := Name(s)
	return rkey.NewKey(d, d)
}

func name(s string) rkey.Digest { return Name(s) }
func key(s string) rkey.Key     { return Key(s) }

// Compile builds a *registry.Tasks from cfg, registering every rule and
// intrinsic via the builder lifecycle. It panics only the way the
// underlying registry panics — on a host-describable programmer error such
// as double-registration — since Compile itself runs the same calls a Go
// caller would.
func Compile(cfg *Config) (*registry.Tasks, error) {
	noneKey := rkey.Empty
	if cfg.Host.NoneKey != "" {
		noneKey = key(cfg.Host.NoneKey)
	}

	reg := registry.NewTasks(
		key(cfg.Host.FieldName),
		key(cfg.Host.FieldProducts),
		key(cfg.Host.FieldVariants),
		name(cfg.Host.TypeAddress),
		name(cfg.Host.TypeHasProducts),
		name(cfg.Host.TypeHasVariants),
		noneKey,
	)

	for i, r := range cfg.Rules {
		if err := compileRule(reg, r); err != nil {
			return nil, fmt.Errorf("ruleset: compiling rules[%d] (%s): %w", i, r.Func, err)
		}
	}

	for _, in := range cfg.Intrinsics {
		reg.IntrinsicAdd(name(in.Func), name(in.SubjectType), name(in.Product))
	}

	return reg, nil
}

func compileRule(reg *registry.Tasks, r RuleConfig) error {
	reg.TaskBegin(name(r.Func), name(r.Product))
	for i, c := range r.Clause {
		if err := compileSelector(reg, c); err != nil {
			reg.TaskEnd()
			return fmt.Errorf("clause[%d]: %w", i, err)
		}
	}
	reg.TaskEnd()
	return nil
}

func compileSelector(reg *registry.Tasks, c SelectorConfig) error {
	switch c.Kind {
	case kindSelect:
		var variantKey *rkey.Field
		if c.VariantKey != "" {
			vk := key(c.VariantKey)
			variantKey = &vk
		}
		reg.AddSelect(name(c.Product), variantKey, c.Optional)
	case kindSelectLiteral:
		reg.AddSelectLiteral(rkey.NewKey(name(c.SubjectValue), name(c.SubjectType)), name(c.SubjectType))
	case kindSelectDependencies:
		reg.AddSelectDependencies(name(c.Product), name(c.DepProduct), key(c.Field), c.Transitive, c.Optional)
	case kindSelectProjection:
		reg.AddSelectProjection(name(c.Product), name(c.ProjectedSubjectType), key(c.Field), name(c.InputProduct), c.Optional)
	default:
		return fmt.Errorf("unknown selector kind %q", c.Kind)
	}
	return nil
}

// LoadAndCompile is the common entry point: Load path, then Compile the
// result into a *registry.Tasks.
func LoadAndCompile(path string) (*registry.Tasks, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Compile(cfg)
}

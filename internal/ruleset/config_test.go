// SPDX-License-Identifier: AGPL-3.0-or-later

package ruleset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRuleset(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "rulecraft.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validRuleset = `
host:
  field_name: name
  field_products: products
  field_variants: variants
  type_address: Address
  type_has_products: HasProducts
  type_has_variants: HasVariants

rules:
  - func: resolve_snapshot
    product: Snapshot
    clause:
      - kind: select
        product: FileContent
      - kind: select_dependencies
        product: Snapshot
        dep_product: FileContent
        field: entries
        transitive: true

intrinsics:
  - func: read_file
    subject_type: Path
    product: FileContent
`

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoad_Valid(t *testing.T) {
	path := writeRuleset(t, validRuleset)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "resolve_snapshot", cfg.Rules[0].Func)
	require.Len(t, cfg.Intrinsics, 1)
	assert.Equal(t, "read_file", cfg.Intrinsics[0].Func)
}

func TestLoad_RejectsMissingHostFields(t *testing.T) {
	path := writeRuleset(t, `
host:
  field_name: name
rules:
  - func: f
    product: P
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_RejectsEmptyRuleset(t *testing.T) {
	path := writeRuleset(t, `
host:
  field_name: name
  field_products: products
  field_variants: variants
  type_address: Address
  type_has_products: HasProducts
  type_has_variants: HasVariants
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "at least one rule or intrinsic")
}

func TestLoad_RejectsUnknownSelectorKind(t *testing.T) {
	path := writeRuleset(t, `
host:
  field_name: name
  field_products: products
  field_variants: variants
  type_address: Address
  type_has_products: HasProducts
  type_has_variants: HasVariants
rules:
  - func: f
    product: P
    clause:
      - kind: select_union
        product: Q
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, `unknown selector kind "select_union"`)
}

func TestLoad_RejectsIncompleteSelectDependencies(t *testing.T) {
	path := writeRuleset(t, `
host:
  field_name: name
  field_products: products
  field_variants: variants
  type_address: Address
  type_has_products: HasProducts
  type_has_variants: HasVariants
rules:
  - func: f
    product: P
    clause:
      - kind: select_dependencies
        product: P
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "select_dependencies clause requires")
}

func TestCompile_RegistersRuleAndIntrinsic(t *testing.T) {
	path := writeRuleset(t, validRuleset)
	cfg, err := Load(path)
	require.NoError(t, err)

	reg, err := Compile(cfg)
	require.NoError(t, err)

	products := reg.Products()
	require.Len(t, products, 1)

	rules := reg.GenRules(name("Path"), name("FileContent"))
	require.Len(t, rules, 1)
	assert.Equal(t, name("read_file"), rules[0].Func)
	assert.False(t, rules[0].Cacheable, "intrinsic rules are never cacheable")
}

func TestCompile_DuplicateRuleRegistrationPanics(t *testing.T) {
	path := writeRuleset(t, `
host:
  field_name: name
  field_products: products
  field_variants: variants
  type_address: Address
  type_has_products: HasProducts
  type_has_variants: HasVariants

rules:
  - func: resolve_snapshot
    product: Snapshot
    clause:
      - kind: select
        product: FileContent
      - kind: select_dependencies
        product: Snapshot
        dep_product: FileContent
        field: entries
        transitive: true
  - func: resolve_snapshot
    product: Snapshot
    clause:
      - kind: select
        product: FileContent
      - kind: select_dependencies
        product: Snapshot
        dep_product: FileContent
        field: entries
        transitive: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Panics(t, func() {
		_, _ = Compile(cfg)
	})
}

func TestLoadAndCompile_RoundTrips(t *testing.T) {
	path := writeRuleset(t, validRuleset)

	reg, err := LoadAndCompile(path)
	require.NoError(t, err)
	assert.Contains(t, reg.Products(), name("Snapshot").String())
}

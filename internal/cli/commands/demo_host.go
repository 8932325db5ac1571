// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"fmt"

	"rulecraft/internal/hostkit"
	"rulecraft/internal/ruleset"
	"rulecraft/pkg/rkey"
)

// listType is the TypeID every hostkit.Host.StoreList result is tagged
// with when the CLI drives a ruleset it has no Go-level knowledge of.
var listType = ruleset.Name("rulecraft/cli.list")

// newDemoHost builds the in-memory demo host and function invoker the
// `resolve` and `graph` subcommands share: since neither subcommand knows
// the real Go semantics behind a loaded ruleset's funcs and fields, both
// are wired with a fallback that synthesizes a placeholder value rather
// than throwing, so any ruleset's dependency shape can be walked end to
// end without a matching RuleFunc registered for every Func digest.
func newDemoHost() (*hostkit.Host, *hostkit.FuncInvoker) {
	host := hostkit.New(listType)

	host.SetDefaultField(func(v any) (any, rkey.TypeID) {
		return fmt.Sprintf("synthetic(%v)", v), listType
	})
	host.SetDefaultListField(func(v any) []any {
		return nil
	})

	inv := hostkit.NewFuncInvoker(host)
	inv.SetFallback(func(ctx context.Context, h *hostkit.Host, args []rkey.Key) (rkey.Key, error) {
		rendered := make([]string, len(args))
		for i, a := range args {
			rendered[i] = h.ToStr(a.Digest())
		}
		return h.Put(listType, fmt.Sprintf("synthetic-rule-result(%v)", rendered)), nil
	})

	return host, inv
}

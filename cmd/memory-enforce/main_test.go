package main

import "testing"

func TestDocumentedFlagsRegistered(t *testing.T) {
	root := newRootCmd()

	flags := map[string][]string{
		"search":      {"category", "limit", "symbols", "json"},
		"index":       {"watch", "concurrency"},
		"record":      {"decision", "rationale", "alternatives", "scope", "category", "decided-on", "tag", "force"},
		"drift":       {"fix"},
		"orchestrate": {"pattern", "personas", "persona", "constraint", "require", "criteria", "json"},
		"core":        {"limit"},
	}

	for name, wanted := range flags {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("subcommand %s not found: %v", name, err)
		}
		for _, flag := range wanted {
			if cmd.Flags().Lookup(flag) == nil {
				t.Errorf("%s missing --%s", name, flag)
			}
		}
	}
}

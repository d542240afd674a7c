package cmd

import "testing"

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve":    false,
		"api":      false,
		"sources":  false,
		"fetch":    false,
		"progress": false,
		"digest":   false,
		"version":  false,
	}

	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestSourcesSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range sourcesCmd.Commands() {
		names[c.Name()] = true
	}
	if !names["add"] || !names["list"] {
		t.Errorf("sources subcommands = %v, want add and list", names)
	}
}

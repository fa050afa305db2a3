package cmd

import (
	"os"
	"testing"

	"github.com/alisonjenkins/tmux-sessionizer/pkg/bootstrap"
)

func TestMain(m *testing.M) {
	os.Setenv("GO_TEST", "true")
	code := m.Run()
	os.Unsetenv("GO_TEST")
	os.Exit(code)
}

func TestPreParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantConfig  string
		wantVerbose bool
	}{
		{"no flags", []string{"tms"}, "", false},
		{"verbose", []string{"tms", "-v"}, "", true},
		{"config long", []string{"tms", "--config", "/tmp/c.toml"}, "/tmp/c.toml", false},
		{"config equals", []string{"tms", "--config=/tmp/c.toml"}, "/tmp/c.toml", false},
		{"stops at subcommand", []string{"tms", "bookmark", "-v"}, "", false},
		{"stops at marker", []string{"tms", "--", "-v"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, verbose := bootstrap.PreParseGlobalFlags(tt.args)
			if cfg != tt.wantConfig || verbose != tt.wantVerbose {
				t.Errorf("PreParseGlobalFlags(%v) = (%q, %v), want (%q, %v)",
					tt.args, cfg, verbose, tt.wantConfig, tt.wantVerbose)
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	resetConfig()

	want := map[string]bool{"bookmark": false, "config": false, "refresh": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

package main

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
)

func newTestContext(t *testing.T, args map[string]string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	set.String("config", "", "")
	set.String("host", "", "")
	set.Int("port", 0, "")
	set.String("log-level", "", "")

	for k, v := range args {
		if err := set.Set(k, v); err != nil {
			t.Fatal(err)
		}
	}
	return cli.NewContext(cli.NewApp(), set, nil)
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveConfigAppliesFlagOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 8545

[ethereum]
network = "mainnet"
execution_rpc = "http://localhost:8545"

[consensus]
enabled = false

[proof]
enabled = true
`)

	c := newTestContext(t, map[string]string{
		"config":    path,
		"host":      "0.0.0.0",
		"port":      "9000",
		"log-level": "debug",
	})

	cfg, err := resolveConfig(c)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9000 {
		t.Fatalf("got server %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("got logging %+v", cfg.Logging)
	}
}

func TestResolveConfigSurfacesValidationError(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 8545

[ethereum]
network = "mainnet"

[consensus]
enabled = false

[proof]
enabled = true
`)

	c := newTestContext(t, map[string]string{"config": path})
	if _, err := resolveConfig(c); err == nil {
		t.Fatal("expected error for missing execution_rpc")
	}
}

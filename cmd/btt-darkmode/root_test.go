package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

const inversionFixes = `example.com
INVERT
  .logo

====
*
INVERT
img
`

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	if root.Use != "btt-darkmode" {
		t.Errorf("Expected Use to be 'btt-darkmode', got %s", root.Use)
	}
	if !root.SilenceUsage {
		t.Error("Expected SilenceUsage to be true")
	}

	found := make(map[string]bool)
	for _, c := range root.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"fmt", "resolve", "color", "publish", "watch"} {
		if !found[name] {
			t.Errorf("Expected subcommand %s", name)
		}
	}

	out, err := run(t, "--version")
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}
	if out != "btt-darkmode version dev\n" {
		t.Errorf("Unexpected version output %q", out)
	}
}

func TestFmtCommand(t *testing.T) {
	// 文件名决定 schema，通用规则被移到首位
	path := writeFile(t, "inversion-fixes.config", inversionFixes)
	out, err := run(t, "fmt", path)
	if err != nil {
		t.Fatalf("fmt failed: %v", err)
	}
	want := "*\n\nINVERT\nimg\n\n" + strings.Repeat("=", 32) + "\n\nexample.com\n\nINVERT\n.logo\n"
	if out != want {
		t.Errorf("Unexpected fmt output:\n%s", out)
	}

	// --write 写回文件
	if _, err := run(t, "fmt", "--write", path); err != nil {
		t.Fatalf("fmt --write failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != want {
		t.Errorf("Unexpected file content:\n%s", data)
	}

	other := writeFile(t, "rules.txt", inversionFixes)
	if _, err := run(t, "fmt", other); err == nil {
		t.Error("Expected error for unknown schema")
	}
	if _, err := run(t, "fmt", "--schema", "inversion-fixes", other); err != nil {
		t.Errorf("fmt with --schema failed: %v", err)
	}
}

func TestResolveCommand(t *testing.T) {
	path := writeFile(t, "inversion-fixes.config", inversionFixes)

	out, err := run(t, "resolve", path, "--url", "https://www.example.com/")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if out != "example.com\n\nINVERT\nimg\n.logo\n" {
		t.Errorf("Unexpected resolve output:\n%s", out)
	}

	if _, err := run(t, "resolve", path); err == nil {
		t.Error("Expected error without --url")
	}
}

func TestColorCommand(t *testing.T) {
	out, err := run(t, "color", "bg", "white", "#ffffff")
	if err != nil {
		t.Fatalf("color failed: %v", err)
	}
	if out != "white\t#181a1b\n#ffffff\t#181a1b\n" {
		t.Errorf("Unexpected color output %q", out)
	}

	out, err = run(t, "color", "--mode", "light", "text", "black")
	if err != nil {
		t.Fatalf("color failed: %v", err)
	}
	if out != "black\t#181a1b\n" {
		t.Errorf("Unexpected color output %q", out)
	}

	out, err = run(t, "color", "--filter", "filter")
	if err != nil {
		t.Fatalf("color failed: %v", err)
	}
	if !strings.HasPrefix(out, "css-filter\tinvert(100%) hue-rotate(180deg)\nsvg-matrix\t") {
		t.Errorf("Unexpected filter output %q", out)
	}

	cfgPath := writeFile(t, "filter.toml", "mode = 0\n")
	out, err = run(t, "color", "--filter-file", cfgPath, "bg", "white")
	if err != nil {
		t.Fatalf("color failed: %v", err)
	}
	if out != "white\t#dcdad7\n" {
		t.Errorf("Unexpected color output %q", out)
	}

	if _, err := run(t, "color", "nope", "white"); err == nil {
		t.Error("Expected error for unknown role")
	}
	if _, err := run(t, "color", "bg", "not-a-color"); err == nil {
		t.Error("Expected error for bad color")
	}
}

func TestConfigFile(t *testing.T) {
	cfgPath := writeFile(t, "btt-darkmode.yaml", "filter:\n  mode: 0\n  light_scheme_background_color: \"#ffffff\"\n")
	out, err := run(t, "--config", cfgPath, "color", "bg", "white")
	if err != nil {
		t.Fatalf("color failed: %v", err)
	}
	if out != "white\t#ffffff\n" {
		t.Errorf("Unexpected color output %q", out)
	}

	// 模式可以写成名称
	cfgPath = writeFile(t, "btt-darkmode.yaml", "filter:\n  mode: light\n")
	out, err = run(t, "--config", cfgPath, "color", "bg", "white")
	if err != nil {
		t.Fatalf("color with mode name failed: %v", err)
	}
	if out != "white\t#dcdad7\n" {
		t.Errorf("Unexpected color output %q", out)
	}

	cfgPath = writeFile(t, "btt-darkmode.yaml", "filter:\n  mode: dim\n")
	if _, err := run(t, "--config", cfgPath, "color", "bg", "white"); err == nil {
		t.Error("Expected error for unknown mode name")
	}
}

func TestPublishAndResolveFromRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	defer mr.Close()

	redisFlags := []string{"--redis-addr", mr.Addr(), "--prefix", "clitest", "--table-version", "3"}
	path := writeFile(t, "table.txt", inversionFixes)

	out, err := run(t, append(redisFlags, "publish", "--table", "inversion-fixes="+path)...)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if len(strings.TrimSpace(out)) != 8 {
		t.Errorf("Expected all hash output, got %q", out)
	}

	out, err = run(t, append(redisFlags, "resolve", "--schema", "inversion-fixes", "--url", "https://example.com/")...)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if out != "example.com\n\nINVERT\nimg\n.logo\n" {
		t.Errorf("Unexpected resolve output:\n%s", out)
	}

	if _, err := run(t, append(redisFlags, "publish", "--table", "bogus")...); err == nil {
		t.Error("Expected error for malformed --table")
	}
	if _, err := run(t, append(redisFlags, "publish")...); err == nil {
		t.Error("Expected error for empty publish")
	}
}

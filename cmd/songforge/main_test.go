package main

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"songforge/internal/testsupport"
)

type cliTestEnv struct {
	configPath    string
	blueprintPath string
	specPath      string
	baseDir       string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	blueprintPath := testsupport.WriteBlueprint(t)
	specPath := testsupport.WriteSpecification(t)

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q
blueprint_path = %q
`,
		filepath.Join(base, "data"),
		filepath.Join(base, "logs"),
		blueprintPath,
	)
	testsupport.WriteFile(t, configPath, content)

	return &cliTestEnv{
		configPath:    configPath,
		blueprintPath: blueprintPath,
		specPath:      specPath,
		baseDir:       base,
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestRunCommandPersistsAndLists(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"run", "--spec", env.specPath, "--seed", "42", "--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, `"Status": "succeeded"`)

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "succeeded")

	out, _, err = runCLI(t, []string{"runs", "stats"}, env.configPath)
	if err != nil {
		t.Fatalf("runs stats: %v", err)
	}
	requireContains(t, out, "total")
}

func TestRunCommandNoStore(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"run", "--spec", env.specPath, "--seed", "7", "--no-store", "--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run --no-store: %v", err)
	}
	requireContains(t, out, `"Status": "succeeded"`)

	out, _, err = runCLI(t, []string{"runs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestRunCommandRequiresBlueprint(t *testing.T) {
	env := setupCLITestEnv(t)

	// A config without a default blueprint forces the flag.
	bare := filepath.Join(env.baseDir, "bare.toml")
	testsupport.WriteFile(t, bare, fmt.Sprintf(`
[paths]
data_dir = %q
log_dir = %q
`,
		filepath.Join(env.baseDir, "data2"),
		filepath.Join(env.baseDir, "logs2"),
	))

	_, _, err := runCLI(t, []string{"run", "--spec", env.specPath, "--json"}, bare)
	if err == nil || !strings.Contains(err.Error(), "blueprint") {
		t.Fatalf("expected blueprint error, got %v", err)
	}
}

func TestBlueprintValidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"blueprint", "validate", env.blueprintPath}, env.configPath)
	if err != nil {
		t.Fatalf("blueprint validate: %v", err)
	}
	requireContains(t, out, "is valid")

	invalid := filepath.Join(env.baseDir, "broken.toml")
	testsupport.WriteFile(t, invalid, `
genre = "synthwave"
required_sections = []

[tempo]
min = 200
max = 100
`)
	if _, _, err := runCLI(t, []string{"blueprint", "validate", invalid}, env.configPath); err == nil {
		t.Fatal("expected validation failure for inverted tempo range")
	}
}

func TestBlueprintShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"blueprint", "show", env.blueprintPath}, env.configPath)
	if err != nil {
		t.Fatalf("blueprint show: %v", err)
	}
	requireContains(t, out, "synthwave")
	requireContains(t, out, "hook_density")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate", "--path", env.configPath}, "")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected refusal to overwrite without --overwrite")
	}

	out, _, err = runCLI(t, []string{"config", "show", "--path", env.configPath}, "")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "[paths]")
	requireContains(t, out, "max_fix_attempts")
}

func TestRunsShowCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{
		"run", "--spec", env.specPath, "--seed", "42",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "succeeded")

	listOut, _, err := runCLI(t, []string{"runs", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs list: %v", err)
	}
	// Pull the run ID out of the JSON listing.
	idx := strings.Index(listOut, `"ID": "`)
	if idx < 0 {
		t.Fatalf("no run id in %q", listOut)
	}
	rest := listOut[idx+len(`"ID": "`):]
	runID := rest[:strings.Index(rest, `"`)]

	showOut, _, err := runCLI(t, []string{"runs", "show", runID}, env.configPath)
	if err != nil {
		t.Fatalf("runs show: %v", err)
	}
	requireContains(t, showOut, runID)
	requireContains(t, showOut, "compose")
}

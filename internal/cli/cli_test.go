package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kim-interface/kimm/internal/defs"
	"github.com/kim-interface/kimm/internal/engine"
	"github.com/kim-interface/kimm/internal/store"
)

// resetFlags restores every flag of cmd and its children to its default, so
// one test's flags never leak into the next run of the shared command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

type result struct {
	out    string
	errOut string
	err    error
}

// kimm runs the command tree headless against the environment at root.
func kimm(t *testing.T, root string, args ...string) result {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	t.Setenv("KIMM_CONFIG", "")
	resetFlags(rootCmd)
	globals = Options{}
	deps = nil

	var out, errOut bytes.Buffer
	full := append([]string{"--root", root, "--non-interactive", "--no-backup", "--user", "tester"}, args...)
	err := execute(context.Background(), full, &out, &errOut)
	return result{out: out.String(), errOut: errOut.String(), err: err}
}

// must fails the test when the command did not succeed.
func must(t *testing.T, root string, args ...string) string {
	t.Helper()
	r := kimm(t, root, args...)
	if r.err != nil {
		t.Fatalf("kimm %s: %v\nstderr: %s", strings.Join(args, " "), r.err, r.errOut)
	}
	return r.out
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output does not contain %q:\n%s", want, got)
	}
}

func TestCatalogueLifecycle(t *testing.T) {
	root := t.TempDir()

	assertContains(t, must(t, root, "model", "add", "AB1", "--headers", "Operator, Shift"),
		"Model AB1 added with 2 header(s).")
	assertContains(t, must(t, root, "machine", "add", "AB1-Press", "--measurements", "Weight,Bore"),
		"Machine AB1-Press added to Model AB1 with 2 measurements.")
	assertContains(t, must(t, root, "config", "add", "AB1-Press", "1", "--map", "Operator=1/1,Weight=1/2"),
		"Mapping Configuration 1 added to AB1-Press with 2 Field-Mappings.")

	view := must(t, root, "config", "view", "AB1-Press", "1")
	assertContains(t, view, "Operator: sheet 1, cluster 1")
	assertContains(t, view, "Weight: sheet 1, cluster 2")

	assertContains(t, must(t, root, "config", "duplicate", "AB1-Press", "1", "2"),
		"Mapping Configuration 1 of AB1-Press duplicated as 2.")
	list := must(t, root, "config", "list", "AB1-Press")
	assertContains(t, list, "  - 1\n")
	assertContains(t, list, "  - 2\n")

	// Dropping a header prunes it from every configuration.
	must(t, root, "model", "edit", "AB1", "--headers", "Shift")
	view = must(t, root, "config", "view", "AB1-Press", "2")
	if strings.Contains(view, "Operator") {
		t.Errorf("Operator should be pruned:\n%s", view)
	}
	assertContains(t, view, "Weight: sheet 1, cluster 2")

	assertContains(t, must(t, root, "model", "edit", "AB1", "--rename", "AB2"), "Model AB1 renamed to AB2.")
	assertContains(t, must(t, root, "machine", "list"), "  - AB2-Press\n")
	assertContains(t, must(t, root, "machine", "view", "AB2-Press"), "Model: AB2")

	assertContains(t, must(t, root, "config", "edit", "AB2-Press", "2", "--rename", "3", "--map", "Shift=2/1"),
		"Mapping Configuration 2 of AB2-Press renamed to 3.")
	assertContains(t, must(t, root, "config", "view", "AB2-Press", "3"), "Shift: sheet 2, cluster 1")

	assertContains(t, must(t, root, "check"), "Configuration is consistent.")

	log := must(t, root, "changelog", "-n", "0")
	assertContains(t, log, "Add Model: AB1")
	assertContains(t, log, "tester")

	assertContains(t, must(t, root, "config", "remove", "AB2-Press", "1", "--yes"),
		"Mapping Configuration 1 of AB2-Press removed.")
	assertContains(t, must(t, root, "machine", "remove", "AB2-Press", "--yes"), "Machine AB2-Press removed.")
	assertContains(t, must(t, root, "model", "remove", "AB2", "--yes"), "Model AB2 removed.")
	assertContains(t, must(t, root, "model", "list"), "(none)")
}

func TestMachineOwnerFromPrefix(t *testing.T) {
	root := t.TempDir()
	must(t, root, "model", "add", "AB1", "--headers", "Operator")
	must(t, root, "model", "add", "CD2", "--headers", "Operator")

	assertContains(t, must(t, root, "machine", "add", "CD2 Lathe"), "added to Model CD2")

	r := kimm(t, root, "machine", "add", "ZZZ-1")
	if !errors.Is(r.err, ErrMissingInput) {
		t.Errorf("expected ErrMissingInput without a prefixing Model, got %v", r.err)
	}

	assertContains(t, must(t, root, "machine", "add", "Lathe", "--model", "AB1"), "added to Model AB1")
	assertContains(t, must(t, root, "machine", "list", "--model", "AB1"), "  - Lathe\n")
}

func TestValidationMessageShownVerbatim(t *testing.T) {
	root := t.TempDir()
	must(t, root, "model", "add", "AB1", "--headers", "Operator")

	r := kimm(t, root, "model", "add", "AB1", "--headers", "Operator")
	if engine.Classify(r.err) != engine.CategoryValidation {
		t.Fatalf("expected validation error, got %v", r.err)
	}
	want := "Model names must be unique.\n" +
		"The Model 'AB1' has already been defined.\n" +
		"Choose a different name for this Model.\n"
	if r.errOut != want {
		t.Errorf("stderr = %q, want %q", r.errOut, want)
	}

	r = kimm(t, root, "model", "add", "ab")
	if !strings.HasPrefix(r.errOut, "Model names must be 3 characters in length.") {
		t.Errorf("stderr = %q", r.errOut)
	}
}

func TestHeadlessRequiresArguments(t *testing.T) {
	root := t.TempDir()

	r := kimm(t, root, "model", "add")
	if !errors.Is(r.err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", r.err)
	}
	assertContains(t, r.errOut, "model name argument is required with --non-interactive")

	r = kimm(t, root, "browse")
	if !errors.Is(r.err, ErrMissingInput) {
		t.Errorf("browse without a terminal: got %v", r.err)
	}
}

func TestRemoveWithoutConfirmationIsCancelled(t *testing.T) {
	root := t.TempDir()
	must(t, root, "model", "add", "AB1", "--headers", "Operator")

	r := kimm(t, root, "model", "remove", "AB1")
	if r.err == nil {
		t.Fatal("expected cancellation")
	}
	if r.errOut != "Cancelled.\n" {
		t.Errorf("stderr = %q", r.errOut)
	}
	assertContains(t, must(t, root, "model", "list"), "  - AB1\n")
}

func TestNotFound(t *testing.T) {
	root := t.TempDir()
	r := kimm(t, root, "machine", "view", "AB1-Press")
	if engine.Classify(r.err) != engine.CategoryNotFound {
		t.Fatalf("expected not found, got %v", r.err)
	}
	assertContains(t, r.errOut, "Error (not_found):")
}

func TestURL(t *testing.T) {
	root := t.TempDir()

	out := must(t, root, "url", "AB1 Press", "2")
	want := "http://10.1.30.90:3000/api/v1/getvalue/KIM_Interface?machine_name=AB1_Press&mapping_config=2\n"
	if out != want {
		t.Errorf("url = %q, want %q", out, want)
	}

	r := kimm(t, root, "url")
	if r.errOut != "Please select a Machine to generate a URL.\n" {
		t.Errorf("stderr = %q", r.errOut)
	}
	r = kimm(t, root, "url", "AB1-Press")
	if r.errOut != "Please select a Mapping Configuration to generate a URL.\n" {
		t.Errorf("stderr = %q", r.errOut)
	}
}

func TestRuntime(t *testing.T) {
	root := t.TempDir()
	assertContains(t, must(t, root, "runtime"), "No script calls recorded")

	log := "2024-05-21 10:00:00 call 0.25\n\n2024-05-21 10:01:00 call 0.75\n"
	if err := os.WriteFile(filepath.Join(root, defs.LogsDir, defs.RuntimeLogTXT), []byte(log), 0o644); err != nil {
		t.Fatal(err)
	}
	assertContains(t, must(t, root, "runtime"), "0.500000 seconds per script call (2 calls)")
}

func TestResults(t *testing.T) {
	root := t.TempDir()
	assertContains(t, must(t, root, "results"), "No results recorded")

	if err := os.WriteFile(filepath.Join(root, defs.ResultsTXT), []byte("AB1-Press 1\nÃ˜ Bore: 12.00\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := must(t, root, "results")
	assertContains(t, out, "Current Results")
	assertContains(t, out, "Ø Bore: 12.00")
	if strings.Contains(out, "Ã") {
		t.Errorf("results not repaired:\n%s", out)
	}
}

func TestCheckReportsMissingMachineDocument(t *testing.T) {
	root := t.TempDir()
	must(t, root, "model", "add", "AB1", "--headers", "Operator")
	must(t, root, "machine", "add", "AB1-Press", "--measurements", "Weight")

	if err := os.Remove(deps.Env.Paths.MachineFile("AB1", "AB1-Press")); err != nil {
		t.Fatal(err)
	}

	r := kimm(t, root, "check")
	var ce *store.ConsistencyError
	if !errors.As(r.err, &ce) {
		t.Fatalf("expected ConsistencyError, got %v", r.err)
	}
	assertContains(t, r.out, "AB1/AB1-Press")
	assertContains(t, r.errOut, "Error (consistency):")
	assertContains(t, r.errOut, "1 problem found")
}

func TestExport(t *testing.T) {
	root := t.TempDir()
	must(t, root, "model", "add", "AB1", "--headers", "Operator")
	must(t, root, "machine", "add", "AB1-Press", "--measurements", "Weight")
	must(t, root, "config", "add", "AB1-Press", "1", "--map", "Weight=1/1")

	xlsx := filepath.Join(t.TempDir(), "out", "catalogue.xlsx")
	assertContains(t, must(t, root, "export", "xlsx", "-o", xlsx), "Workbook written to "+xlsx)
	if info, err := os.Stat(xlsx); err != nil || info.Size() == 0 {
		t.Errorf("workbook not written: %v", err)
	}

	must(t, root, "export", "pdf", "AB1-Press")
	data, err := os.ReadFile(filepath.Join(root, "AB1-Press-mappings.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Errorf("not a pdf: %q", data[:min(len(data), 8)])
	}
}

func TestBackupRunListRestore(t *testing.T) {
	root := t.TempDir()

	assertContains(t, must(t, root, "backup", "run"), "Latest backup created.")
	assertContains(t, must(t, root, "backup", "list"), "Past snapshots (0 of 25)")

	must(t, root, "model", "add", "AB1", "--headers", "Operator")
	assertContains(t, must(t, root, "backup", "run"), "Archived snapshot")

	snaps, err := deps.Backup.List()
	if err != nil || len(snaps) != 1 {
		t.Fatalf("List() = %v, %v", snaps, err)
	}
	name := snaps[0].Name
	assertContains(t, must(t, root, "backup", "list"), name)

	assertContains(t, must(t, root, "backup", "restore", name, "--yes"), "Configuration restored from "+name+".")
	assertContains(t, must(t, root, "model", "list"), "(none)")
}

func TestInitWritesSettings(t *testing.T) {
	root := t.TempDir()

	out := must(t, root, "init")
	assertContains(t, out, "Environment ready at "+root)
	settings := filepath.Join(root, defs.SettingsYAML)
	if _, err := os.Stat(settings); err != nil {
		t.Fatalf("settings not written: %v", err)
	}
	assertContains(t, must(t, root, "init"), "(kept)")
}

func TestNotes(t *testing.T) {
	root := t.TempDir()
	assertContains(t, must(t, root, "notes"), "KIM Interface Manager")

	md := "# Release 2.0\n\n- Backup mirror\n"
	if err := os.WriteFile(filepath.Join(root, defs.ReleaseNotesMD), []byte(md), 0o644); err != nil {
		t.Fatal(err)
	}
	assertContains(t, must(t, root, "notes"), "Backup mirror")
}

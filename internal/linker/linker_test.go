package linker

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/gahjs/e2e-plugin/internal/filesystem"
	"github.com/gahjs/e2e-plugin/internal/models"
	"github.com/stretchr/testify/require"
)

const hostTestRoot = "/repo/host/.gah/test"

func module(name, settings string) *models.Module {
	m := models.NewModule(name, "pkg"+name, "/repo/"+name, "")
	if settings != "" {
		m.AddPluginSettings(models.PluginName, json.RawMessage(settings))
	}
	return m
}

// scenarioDeps mirrors a host depending on A (tests + helpers) and C (helpers only).
func scenarioDeps(fs *filesystem.MockFileSystem) []*models.Module {
	fs.AddFile("/repo/A/specs/login.spec.ts", []byte("test('login')"))
	fs.AddFile("/repo/A/helpers/index.ts", []byte("export {}"))
	fs.AddFile("/repo/C/shared/index.ts", []byte("export {}"))
	fs.AddDir(hostTestRoot)

	a := module("A", `{"testDirectoryPath":"specs","sharedHelperPath":"helpers/index","configured":true}`)
	c := module("C", `{"sharedHelperPath":"shared/index","configured":true}`)
	return []*models.Module{a, c}
}

func TestPlanTestDirs(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	entries := PlanTestDirs(scenarioDeps(fs), hostTestRoot)

	require.Equal(t, []LinkEntry{{
		Module:      "A",
		Kind:        KindTestDir,
		Source:      "/repo/A/specs",
		Destination: "/repo/host/.gah/test/A",
		Root:        hostTestRoot,
	}}, entries)
}

func TestPlanSharedHelpers(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	entries := PlanSharedHelpers(scenarioDeps(fs), hostTestRoot)

	require.Equal(t, []LinkEntry{
		{
			Module:      "A",
			Kind:        KindSharedHelper,
			Source:      "/repo/A/helpers",
			Destination: "/repo/host/.gah/test/pkgA/A/helpers",
			Root:        hostTestRoot,
		},
		{
			Module:      "C",
			Kind:        KindSharedHelper,
			Source:      "/repo/C/shared",
			Destination: "/repo/host/.gah/test/pkgC/C/shared",
			Root:        hostTestRoot,
		},
	}, entries)
}

func TestPlanSharedHelpers_NestedHelperRoot(t *testing.T) {
	dep := module("A", `{"sharedHelperPath":"test/helpers/index","configured":true}`)

	entries := PlanSharedHelpers([]*models.Module{dep}, hostTestRoot)
	require.Len(t, entries, 1)
	require.Equal(t, "/repo/A/test/helpers", entries[0].Source)
	require.Equal(t, "/repo/host/.gah/test/pkgA/A/test/helpers", entries[0].Destination)
}

func TestPlan_InvalidPaths(t *testing.T) {
	dep := module("A", `{"testDirectoryPath":"../elsewhere","sharedHelperPath":"index","configured":true}`)

	testDirs := PlanTestDirs([]*models.Module{dep}, hostTestRoot)
	require.Len(t, testDirs, 1)
	require.NotEmpty(t, testDirs[0].Invalid)

	helpers := PlanSharedHelpers([]*models.Module{dep}, hostTestRoot)
	require.Len(t, helpers, 1)
	require.Contains(t, helpers[0].Invalid, "has no directory")

	report := New(filesystem.NewMockFileSystem()).Apply(context.Background(), append(testDirs, helpers...))
	require.Equal(t, 2, report.Count(StatusFailed))
	require.True(t, report.Degraded())
}

// samePackageModule is a module whose package carries the module name, so
// its helper namespace <root>/checkout/checkout collides with its test dir
// link <root>/checkout.
func samePackageModule(base string) *models.Module {
	m := models.NewModule("checkout", "checkout", base, "")
	m.AddPluginSettings(models.PluginName, json.RawMessage(`{"testDirectoryPath":"specs","sharedHelperPath":"helpers/index","configured":true}`))
	return m
}

func TestPlan_HelperInsideTestDirLink(t *testing.T) {
	dep := samePackageModule("/repo/checkout")

	entries := Plan([]*models.Module{dep}, hostTestRoot, true)
	require.Len(t, entries, 2)
	require.Empty(t, entries[0].Invalid)
	require.Equal(t, "/repo/host/.gah/test/checkout/checkout/helpers", entries[1].Destination)
	require.Equal(t, "destination /repo/host/.gah/test/checkout/checkout/helpers lies inside the test-dir link of checkout", entries[1].Invalid)

	helpersOnly := Plan([]*models.Module{dep}, hostTestRoot, false)
	require.Len(t, helpersOnly, 1)
	require.Empty(t, helpersOnly[0].Invalid)
}

func TestApply_NeverWritesThroughTestDirLink(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/repo/checkout/specs/cart.spec.ts", []byte("test('cart')"))
	fs.AddFile("/repo/checkout/helpers/index.ts", []byte("export {}"))
	fs.AddDir(hostTestRoot)
	dep := samePackageModule("/repo/checkout")

	report := New(fs).Apply(context.Background(), Plan([]*models.Module{dep}, hostTestRoot, true))
	require.Equal(t, StatusLinked, report.Results[0].Status)
	require.Equal(t, StatusFailed, report.Results[1].Status)

	require.Equal(t, "cart.spec.ts (12 bytes)\n", fs.Tree("/repo/checkout/specs"))
	require.Equal(t, "checkout -> /repo/checkout/specs\n", fs.Tree(hostTestRoot))
}

func TestApply_ExistingLinkAboveDestination(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddFile("/repo/checkout/specs/cart.spec.ts", []byte("test('cart')"))
	fs.AddFile("/repo/checkout/helpers/index.ts", []byte("export {}"))
	fs.AddDir(hostTestRoot)
	fs.AddSymlink("/repo/checkout/specs", "/repo/host/.gah/test/checkout")
	dep := samePackageModule("/repo/checkout")

	report := New(fs).Apply(context.Background(), PlanSharedHelpers([]*models.Module{dep}, hostTestRoot))
	require.Equal(t, StatusFailed, report.Results[0].Status)
	require.Equal(t, "destination lies inside linked directory /repo/host/.gah/test/checkout", report.Results[0].Reason)
	require.Equal(t, "cart.spec.ts (12 bytes)\n", fs.Tree("/repo/checkout/specs"))
}

func TestApply_SamePackageModuleOnDisk(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "checkout")
	root := filepath.Join(dir, "host", ".gah", "test")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "specs"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "helpers"), 0755))
	require.NoError(t, os.MkdirAll(root, 0755))
	if err := os.Symlink(base, filepath.Join(dir, "symlink-check")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	osfs := filesystem.NewOSFileSystem()
	l := New(osfs)
	report := l.Apply(context.Background(), Plan([]*models.Module{samePackageModule(base)}, root, true))
	require.Equal(t, 1, report.Count(StatusLinked))
	require.Equal(t, 1, report.Count(StatusFailed))

	require.NoError(t, l.Clean(root))
	entries, err := os.ReadDir(filepath.Join(base, "specs"))
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestApply_Scenario(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	l := New(fs)

	entries := append(PlanTestDirs(deps, hostTestRoot), PlanSharedHelpers(deps, hostTestRoot)...)
	report := l.Apply(context.Background(), entries)

	require.Equal(t, 3, report.Count(StatusLinked))
	require.False(t, report.Degraded())

	data, err := fs.ReadFile("/repo/host/.gah/test/A/login.spec.ts")
	require.NoError(t, err)
	require.Equal(t, "test('login')", string(data))
	require.True(t, fs.Exists("/repo/host/.gah/test/pkgC/C/shared/index.ts"))

	require.Equal(t, `A -> /repo/A/specs
pkgA/
pkgA/A/
pkgA/A/helpers -> /repo/A/helpers
pkgC/
pkgC/C/
pkgC/C/shared -> /repo/C/shared
`, fs.Tree(hostTestRoot))
}

func TestApply_MissingSourceIsSkipped(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	fs.AddDir(hostTestRoot)
	dep := module("A", `{"testDirectoryPath":"specs","configured":true}`)

	report := New(fs).Apply(context.Background(), PlanTestDirs([]*models.Module{dep}, hostTestRoot))

	require.Equal(t, 1, report.Count(StatusSkipped))
	require.False(t, report.Degraded())
	require.Equal(t, "", fs.Tree(hostTestRoot))
}

func TestApply_FailureDoesNotStopOthers(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	// A regular directory occupies A's destination.
	fs.AddDir("/repo/host/.gah/test/A")

	entries := append(PlanTestDirs(deps, hostTestRoot), PlanSharedHelpers(deps, hostTestRoot)...)
	report := New(fs).Apply(context.Background(), entries)

	require.Len(t, report.Results, 3)
	require.Equal(t, StatusFailed, report.Results[0].Status)
	require.Equal(t, "destination already exists", report.Results[0].Reason)
	require.Equal(t, StatusLinked, report.Results[1].Status)
	require.Equal(t, StatusLinked, report.Results[2].Status)
	require.True(t, report.Degraded())
}

func TestApply_ExistingLinkToSameSource(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	l := New(fs, WithConcurrency(1))

	entries := PlanTestDirs(deps, hostTestRoot)
	first := l.Apply(context.Background(), entries)
	second := l.Apply(context.Background(), entries)

	require.Equal(t, StatusLinked, first.Results[0].Status)
	require.Equal(t, StatusAlreadyLinked, second.Results[0].Status)
}

func TestApply_ExistingLinkToOtherSource(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	fs.AddDir("/repo/old")
	fs.AddSymlink("/repo/old", "/repo/host/.gah/test/A")

	report := New(fs).Apply(context.Background(), PlanTestDirs(deps, hostTestRoot))
	require.Equal(t, StatusFailed, report.Results[0].Status)
	require.Equal(t, "destination links to /repo/old", report.Results[0].Reason)
}

func TestApply_CancelledContext(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(fs).Apply(ctx, PlanTestDirs(deps, hostTestRoot))
	require.Equal(t, 1, report.Count(StatusFailed))
}

func TestClean(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	fs.AddFile("/repo/host/.gah/test/stale/file.ts", []byte("old"))
	fs.AddSymlink("/repo/removed/specs", "/repo/host/.gah/test/Removed")
	l := New(fs)

	l.Apply(context.Background(), PlanTestDirs(deps, hostTestRoot))
	require.NoError(t, l.Clean(hostTestRoot))

	require.Equal(t, "", fs.Tree(hostTestRoot))
	require.True(t, fs.Exists(hostTestRoot))
	require.True(t, fs.Exists("/repo/A/specs/login.spec.ts"))
}

func TestClean_MissingRoot(t *testing.T) {
	require.NoError(t, New(filesystem.NewMockFileSystem()).Clean("/nowhere/test"))
}

func TestCleanThenApply_IsIdempotent(t *testing.T) {
	fs := filesystem.NewMockFileSystem()
	deps := scenarioDeps(fs)
	l := New(fs)

	run := func() string {
		require.NoError(t, l.Clean(hostTestRoot))
		entries := append(PlanTestDirs(deps, hostTestRoot), PlanSharedHelpers(deps, hostTestRoot)...)
		report := l.Apply(context.Background(), entries)
		require.False(t, report.Degraded())
		return fs.Tree(hostTestRoot)
	}

	require.Equal(t, run(), run())
}

func TestReportMerge(t *testing.T) {
	var report Report
	report.Merge(Report{Results: []Result{{Status: StatusLinked}}})
	report.Merge(Report{Results: []Result{{Status: StatusSkipped}, {Status: StatusLinked}}})

	require.Len(t, report.Results, 3)
	require.Equal(t, 2, report.Count(StatusLinked))
}

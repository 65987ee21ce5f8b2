package integrationtests

import (
	"errors"
	"testing"

	"github.com/specialistvlad/modkernel/internal/app"
	"github.com/specialistvlad/modkernel/internal/kernel"
	"github.com/specialistvlad/modkernel/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircularIncludeFailsRun(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": testutil.RecordingManifest("main", `"a.hcl"`),
		"a.hcl":    testutil.RecordingManifest("a", `"b.hcl"`),
		"b.hcl":    testutil.RecordingManifest("b", `"a.hcl"`),
	}

	// --- Act ---
	res := runApp(t, files, nil)

	// --- Assert ---
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, kernel.ErrCircularDependency)
	var cycleErr *kernel.CycleError
	require.True(t, errors.As(res.Err, &cycleErr))
	require.GreaterOrEqual(t, len(cycleErr.Cycle), 3)
	assert.Equal(t, cycleErr.Cycle[0], cycleErr.Cycle[len(cycleErr.Cycle)-1])
	assert.NotContains(t, res.Events, "init:main")
	assertBalanced(t, res.Events)
}

func TestFailingDependencySkipsDependents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl": testutil.RecordingManifest("main", `"good.hcl", "bad.hcl"`),
		"good.hcl": testutil.RecordingManifest("good", ``),
		"bad.hcl":  "lifecycle {\n  on_init = \"OnInitRefuse\"\n}\n",
	}

	// --- Act ---
	res := runApp(t, files, nil)

	// --- Assert ---
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, testutil.ErrRefused)
	assert.ErrorIs(t, res.Err, kernel.ErrInitializer)
	assert.NotContains(t, res.Events, "init:main")
	assertBalanced(t, res.Events)
}

func TestMissingIncludeFailsRun(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"main.hcl": testutil.RecordingManifest("main", `"nowhere.hcl"`),
	}

	res := runApp(t, files, nil)

	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, kernel.ErrFetchFailed)
	assert.Empty(t, res.Events)
}

func TestManifestValidationReportsEveryProblem(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{
		"main.hcl":  "lifecycle {\n  on_init = \"OnInitMissing\"\n}\n",
		"other.hcl": "lifecycle {\n  on_uninit = \"OnUninitMissing\"\n}\n",
	}

	// --- Act ---
	res := runApp(t, files, func(c *app.Config) { c.All = true })

	// --- Assert ---
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "module 'main.hcl': on_init handler 'OnInitMissing' is not registered")
	assert.Contains(t, res.Err.Error(), "module 'other.hcl': on_uninit handler 'OnUninitMissing' is not registered")
	assert.Nil(t, res.Events)
}

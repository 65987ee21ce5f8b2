package manifest_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/modkernel/internal/manifest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_FullManifest(t *testing.T) {
	src := `
		description = "HTTP API"
		include     = ["./db.hcl", "../shared/log.hcl"]

		lifecycle {
		  on_init   = "OnInitPrint"
		  on_uninit = "OnUninitPrint"
		}

		config = {
		  message = "api is up"
		  retries = 3
		  verbose = true
		}
	`

	m, err := manifest.Parse(context.Background(), []byte(src), "api/main.hcl")
	require.NoError(t, err)

	want := &manifest.Manifest{
		Path:        "api/main.hcl",
		Description: "HTTP API",
		Includes:    []string{"./db.hcl", "../shared/log.hcl"},
		Lifecycle:   manifest.Lifecycle{OnInit: "OnInitPrint", OnUninit: "OnUninitPrint"},
		Config:      map[string]string{"message": "api is up", "retries": "3", "verbose": "true"},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_EmptyManifest(t *testing.T) {
	m, err := manifest.Parse(context.Background(), []byte(""), "empty.hcl")
	require.NoError(t, err)

	assert.Empty(t, m.Includes)
	assert.Empty(t, m.Lifecycle.OnInit)
	assert.Nil(t, m.Config)
}

func TestParse_IncludeOnly(t *testing.T) {
	m, err := manifest.Parse(context.Background(), []byte(`include = ["a.hcl"]`), "facade.hcl")
	require.NoError(t, err)

	assert.Equal(t, []string{"a.hcl"}, m.Includes)
	assert.Equal(t, manifest.Lifecycle{}, m.Lifecycle)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantErr string
	}{
		{name: "syntax error", src: `include = [`, wantErr: "failed to parse manifest"},
		{name: "unknown attribute", src: `includes = ["a.hcl"]`, wantErr: "Unsupported argument"},
		{name: "include is not a list", src: `include = { a = 1 }`, wantErr: "Invalid include list"},
		{name: "empty include", src: `include = ["a.hcl", ""]`, wantErr: "element 1 is empty"},
		{name: "config is not a map", src: `config = ["x"]`, wantErr: "Invalid config"},
		{name: "duplicate lifecycle", src: "lifecycle {}\nlifecycle {}", wantErr: `Duplicate "lifecycle" block`},
		{name: "unknown lifecycle event", src: "lifecycle {\n on_run = \"X\"\n}", wantErr: "Unsupported argument"},
		{name: "variables are not allowed", src: `description = var.name`, wantErr: "invalid manifest"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manifest.Parse(context.Background(), []byte(tc.src), "bad.hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

package modpath_test

import (
	"testing"

	"github.com/specialistvlad/modkernel/internal/modpath"
	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		raw  string
		from string
		want string
	}{
		{name: "top level", raw: "a.js", from: "", want: "a.js"},
		{name: "sibling", raw: "b.js", from: "lib/a.js", want: "lib/b.js"},
		{name: "dot segment", raw: "./b.js", from: "lib/a.js", want: "lib/b.js"},
		{name: "parent dir", raw: "../b.js", from: "lib/sub/a.js", want: "lib/b.js"},
		{name: "adjacent parent dirs", raw: "../../b.js", from: "x/y/z/a.js", want: "x/b.js"},
		{name: "mixed segments", raw: "./c/../d/./e.js", from: "lib/a.js", want: "lib/d/e.js"},
		{name: "unresolvable leading parent kept", raw: "../../b.js", from: "lib/a.js", want: "../b.js"},
		{name: "absolute slash ignores from", raw: "/std/io.js", from: "lib/a.js", want: "/std/io.js"},
		{name: "absolute slash collapses", raw: "/std/x/../io.js", from: "", want: "/std/io.js"},
		{name: "parent cannot climb over root", raw: "/../io.js", from: "", want: "/../io.js"},
		{name: "url ignores from", raw: "https://cdn.example.com/m/a.js", from: "lib/a.js", want: "https://cdn.example.com/m/a.js"},
		{name: "url collapses path", raw: "https://cdn.example.com/m/x/../a.js", from: "", want: "https://cdn.example.com/m/a.js"},
		{name: "url host is never climbed", raw: "https://cdn.example.com/../a.js", from: "", want: "https://cdn.example.com/../a.js"},
		{name: "relative to url module", raw: "../b.js", from: "https://cdn.example.com/m/sub/a.js", want: "https://cdn.example.com/m/b.js"},
		{name: "file scheme", raw: "file:lib/x/../a.js", from: "", want: "file:lib/a.js"},
		{name: "trailing parent keeps dir form", raw: "a/b/..", from: "", want: "a/"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, modpath.Resolve(tc.raw, tc.from))
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := [][2]string{
		{"../../b.js", "x/y/z/a.js"},
		{"/std/x/../io.js", ""},
		{"https://cdn.example.com/m/./x/../a.js", ""},
		{"./c/../d.js", "lib/a.js"},
	}
	for _, in := range inputs {
		once := modpath.Resolve(in[0], in[1])
		assert.Equal(t, once, modpath.Resolve(once, ""), "input %q from %q", in[0], in[1])
	}
}

func TestIsAbsolute(t *testing.T) {
	t.Parallel()

	assert.True(t, modpath.IsAbsolute("/a.js"))
	assert.True(t, modpath.IsAbsolute("https://x/a.js"))
	assert.True(t, modpath.IsAbsolute("file:a.js"))
	assert.False(t, modpath.IsAbsolute("a.js"))
	assert.False(t, modpath.IsAbsolute("./a.js"))
	assert.False(t, modpath.IsAbsolute("c:/a.js"), "drive letters are not schemes")
	assert.False(t, modpath.IsAbsolute("1ab:c"))
}

func TestDir(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", modpath.Dir("a.js"))
	assert.Equal(t, "lib/", modpath.Dir("lib/a.js"))
	assert.Equal(t, "/", modpath.Dir("/a.js"))
	assert.Equal(t, "https://x/m/", modpath.Dir("https://x/m/a.js"))
}

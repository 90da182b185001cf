package toolchain

import (
	"runtime"
	"sort"
	"strings"
)

// Built-in entry ids.
const (
	Blender       = "blender"
	IDTFConverter = "idtfconverter"
	U3DGem        = "u3d-gem"
	MeshLab       = "meshlabserver"
	Ruby          = "ruby"
	Gem           = "gem"
	Stl2U3D       = "stl2u3d"
	Stl2IDTF      = "stl2idtf"
)

func builtinEntries() map[string]Entry {
	idtf := []string{
		"IDTFConverter",
		"~/bin/IDTFConverter",
		"/usr/local/bin/IDTFConverter",
		"/usr/bin/IDTFConverter",
		"./IDTFConverter",
		"./tools/IDTFConverter",
		"./tools/u3d/build/bin/IDTFConverter",
		"/opt/homebrew/bin/IDTFConverter",
	}
	if runtime.GOOS == "windows" {
		idtf = withExe(idtf)
	}
	return map[string]Entry{
		Blender: {
			ID: Blender,
			Candidates: []string{
				"/Applications/Blender.app/Contents/MacOS/blender",
				`C:\Program Files\Blender Foundation\Blender\blender.exe`,
				"/usr/bin/blender",
				"blender",
			},
			VersionArgs: []string{"--version"},
			Expect:      "Blender",
		},
		IDTFConverter: {
			ID:          IDTFConverter,
			Candidates:  idtf,
			VersionArgs: []string{"--version"},
		},
		U3DGem: {
			ID: U3DGem,
			Candidates: []string{
				"u3d",
				"/usr/local/lib/ruby/gems/*/bin/u3d",
				"~/.gem/ruby/*/bin/u3d",
				"~/.rbenv/shims/u3d",
			},
			VersionArgs: []string{"-version"},
		},
		MeshLab: {
			ID: MeshLab,
			Candidates: []string{
				"meshlabserver",
				"/usr/bin/meshlabserver",
				"/Applications/meshlab.app/Contents/MacOS/meshlabserver",
				`C:\Program Files\VCG\MeshLab\meshlabserver.exe`,
			},
			VersionArgs: []string{"-h"},
		},
		Ruby:     {ID: Ruby, Candidates: []string{"ruby"}, VersionArgs: []string{"--version"}, Expect: "ruby"},
		Gem:      {ID: Gem, Candidates: []string{"gem"}, VersionArgs: []string{"--version"}},
		Stl2U3D:  {ID: Stl2U3D, Candidates: []string{"stl2u3d"}, VersionArgs: []string{"--help"}},
		Stl2IDTF: {ID: Stl2IDTF, Candidates: []string{"stl2idtf"}, VersionArgs: []string{"--help"}},
	}
}

// BuiltinEntry returns a copy of the named entry.
func BuiltinEntry(id string) (Entry, bool) {
	p, ok := builtinEntries()[id]
	if !ok {
		return Entry{}, false
	}
	p.Candidates = append([]string{}, p.Candidates...)
	return p, true
}

// BuiltinIDs lists entry ids in sorted order.
func BuiltinIDs() []string {
	entries := builtinEntries()
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func withExe(paths []string) []string {
	out := append([]string{}, paths...)
	for _, p := range paths {
		if !strings.HasSuffix(strings.ToLower(p), ".exe") {
			out = append(out, p+".exe")
		}
	}
	return out
}

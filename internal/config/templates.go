package config

import (
	"fmt"
	"os"
)

// Template returns the commented meshu3d.toml template.
func Template() string {
	return meshu3dTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(meshu3dTemplate), 0o644)
}

const meshu3dTemplate = `# meshu3d configuration. Command flags override these values.
output_dir = "output"
keep_intermediate = false
locale = "en_US.UTF-8"
# work_root = "/tmp"
# metrics_textfile = "output/meshu3d.prom"

[tools]
# Pinned executables are tried before the built-in candidates.
# idtfconverter = "/usr/local/bin/IDTFConverter"
# blender = "/Applications/Blender.app/Contents/MacOS/blender"

[convert]
# idtf_order = ["gem.script", "gem.cli", "gem.bundled", "idtf.converter"]
# stl_order = ["gem.script", "gem.bundled", "idtf.converter", "path.stl2idtf", "gem.cli", "path.stl2u3d"]

[convert.commands]
# Extra strategies; {input}, {output} and {workdir} are substituted.
# Ids are <family>.<variant>; gem, idtf, path, meshlab, blender and native
# belong to the built-in strategies.
# docker.u3d = "docker run --rm -v {workdir}:/w u3d-tools stl2u3d {input} {output}"

[pdf]
width = 612.0
height = 792.0

[preview]
size = 256
supersample = 2

# Per-command overrides.
[mesh2pdf]
simplify = 5000
verify = true

[stl2u3d]
# Exit 1 without writing the placeholder U3D.
no_fallback = false
`

package convert

import (
	"sort"
)

// Default strategy orders per input kind.
var (
	IDTFOrder = []string{"gem.script", "gem.cli", "gem.bundled", "idtf.converter"}
	STLOrder  = []string{"gem.script", "gem.bundled", "idtf.converter", "path.stl2idtf", "gem.cli", "path.stl2u3d"}
)

// Builtin registers every built-in strategy. meshlab.export is registered
// without a filter script; pipelines needing filters build their own.
func Builtin(tb *Toolbox) *Registry {
	r := NewRegistry()
	for _, s := range []Strategy{
		NewIDTFConverter(tb),
		NewGemScript(tb),
		NewGemCLI(tb),
		NewGemBundled(tb),
		NewStl2U3D(tb),
		NewStl2IDTF(tb),
		NewMeshLabExport(tb, ""),
		NewBlenderSTL(tb),
		NativeSTL{},
	} {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// RegisterCommands adds configured command templates keyed by strategy id.
func (r *Registry) RegisterCommands(tb *Toolbox, commands map[string]string) error {
	ids := make([]string, 0, len(commands))
	for id := range commands {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := ValidateCommandID(id); err != nil {
			return err
		}
		cmd, err := NewCommand(tb, id, commands[id])
		if err != nil {
			return err
		}
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

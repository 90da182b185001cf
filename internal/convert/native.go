package convert

import (
	"fmt"

	"github.com/danmuck/meshu3d/internal/mesh"
)

// NativeSTL writes the parsed mesh as binary STL without any external tool.
type NativeSTL struct{}

func (NativeSTL) Metadata() StrategyMetadata {
	return StrategyMetadata{
		ID:          "native.stl",
		Name:        "Native STL writer",
		Description: "Write the parsed input mesh as binary STL",
	}
}

func (NativeSTL) Convert(job Job) error {
	m, err := job.loadMesh()
	if err != nil {
		return fmt.Errorf("native stl: %w", err)
	}
	return mesh.WriteSTL(job.Output, m)
}

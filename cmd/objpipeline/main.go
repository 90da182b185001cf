package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/pipeline"
	"github.com/danmuck/meshu3d/internal/toolchain"
)

func main() {
	cli.Main("objpipeline", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("objpipeline", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	output := fs.String("output", "", "output U3D file (default <output_dir>/u3d/<name>.u3d)")
	blender := fs.String("blender", "", "path to the Blender executable")
	stl := fs.String("stl", "", "intermediate STL file (default <output_dir>/stl/<name>.stl)")
	info := fs.Bool("info", false, "show u3d gem information")
	nativeSTL := fs.Bool("native-stl", false, "write the STL natively when Blender is unavailable")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: objpipeline [flags] [model.obj]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 || (fs.NArg() == 0 && !*info) {
		fs.Usage()
		return fmt.Errorf("%w: an OBJ file is required unless -info is set", cli.ErrUsage)
	}

	s, err := cli.Setup("objpipeline", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	if cli.Visited(fs)["native-stl"] {
		s.Command.NativeSTL = *nativeSTL
	}

	conv, err := s.NewConverter(nil, map[string]string{toolchain.Blender: *blender})
	if err != nil {
		return err
	}
	if *info {
		if err := conv.GemInfo(os.Stdout); err != nil {
			return err
		}
		if fs.NArg() == 0 {
			return nil
		}
	}

	input := fs.Arg(0)
	req := pipeline.BlenderRequest{
		Input:     input,
		Output:    *output,
		STL:       *stl,
		NativeSTL: s.Command.NativeSTL,
	}
	if req.Output == "" {
		req.Output = pipeline.DefaultPath(s.Config.OutputDir, "u3d", input, ".u3d")
	}
	if req.STL == "" {
		req.STL = pipeline.DefaultPath(s.Config.OutputDir, "stl", input, ".stl")
	}
	res, err := conv.ObjViaBlender(req)
	cli.Report("objpipeline", res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Conversion successful!\nSTL: %s\nU3D: %s\n", res.STL, res.U3D)
	return nil
}

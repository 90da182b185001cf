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
	cli.Main("mesh2u3d", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("mesh2u3d", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	clean := fs.Bool("clean", false, "remove duplicate/unreferenced vertices and degenerate faces before export")
	simplify := fs.Int("simplify", 0, "decimate to this many faces (0 disables)")
	meshlab := fs.String("meshlab", "", "path to the meshlabserver executable")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: mesh2u3d [flags] <model.obj|stl|ply> <model.u3d>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: expected mesh input and U3D output", cli.ErrUsage)
	}
	if *simplify < 0 {
		return fmt.Errorf("%w: -simplify must be >= 0", cli.ErrUsage)
	}

	s, err := cli.Setup("mesh2u3d", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	set := cli.Visited(fs)
	if set["clean"] {
		s.Command.Clean = *clean
	}
	if set["simplify"] {
		s.Command.Simplify = *simplify
	}

	conv, err := s.NewConverter(nil, map[string]string{toolchain.MeshLab: *meshlab})
	if err != nil {
		return err
	}
	res, err := conv.MeshToU3D(pipeline.MeshRequest{
		Input:    fs.Arg(0),
		Output:   fs.Arg(1),
		Clean:    s.Command.Clean,
		Simplify: s.Command.Simplify,
	})
	cli.Report("mesh2u3d", res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Conversion completed successfully: %s (%s)\n", res.U3D, res.Strategy)
	return nil
}

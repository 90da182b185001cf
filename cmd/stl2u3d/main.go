package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/pipeline"
)

func main() {
	cli.Main("stl2u3d", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("stl2u3d", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	placeholder := fs.Bool("placeholder", false, "write the placeholder U3D instead of attempting conversion")
	noFallback := fs.Bool("no-fallback", false, "do not write the placeholder when every converter fails")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: stl2u3d [flags] <model.stl> <model.u3d>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("%w: expected STL input and U3D output", cli.ErrUsage)
	}

	s, err := cli.Setup("stl2u3d", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	set := cli.Visited(fs)
	if set["placeholder"] {
		s.Command.Placeholder = *placeholder
	}
	if set["no-fallback"] {
		s.Command.NoFallback = *noFallback
	}

	conv, err := s.NewConverter(nil, nil)
	if err != nil {
		return err
	}
	res, err := conv.StlToU3D(pipeline.StlRequest{
		Input:       fs.Arg(0),
		Output:      fs.Arg(1),
		Placeholder: s.Command.Placeholder,
		Fallback:    !s.Command.NoFallback,
	})
	cli.Report("stl2u3d", res)
	if err != nil {
		if res.Placeholder {
			return fmt.Errorf("conversion failed, placeholder written to %s: %w", res.U3D, err)
		}
		return err
	}
	if res.Placeholder {
		fmt.Fprintf(os.Stdout, "Placeholder U3D file written to %s\n", res.U3D)
		return nil
	}
	fmt.Fprintf(os.Stdout, "Conversion successful! U3D file saved at: %s (%s)\n", res.U3D, res.Strategy)
	return nil
}

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
	cli.Main("obj2u3d", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("obj2u3d", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	converter := fs.String("idtf-converter", "", "path to the IDTFConverter executable")
	keepIDTF := fs.Bool("keep-idtf", false, "keep the temporary workspace after conversion")
	outDir := fs.String("output-dir", "", "directory receiving idtf/ and u3d/ (default output)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: obj2u3d [flags] <model.obj>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("%w: expected one OBJ file", cli.ErrUsage)
	}

	s, err := cli.Setup("obj2u3d", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	if *keepIDTF {
		s.Config.KeepIntermediate = true
	}
	if *outDir != "" {
		s.Config.OutputDir = *outDir
	}

	conv, err := s.NewConverter(nil, map[string]string{toolchain.IDTFConverter: *converter})
	if err != nil {
		return err
	}
	res, err := conv.ObjToU3D(pipeline.ObjRequest{Input: fs.Arg(0), OutputDir: s.Config.OutputDir})
	cli.Report("obj2u3d", res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Conversion successful! U3D file saved at: %s\n", res.U3D)
	return nil
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/pipeline"
)

func main() {
	cli.Main("u3d2pdf", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("u3d2pdf", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	dummy := fs.Bool("dummy", false, "embed a built-in dummy U3D instead of reading the input")
	yes := fs.Bool("yes", false, "embed a U3D that failed validation without asking")
	verify := fs.Bool("verify", false, "reopen the PDF and check the 3D annotation")
	title := fs.String("title", "", "page title (default input file name)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: u3d2pdf [flags] <model.u3d> [output.pdf]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 2 || (fs.NArg() == 0 && !*dummy) {
		fs.Usage()
		return fmt.Errorf("%w: expected a U3D file and an optional PDF path", cli.ErrUsage)
	}

	s, err := cli.Setup("u3d2pdf", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	set := cli.Visited(fs)
	if set["yes"] {
		s.Command.Yes = *yes
	}
	if set["verify"] {
		s.Command.Verify = *verify
	}
	if set["title"] {
		s.Command.Title = *title
	}
	if s.Command.Title == "" {
		s.Command.Title = s.Config.PDF.Title
	}

	conv, err := s.NewConverter(nil, nil)
	if err != nil {
		return err
	}
	req := pipeline.PDFRequest{
		Input:    fs.Arg(0),
		Output:   fs.Arg(1),
		Title:    s.Command.Title,
		PageSize: [2]float64{s.Config.PDF.Width, s.Config.PDF.Height},
		Dummy:    *dummy,
		Verify:   s.Command.Verify,
		Confirm: func([]string) bool {
			if s.Command.Yes {
				return true
			}
			return cli.Confirm(os.Stdin, os.Stderr, "Do you want to continue anyway?")
		},
	}
	res, err := conv.U3DToPDF(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Created 3D PDF: %s\n", res.PDF)
	return nil
}

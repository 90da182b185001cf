package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/pipeline"
	"github.com/danmuck/meshu3d/internal/preview"
)

func main() {
	cli.Main("mesh2pdf", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("mesh2pdf", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	simplify := fs.Int("simplify", 5000, "target number of faces (0 disables)")
	clean := fs.Bool("clean", false, "clean the mesh before export")
	withPreview := fs.Bool("preview", false, "render a poster image, embed it and write <pdf>.webp")
	verify := fs.Bool("verify", false, "reopen the PDF and check the 3D annotation")
	title := fs.String("title", "", "page title (default input file name)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: mesh2pdf [flags] <model.obj|stl|ply> [output.pdf]")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fs.Usage()
		return fmt.Errorf("%w: expected a mesh file and an optional PDF path", cli.ErrUsage)
	}
	if *simplify < 0 {
		return fmt.Errorf("%w: -simplify must be >= 0", cli.ErrUsage)
	}

	s, err := cli.Setup("mesh2pdf", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	set := cli.Visited(fs)
	s.Command.Simplify = simplifyTarget(s, set["simplify"], *simplify)
	if set["clean"] {
		s.Command.Clean = *clean
	}
	if set["preview"] {
		s.Command.Preview = *withPreview
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

	input := fs.Arg(0)
	pdfPath := fs.Arg(1)
	if pdfPath == "" {
		pdfPath = pipeline.DefaultPath(s.Config.OutputDir, "", input, "_3d.pdf")
	}
	opts := preview.DefaultOptions()
	opts.Size = s.Config.Preview.Size
	opts.Supersample = s.Config.Preview.Supersample

	conv, err := s.NewConverter(nil, nil)
	if err != nil {
		return err
	}
	res, err := conv.Workflow(pipeline.WorkflowRequest{
		Input:          input,
		PDF:            pdfPath,
		Title:          s.Command.Title,
		PageSize:       [2]float64{s.Config.PDF.Width, s.Config.PDF.Height},
		Clean:          s.Command.Clean,
		Simplify:       s.Command.Simplify,
		Preview:        s.Command.Preview,
		PreviewOptions: opts,
		Verify:         s.Command.Verify,
	})
	cli.Report("mesh2pdf", res)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Workflow completed successfully!\n3D PDF created: %s\n", res.PDF)
	return nil
}

// simplifyTarget picks the face budget: an explicit flag wins, then
// [mesh2pdf] simplify (0 disables), then the flag default.
func simplifyTarget(s cli.Settings, flagSet bool, flagValue int) int {
	if flagSet || !s.Defined("simplify") {
		return flagValue
	}
	return s.Command.Simplify
}

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/danmuck/meshu3d/internal/cli"
	"github.com/danmuck/meshu3d/internal/setup"
	"github.com/rs/zerolog/log"
)

func main() {
	cli.Main("u3dsetup", run)
}

func run(args []string) error {
	fs := flag.NewFlagSet("u3dsetup", flag.ContinueOnError)
	common := cli.RegisterCommon(fs)
	skipDeps := fs.Bool("skip-deps", false, "do not install system packages")
	skipIDTF := fs.Bool("skip-idtf", false, "do not clone and build IDTFConverter")
	repo := fs.String("repo", setup.DefaultRepo, "U3D SDK repository (https://github.com/...)")
	toolsDir := fs.String("tools-dir", filepath.Join("tools", "u3d"), "checkout directory for the U3D SDK")
	testDir := fs.String("test-dir", "test", "directory for the self-test cube")
	sudo := fs.Bool("sudo", os.Geteuid() != 0, "run package manager and locale-gen through sudo")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s, err := cli.Setup("u3dsetup", fs, common)
	if err != nil {
		return err
	}
	defer s.Finish()
	inst := setup.NewInstaller(setup.InstallerConfig{Sudo: *sudo})

	log.Info().Msg("u3dsetup step 1: system dependencies")
	if *skipDeps {
		log.Info().Msg("u3dsetup system dependencies skipped")
	} else if err := inst.InstallSystemDeps(); err != nil {
		log.Warn().Err(err).Msg("u3dsetup system dependencies failed; continuing")
	}
	if err := inst.SetupLocale(s.Config.Locale); err != nil {
		log.Warn().Err(err).Msg("u3dsetup locale setup failed; continuing")
	}

	log.Info().Msg("u3dsetup step 2: IDTFConverter")
	if *skipIDTF {
		log.Info().Msg("u3dsetup IDTFConverter build skipped")
	} else if bin, err := inst.BuildIDTFConverter(*repo, *toolsDir); err != nil {
		log.Warn().Err(err).Msg("u3dsetup IDTFConverter build failed; continuing")
	} else if err := setup.AppendPath(bin); err != nil {
		log.Warn().Err(err).Str("bin", bin).Msg("u3dsetup PATH update failed")
	}

	log.Info().Msg("u3dsetup step 3: self-test")
	conv, err := s.NewConverter(nil, nil)
	if err != nil {
		return err
	}
	res, err := setup.SelfTest(conv, *testDir)
	cli.Report("u3dsetup", res)
	if err != nil {
		fmt.Fprintln(os.Stdout, "Some issues occurred during setup. stl2u3d -placeholder can still produce a stand-in file.")
		return err
	}
	fmt.Fprintf(os.Stdout, "U3D export set up successfully (%s): %s\n", res.Strategy, res.U3D)
	return nil
}

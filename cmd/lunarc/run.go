package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/lunarc/pkg/dfruntime"
	"github.com/lemonberrylabs/lunarc/pkg/natives"
	"github.com/lemonberrylabs/lunarc/pkg/parser"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run a lunarc program",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().String("main", "main", "Entry subroutine name")
	runCmd.Flags().Int("workers", 8, "Worker pool size")
	runCmd.Flags().Bool("native", false, "Emit, compile, link, and execute the program as native C instead of running it on the Go-native interpreter (the default)")
	runCmd.Flags().String("out", "", "Output directory for the native build (default: a temp directory)")
	runCmd.Flags().String("cc", "cc", "C compiler to invoke for --native")
	runCmd.Flags().StringSlice("natives", nil, "Native libraries to link against for --native")
}

func runRun(cmd *cobra.Command, args []string) error {
	mainSub, _ := cmd.Flags().GetString("main")
	workers, _ := cmd.Flags().GetInt("workers")
	native, _ := cmd.Flags().GetBool("native")

	if native {
		return runNative(cmd, args[0], mainSub, workers)
	}
	return runInterp(args[0], mainSub, workers)
}

// runInterp parses+translates args[0] and drives it on the Go-native
// dfruntime interpreter, spec.md §4.3's "Go-native execution mode" and the
// path exercised by this repo's own tests without an external C toolchain.
func runInterp(path, mainSub string, workers int) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := parser.Parse(string(src))
	if err != nil {
		return err
	}

	prog, err := translator.New().Translate(file)
	if err != nil {
		return err
	}

	reg := natives.NewRegistry()
	rt := dfruntime.NewRuntime(workers, reg.Natives())

	return rt.Run(context.Background(), prog, mainSub)
}

// runNative performs the full emit->cc->cc->dlopen->spawn pipeline spec.md
// §4.4 describes, via build.go's compileSource/nativeBuild and native.go's
// cgo dlopen loader.
func runNative(cmd *cobra.Command, path, mainSub string, workers int) error {
	out, _ := cmd.Flags().GetString("out")
	ccBin, _ := cmd.Flags().GetString("cc")
	natives, _ := cmd.Flags().GetStringSlice("natives")

	if out == "" {
		dir, err := os.MkdirTemp("", "lunarc-build-")
		if err != nil {
			return fmt.Errorf("creating build directory: %w", err)
		}
		defer os.RemoveAll(dir)
		out = dir
	}

	mainC, runtimeC, err := compileSource(path, mainSub)
	if err != nil {
		return err
	}
	if err := writeBuildFiles(out, mainC, runtimeC); err != nil {
		return err
	}
	if err := nativeBuild(ccBin, out, natives); err != nil {
		return err
	}

	return runNativeLibrary(out, workers)
}

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/lunarc/pkg/diag"
	"github.com/lemonberrylabs/lunarc/pkg/emit"
	"github.com/lemonberrylabs/lunarc/pkg/parser"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

var buildCmd = &cobra.Command{
	Use:   "build <file>",
	Short: "Compile a lunarc source file to C",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().String("out", "build", "Output directory for main.c/runtime.h/runtime.c")
	buildCmd.Flags().String("main", "main", "Entry subroutine name")
	buildCmd.Flags().Bool("native", false, "Additionally compile and link libmain.so via the host C compiler")
	buildCmd.Flags().String("cc", "cc", "C compiler to invoke for --native (env CC)")
	buildCmd.Flags().StringSlice("natives", nil, "Native libraries to link against for --native, e.g. mynatives (passed as -lmynatives)")
}

// compileSource runs the lex->parse->translate->emit pipeline over the file
// at path, the same four-stage sequence spec.md §4.4 describes, and returns
// the emitted C translation unit alongside the runtime source text.
func compileSource(path, mainSub string) (mainC, runtimeC string, err error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := parser.Parse(string(src))
	if err != nil {
		return "", "", err
	}

	prog, err := translator.New().Translate(file)
	if err != nil {
		return "", "", err
	}

	mainC, err = emit.Emit(prog, mainSub)
	if err != nil {
		return "", "", err
	}

	return mainC, emit.RuntimeSource(), nil
}

// writeBuildFiles writes the emitted translation unit and the runtime
// header/source pair to dir, creating it if necessary.
func writeBuildFiles(dir, mainC, runtimeC string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "main.c"), []byte(mainC), 0o644); err != nil {
		return diag.New(diag.KindEmit, err.Error())
	}
	if err := os.WriteFile(filepath.Join(dir, "runtime.h"), []byte(emit.RuntimeHeader()), 0o644); err != nil {
		return diag.New(diag.KindEmit, err.Error())
	}
	if err := os.WriteFile(filepath.Join(dir, "runtime.c"), []byte(runtimeC), 0o644); err != nil {
		return diag.New(diag.KindEmit, err.Error())
	}
	return nil
}

func runBuild(cmd *cobra.Command, args []string) error {
	out, _ := cmd.Flags().GetString("out")
	mainSub, _ := cmd.Flags().GetString("main")
	native, _ := cmd.Flags().GetBool("native")

	mainC, runtimeC, err := compileSource(args[0], mainSub)
	if err != nil {
		return err
	}

	if err := writeBuildFiles(out, mainC, runtimeC); err != nil {
		return err
	}

	if !native {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(out, "main.c"))
		return nil
	}

	ccBin, _ := cmd.Flags().GetString("cc")
	if v := os.Getenv("CC"); v != "" && !cmd.Flags().Changed("cc") {
		ccBin = v
	}
	natives, _ := cmd.Flags().GetStringSlice("natives")
	if err := nativeBuild(ccBin, out, natives); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", filepath.Join(out, "libmain.so"))
	return nil
}

// nativeBuild shells out to the C compiler twice, spec.md §4.4's "compile
// object, link shared library" step: main.c and runtime.c are each compiled
// to an object file, then linked together into libmain.so against
// pthread and any user-supplied native libraries, grounded on
// original_source/src/compiler/mod.rs's `cc -c` then `cc -shared -L. -l<lib>`
// sequence.
func nativeBuild(ccBin, dir string, natives []string) error {
	objs := []string{"main.c", "runtime.c"}
	for _, src := range objs {
		cmd := exec.Command(ccBin, "-O2", "-c", src)
		cmd.Dir = dir
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return diag.New(diag.KindNativeCompile, fmt.Errorf("compiling %s: %w", src, err).Error())
		}
	}

	link := exec.Command(ccBin, "-shared", "-o", "libmain.so", "main.o", "runtime.o", "-L.", "-lpthread")
	link.Args = append(link.Args, nativeLinkFlags(natives)...)
	link.Dir = dir
	link.Stderr = os.Stderr
	if err := link.Run(); err != nil {
		return diag.New(diag.KindLink, fmt.Errorf("linking libmain.so: %w", err).Error())
	}
	return nil
}

func nativeLinkFlags(natives []string) []string {
	flags := make([]string, 0, len(natives))
	for _, lib := range natives {
		flags = append(flags, "-l"+lib)
	}
	return flags
}

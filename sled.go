// Sled is a stream editor: it compiles a small line-editing script
// and runs it over the input, one line at a time.
//
// Usage examples:
//
//	sled -a 's/dog/cat/' pets.txt
//	sled '/error/ p' <server.log
//	sled -f script.sled input.txt
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sledlang/sled/interp"
	"github.com/sledlang/sled/parser"
)

var (
	flagAll    bool
	flagCount  bool
	flagDump   bool
	flagScript string
)

func main() {
	cmd := &cobra.Command{
		Use:           "sled [flags] script [file ...]",
		Short:         "sled is a line stream editor",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args)
		},
	}
	cmd.Flags().BoolVarP(&flagAll, "all", "a", false, "print every line after editing")
	cmd.Flags().BoolVarP(&flagCount, "count", "c", false, "print the number of matched lines")
	cmd.Flags().BoolVarP(&flagDump, "dump", "d", false, "print the compiled program and exit")
	cmd.Flags().StringVarP(&flagScript, "file", "f", "", "read the script from a file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "sled: %s\n", err)
		os.Exit(2)
	}
}

func run(args []string) error {
	var program *parser.Program
	var files []string
	var err error

	if flagScript != "" {
		program, err = parser.ParseFile(flagScript)
		files = args
	} else {
		if len(args) == 0 {
			return fmt.Errorf("missing script (or use -f)")
		}
		program, err = parser.ParseProgram(args[0])
		files = args[1:]
	}
	if err != nil {
		return err
	}

	if flagDump {
		fmt.Println(program)
		return nil
	}

	var src interp.LineSource
	if len(files) == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "sled: reading from terminal (press ctrl-D to end input)")
		}
		src = interp.NewReaderSource(os.Stdin)
	} else {
		src = interp.NewFilesSource(files)
	}

	result, err := interp.ExecProgram(program, src, &interp.Config{
		Output:   os.Stdout,
		Error:    os.Stderr,
		PrintAll: flagAll,
	})
	if err != nil {
		return err
	}

	if flagCount {
		fmt.Println(result.Matches)
	}
	if result.Status == interp.Quit {
		os.Exit(result.ExitCode)
	}
	return nil
}

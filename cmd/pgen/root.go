package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()

var rootFlags = struct {
	debug          *bool
	tokenizerDebug *bool
	grammarDebug   *bool
	memDebug       *bool
	unsafe         *bool
	lineDirectives *bool
	output         *string
}{}

var rootCmd = &cobra.Command{
	Use:   "pgen <tokenizer-file> [<grammar-file>]",
	Short: "Generate a tokenizer and recursive-descent parser from PEG grammars",
	Long: `pgen reads a tokenizer grammar (.tok) and an optional PEG grammar (.peg)
and emits one self-contained source file: a maximal-munch tokenizer, an
arena allocator with rewind-on-backtrack, and one parse function per rule.`,
	Example: `  pgen calc.tok calc.peg -o calc.go`,
	Args:    cobra.RangeArgs(1, 2),
	RunE:    runGenerate,

	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootFlags.debug = rootCmd.Flags().BoolP("debug", "d", false, "enable generator assertions and runtime sanity checks")
	rootFlags.tokenizerDebug = rootCmd.Flags().BoolP("tokenizer-debug", "t", false, "emit an interactive tokenizer trace frontend")
	rootFlags.grammarDebug = rootCmd.Flags().BoolP("grammar-debug", "g", false, "emit an interactive parser trace frontend")
	rootFlags.memDebug = rootCmd.Flags().BoolP("memdebug", "m", false, "emit allocator trace hooks")
	rootFlags.unsafe = rootCmd.Flags().BoolP("unsafe", "u", false, "skip generated safety checks")
	rootFlags.lineDirectives = rootCmd.Flags().BoolP("line-directives", "l", false, "map action fragments back to the grammar file")
	rootFlags.output = rootCmd.Flags().StringP("output", "o", "", "output file path (default: lowercased tokenizer-file basename with .go extension)")
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}

package main

import (
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/pgen-dev/pgen/grammar/lexical"
	"github.com/pgen-dev/pgen/spec"
)

func init() {
	cmd := &cobra.Command{
		Use:   "tokenize <tokenizer-file>",
		Short: "Tokenize input lines interactively according to the grammar",
		Long: `tokenize runs the tokenizer IR over every input line and prints the
resulting token stream. This is a grammar debugging aid; the generated
recognizer carries its own translated tokenizer.`,
		Example: `  pgen tokenize calc.tok`,
		Args:    cobra.ExactArgs(1),
		RunE:    runTokenize,
	}
	rootCmd.AddCommand(cmd)
}

func runTokenize(cmd *cobra.Command, args []string) error {
	loaded, err := loadGrammars(args[0], "")
	if err != nil {
		return err
	}

	rl, err := readline.New("pgen> ")
	if err != nil {
		return err
	}
	defer rl.Close()

	pterm.Info.Println("Enter text to tokenize. Ctrl-D quits.")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cps, err := spec.Decode([]byte(line))
		if err != nil {
			pterm.Error.Println(err)
			continue
		}

		scanner := lexical.NewScanner(loaded.trie, loaded.smauts, cps)
		toks := scanner.Tokenize()

		rows := pterm.TableData{{"kind", "content", "line", "col"}}
		for _, tok := range toks {
			rows = append(rows, []string{
				tok.Kind,
				string(tok.Content),
				pterm.Sprintf("%v", tok.Line),
				pterm.Sprintf("%v", tok.Col),
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}
		if !scanner.Exhausted() {
			pterm.Error.Println("unrecognized input: the zero-length STREAMEND above was " +
				"emitted before the end of the line")
		}
	}
}

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pgen-dev/pgen/codegen"
	verr "github.com/pgen-dev/pgen/error"
	"github.com/pgen-dev/pgen/grammar"
	"github.com/pgen-dev/pgen/grammar/lexical"
	"github.com/pgen-dev/pgen/grammar/peg"
	"github.com/pgen-dev/pgen/spec"
)

func runGenerate(cmd *cobra.Command, args []string) (retErr error) {
	if *rootFlags.debug {
		log = log.Level(zerolog.DebugLevel)
	}

	tokPath := args[0]
	var pegPath string
	if len(args) > 1 {
		pegPath = args[1]
	}
	warnExtension(tokPath, ".tok", "tokenizer")
	if pegPath != "" {
		warnExtension(pegPath, ".peg", "grammar")
	}

	loaded, err := loadGrammars(tokPath, pegPath)
	if err != nil {
		return err
	}

	var ir *peg.IR
	if loaded.pegAST != nil {
		ir = peg.Normalize(loaded.grammar)
		log.Debug().Int("rules", len(ir.Rules)).Msg("normalized PEG IR")
	}

	outPath := *rootFlags.output
	if outPath == "" {
		outPath = codegen.DefaultOutputPath(tokPath)
	}
	grammarPath := pegPath
	if grammarPath == "" {
		grammarPath = tokPath
	}

	src, warnings, err := codegen.Generate(loaded.grammar, loaded.trie, loaded.smauts, ir, codegen.Options{
		PackageName:    codegen.PrefixOf(tokPath),
		GrammarPath:    grammarPath,
		OutputPath:     outPath,
		Debug:          *rootFlags.debug,
		TokenizerDebug: *rootFlags.tokenizerDebug,
		GrammarDebug:   *rootFlags.grammarDebug,
		MemDebug:       *rootFlags.memDebug,
		Unsafe:         *rootFlags.unsafe,
		LineDirectives: *rootFlags.lineDirectives,
	})
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn().Msg(w)
	}
	log.Debug().Int("bytes", len(src)).Str("output", outPath).Msg("generated recognizer")

	err = codegen.WriteFileAtomic(outPath, src)
	if err != nil {
		return fmt.Errorf("cannot write the output file: %w", err)
	}
	return nil
}

func warnExtension(path, ext, kind string) {
	if !strings.HasSuffix(path, ext) {
		log.Warn().Msgf("%s file does not end in %s; proceeding anyway", kind, ext)
	}
}

type loadedGrammars struct {
	grammar *grammar.Grammar
	tokAST  *spec.Node
	pegAST  *spec.Node
	trie    *lexical.TrieAutomaton
	smauts  []*lexical.SMAutomaton
}

// loadGrammars reads and decodes both grammar files, parses them, builds
// the symbol tables, and folds the tokenizer IR.
func loadGrammars(tokPath, pegPath string) (*loadedGrammars, error) {
	tokAST, err := parseFile(tokPath, spec.ParseTokenGrammar)
	if err != nil {
		return nil, err
	}
	log.Debug().Int("token_defs", len(tokAST.Children)).Msg("parsed tokenizer grammar")

	var pegAST *spec.Node
	if pegPath != "" {
		pegAST, err = parseFile(pegPath, spec.ParsePEGGrammar)
		if err != nil {
			return nil, err
		}
		log.Debug().Int("top_level", len(pegAST.Children)).Msg("parsed parser grammar")
	}

	b := grammar.GrammarBuilder{
		TokAST: tokAST,
		PegAST: pegAST,
	}
	g, err := b.Build()
	if err != nil {
		attachPath(err, pegPath)
		return nil, err
	}

	trie, err := lexical.BuildTrie(g.TokenDefs)
	if err != nil {
		attachPath(err, tokPath)
		return nil, err
	}
	smauts := lexical.BuildStateMachines(g.TokenDefs)
	log.Debug().
		Int("trie_states", trie.NumStates).
		Int("state_machines", len(smauts)).
		Msg("built tokenizer IR")

	return &loadedGrammars{
		grammar: g,
		tokAST:  tokAST,
		pegAST:  pegAST,
		trie:    trie,
		smauts:  smauts,
	}, nil
}

func parseFile(path string, parse func([]rune) (*spec.Node, error)) (*spec.Node, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read the grammar file %s: %w", path, err)
	}
	cps, err := spec.Decode(src)
	if err != nil {
		attachPath(err, path)
		return nil, err
	}
	ast, err := parse(cps)
	if err != nil {
		attachPath(err, path)
		return nil, err
	}
	return ast, nil
}

// attachPath stamps the originating file path onto grammar diagnostics.
func attachPath(err error, path string) {
	switch e := err.(type) {
	case *verr.SpecError:
		e.FilePath = path
	case verr.SpecErrors:
		for _, se := range e {
			se.FilePath = path
		}
	}
}

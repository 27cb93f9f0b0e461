// Package codegen emits the recognizer: a single self-contained Go source
// file holding the UTF-8 decoder, the arena allocator, the tokenizer
// translated from the tokenizer IR, and one recursive-descent parse
// function per grammar rule. Emission is deterministic; generating twice
// from the same inputs yields byte-identical output.
package codegen

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/format"
	"go/parser"
	goToken "go/token"
	"os"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/pgen-dev/pgen/grammar"
	"github.com/pgen-dev/pgen/grammar/lexical"
	"github.com/pgen-dev/pgen/grammar/peg"
)

// Options selects the optional machinery the emitter weaves into the
// generated file.
type Options struct {
	// PackageName is the package clause of the generated file, derived
	// from the tokenizer file's basename.
	PackageName string

	// GrammarPath and OutputPath feed the //line directives emitted with
	// LineDirectives.
	GrammarPath string
	OutputPath  string

	// Debug adds generated sanity checks (nil or sentinel children in
	// fixed constructors, rules returning the sentinel).
	Debug bool

	// TokenizerDebug emits the interactive tokenizer trace frontend.
	TokenizerDebug bool

	// GrammarDebug emits rule entry/accept/reject trace hooks.
	GrammarDebug bool

	// MemDebug emits allocator trace hooks.
	MemDebug bool

	// Unsafe skips generated safety checks and explanatory comments.
	Unsafe bool

	// LineDirectives maps action fragments back to the grammar file. It
	// implies skipping gofmt, which would move the mapped lines.
	LineDirectives bool
}

type generator struct {
	grammar  *grammar.Grammar
	trie     *lexical.TrieAutomaton
	smauts   []*lexical.SMAutomaton
	ir       *peg.IR
	opts     Options
	warnings []string
}

func (g *generator) warn(format string, args ...interface{}) {
	g.warnings = append(g.warnings, fmt.Sprintf(format, args...))
}

// Generate emits the recognizer source. A nil ir generates a
// tokenizer-only file. The returned warnings are non-fatal diagnostics
// (unknown directives, formatting fallbacks).
func Generate(g *grammar.Grammar, trie *lexical.TrieAutomaton, smauts []*lexical.SMAutomaton, ir *peg.IR, opts Options) (src []byte, warnings []string, retErr error) {
	if !trie.HasRules() && len(smauts) == 0 {
		return nil, nil, fmt.Errorf("no tokenizer rules defined")
	}

	gen := &generator{
		grammar: g,
		trie:    trie,
		smauts:  smauts,
		ir:      ir,
		opts:    opts,
	}

	defer func() {
		if v := recover(); v != nil {
			err, ok := v.(error)
			if !ok {
				panic(v)
			}
			src = nil
			retErr = err
		}
	}()

	e := newEmitter(opts.Unsafe)
	e.w("// Code generated by pgen. DO NOT EDIT.\n\n")
	e.w("package %s\n\n", opts.PackageName)

	gen.writeImports(e)

	gen.writeStatic(e, decoderTmpl, nil)

	if ir != nil {
		gen.writeStatic(e, allocatorTmpl, map[string]interface{}{
			"MemDebug": opts.MemDebug,
		})
		gen.writePreDirectives(e)
	}

	gen.writeTokenizer(e)

	if ir != nil {
		gen.writeParser(e)
		gen.writePostDirectives(e)
	}

	out := []byte(e.String())
	if !opts.LineDirectives {
		formatted, err := formatSource(out, opts.PackageName)
		if err != nil {
			gen.warn("emitted source was left unformatted: %v", err)
		} else {
			out = formatted
		}
	}
	return out, gen.warnings, nil
}

func (g *generator) writeStatic(e *emitter, tmpl string, data interface{}) {
	t := template.Must(template.New("").Parse(tmpl))
	var b bytes.Buffer
	if err := t.Execute(&b, data); err != nil {
		panic(fmt.Errorf("static template: %w", err))
	}
	e.w("%s\n", b.String())
}

// writeImports computes the exact stdlib import set of the configured
// runtime plus the user's %preinclude/%include/%postinclude paths.
func (g *generator) writeImports(e *emitter) {
	var paths []string
	add := func(p string) {
		for _, q := range paths {
			if q == p {
				return
			}
		}
		paths = append(paths, p)
	}

	add("unicode/utf8")
	if g.ir != nil {
		add("fmt")
		add("io")
		add("os")
		if g.opts.GrammarDebug {
			add("bufio")
		}
	}
	if g.opts.TokenizerDebug {
		add("fmt")
		add("io")
	}
	if g.ir != nil {
		for _, name := range []string{"preinclude", "include", "postinclude"} {
			for _, p := range g.directivesNamed(name) {
				add(p)
			}
		}
	}

	e.w("import (\n")
	for _, p := range paths {
		if _, err := strconv.Unquote(p); err == nil {
			// Already a quoted import spec, possibly with a local name.
			e.w("\t%s\n", p)
			continue
		}
		e.w("\t%q\n", p)
	}
	e.w(")\n\n")
}

func (g *generator) writePreDirectives(e *emitter) {
	defines := g.directivesNamed("predefine")
	codes := g.directivesNamed("precode")
	if len(defines)+len(codes) == 0 {
		return
	}
	if !e.unsafe {
		e.w("// Pre directives\n\n")
	}
	for _, p := range defines {
		e.w("%s\n", p)
	}
	for _, p := range codes {
		e.w("%s\n", p)
	}
	e.w("\n")
}

// formatSource runs the assembled file through the Go parser and printer.
// User fragments are spliced verbatim, so a fragment that is not valid Go
// makes this fail; the caller falls back to the raw text.
func formatSource(src []byte, pkgName string) ([]byte, error) {
	fset := goToken.NewFileSet()
	f, err := parser.ParseFile(fset, "", src, parser.ParseComments)
	if err != nil {
		return nil, err
	}
	f.Name = ast.NewIdent(pkgName)

	var b bytes.Buffer
	err = format.Node(&b, fset, f)
	if err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// WriteFileAtomic writes the generated source through a temporary file
// that is renamed onto the output path only on full success, so partial
// output is never produced.
func WriteFileAtomic(path string, src []byte) (retErr error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// DefaultOutputPath derives the output file name from the tokenizer
// file: its lowercased basename prefix with the .go extension.
func DefaultOutputPath(tokPath string) string {
	return PrefixOf(tokPath) + ".go"
}

// PrefixOf derives the grammar prefix from a grammar file path: the
// basename lowercased up to the first character outside [_a-z0-9].
func PrefixOf(path string) string {
	base := filepath.Base(path)
	prefix := make([]byte, 0, len(base))
	for i := 0; i < len(base); i++ {
		c := base[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		valid := c == '_' || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
		if !valid {
			break
		}
		prefix = append(prefix, c)
	}
	if len(prefix) == 0 {
		return "parser"
	}
	return string(prefix)
}

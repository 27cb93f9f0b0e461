package codegen

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/pgen-dev/pgen/grammar/peg"
	"github.com/pgen-dev/pgen/spec"
)

func nodeConstName(kind string) string {
	return "Node" + kind
}

// directivesNamed returns the payloads of every directive with the given
// name, in source order.
func (g *generator) directivesNamed(name string) []string {
	var payloads []string
	for _, dir := range g.grammar.Directives {
		if dir.Children[0].Text == name {
			payloads = append(payloads, dir.Text)
		}
	}
	return payloads
}

// spliceDirectiveFields writes the payloads of a struct-field directive
// as field lines.
func (g *generator) spliceDirectiveFields(e *emitter, name string) {
	payloads := g.directivesNamed(name)
	if len(payloads) == 0 {
		return
	}
	if !e.unsafe {
		e.w("\n\t// Extra fields from %%%s directives:\n", name)
	}
	for _, p := range payloads {
		e.w("\t%s\n", p)
	}
}

// spliceDirectiveLines writes the payloads of a statement directive at
// the given indentation.
func (g *generator) spliceDirectiveLines(e *emitter, name string, indent string) {
	for _, p := range g.directivesNamed(name) {
		e.w("%s%s\n", indent, p)
	}
}

func directiveBlock(payloads []string, indent string) string {
	var b strings.Builder
	for _, p := range payloads {
		fmt.Fprintf(&b, "%s%s\n", indent, p)
	}
	return b.String()
}

// writeParser emits the full parser section: error machinery, context,
// node data model, constructors, helper methods, mid-directives, and one
// parse function per rule.
func (g *generator) writeParser(e *emitter) {
	g.writeOOMHook(e)
	g.writeParserRuntime(e)
	g.writeMidDirectives(e)
	if g.opts.GrammarDebug {
		g.writeIntrSection(e)
	}
	for _, rule := range g.ir.Rules {
		g.writeRuleFunc(e, rule)
	}
}

func (g *generator) writeOOMHook(e *emitter) {
	t := template.Must(template.New("oom").Funcs(template.FuncMap{
		"genOOM": func() string {
			ooms := g.directivesNamed("oom")
			if len(ooms) == 0 {
				return "defaultOutOfMemory"
			}
			if g.opts.Unsafe {
				g.warn("%%oom directive unused with unsafe codegen")
			}
			return fmt.Sprintf("func() {\n\t%s\n}", ooms[len(ooms)-1])
		},
	}).Parse(oomTmpl))
	var b strings.Builder
	if err := t.Execute(&b, nil); err != nil {
		panic(fmt.Errorf("oom template: %w", err))
	}
	e.w("%s\n", b.String())
}

func (g *generator) writeParserRuntime(e *emitter) {
	funcs := template.FuncMap{
		// Directive fields get their own blank-line-separated group so the
		// formatter keeps them verbatim instead of realigning them with the
		// built-in fields.
		"genErrExtra": func() string {
			payloads := g.directivesNamed("errextra")
			if len(payloads) == 0 {
				return ""
			}
			return "\n" + directiveBlock(payloads, "\t")
		},
		"genContext": func() string {
			payloads := g.directivesNamed("context")
			if len(payloads) == 0 {
				return ""
			}
			return "\n" + directiveBlock(payloads, "\t") + "\n"
		},
		"genContextInit": func() string {
			return directiveBlock(g.directivesNamed("contextinit"), "\t")
		},
		"genErrExtraInit": func() string {
			return directiveBlock(g.directivesNamed("errextrainit"), "\t")
		},
		"genNodeKindConsts": func() string {
			var b strings.Builder
			for i, kind := range g.nodeKinds() {
				if i == 0 {
					fmt.Fprintf(&b, "\t%s NodeKind = iota\n", nodeConstName(kind))
					continue
				}
				fmt.Fprintf(&b, "\t%s\n", nodeConstName(kind))
			}
			return b.String()
		},
		"genNodeKindNames": func() string {
			var b strings.Builder
			for _, kind := range g.nodeKinds() {
				fmt.Fprintf(&b, "\t%q,\n", kind)
			}
			return b.String()
		},
		"genExtra": func() string {
			payloads := g.directivesNamed("extra")
			if len(payloads) == 0 {
				return ""
			}
			var b strings.Builder
			fmt.Fprintf(&b, "\n\t// Extra data from %%extra directives:\n")
			b.WriteString(directiveBlock(payloads, "\t"))
			return b.String()
		},
		"genExtraInit": func() string {
			return directiveBlock(g.directivesNamed("extrainit"), "\t")
		},
		"genFixedCtors": func() string {
			return g.genFixedCtors()
		},
	}

	t := template.Must(template.New("parser").Funcs(funcs).Parse(parserRuntimeTmpl))
	var b strings.Builder
	err := t.Execute(&b, map[string]interface{}{
		"MaxErrors": g.maxParseErrors(),
		"Unsafe":    g.opts.Unsafe,
	})
	if err != nil {
		panic(fmt.Errorf("parser template: %w", err))
	}
	e.w("%s\n", b.String())
}

// nodeKinds returns every AST node kind name: token kinds first, then the
// declared and rule-derived node kinds.
func (g *generator) nodeKinds() []string {
	kinds := make([]string, 0, len(g.grammar.TokenKinds)+len(g.grammar.NodeKinds))
	kinds = append(kinds, g.grammar.TokenKinds...)
	kinds = append(kinds, g.grammar.NodeKinds...)
	return kinds
}

func (g *generator) maxParseErrors() int {
	payloads := g.directivesNamed("errcount")
	if len(payloads) == 0 {
		return 20
	}
	n := 0
	for _, c := range payloads[len(payloads)-1] {
		if c < '0' || c > '9' {
			g.warn("ignoring non-numeric %%errcount directive")
			return 20
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 20
	}
	return n
}

// genFixedCtors renders the fixed-arity constructors. Each allocates the
// node, stores the children in the inline array following the node data,
// and assigns every child's parent pointer.
func (g *generator) genFixedCtors() string {
	var b strings.Builder
	for k := 1; k <= 5; k++ {
		fmt.Fprintf(&b, "func (ctx *Parser) node%d(kind NodeKind", k)
		for j := 0; j < k; j++ {
			fmt.Fprintf(&b, ", n%d *AstNode", j)
		}
		fmt.Fprintf(&b, ") *AstNode {\n")
		if g.opts.Debug {
			cond := make([]string, 0, 2*k)
			for j := 0; j < k; j++ {
				cond = append(cond, fmt.Sprintf("n%d == nil", j))
			}
			for j := 0; j < k; j++ {
				cond = append(cond, fmt.Sprintf("n%d == SUCC", j))
			}
			fmt.Fprintf(&b, "\tif %s {\n", strings.Join(cond, " || "))
			fmt.Fprintf(&b, "\t\tpanic(fmt.Sprintf(\"invalid arguments: node(%%v)\", kind))\n")
			fmt.Fprintf(&b, "\t}\n")
		}
		fmt.Fprintf(&b, "\tn := ctx.alloc.allocNode()\n")
		fmt.Fprintf(&b, "\tn.Kind = kind\n")
		fmt.Fprintf(&b, "\tn.Children = n.fixed[:%d]\n", k)
		for j := 0; j < k; j++ {
			fmt.Fprintf(&b, "\tn.Children[%d] = n%d\n", j, j)
			fmt.Fprintf(&b, "\tn%d.Parent = n\n", j)
		}
		b.WriteString(directiveBlock(g.directivesNamed("extrainit"), "\t"))
		fmt.Fprintf(&b, "\treturn n\n}\n\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (g *generator) writeMidDirectives(e *emitter) {
	defines := g.directivesNamed("define")
	codes := g.directivesNamed("code")
	if len(defines)+len(codes) == 0 {
		return
	}
	if !e.unsafe {
		e.w("// Mid directives\n\n")
	}
	for _, p := range defines {
		e.w("%s\n", p)
	}
	for _, p := range codes {
		e.w("%s\n", p)
	}
	e.w("\n")
}

func (g *generator) writePostDirectives(e *emitter) {
	defines := g.directivesNamed("postdefine")
	codes := g.directivesNamed("postcode")
	if len(defines)+len(codes) > 0 {
		if !e.unsafe {
			e.w("// Post directives\n\n")
		}
		for _, p := range defines {
			e.w("%s\n", p)
		}
		for _, p := range codes {
			e.w("%s\n", p)
		}
		e.w("\n")
	}

	// Unknown directives warn and are skipped.
	for _, dir := range g.grammar.Directives {
		if !directiveIsKnown(dir.Children[0].Text) {
			g.warn("unknown directive: %%%s", dir.Children[0].Text)
		}
	}
}

var knownDirectives = []string{
	"oom", "node", "token", "include",
	"preinclude", "postinclude", "code", "precode",
	"postcode", "define", "predefine", "postdefine",
	"extra", "extrainit", "tokenextra", "tokenextrainit",
	"context", "contextinit", "errextra", "errextrainit",
	"errcount",
}

func directiveIsKnown(name string) bool {
	for _, d := range knownDirectives {
		if d == name {
			return true
		}
	}
	return false
}

func (g *generator) writeIntrSection(e *emitter) {
	maxLen := 1
	for _, rule := range g.ir.Rules {
		if len(rule.Name) > maxLen {
			maxLen = len(rule.Name)
		}
	}
	for _, kind := range g.grammar.TokenKinds {
		if len(kind) > maxLen {
			maxLen = len(kind)
		}
	}
	t := template.Must(template.New("intr").Parse(intrTmpl))
	var b strings.Builder
	err := t.Execute(&b, map[string]interface{}{
		"IntrWidth": maxLen,
	})
	if err != nil {
		panic(fmt.Errorf("intr template: %w", err))
	}
	e.w("%s\n", b.String())
}

/*
 * Per-rule parse functions.
 */

func retVar(id int) string {
	return fmt.Sprintf("exprRet%d", id)
}

// writeRuleFunc emits one rule's parse function: the label variables, the
// result chain, and the scheduled expression body.
func (g *generator) writeRuleFunc(e *emitter, rule *peg.RuleIR) {
	e.w("func (ctx *Parser) %s() *AstNode {\n", exportRuleName(rule.Name))
	e.indent = 1
	e.iw("if ctx.exit {")
	e.indent++
	e.iw("return nil")
	e.indent--
	e.iw("}")

	for _, field := range rule.Fields {
		e.iw("%s", field)
	}
	for _, label := range rule.Labels {
		e.iw("var %s *AstNode", label)
		e.iw("_ = %s", label)
	}

	ret := g.ir.Fresh()
	e.iw("var rule *AstNode")
	e.iw("var %s *AstNode", retVar(ret))
	if g.opts.GrammarDebug {
		e.iw("ctx.intrEnter(%q)", rule.Name)
	}

	g.writeExpr(e, rule.Body, ret, true)

	e.iw("if rule == nil {")
	e.indent++
	e.iw("rule = %s", retVar(ret))
	e.indent--
	e.iw("}")
	e.iw("if %s == nil {", retVar(ret))
	e.indent++
	e.iw("rule = nil")
	e.indent--
	e.iw("}")

	if g.opts.GrammarDebug {
		e.iw("if rule == SUCC {")
		e.indent++
		e.iw("ctx.intrSucc(%q)", rule.Name)
		e.indent--
		e.iw("} else if rule != nil {")
		e.indent++
		e.iw("ctx.intrAccept(%q)", rule.Name)
		e.indent--
		e.iw("} else {")
		e.indent++
		e.iw("ctx.intrReject(%q)", rule.Name)
		e.indent--
		e.iw("}")
	} else if g.opts.Debug {
		e.iw("if rule == SUCC {")
		e.indent++
		e.iw("panic(\"rule %s returned the success sentinel\")", rule.Name)
		e.indent--
		e.iw("}")
	}

	e.iw("return rule")
	e.indent = 0
	e.w("}\n\n")
}

// writeExpr schedules one grammar expression into the function body,
// leaving its result in exprRet<retTo>. The capture argument tells token
// matches whether to build leaf nodes or return the success sentinel.
func (g *generator) writeExpr(e *emitter, expr *spec.Node, retTo int, capture bool) {
	switch expr.Kind {
	case spec.NodeKindSlashExpr:
		g.writeSlashExpr(e, expr, retTo, capture)
	case spec.NodeKindModExprList:
		g.writeModExprList(e, expr, retTo, capture)
	case spec.NodeKindModExpr:
		g.writeModExpr(e, expr, retTo, capture)
	case spec.NodeKindBaseExpr:
		g.writeExpr(e, expr.Children[0], retTo, capture)
	case spec.NodeKindUpperIdent:
		g.writeTokenMatch(e, expr, retTo, capture)
	case spec.NodeKindLowerIdent:
		e.iw("%s = ctx.%s()", retVar(retTo), exportRuleName(expr.Text))
		e.iw("if ctx.exit {")
		e.indent++
		e.iw("return nil")
		e.indent--
		e.iw("}")
	case spec.NodeKindCodeExpr:
		g.writeCodeExpr(e, expr, retTo)
	default:
		panic(fmt.Errorf("unknown expression node kind: %s", expr.Kind))
	}
}

func (g *generator) writeSlashExpr(e *emitter, expr *spec.Node, retTo int, capture bool) {
	if len(expr.Children) == 1 {
		// A one-alternative SlashExpr is transparent.
		g.writeExpr(e, expr.Children[0], retTo, capture)
		return
	}
	ret := g.ir.ID(expr)
	e.iw("var %s *AstNode", retVar(ret))
	for i, alt := range expr.Children {
		e.comment("SlashExpr %d", i)
		e.startBlock("if %s == nil", retVar(ret))
		g.writeExpr(e, alt, ret, capture)
		e.endBlock()
	}
	e.comment("SlashExpr end")
	e.iw("%s = %s", retVar(retTo), retVar(ret))
}

func (g *generator) writeModExprList(e *emitter, expr *spec.Node, retTo int, capture bool) {
	ret := g.ir.ID(expr)
	e.iw("var %s *AstNode", retVar(ret))
	e.iw("recMod%d := ctx.rec()", ret)
	if len(expr.Children) == 1 {
		e.comment("ModExprList forwarding")
		g.writeExpr(e, expr.Children[0], ret, capture)
	} else {
		for i, child := range expr.Children {
			last := i == len(expr.Children)-1
			e.comment("ModExprList %d", i)
			if i > 0 {
				e.startBlock("if %s != nil", retVar(ret))
			}
			g.writeExpr(e, child, ret, capture && last)
			if i > 0 {
				e.endBlock()
			}
		}
	}
	e.comment("ModExprList end")
	e.iw("if %s == nil {", retVar(ret))
	e.indent++
	e.iw("ctx.rew(recMod%d)", ret)
	e.indent--
	e.iw("}")
	e.iw("%s = %s", retVar(retTo), retVar(ret))
}

func (g *generator) writeModExpr(e *emitter, expr *spec.Node, retTo int, capture bool) {
	opts := expr.ModOpts
	label := expr.Label()
	handler := expr.ErrHandler()

	// A bare ModExpr is transparent.
	if !opts.Inverted && !opts.Rewind && !opts.Optional && opts.Kleene == spec.KleeneNone &&
		label == nil && handler == nil {
		g.writeExpr(e, expr.Children[0], retTo, capture)
		return
	}

	ret := g.ir.ID(expr)
	stateless := opts.Inverted || opts.Rewind
	if stateless {
		e.iw("recState%d := ctx.rec()", ret)
	}
	e.iw("var %s *AstNode", retVar(ret))

	forward := g.ir.Captures(expr.Children[0])
	switch opts.Kleene {
	case spec.KleenePlus:
		inner := g.ir.Fresh()
		e.comment("plus: match one or more")
		e.iw("var %s *AstNode", retVar(inner))
		e.iw("plusTimes%d := 0", inner)
		e.startBlock("for")
		e.iw("recPlus%d := ctx.rec()", inner)
		g.writeExpr(e, expr.Children[0], inner, false)
		e.iw("if %s == nil {", retVar(inner))
		e.indent++
		e.iw("ctx.rew(recPlus%d)", inner)
		e.iw("break")
		e.indent--
		e.iw("}")
		e.iw("plusTimes%d++", inner)
		e.endBlock()
		e.iw("if plusTimes%d > 0 {", inner)
		e.indent++
		e.iw("%s = SUCC", retVar(ret))
		e.indent--
		e.iw("}")
	case spec.KleeneStar:
		sentinel := g.ir.Fresh()
		e.comment("star: match zero or more")
		e.iw("%s := SUCC", retVar(sentinel))
		e.startBlock("for %s != nil", retVar(sentinel))
		e.iw("recStar%d := ctx.rec()", sentinel)
		g.writeExpr(e, expr.Children[0], sentinel, false)
		e.iw("if %s == nil {", retVar(sentinel))
		e.indent++
		e.iw("ctx.rew(recStar%d)", sentinel)
		e.indent--
		e.iw("}")
		e.endBlock()
		e.iw("%s = SUCC", retVar(ret))
	default:
		g.writeExpr(e, expr.Children[0], ret, forward)
	}

	if opts.Optional {
		e.comment("optional")
		e.iw("if %s == nil {", retVar(ret))
		e.indent++
		e.iw("%s = SUCC", retVar(ret))
		e.indent--
		e.iw("}")
	} else if opts.Inverted {
		e.comment("invert")
		e.iw("if %s == nil {", retVar(ret))
		e.indent++
		e.iw("%s = SUCC", retVar(ret))
		e.indent--
		e.iw("} else {")
		e.indent++
		e.iw("%s = nil", retVar(ret))
		e.indent--
		e.iw("}")
	}

	if handler != nil {
		g.writeErrHandler(e, handler, ret)
	}

	if stateless {
		e.comment("rewind")
		e.iw("ctx.rew(recState%d)", ret)
	}

	e.iw("%s = %s", retVar(retTo), retVar(ret))
	if label != nil {
		e.iw("%s = %s", label.Text, retVar(ret))
	}
}

// writeErrHandler emits the failure path of an inline error handler. A
// string handler reports a fatal error; a code handler runs the fragment
// and propagates its result, mapping the success sentinel to a plain
// failure.
func (g *generator) writeErrHandler(e *emitter, handler *spec.Node, ret int) {
	if handler.Kind == spec.NodeKindErrString {
		e.iw("if %s == nil {", retVar(ret))
		e.indent++
		e.iw("ctx.fatal(%s)", quoteString(handler.Lit))
		e.iw("return nil")
		e.indent--
		e.iw("}")
		return
	}

	errVal := g.ir.Fresh()
	e.startBlock("if %s == nil", retVar(ret))
	e.iw("var %s *AstNode", retVar(errVal))
	g.writeCodeExpr(e, handler, errVal)
	e.iw("if %s == SUCC {", retVar(errVal))
	e.indent++
	e.iw("return nil")
	e.indent--
	e.iw("}")
	e.iw("return %s", retVar(errVal))
	e.endBlock()
}

func (g *generator) writeTokenMatch(e *emitter, expr *spec.Node, retTo int, capture bool) {
	name := expr.Text
	if g.opts.GrammarDebug {
		e.iw("ctx.intrEnter(%q)", name)
	}
	e.startBlock("if ctx.pos < len(ctx.tokens) && ctx.tokens[ctx.pos].Kind == %s", tokenConstName(name))
	if capture {
		e.comment("Capturing %s.", name)
		e.iw("%s = ctx.leaf(%s)", retVar(retTo), nodeConstName(name))
		e.iw("%s.TokRepr = ctx.tokens[ctx.pos].Content", retVar(retTo))
	} else {
		e.comment("Not capturing %s.", name)
		e.iw("%s = SUCC", retVar(retTo))
	}
	e.iw("ctx.pos++")
	e.indent--
	e.iw("} else {")
	e.indent++
	e.iw("%s = nil", retVar(retTo))
	e.endBlock()
	if g.opts.GrammarDebug {
		e.iw("if %s != nil {", retVar(retTo))
		e.indent++
		e.iw("ctx.intrAccept(%q)", name)
		e.indent--
		e.iw("} else {")
		e.indent++
		e.iw("ctx.intrReject(%q)", name)
		e.indent--
		e.iw("}")
	}
}

// writeCodeExpr splices a user action fragment. The fragment sees the
// declared result variable ret, preset to the success sentinel, and may
// overwrite it; the fragment's text is emitted verbatim.
func (g *generator) writeCodeExpr(e *emitter, expr *spec.Node, retTo int) {
	var ce *spec.Node
	if expr.Kind == spec.NodeKindCodeExpr {
		ce = expr
	} else {
		// A BaseExpr wrapping the code block.
		ce = expr.Children[0]
	}
	e.comment("CodeExpr")
	if g.opts.GrammarDebug {
		e.iw("ctx.intrEnter(\"CodeExpr\")")
	}
	e.startBlock("")
	e.iw("ret := SUCC")
	if g.opts.LineDirectives {
		e.w("//line %s:%d\n", g.opts.GrammarPath, ce.CodeOpts.Row)
	}
	for _, line := range strings.Split(ce.CodeOpts.Content, "\n") {
		e.iw("%s", strings.TrimRight(line, " \t"))
	}
	if g.opts.LineDirectives {
		e.w("//line %s:%d\n", g.opts.OutputPath, e.lineNbr+1)
	}
	e.iw("%s = ret", retVar(retTo))
	e.endBlock()
	if g.opts.GrammarDebug {
		e.iw("if %s != nil {", retVar(retTo))
		e.indent++
		e.iw("ctx.intrAccept(\"CodeExpr\")")
		e.indent--
		e.iw("} else {")
		e.indent++
		e.iw("ctx.intrReject(\"CodeExpr\")")
		e.indent--
		e.iw("}")
	}
}

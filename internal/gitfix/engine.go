// Package gitfix rewrites the SSH-style GitHub remotes listed in a
// .gitmodules file to their HTTPS form.
//
// The rewrite runs as a small middleware pipeline over the file content:
// split into lines, apply the rules to each line, join the result. Every
// line yields a LineEdit so callers can report what changed.
package gitfix

import (
	"regexp"
	"strings"
)

// Rule replaces every match of Pattern in a line with Replacement.
// Replacement may reference submatches with $1 style templates.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// GitHubSSHRule turns git@github.com:org/repo (and ssh://git@github.com/org/repo)
// into https://github.com/org/repo. The separator after the host is consumed
// so the result is a clean URL.
var GitHubSSHRule = Rule{
	Pattern:     regexp.MustCompile(`(?:ssh://)?git@github\.com(?::|/)?`),
	Replacement: "https://github.com/",
}

// DefaultRules is the rule set used when none is given.
var DefaultRules = []Rule{GitHubSSHRule}

// LineEdit records what happened to one line. Before and After include the
// line terminator, if any.
type LineEdit struct {
	Line    int
	Before  string
	After   string
	Changed bool
}

// FileResult contains the outcome of rewriting one file.
type FileResult struct {
	Path         string
	Edits        []LineEdit
	Modified     bool
	Changed      int
	OriginalSize int64
	NewSize      int64
}

// Middleware is one step of the rewrite pipeline.
type Middleware func(ProcessContext) ProcessContext

// ProcessContext carries state through the pipeline.
type ProcessContext struct {
	FilePath string
	Content  []byte
	Rules    []Rule
	Lines    []string
	Result   *FileResult
}

// Engine runs content through the rewrite pipeline.
type Engine struct {
	rules      []Rule
	middleware []Middleware
}

// NewEngine creates an engine with the standard pipeline. DefaultRules are
// used when rules is empty.
func NewEngine(rules ...Rule) *Engine {
	if len(rules) == 0 {
		rules = DefaultRules
	}

	engine := &Engine{rules: rules}
	engine.Use(splitLinesMiddleware)
	engine.Use(rewriteLinesMiddleware)
	engine.Use(joinLinesMiddleware)

	return engine
}

// Use appends a middleware to the pipeline.
func (e *Engine) Use(middleware Middleware) {
	e.middleware = append(e.middleware, middleware)
}

// Process rewrites content and returns the result together with the new
// content. The input slice is not modified.
func (e *Engine) Process(filePath string, content []byte) (*FileResult, []byte) {
	ctx := ProcessContext{
		FilePath: filePath,
		Content:  content,
		Rules:    e.rules,
		Result: &FileResult{
			Path:         filePath,
			OriginalSize: int64(len(content)),
		},
	}

	for _, mw := range e.middleware {
		ctx = mw(ctx)
	}

	ctx.Result.NewSize = int64(len(ctx.Content))
	return ctx.Result, ctx.Content
}

// RewriteLine applies the rules to a single line.
func (e *Engine) RewriteLine(line string) string {
	for _, rule := range e.rules {
		line = rule.Pattern.ReplaceAllString(line, rule.Replacement)
	}
	return line
}

func splitLinesMiddleware(ctx ProcessContext) ProcessContext {
	ctx.Lines = splitLines(string(ctx.Content))
	return ctx
}

func rewriteLinesMiddleware(ctx ProcessContext) ProcessContext {
	engine := &Engine{rules: ctx.Rules}
	edits := make([]LineEdit, 0, len(ctx.Lines))

	for i, before := range ctx.Lines {
		after := engine.RewriteLine(before)
		edit := LineEdit{
			Line:    i + 1,
			Before:  before,
			After:   after,
			Changed: after != before,
		}
		if edit.Changed {
			ctx.Result.Changed++
			ctx.Lines[i] = after
		}
		edits = append(edits, edit)
	}

	ctx.Result.Edits = edits
	ctx.Result.Modified = ctx.Result.Changed > 0
	return ctx
}

func joinLinesMiddleware(ctx ProcessContext) ProcessContext {
	if !ctx.Result.Modified {
		return ctx
	}
	ctx.Content = []byte(strings.Join(ctx.Lines, ""))
	return ctx
}

// splitLines splits s after every newline, keeping the terminators so that
// joining the parts gives back s exactly.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

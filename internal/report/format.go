package report

import (
	"cmp"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/leapstack-labs/buster/internal/cli/output"
	"github.com/leapstack-labs/buster/pkg/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Non-verbose list limits.
const (
	maxListed      = 5
	maxGroupModels = 3
)

// FormatOptions controls Format.
type FormatOptions struct {
	Verbose bool
	DryRun  bool
	// Styles defaults to output.PlainStyles.
	Styles *output.Styles
}

type formatter struct {
	b         strings.Builder
	opts      FormatOptions
	st        *output.Styles
	p         *message.Printer
	truncated bool
}

// Format renders a deployment summary. Sections always appear in the same
// order: header, model counts, doc counts, doc failures, model failures,
// TODO files, excluded files (verbose only) and a final status line.
func Format(result *core.DeploymentResult, opts FormatOptions) string {
	if result == nil {
		result = core.NewDeploymentResult()
	}
	f := &formatter{opts: opts, st: opts.Styles, p: message.NewPrinter(language.English)}
	if f.st == nil {
		f.st = output.PlainStyles()
	}

	f.header()
	f.models(result)
	f.docs(result.Docs)
	f.docFailures(result.Docs)
	f.failures(result.Failures)
	f.todos(result.Todos)
	if opts.Verbose {
		f.excluded(result.Excluded)
	}
	if f.truncated {
		f.line(f.st.Muted.Render("Run with --verbose to see every entry."))
		f.blank()
	}
	f.status(result)
	return f.b.String()
}

func (f *formatter) line(s string) {
	f.b.WriteString(s)
	f.b.WriteByte('\n')
}

func (f *formatter) blank() { f.b.WriteByte('\n') }

func (f *formatter) header() {
	title := "Deployment Summary"
	if f.opts.DryRun {
		title = "Deployment Summary (dry run)"
	}
	f.line(f.st.Header1.Render(title))
	f.line(f.st.Muted.Render(strings.Repeat("=", len(title))))
}

func (f *formatter) models(r *core.DeploymentResult) {
	verb := "deployed"
	if f.opts.DryRun {
		verb = "validated"
	}
	f.line(f.p.Sprintf("%s Models %s: %d (%d new, %d updated, %d unchanged)",
		f.st.Success.Render("✓"), verb, r.DeployedCount(), len(r.Success), len(r.Updated), len(r.NoChange)))
}

func (f *formatter) docs(d *core.DocsResult) {
	if d == nil {
		return
	}
	f.line(f.p.Sprintf("%s Docs deployed: %d (%d created, %d updated)",
		f.st.Success.Render("✓"), len(d.Created)+len(d.Updated), len(d.Created), len(d.Updated)))
}

func (f *formatter) docFailures(d *core.DocsResult) {
	if d == nil || len(d.Failed) == 0 {
		return
	}
	f.blank()
	f.line(f.st.Error.Render(f.p.Sprintf("✗ %d doc(s) failed:", len(d.Failed))))
	items := make([]string, len(d.Failed))
	for i, doc := range d.Failed {
		items[i] = fmt.Sprintf("%s (%s): %s", doc.Name, f.path(doc.File), NormalizeError(doc.Error))
	}
	f.list("  - ", items, maxListed)
}

type failureGroup struct {
	message string
	entries []string
}

func (f *formatter) failures(failed []core.FailedModel) {
	if len(failed) == 0 {
		return
	}
	f.blank()
	f.line(f.st.Error.Render(f.p.Sprintf("✗ %d model(s) failed:", len(failed))))

	for _, g := range f.groupFailures(failed) {
		f.line(f.p.Sprintf("  %s (%d)", f.st.Bold.Render(g.message), len(g.entries)))
		f.list("    - ", g.entries, maxGroupModels)
	}
}

// groupFailures groups failures by normalized message, largest group first.
// Ties keep first-seen order.
func (f *formatter) groupFailures(failed []core.FailedModel) []*failureGroup {
	var groups []*failureGroup
	index := make(map[string]*failureGroup)

	for _, fm := range failed {
		errs := fm.Errors
		if len(errs) == 0 {
			errs = []string{"Unknown error"}
		}
		name := cmp.Or(fm.ModelName, path.Base(fm.File))
		for _, raw := range errs {
			msg := NormalizeError(raw)
			g, ok := index[msg]
			if !ok {
				g = &failureGroup{message: msg}
				index[msg] = g
				groups = append(groups, g)
			}
			entry := fmt.Sprintf("%s (%s)", name, f.path(fm.File))
			if f.opts.Verbose && strings.TrimSpace(raw) != msg {
				entry += ": " + strings.TrimSpace(raw)
			}
			g.entries = append(g.entries, entry)
		}
	}

	slices.SortStableFunc(groups, func(a, b *failureGroup) int {
		return cmp.Compare(len(b.entries), len(a.entries))
	})
	return groups
}

func (f *formatter) todos(todos []core.TodoFile) {
	if len(todos) == 0 {
		return
	}
	f.blank()
	f.line(f.st.Warning.Render(f.p.Sprintf("⚠ %d files need completion", len(todos))))
	items := make([]string, len(todos))
	for i, t := range todos {
		items[i] = f.path(t.File)
	}
	f.list("  - ", items, maxListed)
	f.line(f.st.Muted.Render("  Replace {{TODO}} markers with real values before deploying."))
}

func (f *formatter) excluded(excluded []core.ExcludedFile) {
	if len(excluded) == 0 {
		return
	}
	f.blank()
	f.line(f.st.Info.Render(f.p.Sprintf("Excluded files (%d):", len(excluded))))
	items := make([]string, len(excluded))
	for i, e := range excluded {
		items[i] = fmt.Sprintf("%s (%s)", e.File, e.Reason)
	}
	f.list("  - ", items, maxListed)
}

func (f *formatter) status(r *core.DeploymentResult) {
	f.blank()
	failures := len(r.Failures)
	if r.Docs != nil {
		failures += len(r.Docs.Failed)
	}
	switch {
	case failures > 0 || len(r.Todos) > 0:
		f.line(f.st.Error.Render(f.p.Sprintf("✗ Deployment failed: %d failure(s), %d file(s) need completion",
			failures, len(r.Todos))))
	case f.opts.DryRun:
		f.line(f.st.Success.Render(f.p.Sprintf("✓ Dry run complete: %d model(s) would be deployed", r.DeployedCount())))
	default:
		f.line(f.st.Success.Render(f.p.Sprintf("✓ Deployment complete: %d model(s) deployed", r.DeployedCount())))
	}
}

// list writes items, truncated in non-verbose mode.
func (f *formatter) list(prefix string, items []string, limit int) {
	shown := items
	if !f.opts.Verbose && len(items) > limit {
		shown = items[:limit]
	}
	for _, it := range shown {
		f.line(prefix + it)
	}
	if rest := len(items) - len(shown); rest > 0 {
		f.truncated = true
		f.line(f.st.Muted.Render(f.p.Sprintf("%s...and %d more", strings.Repeat(" ", len(prefix)-2), rest)))
	}
}

// path shows the relative path in verbose mode and the base name otherwise.
func (f *formatter) path(p string) string {
	if f.opts.Verbose || p == "" {
		return p
	}
	return path.Base(p)
}

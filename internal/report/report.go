// Package report renders run results into a markdown summary and an
// HTML page.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"episim/domain/results"
	apperrors "episim/internal/errors"
	"episim/internal/scenario"
)

// BuildMarkdown produces a per-module summary of every series across
// the given outcomes.
func BuildMarkdown(title string, outcomes ...scenario.Outcome) (string, error) {
	if len(outcomes) == 0 {
		return "", apperrors.InvalidInput("no outcomes to report")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	for _, out := range outcomes {
		fmt.Fprintf(&b, "## Scenario: %s\n\n", out.Label)
		fmt.Fprintf(&b, "Run `%s`, fingerprint `%s`\n\n", out.RunID, out.Results.Fingerprint().Short())
		if err := writeResultsTable(&b, out.Results); err != nil {
			return "", err
		}
	}

	if len(outcomes) == 2 {
		writeDifferenceSection(&b, outcomes[0], outcomes[1])
	}
	return b.String(), nil
}

func writeResultsTable(b *strings.Builder, res *results.Results) error {
	b.WriteString("| series | mean | min | max | final |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, s := range res.All() {
		sum, err := s.Summarize()
		if err != nil {
			return apperrors.Wrapf(err, "summarize %s", s.Key())
		}
		fmt.Fprintf(b, "| %s | %.3f | %.3f | %.3f | %.3f |\n",
			s.Key(), sum.Mean, sum.Min, sum.Max, sum.Final)
	}
	b.WriteString("\n")
	return nil
}

// writeDifferenceSection reports paired series differences for a
// two-scenario comparison.
func writeDifferenceSection(b *strings.Builder, base, alt scenario.Outcome) {
	fmt.Fprintf(b, "## Difference: %s vs %s\n\n", alt.Label, base.Label)
	b.WriteString("| series | total difference |\n")
	b.WriteString("|---|---|\n")
	for _, s := range base.Results.All() {
		diff, err := scenario.Difference(alt.Results, base.Results, s.Key())
		if err != nil {
			continue
		}
		var total float64
		for _, d := range diff {
			total += d
		}
		fmt.Fprintf(b, "| %s | %.3f |\n", s.Key(), total)
	}
	b.WriteString("\n")
}

// RenderHTML converts markdown to a complete HTML page.
func RenderHTML(title string, md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{
		Title: title,
		Flags: html.CommonFlags | html.CompletePage,
	})
	return markdown.Render(doc, renderer)
}

// WriteHTML renders the markdown and writes the page to path.
func WriteHTML(path, title, md string) error {
	if err := os.WriteFile(path, RenderHTML(title, md), 0o644); err != nil {
		return apperrors.ExportError(path, err)
	}
	return nil
}

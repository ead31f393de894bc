package output

import (
	"errors"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ukri-bench/varbuild/formula"
	"github.com/ukri-bench/varbuild/pkgs/buildsys"
)

// Color palette.
var (
	// ColorCyan is used for identifiable nouns: packages, variants, paths.
	ColorCyan = lipgloss.Color("14")

	// ColorGreen marks enabled variants and successful steps.
	ColorGreen = lipgloss.Color("82")

	// ColorYellow marks keys scheduled for deletion.
	ColorYellow = lipgloss.Color("220")

	// ColorBoldRed marks failures.
	ColorBoldRed = lipgloss.Color("204")
)

// Semantic styles.
var (
	// StyleNoun styles identifiable nouns (package names, prefixes, configurations).
	StyleNoun = lipgloss.NewStyle().Foreground(ColorCyan)

	// StyleAdd styles enabled variants and added keys.
	StyleAdd = lipgloss.NewStyle().Foreground(ColorGreen)

	// StyleDel styles disabled variants and deleted keys.
	StyleDel = lipgloss.NewStyle().Foreground(ColorYellow)

	// StyleFailure styles error headlines.
	StyleFailure = lipgloss.NewStyle().Bold(true).Foreground(ColorBoldRed)

	// StyleDim styles structural chrome.
	StyleDim = lipgloss.NewStyle().Faint(true)

	// StyleHeader styles table and section headers.
	StyleHeader = lipgloss.NewStyle().Bold(true)
)

// Noun renders s as an identifiable noun.
func Noun(s string) string {
	return StyleNoun.Render(s)
}

// Variant renders a spelled variant ("+ice", "~xios", "config=BENCH").
func Variant(s string) string {
	switch {
	case strings.HasPrefix(s, "+"):
		return StyleAdd.Render(s)
	case strings.HasPrefix(s, "~"):
		return StyleDel.Render(s)
	}
	return s
}

// Selection renders a canonical selection string variant by variant.
func Selection(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		fields[i] = Variant(f)
	}
	return strings.Join(fields, " ")
}

// ErrorLines renders err for the terminal, one line per problem: every
// violated rule of a constraint violation and the captured output of a
// failed tool are listed under the headline.
func ErrorLines(err error) []string {
	var cv *formula.ConstraintViolation
	if errors.As(err, &cv) {
		lines := []string{StyleFailure.Render("invalid selection")}
		for _, m := range cv.Messages() {
			lines = append(lines, "  "+m)
		}
		return lines
	}

	lines := []string{StyleFailure.Render(err.Error())}
	var te *buildsys.ToolError
	if errors.As(err, &te) && te.Output != "" {
		for _, l := range strings.Split(strings.TrimRight(te.Output, "\n"), "\n") {
			lines = append(lines, StyleDim.Render("  | ")+l)
		}
	}
	return lines
}

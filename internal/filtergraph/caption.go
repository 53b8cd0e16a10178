package filtergraph

import (
	"strconv"
	"strings"
)

// Caption is a timed text overlay.
type Caption struct {
	Text      string
	StartTime float64
	Duration  float64
	X, Y      int
}

// End returns the time at which the caption stops being visible.
func (c Caption) End() float64 {
	return c.StartTime + c.Duration
}

// Style holds the drawtext settings shared by every caption.
type Style struct {
	FontFile   string
	FontSize   int
	FontColor  string
	BoxColor   string
	BoxBorderW int
}

// DefaultStyle returns black 24px text on a translucent white box.
func DefaultStyle(fontFile string) Style {
	return Style{
		FontFile:   fontFile,
		FontSize:   24,
		FontColor:  "black",
		BoxColor:   "white@0.8",
		BoxBorderW: 5,
	}
}

// CaptionOverlay returns the -vf expression drawing every caption, in input
// order. Captions whose windows overlap are layered in that order.
func CaptionOverlay(captions []Caption, style Style) string {
	clauses := make([]string, 0, len(captions))
	for _, c := range captions {
		clauses = append(clauses, drawText(c, style))
	}
	return strings.Join(clauses, ",")
}

// drawText renders a single drawtext clause. The enable predicate uses the
// graph-level escaped comma so the clause is not split by the chain parser.
func drawText(c Caption, s Style) string {
	var b strings.Builder
	b.WriteString("drawtext=text=")
	b.WriteString(EscapeText(c.Text))
	b.WriteString(":fontfile=")
	b.WriteString(EscapeText(s.FontFile))
	b.WriteString(":fontsize=")
	b.WriteString(strconv.Itoa(s.FontSize))
	b.WriteString(":fontcolor=")
	b.WriteString(s.FontColor)
	b.WriteString(":x=")
	b.WriteString(strconv.Itoa(c.X))
	b.WriteString(":y=")
	b.WriteString(strconv.Itoa(c.Y))
	b.WriteString(`:enable=between(t\,`)
	b.WriteString(formatSeconds(c.StartTime))
	b.WriteString(`\,`)
	b.WriteString(formatSeconds(c.End()))
	b.WriteString(")")
	b.WriteString(":box=1")
	b.WriteString(":boxcolor=")
	b.WriteString(s.BoxColor)
	b.WriteString(":boxborderw=")
	b.WriteString(strconv.Itoa(s.BoxBorderW))
	// Caption text is literal; without this drawtext expands %{...} sequences.
	b.WriteString(":expansion=none")
	return b.String()
}

// textEscaper escapes the characters the filter mini-language treats as
// syntax. Backslash must be handled so an escaped literal can be recovered
// exactly; ' and : terminate quoting and separate options; , ; [ ] separate
// filters and name pads at graph level.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`:`, `\:`,
	`,`, `\,`,
	`;`, `\;`,
	`[`, `\[`,
	`]`, `\]`,
)

// EscapeText escapes s for use as a drawtext option value.
//
//	it's: ok  ->  it\'s\: ok
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() { colorEnabled = false }

// EnableColors enables ANSI color output.
func EnableColors() { colorEnabled = true }

// color wraps text in ANSI color codes if colors are enabled.
func color(code, text string) string {
	if !colorEnabled {
		return text
	}
	return code + text + colorReset
}

func red(text string) string    { return color(colorRed, text) }
func green(text string) string  { return color(colorGreen, text) }
func yellow(text string) string { return color(colorYellow, text) }
func blue(text string) string   { return color(colorBlue, text) }
func cyan(text string) string   { return color(colorCyan, text) }
func white(text string) string  { return color(colorWhite, text) }
func gray(text string) string   { return color(colorGray, text) }
func bold(text string) string   { return color(colorBold, text) }

// Format renders the error as a multi-line terminal report: a header with
// the code and category, the source location with surrounding lines, the
// detail text, and any hint, example, cause, and documentation link.
func (e *RippleError) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeader(&b)
	e.writeLocation(&b)
	e.writeDetail(&b)
	e.writeFooter(&b)
	return b.String()
}

func (e *RippleError) writeHeader(b *strings.Builder) {
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
	} else {
		b.WriteString(red(bold("ERROR: ")))
	}
	b.WriteString(white(e.Message))
	if e.Category != "" {
		b.WriteString(" ")
		b.WriteString(yellow("[" + string(e.Category) + "]"))
	}
	b.WriteString("\n\n")
}

func (e *RippleError) writeLocation(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	b.WriteString("  ")
	b.WriteString(gray("at "))
	b.WriteString(cyan(e.Location.String()))
	b.WriteString("\n\n")

	if len(e.Context) > 0 {
		e.writeContext(b)
		b.WriteString("\n")
	}
}

// writeContext prints the captured source lines with an arrow on the
// offending line and a caret under the column when one is known. The
// context window is centered on the location line.
func (e *RippleError) writeContext(b *strings.Builder) {
	start := e.Location.Line - len(e.Context)/2
	width := len(fmt.Sprint(start + len(e.Context) - 1))

	for i, line := range e.Context {
		num := start + i
		gutter := fmt.Sprintf("%*d", width, num)
		if num != e.Location.Line {
			fmt.Fprintf(b, "    %s %s %s\n", gutter, gray("│"), line)
			continue
		}

		fmt.Fprintf(b, "  %s %s %s %s\n", red("→"), gutter, gray("│"), line)
		if e.Location.Column > 0 {
			fmt.Fprintf(b, "    %s %s %s%s\n",
				strings.Repeat(" ", width), gray("│"),
				strings.Repeat(" ", e.Location.Column-1), red("^"))
		}
	}
}

func (e *RippleError) writeDetail(b *strings.Builder) {
	if e.Detail == "" {
		return
	}
	for _, line := range wrapText(e.Detail, 70) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (e *RippleError) writeFooter(b *strings.Builder) {
	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	if e.Example != "" {
		b.WriteString("  ")
		b.WriteString(green("Example:"))
		b.WriteString("\n")
		for _, line := range strings.Split(e.Example, "\n") {
			b.WriteString("    ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Caused by: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(gray("Learn more: "))
		b.WriteString(blue(e.DocURL))
		b.WriteString("\n")
	}
}

// FormatCompact returns a single-line "location: code: message" form for
// logs and grep-friendly output.
func (e *RippleError) FormatCompact() string {
	parts := make([]string, 0, 3)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, ": ")
}

// FormatJSON returns the error as a JSON object for machine consumers.
func (e *RippleError) FormatJSON() string {
	type location struct {
		File   string `json:"file"`
		Line   int    `json:"line"`
		Column int    `json:"column"`
	}
	payload := struct {
		Code       string    `json:"code,omitempty"`
		Category   Category  `json:"category"`
		Message    string    `json:"message"`
		Detail     string    `json:"detail,omitempty"`
		Location   *location `json:"location,omitempty"`
		Suggestion string    `json:"suggestion,omitempty"`
		DocURL     string    `json:"docUrl,omitempty"`
	}{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Location != nil {
		payload.Location = &location{
			File:   e.Location.File,
			Line:   e.Location.Line,
			Column: e.Location.Column,
		}
	}
	out, _ := json.Marshal(payload)
	return string(out)
}

// wrapText wraps text at word boundaries to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	if re, ok := err.(*RippleError); ok {
		fmt.Fprint(os.Stderr, re.Format())
		return
	}
	fmt.Fprintf(os.Stderr, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

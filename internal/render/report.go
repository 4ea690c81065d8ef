package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/internal/utils"
)

const maxValueLength = 80

// Report writes rep in the given format.
func Report(w io.Writer, rep *report.Report, format Format, opts Options) error {
	if format == FormatJSON {
		return JSON(w, rep)
	}
	return reportText(w, rep, opts)
}

func reportText(w io.Writer, rep *report.Report, opts Options) error {
	p := painter{opts.Color}
	var sb strings.Builder

	fmt.Fprintf(&sb, "Testing %s", p.paint(colorBold, rep.Input.String()))
	if rep.Input.FinalURL != "" && rep.Input.FinalURL != rep.Input.Source {
		fmt.Fprintf(&sb, " %s", p.paint(colorGray, "-> "+rep.Input.FinalURL))
	}
	sb.WriteString("\n")

	width := keyWidth(rep)
	for _, res := range rep.Results {
		sb.WriteString("\n")
		if res.Passed {
			sb.WriteString(p.paint(colorGreen, "PASS"))
		} else {
			sb.WriteString(p.paint(colorRed, "FAIL"))
		}
		fmt.Fprintf(&sb, "  %s", p.paint(colorBold, res.Schema.String()))
		if res.Description != "" {
			fmt.Fprintf(&sb, "  %s", p.paint(colorGray, res.Description))
		}
		sb.WriteString("\n")

		for _, f := range res.Fields {
			mark, color, note := fieldLine(f, opts.Verbose)
			fmt.Fprintf(&sb, "  %s %-*s  %s\n", p.paint(color, mark), width, f.Key, p.paint(color, note))
		}
	}

	s := rep.Stats
	fmt.Fprintf(&sb, "\nSchemas: %d passed, %d failed  Fields: %d passed, %d failed  Optional missing: %d",
		s.SchemasPassed, s.SchemasFailed, s.FieldsPassed, s.FieldsFailed, s.OptionalMissing)
	if s.Warnings > 0 {
		fmt.Fprintf(&sb, "  Warnings: %d", s.Warnings)
	}
	sb.WriteString("\n")
	if rep.Passed {
		fmt.Fprintf(&sb, "Result: %s\n", p.paint(colorGreen, "PASSED"))
	} else {
		fmt.Fprintf(&sb, "Result: %s\n", p.paint(colorRed, "FAILED"))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func fieldLine(f report.FieldResult, verbose bool) (mark, color, note string) {
	switch f.Status() {
	case report.StatusPass:
		mark, color = "✓", colorGreen
		if verbose {
			note = formatValue(f.Value)
		}
	case report.StatusMissing:
		mark, color, note = "✗", colorRed, "missing"
	case report.StatusInvalid:
		mark, color, note = "✗", colorRed, fmt.Sprintf("not a valid %s: %s", f.Type, formatValue(f.Value))
	case report.StatusWarning:
		mark, color, note = "!", colorYellow, fmt.Sprintf("optional, not a valid %s: %s", f.Type, formatValue(f.Value))
	default:
		mark, color, note = "-", colorGray, "optional, not found"
	}
	return mark, color, note
}

func formatValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = utils.JSONToString(v)
	} else {
		s = fmt.Sprintf("%q", s)
	}
	if r := []rune(s); len(r) > maxValueLength {
		return string(r[:maxValueLength]) + "..."
	}
	return s
}

func keyWidth(rep *report.Report) int {
	width := 0
	for _, res := range rep.Results {
		for _, f := range res.Fields {
			if len(f.Key) > width {
				width = len(f.Key)
			}
		}
	}
	return width
}

package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/hhcli/internal/respond"
)

const (
	maxDetailWidth = 60
	reasonIndent   = "    "
)

var headers = []string{"VACANCY", "STATUS", "HTTP", "NEGOTIATION", "DETAIL"}

type styles struct {
	header lipgloss.Style
	muted  lipgloss.Style
	status map[respond.Status]lipgloss.Style
}

// newStyles binds styles to w so colors are dropped when w is not a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	green := r.NewStyle().Foreground(lipgloss.Color("2"))
	return styles{
		header: r.NewStyle().Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("8")),
		status: map[respond.Status]lipgloss.Style{
			respond.StatusResponded:         green.Bold(true),
			respond.StatusDryRun:            green,
			respond.StatusFailed:            r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			respond.StatusSkippedTested:     r.NewStyle().Foreground(lipgloss.Color("3")),
			respond.StatusSkippedIneligible: r.NewStyle().Foreground(lipgloss.Color("3")),
			respond.StatusSkippedOverCap:    r.NewStyle().Foreground(lipgloss.Color("8")),
		},
	}
}

// detail shortens the note for the table. Failure reasons are printed in full
// on their own line by writeText.
func detail(o respond.Outcome) string {
	d := strings.Join(strings.Fields(o.Note), " ")
	if r := []rune(d); len(r) > maxDetailWidth {
		d = string(r[:maxDetailWidth-3]) + "..."
	}
	return d
}

func writeText(w io.Writer, r *respond.Result) error {
	st := newStyles(w)

	rows := make([][]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		code := ""
		if o.HTTPStatus != 0 {
			code = strconv.Itoa(o.HTTPStatus)
		}
		rows = append(rows, []string{o.TargetID, string(o.Status), code, o.NegotiationID, detail(o)})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var sb strings.Builder
	title := "Batch " + r.BatchID.String()
	if r.DryRun {
		title += " (dry run)"
	}
	sb.WriteString(st.header.Render(title))
	sb.WriteString("\n\n")

	for i, h := range headers {
		sb.WriteString(st.header.Render(pad(h, widths[i], i == len(headers)-1)))
	}
	sb.WriteString("\n")

	for ri, row := range rows {
		for i, cell := range row {
			last := i == len(row)-1
			text := pad(cell, widths[i], last)
			if i == 1 {
				if style, ok := st.status[r.Outcomes[ri].Status]; ok {
					text = style.Render(text)
				}
			}
			sb.WriteString(text)
		}
		sb.WriteString("\n")
		if reason := r.Outcomes[ri].Reason; reason != "" {
			sb.WriteString(reasonIndent + "error: " + reason + "\n")
		}
	}

	sb.WriteString("\n")
	s := r.Summary
	sb.WriteString(fmt.Sprintf("responded: %d  would respond: %d  skipped: %d  failed: %d  total: %d\n",
		s.Responded, s.WouldRespond, s.Skipped, s.Failed, len(r.Outcomes)))
	if r.Aborted {
		sb.WriteString(st.muted.Render("aborted: the batch was cancelled before every target was processed"))
		sb.WriteString("\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// pad right-pads cell to width plus a two-space gutter; the last column is not padded.
func pad(cell string, width int, last bool) string {
	if last {
		return cell
	}
	return cell + strings.Repeat(" ", width-lipgloss.Width(cell)+2)
}

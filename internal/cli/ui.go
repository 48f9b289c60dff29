package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/statsnap/pkg/errors"
	"github.com/matzehuels/statsnap/pkg/pipeline"
)

// out receives human-facing output. Logs go to the logger's writer instead.
var out io.Writer = os.Stdout

// keyWidth aligns the labels of show's header block.
const keyWidth = 18

var (
	colorAccent = lipgloss.Color("36")  // teal
	colorOK     = lipgloss.Color("35")  // green
	colorWarn   = lipgloss.Color("220") // amber
	colorFail   = lipgloss.Color("167") // soft red
	colorLink   = lipgloss.Color("75")  // light blue
	colorMuted  = lipgloss.Color("245") // gray
	colorFaint  = lipgloss.Color("240") // dim gray
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	styleNumber  = lipgloss.NewStyle().Foreground(colorAccent)
	styleValue   = lipgloss.NewStyle()
	styleLink    = lipgloss.NewStyle().Foreground(colorLink).Underline(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorFaint)
	styleLabel   = lipgloss.NewStyle().Foreground(colorMuted).Width(keyWidth)
	styleHeader  = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)
	styleCommand = lipgloss.NewStyle().Foreground(colorLink)

	styleOK    = lipgloss.NewStyle().Foreground(colorOK)
	styleWarn  = lipgloss.NewStyle().Foreground(colorWarn)
	styleError = lipgloss.NewStyle().Foreground(colorFail)
	styleInfo  = lipgloss.NewStyle().Foreground(colorMuted)

	// A snapshot that changed is news; an unchanged one fades out.
	styleChanged   = lipgloss.NewStyle().Foreground(colorOK)
	styleUnchanged = lipgloss.NewStyle().Foreground(colorMuted)
)

// Line markers.
const (
	markOK   = "✓"
	markFail = "✗"
	markWarn = "!"
	markInfo = "›"
	markPath = "→"
)

func printMarked(style lipgloss.Style, mark, msg string) {
	fmt.Fprintln(out, style.Render(mark)+" "+msg)
}

func printWarning(format string, args ...any) {
	printMarked(styleWarn, markWarn, styleWarn.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printMarked(styleInfo, markInfo, fmt.Sprintf(format, args...))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+styleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints the location of a stored snapshot.
func printFile(path string) {
	fmt.Fprintln(out, "  "+styleDim.Render(markPath)+" "+path)
}

func printKeyValue(key, value string) {
	fmt.Fprintln(out, styleLabel.Render(key)+" "+value)
}

// printRunResult prints one line per refreshed snapshot:
//
//	✓ dockerhub-stats  12 records · updated · 2 failed · 1.2s
func printRunResult(res *pipeline.Result) {
	if res == nil || res.Document == nil {
		return
	}
	mark, markStyle := markOK, styleOK
	if res.Failed > 0 && res.Failed == len(res.Document.Records) {
		mark, markStyle = markFail, styleError
	}

	status := styleUnchanged.Render("unchanged")
	if res.Changed {
		status = styleChanged.Render("updated")
	}
	parts := []string{styleDim.Render(fmt.Sprintf("%d records", len(res.Document.Records))), status}
	if res.Failed > 0 {
		parts = append(parts, styleWarn.Render(fmt.Sprintf("%d failed", res.Failed)))
	}
	if res.Duration > 0 {
		parts = append(parts, styleDim.Render(res.Duration.Round(time.Millisecond).String()))
	}
	printMarked(markStyle, mark, res.Snapshot+"  "+strings.Join(parts, styleDim.Render(" · ")))
}

// printNextStep suggests a follow-up command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, styleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(out)
}

// PrintError reports a command failure on w using its user-facing message.
func PrintError(w io.Writer, err error) {
	fmt.Fprintln(w, styleError.Render(markFail)+" "+errors.UserMessage(err))
}

// Package banner renders the console-facing reporting surfaces: the
// startup banner, the shutdown statistics summary, and the plain-text
// worker list sent in reply to a LIST probe.
package banner

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"

	"github.com/netsort/distsort/internal/registry"
	"github.com/netsort/distsort/internal/stats"
)

const ruleWidth = 60

// out is the console writer every banner renders to. Wrapped with
// go-colorable so ANSI color codes degrade gracefully on Windows
// terminals rather than leaking as literal escape sequences.
var out io.Writer = colorable.NewColorableStdout()

func rule() string {
	s := ""
	for i := 0; i < ruleWidth; i++ {
		s += "="
	}
	return s
}

// Startup prints the banner shown once the listener is bound.
func Startup(ip string, port int) {
	title := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(out, "\n"+rule())
	title.Fprintln(out, center("DISTSORT — DISTRIBUTED SORT MIDDLEWARE", ruleWidth))
	fmt.Fprintln(out, rule())
	fmt.Fprintf(out, "started:   %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "listening: %s:%d\n", ip, port)
	fmt.Fprintln(out, rule())
}

// Shutdown prints the final statistics summary on a clean exit.
func Shutdown(uptime time.Duration, sort stats.Snapshot, client stats.ClientSnapshot) {
	failed := client.TotalOperations - client.SuccessfulOperations

	fmt.Fprintln(out, "\n"+rule())
	color.New(color.FgYellow, color.Bold).Fprintln(out, center("FINAL STATISTICS", ruleWidth))
	fmt.Fprintln(out, rule())
	fmt.Fprintf(out, "uptime:               %s\n", formatDuration(uptime))
	fmt.Fprintf(out, "operations completed: %d\n", client.SuccessfulOperations)
	fmt.Fprintf(out, "operations failed:    %d\n", failed)
	fmt.Fprintf(out, "bytes processed:      %d\n", sort.BytesProcessed)
	fmt.Fprintf(out, "numbers sorted:       %d\n", sort.NumbersSorted)
	fmt.Fprintln(out, rule())
}

// WorkerList renders the plain-text banner sent unframed in reply to a
// LIST probe: one line per active worker plus a trailer announcing the
// sort that follows.
func WorkerList(workers []registry.WorkerRecord) string {
	if len(workers) == 0 {
		return "\nno workers available\n"
	}

	s := "\nactive workers:\n"
	for i, w := range workers {
		respTime := "n/a"
		if w.LastResponseTime > 0 {
			respTime = fmt.Sprintf("%.2fs", w.LastResponseTime)
		}
		s += fmt.Sprintf("%d. %s (%s) - last response: %s\n", i+1, w.Name, w.Address, respTime)
	}
	s += "starting distributed sort...\n"
	return s
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, sec)
}

func center(s string, width int) string {
	if len(s) >= width {
		return s
	}
	pad := (width - len(s)) / 2
	left := ""
	for i := 0; i < pad; i++ {
		left += " "
	}
	return left + s
}

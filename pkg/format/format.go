// Package format renders test summaries for people and machines: JSON, TAP
// version 13, JUnit XML, a CI id list, and styled terminal output.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/flintmc/flint/pkg/results"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true)
)

// Write renders the summary in the named format: summary, json, tap, junit,
// or ci. verbose only affects the summary format.
func Write(w io.Writer, format string, summary *results.TestSummary, verbose bool) error {
	switch format {
	case "json":
		return WriteJSON(w, summary)
	case "tap":
		return WriteTAP(w, summary)
	case "junit":
		return WriteJUnit(w, summary)
	case "ci":
		return WriteCI(w, summary)
	case "summary", "":
		return WriteSummary(w, summary, verbose)
	}
	return fmt.Errorf("unknown format %q", format)
}

// WriteJSON emits the summary document as indented JSON.
func WriteJSON(w io.Writer, summary *results.TestSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

// WriteTAP emits TAP version 13, one test point per test, with a YAML
// diagnostic block for each failure.
func WriteTAP(w io.Writer, summary *results.TestSummary) error {
	if _, err := fmt.Fprintf(w, "TAP version 13\n1..%d\n", summary.TotalTests); err != nil {
		return err
	}
	for i, r := range summary.Results {
		if r.Success {
			if _, err := fmt.Fprintf(w, "ok %d - %s\n", i+1, r.TestName); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "not ok %d - %s\n", i+1, r.TestName); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "  ---"); err != nil {
			return err
		}
		if f := r.FirstFailure(); f != nil {
			fmt.Fprintf(w, "  message: %q\n", f.Message)
			fmt.Fprintf(w, "  tick: %d\n", f.Tick)
			if f.Position != nil {
				fmt.Fprintf(w, "  position: [%d, %d, %d]\n", f.Position[0], f.Position[1], f.Position[2])
			}
			fmt.Fprintf(w, "  expected: %q\n", f.Expected.String())
			fmt.Fprintf(w, "  actual: %q\n", f.Actual.String())
		} else if r.FailureReason != "" {
			fmt.Fprintf(w, "  message: %q\n", r.FailureReason)
		}
		if _, err := fmt.Fprintln(w, "  ..."); err != nil {
			return err
		}
	}
	return nil
}

// WriteJUnit emits a JUnit XML report. The classname of each case is the
// directory prefix of its test name (e.g. "redstone/lever_on" -> classname
// "redstone"), so CI groupers get a sensible tree.
func WriteJUnit(w io.Writer, summary *results.TestSummary) error {
	if _, err := fmt.Fprintln(w, `<?xml version="1.0" encoding="UTF-8"?>`); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w,
		"<testsuite name=\"flint\" tests=\"%d\" failures=\"%d\" time=\"%.3f\">\n",
		summary.TotalTests, summary.Failed, float64(summary.TotalTimeMs)/1000.0); err != nil {
		return err
	}
	for _, r := range summary.Results {
		classname, name := splitTestName(r.TestName)
		fmt.Fprintf(w, "  <testcase classname=\"%s\" name=\"%s\" time=\"%.3f\"",
			xmlEscape(classname), xmlEscape(name), float64(r.ExecutionTimeMs)/1000.0)
		if r.Success {
			fmt.Fprintln(w, "/>")
			continue
		}
		fmt.Fprintln(w, ">")
		message := r.FailureReason
		var body string
		if f := r.FirstFailure(); f != nil {
			message = f.Message
			body = fmt.Sprintf("tick %d: expected %s, got %s", f.Tick, f.Expected, f.Actual)
		}
		fmt.Fprintf(w, "    <failure message=\"%s\">%s</failure>\n",
			xmlEscape(message), xmlEscape(body))
		fmt.Fprintln(w, "  </testcase>")
	}
	_, err := fmt.Fprintln(w, "</testsuite>")
	return err
}

// splitTestName splits "dir/name" into (dir, name); names without a slash
// get the suite name as classname.
func splitTestName(full string) (classname, name string) {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		return full[:i], full[i+1:]
	}
	return "flint", full
}

// xmlEscape escapes the five XML special characters.
func xmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

// ciDocument is the compact machine report for CI pipelines.
type ciDocument struct {
	Passed      []string `json:"passed"`
	Failed      []string `json:"failed"`
	TotalTimeMs int64    `json:"total_time_ms"`
}

// WriteCI emits the compact pass/fail id-list JSON.
func WriteCI(w io.Writer, summary *results.TestSummary) error {
	doc := ciDocument{Passed: []string{}, Failed: []string{}, TotalTimeMs: summary.TotalTimeMs}
	for _, r := range summary.Results {
		if r.Success {
			doc.Passed = append(doc.Passed, r.TestName)
		} else {
			doc.Failed = append(doc.Failed, r.TestName)
		}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(doc)
}

// WriteSummary renders the human-readable terminal report. verbose adds a
// line per test; failures render as a tree grouped by the slash-separated
// segments of their test names.
func WriteSummary(w io.Writer, summary *results.TestSummary, verbose bool) error {
	if verbose {
		for _, r := range summary.Results {
			if r.Success {
				fmt.Fprintf(w, "%s %s %s\n",
					passStyle.Render("✓"), r.TestName,
					dimStyle.Render(fmt.Sprintf("(%d ticks, %dms)", r.TotalTicks, r.ExecutionTimeMs)))
			} else {
				fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗"), r.TestName)
			}
		}
	}
	if !summary.AllPassed() {
		writeFailureTree(w, summary.Results)
	}

	line := fmt.Sprintf("%d tests, %d passed, %d failed (%.0f%%) in %dms",
		summary.TotalTests, summary.Passed, summary.Failed,
		summary.SuccessRate()*100, summary.TotalTimeMs)
	if summary.AllPassed() {
		fmt.Fprintln(w, passStyle.Render(headerStyle.Render(line)))
	} else {
		fmt.Fprintln(w, failStyle.Render(line))
	}
	return nil
}

// treeNode groups failures by test-name path segments.
type treeNode struct {
	children map[string]*treeNode
	failure  *results.AssertFailure
	reason   string
}

func (n *treeNode) insert(segments []string) *treeNode {
	if len(segments) == 0 {
		return n
	}
	if n.children == nil {
		n.children = map[string]*treeNode{}
	}
	child, ok := n.children[segments[0]]
	if !ok {
		child = &treeNode{}
		n.children[segments[0]] = child
	}
	return child.insert(segments[1:])
}

func (n *treeNode) sortedKeys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeFailureTree renders the failing tests as a box-drawing tree, one leaf
// per test with its failure detail underneath.
func writeFailureTree(w io.Writer, rs []*results.TestResult) {
	root := &treeNode{}
	for _, r := range rs {
		if r.Success {
			continue
		}
		node := root.insert(strings.Split(r.TestName, "/"))
		if f := r.FirstFailure(); f != nil {
			node.failure = f
		} else {
			node.reason = r.FailureReason
		}
	}
	keys := root.sortedKeys()
	for i, key := range keys {
		renderTreeNode(w, key, root.children[key], "", i == len(keys)-1)
	}
}

func renderTreeNode(w io.Writer, name string, node *treeNode, prefix string, isLast bool) {
	connector, childPrefix := "├── ", "│   "
	if isLast {
		connector, childPrefix = "└── ", "    "
	}
	fmt.Fprintf(w, "%s%s%s\n", prefix, connector, name)

	if len(node.children) == 0 {
		switch {
		case node.failure != nil:
			f := node.failure
			at := ""
			if f.Position != nil {
				at = fmt.Sprintf(" @ (%d,%d,%d)", f.Position[0], f.Position[1], f.Position[2])
			}
			fmt.Fprintf(w, "%s%s└─ t%d: expected %s, got %s%s\n",
				prefix, childPrefix, f.Tick,
				passStyle.Render(f.Expected.String()),
				failStyle.Render(f.Actual.String()), at)
		case node.reason != "":
			fmt.Fprintf(w, "%s%s└─ %s\n", prefix, childPrefix, node.reason)
		}
		return
	}

	keys := node.sortedKeys()
	for i, key := range keys {
		renderTreeNode(w, key, node.children[key], prefix+childPrefix, i == len(keys)-1)
	}
}

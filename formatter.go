package tfw

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/ngs-bits/tfw/reporting"
	"github.com/ngs-bits/tfw/runner"
	"github.com/ngs-bits/tfw/types"
)

// ResultFormatter is responsible for formatting and displaying test results.
type ResultFormatter interface {
	FormatResults(result *runner.RunnerResult) error
}

// ConsoleResultFormatter renders a per test case table. It writes to its own
// writer (stderr in the CLI) so the report stream on stdout stays parseable.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults formats and displays the test results.
func (f *ConsoleResultFormatter) FormatResults(result *runner.RunnerResult) error {
	f.logger.Debug("Printing summary table", "cases", len(result.Cases))
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", reporting.FormatElapsed(result.Duration)))

	t.AppendHeader(table.Row{
		"Type", "Name", "Duration", "Tests", "Passed", "Failed", "Skipped", "Status", "Message",
	})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Type", AutoMerge: true},
		{Name: "Name", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Skipped", Align: text.AlignRight},
		{Name: "Message", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, c := range result.Cases {
		t.AppendRow(table.Row{
			"Case",
			c.Name,
			reporting.FormatElapsed(c.Duration),
			"-",
			c.Stats.Passed,
			c.Stats.Failed,
			c.Stats.Skipped,
			getResultString(c.Status),
			"",
		})
		for i, test := range c.Tests {
			prefix := "├─"
			if i == len(c.Tests)-1 {
				prefix = "└─"
			}
			t.AppendRow(table.Row{
				"",
				fmt.Sprintf("%s %s", prefix, test.Method),
				reporting.FormatElapsed(test.Duration),
				"1",
				boolToInt(test.Status == types.TestStatusPass),
				boolToInt(test.Status == types.TestStatusFail),
				boolToInt(test.Status == types.TestStatusSkip),
				getResultString(test.Status),
				firstLine(test.Message),
			})
		}
		t.AppendSeparator()
	}

	switch result.Status {
	case types.TestStatusPass:
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case types.TestStatusSkip:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		reporting.FormatElapsed(result.Duration),
		result.Stats.Total(),
		result.Stats.Passed,
		result.Stats.Failed,
		result.Stats.Skipped,
		getResultString(result.Status),
		"",
	})

	t.Render()
	_, err := fmt.Fprintln(f.out, result.String())
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// getResultString returns a string representing the test result
func getResultString(status types.TestStatus) string {
	switch status {
	case types.TestStatusPass:
		return "✓ pass"
	case types.TestStatusSkip:
		return "- skip"
	default:
		return "✗ fail"
	}
}

func firstLine(message []string) string {
	if len(message) == 0 {
		return ""
	}
	return message[0]
}

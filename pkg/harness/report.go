package harness

import (
	"fmt"
	"io"
	"time"

	"github.com/samber/lo"
	"github.com/segmentio/textio"
	"go.firedancer.io/roprobe/pkg/util"
)

type Summary struct {
	Total     int
	Passed    int
	Failed    int
	HostBugs  int
	Steps     int
	ComputeCU uint64
}

func Summarize(results []Result) Summary {
	passed := lo.CountBy(results, func(r Result) bool { return r.Passed() })
	return Summary{
		Total:    len(results),
		Passed:   passed,
		Failed:   len(results) - passed,
		HostBugs: lo.CountBy(results, func(r Result) bool { return r.HostBug() }),
		Steps:    lo.SumBy(results, func(r Result) int { return len(r.Steps) }),
		ComputeCU: lo.SumBy(results, func(r Result) uint64 {
			return lo.SumBy(r.Steps, func(s StepResult) uint64 { return s.ComputeUnits })
		}),
	}
}

// WriteReport prints one block per scenario followed by a summary line.
// With verbose set, program logs of every step are included; otherwise
// only those of failed scenarios.
func WriteReport(w io.Writer, results []Result, verbose bool) error {
	for i := range results {
		if err := writeResult(w, &results[i], verbose); err != nil {
			return err
		}
	}

	s := Summarize(results)
	_, err := fmt.Fprintf(w, "\n%d scenarios, %d passed, %d failed, %d with host bugs (%d steps, %d CU)\n",
		s.Total, s.Passed, s.Failed, s.HostBugs, s.Steps, s.ComputeCU)
	return err
}

func writeResult(w io.Writer, r *Result, verbose bool) error {
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (%s)\n", status, r.Scenario.Name, r.Duration.Round(time.Microsecond))
	if r.Scenario.Description != "" {
		fmt.Fprintf(w, "     %s\n", r.Scenario.Description)
	}
	if !r.Subject.IsZero() {
		fmt.Fprintf(w, "     subject %s\n", r.Subject)
	}
	if r.Err != nil {
		fmt.Fprintf(w, "     error: %s\n", r.Err)
	}

	for i := range r.Steps {
		step := &r.Steps[i]
		mark := " "
		if !step.Matched() {
			mark = "!"
		}
		fmt.Fprintf(w, "   %s step %d %-16s expect %-16s got %-16s byte %s -> %s  hash %s -> %s\n",
			mark, i, step.Step, step.Step.Expect, step.Outcome,
			fmtByte(step.PreByte), fmtByte(step.PostByte),
			util.ShortHash(step.PreHash), util.ShortHash(step.PostHash))
		if step.Err != nil {
			fmt.Fprintf(w, "       error: %s\n", step.Err)
		}
		if step.HostBug {
			fmt.Fprintf(w, "       host bug: read-only subject modified and committed\n")
		}
		if verbose || !r.Passed() {
			pw := textio.NewPrefixWriter(w, "       | ")
			for _, line := range step.Logs {
				fmt.Fprintln(pw, line)
			}
			if err := pw.Flush(); err != nil {
				return err
			}
		}
	}

	if want := r.Scenario.FinalByte; want != nil && (r.FinalByte == nil || *r.FinalByte != *want) {
		fmt.Fprintf(w, "   ! final byte %s, expected %d\n", fmtByte(r.FinalByte), *want)
	}
	return nil
}

func fmtByte(b *byte) string {
	if b == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *b)
}

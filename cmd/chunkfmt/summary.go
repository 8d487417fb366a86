package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/pyropy/chunkfmt/core/converter"
)

func printSummary(s *converter.Summary) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	status := green("DONE")
	switch {
	case s.Failures[converter.CategoryPrecondition] > 0:
		status = red("FAILED")
	case s.Canceled:
		status = yellow("CANCELED")
	}

	fmt.Println(bold("chunkfmt"), s.Direction, status, "run", s.RunID)
	fmt.Printf("  dimension       %s\n", s.Dimension)
	fmt.Printf("  units           %d / %d (%d%%)\n", s.Done, s.Total, converter.Percentage(s.Done, s.Total))
	fmt.Printf("  succeeded       %s\n", green(s.Succeeded))
	fmt.Printf("  chunks written  %d\n", s.ChunksWritten)
	if s.SkippedFiles > 0 {
		fmt.Printf("  skipped files   %s\n", yellow(s.SkippedFiles))
	}

	for _, c := range converter.Categories {
		if n := s.Failures[c]; n > 0 {
			fmt.Printf("  %-22s %s\n", c, red(n))
		}
	}

	fmt.Printf("  elapsed         %s\n", s.Elapsed.Round(time.Millisecond))
}

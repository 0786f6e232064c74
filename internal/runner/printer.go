package runner

import (
	"fmt"
	"io"
)

// PrintPreExecution prints script details before execution
func PrintPreExecution(w io.Writer, config *Config) {
	header := "Robot Script Execution Details"
	if config.DryRun {
		header = "Robot Script Execution Details (DRY RUN)"
	}

	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Script:   %s\n", config.Script)
	if config.ExpectedFile != "" {
		fmt.Fprintf(w, "Expected: %s\n", config.ExpectedFile)
	}
	if config.ActualFile != "" {
		fmt.Fprintf(w, "Actual:   %s\n", config.ActualFile)
	}
	if config.DiffFile != "" {
		fmt.Fprintf(w, "Diff:     %s\n", config.DiffFile)
	}
	if config.Timeout > 0 {
		fmt.Fprintf(w, "Timeout:  %s\n", config.Timeout)
	}
	fmt.Fprintln(w, "----------------------------------------")

	if config.DryRun {
		fmt.Fprintln(w, "[DRY RUN] Script would be executed here")
		fmt.Fprintln(w, "----------------------------------------")
	}
}

// PrintPostExecution prints the outcome after the script finished
func PrintPostExecution(w io.Writer, result *Result, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "Execution Results (DRY RUN - Simulated):")
	} else {
		fmt.Fprintln(w, "Execution Results:")
	}
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "Status:         %s\n", result.Status)
	fmt.Fprintf(w, "Execution Time: %d ms\n", result.ExecutionTime.Milliseconds())
	if result.Err != nil {
		fmt.Fprintf(w, "Error:          %v\n", result.Err)
	}
	if result.Diff != "" {
		fmt.Fprintln(w, "----------------------------------------")
		fmt.Fprint(w, result.Diff)
	}
	fmt.Fprintln(w, "========================================")
}

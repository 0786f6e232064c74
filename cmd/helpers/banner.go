package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
)

const (
	heavyRule = "========================================"
	lightRule = "----------------------------------------"
)

func banner(w io.Writer, title string, dryRun bool) {
	if dryRun {
		title += " (DRY RUN)"
	}
	fmt.Fprintln(w, heavyRule)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, heavyRule)
}

// PrintContextInfo prints the context attached to results. Objects are
// listed one key per line in key order.
func PrintContextInfo(w io.Writer, context any, dryRun bool) {
	if context == nil {
		return
	}
	banner(w, "Result Context", dryRun)

	if m, ok := context.(map[string]any); ok {
		for _, key := range slices.Sorted(maps.Keys(m)) {
			fmt.Fprintf(w, "%-16s%s\n", key+":", compact(m[key]))
		}
	} else {
		fmt.Fprintln(w, compact(context))
	}
	fmt.Fprintln(w, lightRule)
}

func compact(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

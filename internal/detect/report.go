package detect

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// WriteReport prints detection results grouped by layout kind, largest
// group first, with the first sample match of each file.
func WriteReport(w io.Writer, results map[string]Signature) error {
	byKind := make(map[Kind][]string)
	for path, sig := range results {
		byKind[sig.Kind] = append(byKind[sig.Kind], path)
	}

	kinds := make([]Kind, 0, len(byKind))
	for k := range byKind {
		kinds = append(kinds, k)
		sort.Strings(byKind[k])
	}
	sort.Slice(kinds, func(i, j int) bool {
		if len(byKind[kinds[i]]) != len(byKind[kinds[j]]) {
			return len(byKind[kinds[i]]) > len(byKind[kinds[j]])
		}
		return kinds[i] < kinds[j]
	})

	var b strings.Builder
	b.WriteString("PDF FORMAT DETECTION REPORT\n")
	for _, k := range kinds {
		fmt.Fprintf(&b, "\n%s (%d files)\n", strings.ToUpper(string(k)), len(byKind[k]))
		for _, path := range byKind[k] {
			sig := results[path]
			fmt.Fprintf(&b, "  %s\n", filepath.Base(path))
			fmt.Fprintf(&b, "    Confidence: %.0f%%\n", sig.Confidence*100)
			if len(sig.SampleMatches) > 0 {
				fmt.Fprintf(&b, "    Samples: %s\n", sig.SampleMatches[0])
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

package slack

import (
	"strconv"
	"strings"
)

// ItemizeList renders items as a dash list, one item per line.
func ItemizeList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	return "- " + strings.Join(items, "\n- ")
}

// EnumerateList renders items as "[i] item" lines, starting at 0.
func EnumerateList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		b.WriteString("[" + strconv.Itoa(i) + "] " + item + "\n")
	}
	return b.String()
}

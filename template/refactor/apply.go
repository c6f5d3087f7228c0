package refactor

import "sort"

// Apply splices a batch of edits into text. All offsets reference the
// original buffer, so edits are applied back to front; an insertion at
// the same offset as a replacement lands before the replacement text.
func Apply(text string, edits []Edit) string {
	sorted := append([]Edit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start > sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})
	for _, e := range sorted {
		start, end := e.Start, e.End
		if start < 0 {
			start = 0
		}
		if end > len(text) {
			end = len(text)
		}
		if end < start {
			end = start
		}
		text = text[:start] + e.NewText + text[end:]
	}
	return text
}

package search

import (
	"bytes"
	"encoding/json"
	"strings"
)

const fence = "```"

// StripFence removes a surrounding Markdown code fence. The opening line,
// including any language tag, is dropped; the last line is dropped only if
// it is also a fence. Text without a leading fence is only trimmed.
func StripFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, fence) {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.HasPrefix(lines[n-1], fence) {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Reconcile interprets model text. Valid JSON, once any fence is removed,
// is returned as-is with Kind parsed; anything else becomes a fallback
// object holding the untouched text.
func Reconcile(text string) Result {
	cleaned := StripFence(text)
	if json.Valid([]byte(cleaned)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(cleaned)); err == nil {
			return Result{Kind: KindParsed, Value: buf.Bytes()}
		}
	}
	return newResult(KindFallback, FallbackObject{Result: text, Warning: FallbackWarning})
}

package protocol

import "strings"

// Reasoning delimiters emitted by thinking-capable local models as a
// non-content preamble before the visible completion.
const (
	thinkBegin = "<think>"
	thinkEnd   = "</think>"
)

// StripReasoning removes a leading reasoning segment from a model completion.
// It is a pure text transform applied unconditionally before any marker
// detection: everything up to and including the closing think tag is dropped.
// Text without a closing tag is returned unchanged apart from an opening tag
// at the very start, which is removed together with the dangling segment.
func StripReasoning(text string) string {
	if idx := strings.Index(text, thinkEnd); idx >= 0 {
		return text[idx+len(thinkEnd):]
	}
	if strings.HasPrefix(strings.TrimSpace(text), thinkBegin) {
		// Opening tag without a close: the whole segment is preamble.
		return ""
	}
	return text
}

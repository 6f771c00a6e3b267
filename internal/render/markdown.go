// Package render formats articles into Telegram MarkdownV2 messages.
package render

import "strings"

// markdownV2Special lists every character MarkdownV2 requires escaping for,
// per the Telegram Bot API formatting rules.
const markdownV2Special = "\\_*[]()~`>#+-=|{}.!"

// EscapeMarkdownV2 escapes all MarkdownV2 special characters in text so it
// can be embedded into a formatted message verbatim.
func EscapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		if r < 128 && strings.ContainsRune(markdownV2Special, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EscapeMarkdownV2Code escapes text for use inside an inline code span.
// Code entities render every other backslash literally, so only backtick
// and backslash are escaped here.
func EscapeMarkdownV2Code(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	return strings.ReplaceAll(text, "`", "\\`")
}

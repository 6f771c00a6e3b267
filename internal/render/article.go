package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arxiv-notifier/internal/domain/entity"
)

// Options control how much of an article the rendered message shows.
type Options struct {
	// MaxAuthors caps the author list; the remainder collapses to "et al.".
	MaxAuthors int

	// MaxAbstract caps the abstract length in bytes. Truncation prefers a
	// sentence boundary near the cap over a hard cut.
	MaxAbstract int
}

// DefaultOptions mirrors what a notification message shows by default.
func DefaultOptions() Options {
	return Options{
		MaxAuthors:  3,
		MaxAbstract: 700,
	}
}

// Article renders one article as a MarkdownV2 message body.
// number, when positive, prefixes the title for enumerated search results.
func Article(a *entity.Article, number int, opts Options) string {
	var b strings.Builder

	if number > 0 {
		fmt.Fprintf(&b, "*%d\\.* ", number)
	}

	fmt.Fprintf(&b, "*%s*\n\n", EscapeMarkdownV2(a.Title))
	fmt.Fprintf(&b, "👥 *Authors:* %s\n", EscapeMarkdownV2(formatAuthors(a.Authors, opts.MaxAuthors)))
	if !a.PublishedAt.IsZero() {
		fmt.Fprintf(&b, "📅 *Published:* %s\n", EscapeMarkdownV2(a.PublishedAt.Format("2006-01-02")))
	}
	fmt.Fprintf(&b, "🏷️ *Category:* %s\n\n", EscapeMarkdownV2(a.PrimaryCategory))
	fmt.Fprintf(&b, "📄 *Abstract:* %s\n\n", EscapeMarkdownV2(truncateAbstract(a.Abstract, opts.MaxAbstract)))
	fmt.Fprintf(&b, "🔗 [Read Paper](%s)", a.Link)

	return b.String()
}

// Alert renders the scheduled-notification message: an alert header naming
// the matched topic, then the article body.
func Alert(topicLabel string, a *entity.Article, opts Options) string {
	var b strings.Builder

	b.WriteString("🔔 *New arXiv Paper Alert\\!*\n\n")
	fmt.Fprintf(&b, "📍 *Topic:* %s\n\n", EscapeMarkdownV2(topicLabel))
	b.WriteString(Article(a, 0, opts))

	return b.String()
}

// formatAuthors joins up to max author names, collapsing the rest into an
// "et al." suffix that reports the full count.
func formatAuthors(authors []string, max int) string {
	if max <= 0 || len(authors) <= max {
		return strings.Join(authors, ", ")
	}
	return fmt.Sprintf("%s et al. (%d authors)", strings.Join(authors[:max], ", "), len(authors))
}

// truncateAbstract cuts the abstract near max bytes, preferring the last
// sentence boundary when one falls close enough to the cap. The hard cut
// backs off to a rune boundary so a multi-byte character is never split.
func truncateAbstract(abstract string, max int) string {
	if max <= 0 || len(abstract) <= max {
		return abstract
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(abstract[cut]) {
		cut--
	}

	breakPoint := strings.LastIndex(abstract[:cut], ". ")
	if breakPoint > max-100 {
		return abstract[:breakPoint+1]
	}
	return abstract[:cut] + "..."
}

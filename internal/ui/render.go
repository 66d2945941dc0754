package ui

import (
	"html"
	"regexp"
	"strings"

	"github.com/five82/codecks-bot/internal/bot"
)

// replyTag matches the only markup the router emits.
var replyTag = regexp.MustCompile(`</?(b|pre)>`)

// renderReply turns a reply into styled terminal text. HTML replies have
// their <b> and <pre> spans styled and entities decoded.
func renderReply(reply bot.Reply, styles Styles) string {
	if !reply.HTML {
		return styles.Text.Render(reply.Text)
	}

	var (
		b    strings.Builder
		bold bool
		pre  bool
		last int
	)
	emit := func(chunk string) {
		if chunk == "" {
			return
		}
		text := html.UnescapeString(chunk)
		switch {
		case bold:
			b.WriteString(styles.Title.Render(text))
		case pre:
			b.WriteString(styles.Pre.Render(text))
		default:
			b.WriteString(styles.Text.Render(text))
		}
	}

	for _, loc := range replyTag.FindAllStringSubmatchIndex(reply.Text, -1) {
		emit(reply.Text[last:loc[0]])
		closing := reply.Text[loc[0]+1] == '/'
		switch reply.Text[loc[2]:loc[3]] {
		case "b":
			bold = !closing
		case "pre":
			pre = !closing
		}
		last = loc[1]
	}
	emit(reply.Text[last:])
	return b.String()
}

// renderReplies joins every reply of one command, separated by a rule.
func renderReplies(replies []bot.Reply, styles Styles, width int) string {
	if width < 1 {
		width = 1
	}
	rule := styles.FaintText.Render(strings.Repeat("─", width))
	parts := make([]string, 0, len(replies))
	for _, reply := range replies {
		parts = append(parts, renderReply(reply, styles))
	}
	return strings.Join(parts, "\n"+rule+"\n")
}

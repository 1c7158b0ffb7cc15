package dispatch

import (
	"html"
	"strings"
)

// announcementBody renders the product-update email. Title, content and
// highlights come straight from the admin request, so everything is escaped
// before interpolation.
func announcementBody(title, content string, highlights []string) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#0b0b0f;font-family:Arial,Helvetica,sans-serif;color:#e8e8ee;">
  <div style="max-width:560px;margin:0 auto;padding:32px 24px;">
`)
	b.WriteString(`    <h1 style="font-size:22px;margin:0 0 16px;">`)
	b.WriteString(html.EscapeString(title))
	b.WriteString("</h1>\n")

	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString(`    <p style="font-size:15px;line-height:1.6;margin:0 0 16px;">`)
		b.WriteString(html.EscapeString(para))
		b.WriteString("</p>\n")
	}

	if len(highlights) > 0 {
		b.WriteString(`    <ul style="padding-left:20px;margin:0 0 24px;">` + "\n")
		for _, h := range highlights {
			b.WriteString(`      <li style="font-size:15px;line-height:1.8;">`)
			b.WriteString(html.EscapeString(h))
			b.WriteString("</li>\n")
		}
		b.WriteString("    </ul>\n")
	}

	b.WriteString(`    <p style="font-size:12px;color:#8a8a96;margin:0;">
      You received this email because you are on the waitlist.
    </p>
  </div>
</body>
</html>`)
	return b.String()
}

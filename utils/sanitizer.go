package utils

import (
	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy strips all markup
	StrictPolicy *bluemonday.Policy
	// MailPolicy keeps the rich-text subset we accept in message bodies
	MailPolicy *bluemonday.Policy
)

func init() {
	StrictPolicy = bluemonday.StrictPolicy()

	MailPolicy = bluemonday.UGCPolicy()

	// Additional safe elements commonly seen in mail bodies
	MailPolicy.AllowElements("p", "br", "div", "span", "h1", "h2", "h3", "h4", "h5", "h6")
	MailPolicy.AllowElements("strong", "em", "u", "s", "code", "pre")
	MailPolicy.AllowElements("ul", "ol", "li")
	MailPolicy.AllowElements("blockquote")
	MailPolicy.AllowElements("a", "img")
	MailPolicy.AllowElements("table", "thead", "tbody", "tr", "th", "td")

	MailPolicy.AllowAttrs("href").OnElements("a")
	MailPolicy.AllowAttrs("src", "alt", "title", "width", "height").OnElements("img")
	MailPolicy.AllowAttrs("style").OnElements("span", "div", "p")

	MailPolicy.RequireParseableURLs(true)
	MailPolicy.AllowURLSchemes("http", "https", "mailto")
}

// SanitizeHTML sanitizes HTML content using the mail policy
func SanitizeHTML(html string) string {
	return MailPolicy.Sanitize(html)
}

// StripHTML removes all HTML tags from content
func StripHTML(html string) string {
	return StrictPolicy.Sanitize(html)
}

package links

import (
	"regexp"
	"strings"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script.*?</script>`)
	styleBlock  = regexp.MustCompile(`(?is)<style.*?</style>`)
	anyTag      = regexp.MustCompile(`<[^>]+>`)
	whitespace  = regexp.MustCompile(`\s+`)

	titleTag   = regexp.MustCompile(`(?is)<title[^>]*>(.{1,400}?)</title>`)
	headingTag = regexp.MustCompile(`(?is)<h1[^>]*>(.{1,500}?)</h1>`)

	entities = strings.NewReplacer(
		"&nbsp;", " ", "&NBSP;", " ",
		"&amp;", "&", "&AMP;", "&",
		"&quot;", `"`, "&QUOT;", `"`,
		"&#39;", "'",
	)
)

// Extracted is the text pulled out of one fetched page
type Extracted struct {
	Title       string
	Description string
	Heading     string
	Snippet     string
}

// CompactText strips scripts, styles and tags, decodes the common entities
// and collapses whitespace.
func CompactText(s string) string {
	s = scriptBlock.ReplaceAllString(s, " ")
	s = styleBlock.ReplaceAllString(s, " ")
	s = anyTag.ReplaceAllString(s, " ")
	s = entities.Replace(s)
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// metaContent returns the content of <meta attr="value" content="..."> in
// either attribute order.
func metaContent(html, attr, value string) string {
	quoted := regexp.QuoteMeta(value)
	patterns := []*regexp.Regexp{
		regexp.MustCompile(`(?i)<meta[^>]*` + attr + `=["']` + quoted + `["'][^>]*content=["']([^"']{1,600})["'][^>]*>`),
		regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']{1,600})["'][^>]*` + attr + `=["']` + quoted + `["'][^>]*>`),
	}
	for _, p := range patterns {
		if m := p.FindStringSubmatch(html); m != nil {
			return CompactText(m[1])
		}
	}
	return ""
}

// Extract reduces raw markup to a title, description, first heading and a
// body snippet of at most snippetChars characters.
func Extract(html string, snippetChars int) Extracted {
	var out Extracted
	if m := titleTag.FindStringSubmatch(html); m != nil {
		out.Title = CompactText(m[1])
	}

	out.Description = metaContent(html, "property", "og:description")
	if out.Description == "" {
		out.Description = metaContent(html, "name", "description")
	}
	if out.Description == "" {
		out.Description = metaContent(html, "property", "twitter:description")
	}

	if m := headingTag.FindStringSubmatch(html); m != nil {
		out.Heading = CompactText(m[1])
	}

	out.Snippet = truncate(CompactText(html), snippetChars)
	return out
}

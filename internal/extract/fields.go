// Package extract pulls application fields out of Engage notification mails.
// Everything here is pure and tolerates empty input.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/k3a/html2text"
)

var (
	reTitle    = regexp.MustCompile(`【職種名[：:](.+?)】`)
	reApplyID  = regexp.MustCompile(`apply_id=([A-Za-z0-9+/=]+)`)
	reApplyURL = regexp.MustCompile(`(https://en-gage\.net/company/manage/message/\?apply_id=[A-Za-z0-9+/=]+)`)

	reTags   = regexp.MustCompile(`<[^>]+>`)
	reNBSP   = regexp.MustCompile(`&nbsp;`)
	reSpaces = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// JobTitle returns the job name from a subject such as
// 【要対応】新着応募のお知らせ【職種名：画像データのチェック事務スタッフ】.
func JobTitle(subject string) string {
	m := reTitle.FindStringSubmatch(subject)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ApplyID returns the first apply_id token in body.
func ApplyID(body string) string {
	m := reApplyID.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ApplyURL returns the first Engage message-detail URL, trying the text part
// before the HTML part.
func ApplyURL(text, htmlBody string) string {
	if m := reApplyURL.FindString(text); m != "" {
		return m
	}
	if htmlBody == "" {
		return ""
	}
	if u := applyURLFromAnchors(htmlBody); u != "" {
		return u
	}
	return reApplyURL.FindString(htmlBody)
}

// applyURLFromAnchors reads hrefs through an HTML parser so entity-encoded
// query strings (&amp;apply_id=) still match.
func applyURLFromAnchors(htmlBody string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlBody))
	if err != nil {
		return ""
	}
	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := reApplyURL.FindString(href); m != "" {
			found = m
			return false
		}
		return true
	})
	return found
}

// Location returns the workplace snippet that follows a 勤務地 label, e.g.
// 東京都渋谷区. The label must be followed directly by a prefecture name.
func Location(body string) string {
	if body == "" {
		return ""
	}
	text := stripMarkup(body)
	text = reSpaces.ReplaceAllString(text, " ")

	m := reLocation.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// Prefecture finds the workplace prefecture. A name within 30 characters after
// a 勤務地 label wins; otherwise any name in the text. Longer names are always
// tried first so 東京都 is never read as 京都府 in 東京都府中市.
func Prefecture(body string) (string, bool) {
	if body == "" {
		return "", false
	}
	text := stripMarkup(body)

	for i, re := range reNearLabel {
		if re.MatchString(text) {
			return longestFirst[i], true
		}
	}
	for _, p := range longestFirst {
		if strings.Contains(text, p) {
			return p, true
		}
	}
	return "", false
}

// BodyText returns the plain-text part, or the HTML part rendered as text
// when the mail has no plain part.
func BodyText(text, htmlBody string) string {
	if strings.TrimSpace(text) != "" {
		return text
	}
	if htmlBody == "" {
		return ""
	}
	return strings.TrimSpace(html2text.HTML2Text(htmlBody))
}

// stripMarkup drops tags and &nbsp; but keeps line structure.
func stripMarkup(s string) string {
	s = reTags.ReplaceAllString(s, " ")
	return reNBSP.ReplaceAllString(s, " ")
}

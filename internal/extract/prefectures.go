package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

// longestFirst orders names so a shorter name never shadows a longer one.
// Ties keep the canonical north-to-south order.
var longestFirst = func() []string {
	out := append([]string(nil), prefectures...)
	sort.SliceStable(out, func(i, j int) bool {
		return utf8.RuneCountInString(out[i]) > utf8.RuneCountInString(out[j])
	})
	return out
}()

var (
	// Go's \s is ASCII only; mail bodies use U+3000 between fields.
	reLocation = regexp.MustCompile(`勤務地[：:\s\p{Zs}]*((?:` + alternation(longestFirst) + `)[^\s\p{Zs}]*)`)

	reNearLabel = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(longestFirst))
		for i, p := range longestFirst {
			out[i] = regexp.MustCompile(`勤務地[^\n]{0,30}` + regexp.QuoteMeta(p))
		}
		return out
	}()
)

// Prefectures returns the 47 prefecture names in canonical order.
func Prefectures() []string {
	return append([]string(nil), prefectures...)
}

// IsPrefecture reports whether s is exactly one of the 47 names.
func IsPrefecture(s string) bool {
	for _, p := range prefectures {
		if p == s {
			return true
		}
	}
	return false
}

func alternation(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return strings.Join(quoted, "|")
}

package notify

import (
	"strings"

	"engage-engine/internal/domain"
)

const timeLayout = "2006/01/02 15:04"

// location prefers the workplace text and falls back to the prefecture.
func location(rec domain.ApplicationRecord) string {
	if rec.LocationText != "" {
		return rec.LocationText
	}
	return rec.Prefecture
}

func receivedAt(rec domain.ApplicationRecord) string {
	if rec.ReceivedAt.IsZero() {
		return ""
	}
	return domain.ToJST(rec.ReceivedAt).Format(timeLayout)
}

// ChatworkMessage renders rec with Chatwork's [info] markup.
func ChatworkMessage(rec domain.ApplicationRecord, instant bool) string {
	label := ""
	if instant {
		label = "【即時通知】"
	}

	var b strings.Builder
	b.WriteString("[info][title]" + rec.SourceAccount + "：🎉 Engage新規応募" + label + "[/title]\n")
	b.WriteString("・応募日時：" + receivedAt(rec) + "\n")
	b.WriteString("・応募職種：" + rec.JobTitle + "\n")
	if len(rec.JobTypes) > 0 {
		b.WriteString("・職種：" + strings.Join(rec.JobTypes, ", ") + "\n")
	}
	if rec.CompanyName != "" {
		b.WriteString("・応募先企業名：" + rec.CompanyName + "\n")
	}
	if loc := location(rec); loc != "" {
		b.WriteString("・勤務地：" + loc + "\n")
	}
	if rec.ApplyURL != "" {
		b.WriteString("・確認URL：" + rec.ApplyURL + "\n")
	}
	b.WriteString("[/info]")
	return b.String()
}

// LineMessage renders rec as plain text for the instant group.
func LineMessage(rec domain.ApplicationRecord) string {
	lines := []string{
		"🎉 " + rec.SourceAccount + "：Engage新規応募【即時通知】",
		"━━━━━━━━━━━━━━",
		"応募職種: " + rec.JobTitle,
	}
	if len(rec.JobTypes) > 0 {
		lines = append(lines, "職種: "+strings.Join(rec.JobTypes, ", "))
	}
	if rec.CompanyName != "" {
		lines = append(lines, "応募先企業名: "+rec.CompanyName)
	}
	if loc := location(rec); loc != "" {
		lines = append(lines, "勤務地: "+loc)
	}
	lines = append(lines, "応募日時: "+receivedAt(rec))
	if rec.ApplyURL != "" {
		lines = append(lines, "確認URL: "+rec.ApplyURL)
	}
	return strings.Join(lines, "\n")
}

package domain

// Column headers of the applicant sheet. The sheet's header row decides the
// order; these are only the names the engine knows how to fill.
const (
	ColReceivedAt   = "応募日時"
	ColSender       = "メールアドレス"
	ColName         = "名前"
	ColJobTypes     = "職種"
	ColFacility     = "施設形態"
	ColFacilityWord = "施設形態詳細"
	ColPrefecture   = "都道府県"
	ColLocation     = "勤務地"
	ColRegion       = "エリア"
	ColTitle        = "タイトル"
	ColClient       = "クライアント"
	ColMedia        = "媒体"
	ColCompany      = "応募先企業名"
	ColApplyID      = "応募ID"
	ColApplyURL     = "応募URL"
	ColMailStatus   = "メール送信状況"
)

// DefaultHeader is used when a fresh table has to be created.
var DefaultHeader = []string{
	ColReceivedAt, ColSender, ColName, ColJobTypes, ColFacility, ColFacilityWord,
	ColPrefecture, ColLocation, ColRegion, ColTitle, ColClient, ColMedia,
	ColCompany, ColApplyID, ColApplyURL, ColMailStatus,
}

// TimeLayout is how 応募日時 is written and how dedup pair keys are built.
const TimeLayout = "2006/01/02 15:04:05"

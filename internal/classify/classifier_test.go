package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"engage-engine/internal/domain"
)

var jobTable = domain.MappingTable{
	{Category: "介護職", Keywords: []string{"介護", "ヘルパー"}},
	{Category: "事務職", Keywords: []string{"事務", "受付"}},
	{Category: "看護師", Keywords: []string{"看護"}},
	{Category: "空", Keywords: []string{""}},
}

var facilityTable = domain.MappingTable{
	{Category: "病院", Keywords: []string{"病院", "クリニック"}},
	{Category: "介護施設", Keywords: []string{"特養", "老人ホーム", "介護"}},
	{Category: "保育園", Keywords: []string{"保育"}},
}

func TestJobTypes(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  []string
	}{
		{"single", "画像データのチェック事務スタッフ", []string{"事務職"}},
		{"multiple", "介護施設の受付・事務", []string{"介護職", "事務職"}},
		{"none", "エンジニア", []string{}},
		{"empty title", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, JobTypes(tt.title, jobTable))
		})
	}
}

func TestJobTypesNoDuplicates(t *testing.T) {
	table := domain.MappingTable{
		{Category: "事務職", Keywords: []string{"事務"}},
		{Category: "事務職", Keywords: []string{"受付"}},
	}
	assert.Equal(t, []string{"事務職"}, JobTypes("受付事務", table))
}

func TestFacilityFirstMatchWins(t *testing.T) {
	// The title hits both 病院 and 介護施設; table order decides.
	cat, kw := Facility("病院併設の介護スタッフ", facilityTable)
	assert.Equal(t, "病院", cat)
	assert.Equal(t, "病院", kw)

	reordered := domain.MappingTable{facilityTable[1], facilityTable[0]}
	cat, kw = Facility("病院併設の介護スタッフ", reordered)
	assert.Equal(t, "介護施設", cat)
	assert.Equal(t, "介護", kw)
}

func TestFacilityFirstKeyword(t *testing.T) {
	cat, kw := Facility("特養老人ホームの夜勤", facilityTable)
	assert.Equal(t, "介護施設", cat)
	assert.Equal(t, "特養", kw)
}

func TestFacilityNoMatch(t *testing.T) {
	cat, kw := Facility("エンジニア", facilityTable)
	assert.Empty(t, cat)
	assert.Empty(t, kw)

	cat, kw = Facility("anything", nil)
	assert.Empty(t, cat)
	assert.Empty(t, kw)
}

func TestMappingFromRows(t *testing.T) {
	rows := []map[string]string{
		{"職業カテゴリー": "介護職", "判別ワード": "介護, ヘルパー"},
		{"職業カテゴリー": "事務職", "判別ワード": "事務"},
		{"職業カテゴリー": "介護職", "判別ワード": "ケア,"},
		{"職業カテゴリー": "", "判別ワード": "orphan"},
		{"職業カテゴリー": "空", "判別ワード": " , "},
	}

	table := MappingFromRows(rows, "職業カテゴリー", "判別ワード")

	assert.Equal(t, domain.MappingTable{
		{Category: "介護職", Keywords: []string{"介護", "ヘルパー", "ケア"}},
		{Category: "事務職", Keywords: []string{"事務"}},
	}, table)
}

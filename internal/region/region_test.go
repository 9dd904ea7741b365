package region

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	tests := []struct {
		pref string
		want string
	}{
		{"東京都", "関東"},
		{"北海道", "北海道"},
		{"京都府", "関西"},
		{"沖縄県", "九州"},
		{"愛知県", "中部"},
		{"高知県", "四国"},
		{"", ""},
		{"東京", ""},
	}
	for _, tt := range tests {
		t.Run(tt.pref, func(t *testing.T) {
			assert.Equal(t, tt.want, Of(tt.pref))
		})
	}
}

func TestOfCoversAllPrefectures(t *testing.T) {
	assert.Len(t, byPrefecture, 47)
	for pref, area := range byPrefecture {
		assert.NotEmpty(t, area, pref)
	}
}

package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateEmojiContent(t *testing.T) {
	cases := []struct {
		name    string
		content string
		valid   bool
	}{
		{"простой смайл", "😀", true},
		{"несколько эмодзи", "😀🎉🚀", true},
		{"сердце с variation selector", "❤️", true},
		{"тон кожи", "👍🏽", true},
		{"ZWJ-последовательность", "👨‍👩‍👧", true},
		{"флаг", "🇺🇦", true},
		{"keycap", "5️⃣", true},
		{"keycap без variation selector", "#⃣", true},
		{"keycap с висящей цифрой", "5️⃣3", false},
		{"цифра перед эмодзи", "3😀", false},
		{"обычный текст", "hello", false},
		{"текст вперемешку с эмодзи", "hi 😀", false},
		{"эмодзи с пробелом", "😀 😀", false},
		{"пустая строка", "", false},
		{"цифры без keycap", "123", false},
		{"одинокий joiner", "️", false},
		{"280 эмодзи", strings.Repeat("😀", 280), true},
		{"281 эмодзи", strings.Repeat("😀", 281), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEmojiContent(tc.content)
			if tc.valid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				require.Equal(t, "content", verr.Field)
			}
		})
	}
}

package services

import "unicode/utf8"

const (
	MinContentLength = 1
	MaxContentLength = 280
)

// emojiRanges - диапазоны скалярных значений, из которых может состоять
// контент поста. Покрывают пиктограммы, символы-эмодзи и региональные
// индикаторы (флаги).
var emojiRanges = [][2]rune{
	{0x1F300, 0x1FAFF}, // пиктограммы, смайлы, транспорт, модификаторы тона кожи
	{0x1F1E6, 0x1F1FF}, // региональные индикаторы
	{0x2600, 0x27BF},   // misc symbols + dingbats
	{0x2300, 0x23FF},   // misc technical (часы, песочные часы)
	{0x25A0, 0x25FF},   // геометрические фигуры
	{0x2B00, 0x2BFF},   // стрелки и звезды
	{0x2190, 0x21FF},   // стрелки
	{0x1F000, 0x1F0FF}, // маджонг, домино, карты
}

// единичные кодпоинты вне диапазонов
var emojiSingles = map[rune]bool{
	0x00A9: true, // ©
	0x00AE: true, // ®
	0x2122: true, // ™
	0x2139: true, // ℹ
	0x3030: true,
	0x303D: true,
	0x3297: true,
	0x3299: true,
}

// соединительная механика последовательностей: сами по себе контентом
// не считаются
var emojiJoiners = map[rune]bool{
	0x200D:  true, // zero-width joiner
	0xFE0E:  true, // variation selector-15
	0xFE0F:  true, // variation selector-16
	0x20E3:  true, // combining enclosing keycap
	0x1F3FB: true, 0x1F3FC: true, 0x1F3FD: true, 0x1F3FE: true, 0x1F3FF: true,
}

// базы keycap-последовательностей (#️⃣, 5️⃣ и т.п.) - допустимы только
// вместе с combining keycap
var keycapBases = map[rune]bool{
	'#': true, '*': true,
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
}

func isEmojiRune(r rune) bool {
	for _, rng := range emojiRanges {
		if r >= rng[0] && r <= rng[1] {
			return true
		}
	}
	return emojiSingles[r]
}

// ValidateEmojiContent проверяет контент поста: 1-280 рун, только эмодзи.
// Пробелы и любой текст запрещены.
func ValidateEmojiContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n < MinContentLength {
		return &ValidationError{Field: "content", Message: "must not be empty"}
	}
	if n > MaxContentLength {
		return &ValidationError{Field: "content", Message: "must be at most 280 characters"}
	}

	runes := []rune(content)
	hasBase := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case keycapBases[r]:
			// база keycap (#, *, цифра) обязана сразу продолжаться
			// комбинирующей последовательностью, иначе это обычный текст
			j := i + 1
			if j < len(runes) && runes[j] == 0xFE0F {
				j++
			}
			if j >= len(runes) || runes[j] != 0x20E3 {
				return &ValidationError{Field: "content", Message: "only emojis allowed"}
			}
			i = j
			hasBase = true
		case isEmojiRune(r):
			if !emojiJoiners[r] {
				hasBase = true
			}
		case emojiJoiners[r]:
			// соединительная механика сама по себе контентом не считается
		default:
			return &ValidationError{Field: "content", Message: "only emojis allowed"}
		}
	}

	if !hasBase {
		return &ValidationError{Field: "content", Message: "only emojis allowed"}
	}
	return nil
}

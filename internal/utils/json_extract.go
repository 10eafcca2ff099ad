package utils

import (
	"regexp"
	"strings"
)

// Содержимое блока ```json ... ```: (?s) разрешает '.' совпадать с переносом строки,
// язык после открывающих кавычек опционален, группа 1 нежадная.
var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:\w+)?\s*(.*?)\s*` + "```")

// ExtractJSONContent убирает markdown-обертку вокруг JSON.
// Понимает полный блок ```json ... ```, голые ``` и обрезанные обертки,
// у которых есть только открывающая или только закрывающая часть.
func ExtractJSONContent(rawText string) string {
	cleaned := strings.TrimSpace(rawText)

	if matches := jsonBlockRegex.FindStringSubmatch(cleaned); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	// Полного блока нет, чистим неполную обертку.
	if strings.HasSuffix(cleaned, "```") {
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}
	if strings.HasPrefix(cleaned, "```") {
		if firstNewline := strings.Index(cleaned, "\n"); firstNewline != -1 {
			cleaned = cleaned[firstNewline+1:]
		} else {
			cleaned = strings.TrimPrefix(cleaned, "```")
			cleaned = strings.TrimPrefix(cleaned, "json")
		}
		cleaned = strings.TrimSpace(cleaned)
	}
	return cleaned
}

// CastToStringSlice пытается преобразовать []interface{} в []string.
// Элементы, не являющиеся строками, пропускаются.
func CastToStringSlice(slice []interface{}) []string {
	if slice == nil {
		return nil
	}
	strSlice := make([]string, 0, len(slice))
	for _, item := range slice {
		if str, ok := item.(string); ok {
			strSlice = append(strSlice, str)
		}
	}
	return strSlice
}

// StringShort обрезает строку до maxLen символов для логов.
func StringShort(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

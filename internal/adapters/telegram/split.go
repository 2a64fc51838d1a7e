package telegram

import "strings"

const messageLimit = 4096

// splitText режет текст на части не длиннее limit рун.
// Разрез делается по последнему переводу строки в окне, иначе по границе окна.
func splitText(text string, limit int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		if chunk := strings.TrimRight(string(runes[:cut]), "\n"); chunk != "" {
			parts = append(parts, chunk)
		}
		runes = []rune(strings.TrimLeft(string(runes[cut:]), "\n"))
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}

// Package youtube извлекает идентификатор видео из ссылок YouTube.
package youtube

import (
	"regexp"
	"strings"
)

// Шаблоны проверяются по порядку, первый совпавший возвращает 11-символьный id.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:^|[/.])youtube\.com/watch\?(?:[^#]*&)?v=([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?:^|[/.])youtu\.be/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?:^|[/.])youtube\.com/(?:embed|shorts|live|v)/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`(?:^|[/.])youtube-nocookie\.com/embed/([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`),
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// VideoID возвращает id видео и true, если ссылка распознана.
func VideoID(rawURL string) (string, bool) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", false
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// EmbedURL возвращает ссылку для встраиваемого плеера.
func EmbedURL(videoID string) string {
	return "https://www.youtube.com/embed/" + videoID
}

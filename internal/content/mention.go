package content

import "regexp"

// mentionPattern matches "@" followed by word characters in any script
var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// ParseMention returns the username of the first @mention in text
func ParseMention(text string) (string, bool) {
	m := mentionPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

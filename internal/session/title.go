package session

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const titleMaxWords = 6

var titleCaser = cases.Title(language.English)

// DeriveTitle turns the first words of a prompt into a session title. Empty
// prompts fall back to the default name.
func DeriveTitle(prompt string) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return DefaultName
	}
	truncated := len(words) > titleMaxWords
	if truncated {
		words = words[:titleMaxWords]
	}
	title := titleCaser.String(strings.Join(words, " "))
	if truncated {
		title += "..."
	}
	return title
}

package adapter

import (
	"regexp"
	"strings"
	"unicode"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`)

// MessageAdapter turns Discord message content into command arguments
type MessageAdapter struct {
	prefix string
}

// NewMessageAdapter creates a new MessageAdapter
func NewMessageAdapter(prefix string) *MessageAdapter {
	return &MessageAdapter{prefix: prefix}
}

func (ma *MessageAdapter) Prefix() string {
	return ma.prefix
}

// Parse strips the prefix and splits the rest into words. Quoted text
// ("player name with spaces") is one word; an unterminated quote runs to the
// end of the message. ok is false when the content is not a command.
func (ma *MessageAdapter) Parse(content string) ([]string, bool) {
	text := strings.TrimSpace(content)
	if ma.prefix == "" || !strings.HasPrefix(text, ma.prefix) {
		return nil, false
	}

	commandText := controlCharsPattern.ReplaceAllString(text[len(ma.prefix):], " ")
	args := splitArgs(commandText)
	if len(args) == 0 || args[0] == "" {
		return nil, false
	}
	return args, true
}

func splitArgs(s string) []string {
	var (
		args    []string
		current strings.Builder
		quote   rune
		inWord  bool
	)

	flush := func() {
		if inWord {
			args = append(args, current.String())
			current.Reset()
			inWord = false
		}
	}

	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			// A quote only opens at the start of a word, so "don't" stays intact.
			if inWord {
				current.WriteRune(r)
				continue
			}
			quote = r
			inWord = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inWord = true
		}
	}
	flush()
	return args
}

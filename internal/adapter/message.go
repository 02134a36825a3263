package adapter

import (
	"regexp"
	"strings"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x08\x0B-\x1F\x7F]`)
var whitespacePattern = regexp.MustCompile(`\s+`)

// InputKind classifies an inbound chat message.
type InputKind string

const (
	InputEmpty InputKind = "empty"
	InputChat  InputKind = "chat"
	InputReset InputKind = "reset"
	InputClear InputKind = "clear"
	InputHelp  InputKind = "help"
)

// ParsedInput is a sanitised inbound message.
type ParsedInput struct {
	Kind InputKind
	Text string
}

// MessageAdapter sanitises user text and recognises slash commands.
type MessageAdapter struct {
	prefix string
}

func NewMessageAdapter(prefix string) *MessageAdapter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "/"
	}
	return &MessageAdapter{prefix: prefix}
}

// ParseMessage sanitises raw and classifies it. Anything that is not a
// known command is passed through as chat text.
func (ma *MessageAdapter) ParseMessage(raw string) *ParsedInput {
	text := Sanitize(raw)
	if text == "" {
		return &ParsedInput{Kind: InputEmpty}
	}

	if strings.HasPrefix(text, ma.prefix) {
		cmd := util.Normalize(strings.TrimPrefix(text, ma.prefix))
		switch cmd {
		case "reset", "restart":
			return &ParsedInput{Kind: InputReset, Text: text}
		case "clear", "forget":
			return &ParsedInput{Kind: InputClear, Text: text}
		case "help", "menu":
			return &ParsedInput{Kind: InputHelp, Text: text}
		}
	}

	return &ParsedInput{Kind: InputChat, Text: text}
}

// Sanitize strips control characters, collapses whitespace and caps the
// length in runes.
func Sanitize(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := strings.TrimSpace(whitespacePattern.ReplaceAllString(withoutControl, " "))

	if normalized == "" {
		return ""
	}

	runes := []rune(normalized)
	if len(runes) > constants.InputLimits.MaxMessageLength {
		return string(runes[:constants.InputLimits.MaxMessageLength])
	}

	return normalized
}

// Prefix returns the slash-command prefix.
func (ma *MessageAdapter) Prefix() string {
	return ma.prefix
}

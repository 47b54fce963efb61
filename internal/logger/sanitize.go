package logger

import (
	"strings"
	"unicode"
)

// Length caps applied before user-controlled text reaches the logs
const (
	MaxPathLength          = 500
	MaxErrorMessageLength  = 1000
	MaxGeneralStringLength = 2000
	// MaxDebugContentLength bounds planner prompts and responses
	MaxDebugContentLength = 10000
)

// SanitizePath prepares a request path for logging
func SanitizePath(path string) string {
	return SanitizeString(path, MaxPathLength)
}

// SanitizeString drops invalid UTF-8 and non-printable runes (keeping
// ordinary whitespace) and cuts the result at maxLength bytes without
// splitting a rune. A non-positive maxLength uses MaxGeneralStringLength.
func SanitizeString(s string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = MaxGeneralStringLength
	}
	s = strings.Map(keepRune, strings.ToValidUTF8(s, ""))
	if len(s) <= maxLength {
		return s
	}
	cut := maxLength
	for cut > 0 && !utf8RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func keepRune(r rune) rune {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return r
	case unicode.IsPrint(r):
		return r
	default:
		return -1
	}
}

// utf8RuneStart reports whether b can begin an encoded rune
func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// SanitizeError prepares an error message for logging
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error(), MaxErrorMessageLength)
}

// SanitizeDebugContent prepares planner prompts and model output for debug logs
func SanitizeDebugContent(content string) string {
	return SanitizeString(content, MaxDebugContentLength)
}

package feed

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// leadingFloat parses the longest numeric prefix of s, ignoring leading
// whitespace. Anything unparsable, empty or non-finite yields 0, so
// "-8.05abc" is -8.05 and "abc" is 0.
func leadingFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := scanSign(s, 0)
	digits := 0
	for end < len(s) && isDigit(s[end]) {
		end++
		digits++
	}
	if end < len(s) && s[end] == '.' {
		end++
		for end < len(s) && isDigit(s[end]) {
			end++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if end < len(s) && (s[end] == 'e' || s[end] == 'E') {
		exp := scanSign(s, end+1)
		expDigits := exp
		for expDigits < len(s) && isDigit(s[expDigits]) {
			expDigits++
		}
		if expDigits > exp {
			end = expDigits
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0
	}
	return v
}

// leadingInt parses the longest integer prefix of s, ignoring leading
// whitespace: "10" is 10, "1.9" is 1, "0x1A" is 26, "abc" is 0. A prefix that
// overflows int is 0.
func leadingInt(s string) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	start := scanSign(s, 0)
	if rest := s[start:]; len(rest) > 1 && rest[0] == '0' && (rest[1] == 'x' || rest[1] == 'X') {
		return hexPrefix(s[:start], rest[2:])
	}
	end := start
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	if end == start {
		return 0
	}
	v, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return v
}

// hexPrefix parses the hex digits at the start of digits with the given sign.
func hexPrefix(sign, digits string) int {
	end := 0
	for end < len(digits) && isHexDigit(digits[end]) {
		end++
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseInt(sign+digits[:end], 16, 0)
	if err != nil {
		return 0
	}
	return int(v)
}

func scanSign(s string, i int) int {
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		return i + 1
	}
	return i
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

package kernel

import (
	"regexp"
	"strings"
)

var nonAlpha = regexp.MustCompile(`[^A-Za-z]+`)

// NormalizeForPhonetic lowercases, strips non-alphabetic characters and
// collapses whitespace prior to phonetic encoding.
func NormalizeForPhonetic(text string) string {
	if text == "" {
		return ""
	}
	lowered := strings.ToLower(strings.TrimSpace(text))
	cleaned := nonAlpha.ReplaceAllString(lowered, " ")
	return NormalizeWhitespace(cleaned)
}

// DoubleMetaphone returns up to two phonetic codes for text: a primary
// code and, when it differs, a secondary code exercising the common
// ambiguous-consonant alternatives (spec §4.A: "Compute Double-Metaphone
// primary (and secondary if distinct) after stripping non-alphabetic
// characters"). This is a compact, from-scratch implementation of the
// well-known Double Metaphone rules restricted to the consonant
// substitutions that matter for English academic-unit names; no
// phonetic-encoding library appears anywhere in the retrieved pack.
func DoubleMetaphone(text string) []string {
	normalized := NormalizeForPhonetic(text)
	if normalized == "" {
		return nil
	}
	word := strings.ReplaceAll(normalized, " ", "")
	if word == "" {
		return nil
	}
	primary := metaphoneCode(word, false)
	secondary := metaphoneCode(word, true)
	if primary == "" {
		return nil
	}
	if secondary == "" || secondary == primary {
		return []string{primary}
	}
	return []string{primary, secondary}
}

// GeneratePhoneticKey returns the primary Double Metaphone code, or ""
// if none could be computed.
func GeneratePhoneticKey(text string) string {
	codes := DoubleMetaphone(text)
	if len(codes) == 0 {
		return ""
	}
	return codes[0]
}

// PhoneticBucketKeys returns all candidate bucket keys for text.
func PhoneticBucketKeys(text string) []string {
	return DoubleMetaphone(text)
}

var vowels = map[byte]struct{}{'a': {}, 'e': {}, 'i': {}, 'o': {}, 'u': {}, 'y': {}}

// metaphoneCode computes a simplified metaphone code. When alt is true,
// a handful of digraphs that Double Metaphone treats as ambiguous
// ("c" -> "s"/"k", "g" -> "j"/"k") resolve to their secondary reading,
// approximating Double Metaphone's dual-code behavior.
func metaphoneCode(word string, alt bool) string {
	w := strings.ToLower(word)
	n := len(w)
	if n == 0 {
		return ""
	}
	var b strings.Builder
	i := 0

	// Initial-letter exceptions.
	switch {
	case strings.HasPrefix(w, "kn"), strings.HasPrefix(w, "gn"), strings.HasPrefix(w, "pn"), strings.HasPrefix(w, "wr"), strings.HasPrefix(w, "ae"):
		i = 1
	case strings.HasPrefix(w, "x"):
		b.WriteByte('s')
		i = 1
	case strings.HasPrefix(w, "wh"):
		b.WriteByte('w')
		i = 2
	}

	lastWritten := byte(0)
	write := func(c byte) {
		if c == lastWritten {
			return
		}
		b.WriteByte(c)
		lastWritten = c
	}

	for ; i < n; i++ {
		c := w[i]
		if _, isVowel := vowels[c]; isVowel {
			if i == 0 {
				write(c)
			}
			continue
		}
		var next byte
		if i+1 < n {
			next = w[i+1]
		}
		switch c {
		case 'b':
			write('b')
		case 'c':
			switch {
			case next == 'h':
				write('x')
				i++
			case next == 'i' || next == 'e' || next == 'y':
				if alt {
					write('k')
				} else {
					write('s')
				}
			default:
				write('k')
			}
		case 'd':
			if next == 'g' && i+2 < n && (w[i+2] == 'e' || w[i+2] == 'y' || w[i+2] == 'i') {
				write('j')
				i += 2
			} else {
				write('t')
			}
		case 'g':
			switch {
			case next == 'h':
				write('f')
				i++
			case next == 'n':
				// silent in many cases; skip
			case next == 'i' || next == 'e' || next == 'y':
				if alt {
					write('k')
				} else {
					write('j')
				}
			default:
				write('k')
			}
		case 'h':
			write('h')
		case 'j':
			write('j')
		case 'k':
			write('k')
		case 'l':
			write('l')
		case 'm':
			write('m')
		case 'n':
			write('n')
		case 'p':
			if next == 'h' {
				write('f')
				i++
			} else {
				write('p')
			}
		case 'q':
			write('k')
		case 'r':
			write('r')
		case 's':
			if next == 'h' {
				write('x')
				i++
			} else {
				write('s')
			}
		case 't':
			if next == 'h' {
				write('0')
				i++
			} else {
				write('t')
			}
		case 'v':
			write('f')
		case 'w':
			write('w')
		case 'x':
			write('k')
			write('s')
		case 'z':
			write('s')
		}
	}
	out := b.String()
	if len(out) > 8 {
		out = out[:8]
	}
	return out
}

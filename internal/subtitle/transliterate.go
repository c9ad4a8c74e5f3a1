package subtitle

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// latinToCyrillic maps single Serbian Latin letters to their Cyrillic forms.
// The digraphs lj, nj, and dž are handled by the transformer before this
// table applies. Runes outside the Serbian alphabet pass through unchanged.
var latinToCyrillic = map[rune]rune{
	'a': 'а', 'b': 'б', 'c': 'ц', 'č': 'ч', 'ć': 'ћ',
	'd': 'д', 'đ': 'ђ', 'e': 'е', 'f': 'ф', 'g': 'г',
	'h': 'х', 'i': 'и', 'j': 'ј', 'k': 'к', 'l': 'л',
	'm': 'м', 'n': 'н', 'o': 'о', 'p': 'п', 'r': 'р',
	's': 'с', 'š': 'ш', 't': 'т', 'u': 'у', 'v': 'в',
	'z': 'з', 'ž': 'ж',
	'A': 'А', 'B': 'Б', 'C': 'Ц', 'Č': 'Ч', 'Ć': 'Ћ',
	'D': 'Д', 'Đ': 'Ђ', 'E': 'Е', 'F': 'Ф', 'G': 'Г',
	'H': 'Х', 'I': 'И', 'J': 'Ј', 'K': 'К', 'L': 'Л',
	'M': 'М', 'N': 'Н', 'O': 'О', 'P': 'П', 'R': 'Р',
	'S': 'С', 'Š': 'Ш', 'T': 'Т', 'U': 'У', 'V': 'В',
	'Z': 'З', 'Ž': 'Ж',
}

var digraphs = map[[2]rune]rune{
	{'l', 'j'}: 'љ',
	{'n', 'j'}: 'њ',
	{'d', 'ž'}: 'џ',
	{'L', 'j'}: 'Љ', {'L', 'J'}: 'Љ',
	{'N', 'j'}: 'Њ', {'N', 'J'}: 'Њ',
	{'D', 'ž'}: 'Џ', {'D', 'Ž'}: 'Џ',
}

// Transliterator returns a transformer that converts Serbian Latin text to
// Cyrillic, digraph-aware. It is stateless and safe to reuse.
func Transliterator() transform.Transformer { return translit{} }

type translit struct{}

func (translit) Reset() {}

func (translit) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		out := r
		consumed := size
		switch r {
		case 'l', 'L', 'n', 'N', 'd', 'D':
			rest := src[nSrc+size:]
			if !atEOF && !utf8.FullRune(rest) {
				// The second half of a digraph may arrive in the next chunk.
				return nDst, nSrc, transform.ErrShortSrc
			}
			next, nextSize := utf8.DecodeRune(rest)
			if mapped, ok := digraphs[[2]rune{r, next}]; ok {
				out = mapped
				consumed += nextSize
			} else if mapped, ok := latinToCyrillic[r]; ok {
				out = mapped
			}
		default:
			if mapped, ok := latinToCyrillic[r]; ok {
				out = mapped
			}
		}

		if nDst+utf8.RuneLen(out) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], out)
		nSrc += consumed
	}
	return nDst, nSrc, nil
}

// ToCyrillic converts Serbian Latin text to Cyrillic.
func ToCyrillic(s string) string {
	out, _, err := transform.String(Transliterator(), s)
	if err != nil {
		return s
	}
	return out
}

// HasCyrillic reports whether s contains any rune in the Cyrillic block
// (U+0400 through U+04FF).
func HasCyrillic(s string) bool {
	for _, r := range s {
		if r >= 0x0400 && r <= 0x04FF {
			return true
		}
	}
	return false
}

package domain

import (
	"encoding/base64"
	"strings"
)

// ligatureReplacer folds characters that object stores and HTTP
// headers cannot carry safely into their ASCII transliterations.
var ligatureReplacer = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "Ae", "Ö", "Oe", "Ü", "Ue",
	"é", "e", "è", "e", "ê", "e", "à", "a", "â", "a",
	"ç", "c", "ñ", "n",
	"É", "E", "È", "E", "À", "A",
)

// SanitizeFileName folds ligatures and strips filesystem-hostile
// characters so the result is safe as part of an object key. The
// original name is preserved separately as base64 object metadata.
func SanitizeFileName(name string) string {
	folded := ligatureReplacer.Replace(name)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		}
	}
	s := b.String()
	if s == "" || strings.Trim(s, "._") == "" {
		return "file"
	}
	return s
}

// EncodeFileName encodes the original UTF-8 file name for lossless
// round-trip through ASCII-only object metadata.
func EncodeFileName(name string) string {
	return base64.StdEncoding.EncodeToString([]byte(name))
}

// DecodeFileName reverses EncodeFileName; invalid input yields "".
func DecodeFileName(encoded string) string {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	return string(decoded)
}

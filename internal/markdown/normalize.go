package markdown

import "strings"

// charSubstitutions maps punctuation and symbol code points to ASCII-safe
// equivalents the printer can render. Read-only.
var charSubstitutions = map[rune]string{
	// Bullets and list markers
	'•': "-",   // •
	'◦': "-",   // ◦
	'▪': "-",   // ▪
	'▫': "-",   // ▫
	'●': "*",   // ●
	'○': "o",   // ○
	'■': "#",   // ■
	'□': "[ ]", // □
	'✓': "[x]", // ✓
	'✔': "[x]", // ✔
	'✗': "[ ]", // ✗
	'✘': "[ ]", // ✘
	// Arrows
	'→': "->",
	'←': "<-",
	'↑': "^",
	'↓': "v",
	'⇒': "=>",
	'⇐': "<=",
	// Quotes
	'“': `"`,
	'”': `"`,
	'‘': "'",
	'’': "'",
	'«': "<<",
	'»': ">>",
	// Dashes
	'–': "-",
	'—': "--",
	'―': "-",
	// Ellipsis
	'…': "...",
	// Math symbols
	'×': "x",
	'÷': "/",
	'±': "+/-",
	'≈': "~",
	'≠': "!=",
	'≤': "<=",
	'≥': ">=",
	'°': " deg",
	'′': "'",
	'″': `"`,
	// Fractions
	'½': "1/2",
	'⅓': "1/3",
	'¼': "1/4",
	'¾': "3/4",
	'⅔': "2/3",
	// Currency ($ is ASCII already)
	'€': "EUR",
	'£': "GBP",
	'¥': "JPY",
	'¢': "c",
	// Other common symbols
	'©': "(c)",
	'®': "(R)",
	'™': "(TM)",
	'·': "-",
	'†': "+",
	'‡': "++",
	'§': "S",
	'¶': "P",
	// Spacing variants
	' ': " ", // non-breaking space
	' ': " ", // em space
	' ': " ", // en space
	' ': " ", // thin space
}

// Normalize maps extended characters to printer-safe output. Known
// punctuation and symbols get ASCII substitutes; remaining runes in
// [128,256) pass through (extended Latin support varies per printer) and
// anything beyond Latin-1 becomes '?'. Total and idempotent.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if sub, ok := charSubstitutions[r]; ok {
			b.WriteString(sub)
			continue
		}
		switch {
		case r < 128:
			b.WriteRune(r)
		case r < 256:
			b.WriteRune(r)
		default:
			b.WriteByte('?')
		}
	}
	return b.String()
}

package textutil

import "strings"

var unsafeFileChars = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a user-supplied name fragment (an upload date typed
// as "12/04/24", say) safe to embed in a file name. Separators become dashes,
// other reserved characters are removed, and inner whitespace is collapsed to
// underscores.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.Replace(strings.TrimSpace(name))
	return strings.Join(strings.Fields(name), "_")
}

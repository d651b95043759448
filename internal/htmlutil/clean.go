package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts feed markup such as "<strong>Alex R.</strong> checked in"
// to plain text for terminals and share text.
func ToText(s string) string {
	return strings.TrimSpace(html2text.HTML2Text(s))
}

package dispatch

import (
	"regexp"
	"strings"

	"github.com/seojin/crm-dispatch/internal/audience"
)

var leftoverPlaceholder = regexp.MustCompile(`\{\{\s*\w+\s*\}\}`)

// personalize substitutes the template placeholder vocabulary with recipient
// data. Unknown placeholders are stripped rather than delivered verbatim.
func personalize(text string, r audience.Recipient) string {
	out := strings.NewReplacer(
		"{{name}}", r.DisplayName,
		"{{ name }}", r.DisplayName,
		"{{email}}", r.Address,
		"{{ email }}", r.Address,
		"{{group}}", r.GroupLabel,
		"{{ group }}", r.GroupLabel,
	).Replace(text)
	return leftoverPlaceholder.ReplaceAllString(out, "")
}

package tempo

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitize policies accepted by Config.Sanitize.
const (
	SanitizeNone   = "none"
	SanitizeStrict = "strict"
	SanitizeUGC    = "ugc"
)

// Sanitizer cleans a substituted value before it is spliced into markup.
type Sanitizer interface {
	Sanitize(s string) string
}

// newSanitizer maps a policy name to a bluemonday policy. "none" yields nil: values are
// inserted as markup, the same as hand-written template content.
func newSanitizer(policy string) (Sanitizer, error) {
	switch strings.ToLower(strings.TrimSpace(policy)) {
	case "", SanitizeNone:
		return nil, nil
	case SanitizeStrict:
		return bluemonday.StrictPolicy(), nil
	case SanitizeUGC:
		return bluemonday.UGCPolicy(), nil
	default:
		return nil, fmt.Errorf("invalid sanitize policy: %s", policy)
	}
}

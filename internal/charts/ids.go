package charts

import (
	"fmt"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slug transliterates s to ASCII, lowercases it and collapses every run of
// non-alphanumeric characters to a single underscore.
func Slug(s string) string {
	ascii := strings.ToLower(unidecode.Unidecode(s))
	var b strings.Builder
	pending := false
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "column"
	}
	return b.String()
}

// idRegistry hands out chart IDs that are unique within one batch.
type idRegistry map[string]struct{}

func (r idRegistry) claim(kind string, cols ...string) string {
	parts := make([]string, 0, len(cols)+1)
	parts = append(parts, kind)
	for _, c := range cols {
		parts = append(parts, Slug(c))
	}
	base := strings.Join(parts, "-")
	id := base
	for n := 2; ; n++ {
		if _, taken := r[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
	r[id] = struct{}{}
	return id
}

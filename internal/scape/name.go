package scape

import "strings"

// baseName lowercases a scape name and joins its words with hyphens.
func baseName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("_", "-", " ", "-").Replace(n)
	return strings.Trim(n, "-")
}

// aliasCandidates lists the names a scape reference may resolve to, most
// specific first: the name itself, then without the "scape" prefix, then
// without a "sim"/"sim1" suffix.
func aliasCandidates(name string) []string {
	candidates := []string{name}
	add := func(c string) {
		c = strings.Trim(c, "-")
		if c == "" {
			return
		}
		for _, seen := range candidates {
			if seen == c {
				return
			}
		}
		candidates = append(candidates, c)
	}

	bare := strings.TrimPrefix(name, "scape-")
	if bare == name {
		bare = strings.TrimPrefix(name, "scape")
	}
	add(bare)
	add(trimSimSuffix(bare))
	add(trimSimSuffix(name))
	return candidates
}

func trimSimSuffix(value string) string {
	for _, suffix := range []string{"-sim1", "-sim"} {
		if strings.HasSuffix(value, suffix) {
			return strings.TrimSuffix(value, suffix)
		}
	}
	if !strings.Contains(value, "-") {
		for _, suffix := range []string{"sim1", "sim"} {
			if strings.HasSuffix(value, suffix) {
				return strings.TrimSuffix(value, suffix)
			}
		}
	}
	return value
}

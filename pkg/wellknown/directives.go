package wellknown

import (
	"bufio"
	"log"
	"strings"

	_ "embed"
)

//go:embed directives.txt
var directivesData string

// LegacyDirective was replaced by xr-spatial-tracking and must never be
// offered for configuration.
const LegacyDirective = "vr"

var directiveNames []string

func init() {
	scanner := bufio.NewScanner(strings.NewReader(directivesData))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		directiveNames = append(directiveNames, line)
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("Failed to read embedded directives.txt: %v", err)
	}
}

// DirectiveNames returns every known directive name in catalog order,
// including the legacy one.
func DirectiveNames() []string {
	out := make([]string, len(directiveNames))
	copy(out, directiveNames)
	return out
}

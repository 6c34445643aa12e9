package wellknown

import "testing"

func TestDirectiveNamesIncludesCommonFeatures(t *testing.T) {
	// This test ensures the embedded catalog was parsed and comments were skipped.
	names := DirectiveNames()
	for _, want := range []string{"camera", "geolocation", "xr-spatial-tracking"} {
		if !contains(names, want) {
			t.Fatalf("expected %q in catalog, got %v", want, names)
		}
	}
	for _, name := range names {
		if name == "" || name[0] == '#' {
			t.Fatalf("expected comments and blank lines to be skipped, got %q", name)
		}
	}
}

func TestDirectiveNamesStillListsLegacyEntry(t *testing.T) {
	// This test confirms the raw catalog is stale on purpose; exclusion happens downstream.
	if !contains(DirectiveNames(), LegacyDirective) {
		t.Fatalf("expected raw catalog to contain %q", LegacyDirective)
	}
}

func TestDirectiveNamesReturnsCopy(t *testing.T) {
	// This test validates callers cannot mutate the shared registry.
	names := DirectiveNames()
	names[0] = "mutated"
	if DirectiveNames()[0] == "mutated" {
		t.Fatalf("expected DirectiveNames to return a copy")
	}
}

func contains(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

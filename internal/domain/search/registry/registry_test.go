package registry

import "testing"

func TestResolve_KnownNames(t *testing.T) {
	r := Current()
	tests := map[string]string{
		License:       "service.attributes.main.license",
		Price:         "service.attributes.main.cost",
		Created:       "created",
		DatePublished: "service.attributes.main.datePublished",
		Categories:    "service.attributes.additionalInformation.categories",
	}
	for name, want := range tests {
		if got := r.Resolve(name); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestResolve_UnknownPassesThrough(t *testing.T) {
	r := Current()
	if got := r.Resolve("father.son"); got != "father.son" {
		t.Fatalf("expected raw path passthrough, got %q", got)
	}
	if r.Has("father.son") {
		t.Fatal("Has reported an unregistered name")
	}
}

func TestVariantsAreSwappable(t *testing.T) {
	cur, leg := Current(), Legacy()
	if cur.Resolve(License) == leg.Resolve(License) {
		t.Fatal("expected variants to resolve license differently")
	}
	if leg.Resolve(License) != "service.metadata.base.license" {
		t.Fatalf("unexpected legacy license path %q", leg.Resolve(License))
	}
	if len(cur.Names()) != len(leg.Names()) {
		t.Fatalf("variants should cover the same logical names: %v vs %v", cur.Names(), leg.Names())
	}
}

func TestNew_IsolatedFromInput(t *testing.T) {
	paths := map[string]string{"a": "x.a"}
	r := New("custom", paths)
	paths["a"] = "y.a"
	if r.Resolve("a") != "x.a" {
		t.Fatal("registry must not alias the input map")
	}
}

func TestLookup(t *testing.T) {
	for _, v := range []string{"", VariantCurrent, VariantLegacy} {
		if _, err := Lookup(v); err != nil {
			t.Errorf("Lookup(%q) unexpected error: %v", v, err)
		}
	}
	if _, err := Lookup("v9"); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

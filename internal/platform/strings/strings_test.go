package strings

import "testing"

func TestIfEmpty(t *testing.T) {
	def := []string{"GET", "POST"}
	if got := IfEmpty(nil, def); len(got) != 2 {
		t.Fatalf("nil should take default, got %v", got)
	}
	if got := IfEmpty([]string{"PUT"}, def); len(got) != 1 || got[0] != "PUT" {
		t.Fatalf("non empty should win, got %v", got)
	}
}

func TestOr(t *testing.T) {
	if Or("  ", "meta") != "meta" || Or("identify", "meta") != "identify" {
		t.Fatalf("Or defaulting broken")
	}
}

func TestDerefOr(t *testing.T) {
	label := "Golden Retriever"
	if DerefOr(&label, "-") != label || DerefOr(nil, "-") != "-" {
		t.Fatalf("DerefOr broken")
	}
}

package raw

import "testing"

func TestConf(t *testing.T) {
	t.Setenv("LOG_LEVEL", " debug ")
	t.Setenv("LOG_CALLER", "YES")
	t.Setenv("LOG_SAMPLE_EVERY", "x10")
	t.Setenv("LOG_BLANK", "   ")

	log := New().Prefix("LOG_")
	if got := log.Get("LEVEL", "info"); got != "debug" {
		t.Fatalf("Get = %q", got)
	}
	if got := log.Get("BLANK", "info"); got != "info" {
		t.Fatalf("blank should default, got %q", got)
	}
	if !log.GetBool("CALLER", false) || log.GetBool("LEVEL", true) || !log.GetBool("MISSING", true) {
		t.Fatalf("GetBool mismatch")
	}
	if got := log.GetInt("SAMPLE_EVERY", 3); got != 3 {
		t.Fatalf("non numeric should default, got %d", got)
	}
	if got := New().Prefix("LO").Prefix("G_").Get("LEVEL", ""); got != "debug" {
		t.Fatalf("stacked prefix = %q", got)
	}
}

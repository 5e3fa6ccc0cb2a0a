package plan

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"free", "basic", "premium"} {
		if _, err := Parse(s); err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
	}
	if _, err := Parse("enterprise"); err == nil {
		t.Fatal("expected error for unknown plan")
	}
}

func TestEvaluateFreeHardCaps(t *testing.T) {
	// One member and five files are allowed.
	if _, err := Evaluate(Free, Usage{Users: 1, Files: 5}); err != nil {
		t.Fatalf("expected usage at the caps to pass, got %v", err)
	}

	// A second member is rejected.
	_, err := Evaluate(Free, Usage{Users: 2, Files: 0})
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if qe.Resource != ResourceUsers {
		t.Fatalf("expected users resource, got %s", qe.Resource)
	}

	// A sixth file is rejected.
	_, err = Evaluate(Free, Usage{Users: 1, Files: 6})
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if qe.Resource != ResourceFiles {
		t.Fatalf("expected files resource, got %s", qe.Resource)
	}
}

func TestEvaluateBasicOverages(t *testing.T) {
	// Within the included amounts no charges accrue.
	c, err := Evaluate(Basic, Usage{Users: 3, Files: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c != (Charges{}) {
		t.Fatalf("expected zero charges, got %+v", c)
	}

	// Two extra members and three extra files.
	c, err = Evaluate(Basic, Usage{Users: 5, Files: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ExtraUser != 10 {
		t.Fatalf("expected 10 extra user charge, got %v", c.ExtraUser)
	}
	if c.ExtraFile != 1.5 {
		t.Fatalf("expected 1.5 extra file charge, got %v", c.ExtraFile)
	}
	if c.Premium != 0 {
		t.Fatalf("expected no flat charge on basic, got %v", c.Premium)
	}
}

func TestEvaluatePremium(t *testing.T) {
	// The flat fee applies regardless of usage; members are never charged.
	c, err := Evaluate(Premium, Usage{Users: 50, Files: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Premium != 30 {
		t.Fatalf("expected 30 flat charge, got %v", c.Premium)
	}
	if c.ExtraUser != 0 {
		t.Fatalf("expected no member charge on premium, got %v", c.ExtraUser)
	}

	// Two files over the included ten.
	c, err = Evaluate(Premium, Usage{Files: 12})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ExtraFile != 1 {
		t.Fatalf("expected 1 extra file charge, got %v", c.ExtraFile)
	}
}

func TestHardUserLimit(t *testing.T) {
	if got := HardUserLimit(Free); got != 1 {
		t.Fatalf("expected hard limit 1 for free, got %d", got)
	}
	if got := HardUserLimit(Basic); got != 0 {
		t.Fatalf("expected no hard limit for basic, got %d", got)
	}
	if got := HardUserLimit(Premium); got != 0 {
		t.Fatalf("expected no hard limit for premium, got %d", got)
	}
}

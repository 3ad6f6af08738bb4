package cmd

import (
	"testing"

	"github.com/spf13/cobra"

	"github.com/pable/go-cup-rating/internal/model"
)

func TestViewGender(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Gender
		wantErr bool
	}{
		{"", "", false},
		{"all", "", false},
		{"Male", model.GenderMale, false},
		{"female", model.GenderFemale, false},
		{"unknown", model.GenderUnknown, false},
		{"xyz", "", true},
		{"f", "", true},
	}
	for _, tc := range tests {
		got, err := viewGender(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("viewGender(%q): unexpected error state %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("viewGender(%q): want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestBestOverrideOnlyWhenFlagSet(t *testing.T) {
	var n int
	c := &cobra.Command{Use: "x"}
	c.Flags().IntVar(&n, "best", 0, "")

	if got := bestOverride(c, n); got != nil {
		t.Fatalf("unset flag: want nil, got %d", *got)
	}
	if err := c.Flags().Set("best", "0"); err != nil {
		t.Fatalf("set flag: %v", err)
	}
	got := bestOverride(c, n)
	if got == nil || *got != 0 {
		t.Fatalf("explicit --best 0 must be passed through, got %v", got)
	}
}

func TestSessionSetBestValidates(t *testing.T) {
	s := &session{}

	s.setBest([]string{"8"})
	if s.best == nil || *s.best != 8 {
		t.Fatalf("best 8: got %v", s.best)
	}
	for _, arg := range []string{"0", "-1", "51", "eight"} {
		s.setBest([]string{arg})
		if s.best == nil || *s.best != 8 {
			t.Errorf("best %s should be rejected and keep 8, got %v", arg, s.best)
		}
	}
	s.setBest(nil)
	if s.best != nil {
		t.Errorf("reset: want nil, got %d", *s.best)
	}
}

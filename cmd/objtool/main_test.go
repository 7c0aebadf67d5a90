package main

import (
	"flag"
	"strings"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"2", 2.0},
		{"-0.5", -0.5},
		{"1e2", 100.0},
		{"T", "T"},
		{"red", "red"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseValue(tt.in); got != tt.want {
			t.Errorf("parseValue(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestSetFlagsKeepOrder(t *testing.T) {
	fs := flag.NewFlagSet("modify", flag.ContinueOnError)
	var sets setFlags
	fs.Var(&sets, "set", "")

	err := fs.Parse([]string{"-set", "leaf_visible=false", "-set", " overall_size = 2 ", "-set", "leaf_visible=true", "plant.obj"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if got := strings.Join(sets.mods.Names(), ","); got != "leaf_visible,overall_size" {
		t.Errorf("names = %s", got)
	}
	if v, _ := sets.mods.Get("leaf_visible"); v != true {
		t.Errorf("leaf_visible = %v, want last value true", v)
	}
	if v, _ := sets.mods.Get("overall_size"); v != 2.0 {
		t.Errorf("overall_size = %v, want 2", v)
	}
	if fs.Arg(0) != "plant.obj" {
		t.Errorf("arg = %q", fs.Arg(0))
	}

	if err := sets.Set("novalue"); err == nil {
		t.Error("expected error for missing '='")
	}
	if err := sets.Set("=1"); err == nil {
		t.Error("expected error for empty name")
	}
}

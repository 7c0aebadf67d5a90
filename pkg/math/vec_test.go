package math

import (
	"math"
	"testing"
)

func TestVec2Add(t *testing.T) {
	a := Vec2{1, 2}
	b := Vec2{3, 4}
	got := a.Add(b)
	want := Vec2{4, 6}
	if got != want {
		t.Errorf("Vec2.Add() = %v, want %v", got, want)
	}
}

func TestVec2Length(t *testing.T) {
	v := Vec2{3, 4}
	if got := v.Length(); got != 5 {
		t.Errorf("Vec2.Length() = %v, want 5", got)
	}
}

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Normalize(t *testing.T) {
	tests := []struct {
		name string
		in   Vec3
		want float64
	}{
		{"axis", Vec3{0, 0, 5}, 1},
		{"diagonal", Vec3{1, 2, 3}, 1},
		{"zero", Vec3{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize().Length()
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Normalize().Length() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVec3Div(t *testing.T) {
	got := Vec3{2, 4, 6}.Div(2)
	want := Vec3{1, 2, 3}
	if got != want {
		t.Errorf("Vec3.Div() = %v, want %v", got, want)
	}
}

func TestVec3Distance(t *testing.T) {
	a := Vec3{1, 1, 1}
	b := Vec3{1, 4, 5}
	if got := a.Distance(b); got != 5 {
		t.Errorf("Vec3.Distance() = %v, want 5", got)
	}
}

func TestVec3ApproxEqual(t *testing.T) {
	a := Vec3{1, 2, 3}
	if !a.ApproxEqual(Vec3{1.0000001, 2, 3}, 1e-6) {
		t.Error("expected vectors within 1e-6 to be approximately equal")
	}
	if a.ApproxEqual(Vec3{1.1, 2, 3}, 1e-6) {
		t.Error("expected vectors 0.1 apart not to be approximately equal")
	}
}

func TestVec3Array(t *testing.T) {
	got := Vec3{1.5, -2, 0.25}.Array()
	want := [3]float32{1.5, -2, 0.25}
	if got != want {
		t.Errorf("Vec3.Array() = %v, want %v", got, want)
	}
}

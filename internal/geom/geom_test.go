package geom

import "testing"

func TestPointArithmetic(t *testing.T) {
	p, q := Pt(1, 2), Pt(4, 6)
	if got := p.Add(q); got != Pt(5, 8) {
		t.Errorf("Add = %v, want (5,8)", got)
	}
	if got := q.Sub(p); got != Pt(3, 4) {
		t.Errorf("Sub = %v, want (3,4)", got)
	}
	if got := p.Scale(2); got != Pt(2, 4) {
		t.Errorf("Scale = %v, want (2,4)", got)
	}
	if got := p.Dist(q); got != 5 {
		t.Errorf("Dist = %v, want 5", got)
	}
}

func TestRectContains(t *testing.T) {
	r := R(0, 0, 10, 10)
	tests := []struct {
		p    Point
		want bool
	}{
		{Pt(0, 0), true},
		{Pt(9.99, 9.99), true},
		{Pt(10, 5), false},
		{Pt(5, 10), false},
		{Pt(-0.1, 0), false},
	}
	for _, tt := range tests {
		if got := r.Contains(tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestRectHelpers(t *testing.T) {
	r := R(0, 0, 4, 2)
	if r.MaxX() != 4 || r.MaxY() != 2 {
		t.Errorf("MaxX/MaxY = %v/%v, want 4/2", r.MaxX(), r.MaxY())
	}
	if got := r.Center(); got != Pt(2, 1) {
		t.Errorf("Center = %v, want (2,1)", got)
	}
	if r.Empty() {
		t.Error("non-empty rect reported empty")
	}
	if !R(1, 1, 0, 5).Empty() || !R(1, 1, 5, -1).Empty() {
		t.Error("zero or negative size should be empty")
	}
	if got := R(0, 0, 10, 10).Inset(2); got != R(2, 2, 6, 6) {
		t.Errorf("Inset(2) = %v", got)
	}
	if got := R(0, 0, 10, 10).Inset(-1); got != R(-1, -1, 12, 12) {
		t.Errorf("Inset(-1) = %v", got)
	}
}

func TestRectUnion(t *testing.T) {
	tests := []struct {
		name string
		a, b Rect
		want Rect
	}{
		{"overlapping", R(0, 0, 2, 2), R(1, 1, 3, 1), R(0, 0, 4, 2)},
		{"empty left", R(0, 0, 0, 5), R(1, 1, 1, 1), R(1, 1, 1, 1)},
		{"empty right", R(1, 1, 1, 1), Rect{}, R(1, 1, 1, 1)},
		{"disjoint", R(-2, -2, 1, 1), R(3, 3, 1, 1), R(-2, -2, 6, 6)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Union(tt.b); got != tt.want {
				t.Errorf("Union = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoundRectContains(t *testing.T) {
	rr := RoundRect{Rect: R(0, 0, 10, 10), ArcW: 4, ArcH: 4}
	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"cut corner", Pt(0, 0), false},
		{"near corner outside arc", Pt(0.2, 0.2), false},
		{"inside arc", Pt(1, 1), true},
		{"top edge middle", Pt(5, 0), true},
		{"centre", Pt(5, 5), true},
		{"bottom right outside arc", Pt(9.9, 9.9), false},
		{"bottom right inside arc", Pt(9, 9), true},
		{"outside bounds", Pt(11, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rr.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	plain := RoundRect{Rect: R(0, 0, 10, 10)}
	if !plain.Contains(Pt(0, 0)) {
		t.Error("zero arcs should behave like a plain rectangle")
	}
}

func TestSegmentDistance(t *testing.T) {
	tests := []struct {
		name    string
		p, a, b Point
		want    float64
	}{
		{"perpendicular", Pt(1, 1), Pt(0, 0), Pt(2, 0), 1},
		{"past end", Pt(3, 0), Pt(0, 0), Pt(2, 0), 1},
		{"before start", Pt(-3, 4), Pt(0, 0), Pt(2, 0), 5},
		{"degenerate", Pt(3, 4), Pt(0, 0), Pt(0, 0), 5},
		{"on segment", Pt(1, 0), Pt(0, 0), Pt(2, 0), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SegmentDistance(tt.p, tt.a, tt.b); got != tt.want {
				t.Errorf("SegmentDistance = %v, want %v", got, tt.want)
			}
		})
	}
}

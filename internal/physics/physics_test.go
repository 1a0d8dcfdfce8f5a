package physics

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/trajfit/internal/dynamo"
)

func TestAlpha_TennisBall(t *testing.T) {
	got := Alpha(TennisBall(), SeaLevelDensity)
	expected := math.Pi * 0.063 * 0.063 / (8 * 0.05) * 1.29
	if math.Abs(got-expected) > 1e-15 {
		t.Errorf("expected alpha %g, got %g", expected, got)
	}
}

func TestVacuumDerivative(t *testing.T) {
	m := &VacuumModel{Params: DefaultParams()}
	x := dynamo.NewState(1, 2, 3, 4)

	dx := m.Derive(x, 0)
	want := dynamo.State{3, 4, 0, StandardGravity}
	for i := range want {
		if dx[i] != want[i] {
			t.Errorf("dx[%d] = %g, want %g", i, dx[i], want[i])
		}
	}
}

func TestDragOpposesVelocity(t *testing.T) {
	m := &DragModel{Params: DefaultParams()}
	x := dynamo.NewState(0, 1, 20, 5)

	dx := m.Derive(x, 0)
	if dx[dynamo.VX] >= 0 {
		t.Errorf("horizontal drag should decelerate, got %g", dx[dynamo.VX])
	}
	if dx[dynamo.VZ] >= StandardGravity {
		t.Errorf("drag on a rising ball should add to gravity, got %g", dx[dynamo.VZ])
	}

	v := math.Hypot(20, 5)
	cd := 0.508 * m.Params.Alpha * v
	if math.Abs(dx[dynamo.VX]+cd*20) > 1e-12 {
		t.Errorf("expected ax=%g, got %g", -cd*20, dx[dynamo.VX])
	}
}

func TestDragAtRestIsFreefall(t *testing.T) {
	m := &DragModel{Params: DefaultParams()}
	dx := m.Derive(dynamo.NewState(0, 1, 0, 0), 0)
	if dx[dynamo.VX] != 0 || dx[dynamo.VZ] != StandardGravity {
		t.Errorf("expected pure gravity at rest, got %v", dx)
	}
}

func TestSpinTopspinPullsDown(t *testing.T) {
	params := DefaultParams()
	drag := &DragModel{Params: params}
	top := &SpinModel{Params: params.WithSpin(20, 1)}
	back := &SpinModel{Params: params.WithSpin(20, -1)}

	x := dynamo.NewState(0, 1, 25, 0)
	dTop := top.Derive(x, 0)
	dBack := back.Derive(x, 0)
	dDrag := drag.Derive(x, 0)

	if dTop[dynamo.VZ] >= dDrag[dynamo.VZ] {
		t.Errorf("topspin should add downward force: %g vs %g", dTop[dynamo.VZ], dDrag[dynamo.VZ])
	}
	if dBack[dynamo.VZ] <= dDrag[dynamo.VZ] {
		t.Errorf("backspin should lift: %g vs %g", dBack[dynamo.VZ], dDrag[dynamo.VZ])
	}
}

func TestSpinCoefficientsFinite(t *testing.T) {
	m := &SpinModel{Params: DefaultParams()}
	for _, v := range []float64{0, 0.1, 10, 80} {
		cd, cm := m.Coefficients(v)
		if math.IsNaN(cd) || math.IsNaN(cm) {
			t.Errorf("v=%g: non-finite coefficients cd=%g cm=%g", v, cd, cm)
		}
	}
}

func TestVacuumEnergyConstantAlongParabola(t *testing.T) {
	m := &VacuumModel{Params: DefaultParams()}
	x0 := dynamo.NewState(0, 1, 20, 8)
	e0 := m.Energy(x0)

	for _, tt := range []float64{0.1, 0.5, 1.2} {
		e := m.Energy(m.Position(x0, tt))
		if math.Abs(e-e0) > 1e-9 {
			t.Errorf("t=%g: energy %g, want %g", tt, e, e0)
		}
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    Kind
		params  Params
		wantErr bool
	}{
		{Vacuum, DefaultParams(), false},
		{Drag, DefaultParams(), false},
		{Spin, DefaultParams(), false},
		{Spin, DefaultParams().WithSpin(0, 1), true},
		{Drag, Params{Gravity: StandardGravity, Alpha: -1}, true},
		{Drag, Params{Gravity: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			sys, err := New(tt.kind, tt.params)
			if tt.wantErr {
				if !errors.Is(err, dynamo.ErrParameterBounds) {
					t.Errorf("expected ErrParameterBounds, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if sys.StateDim() != 4 {
				t.Errorf("expected 4 states, got %d", sys.StateDim())
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want Kind
		ok   bool
	}{
		{"vacuum", Vacuum, true},
		{"Drag", Drag, true},
		{"air", Drag, true},
		{" spin ", Spin, true},
		{"magnus", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.name)
		if (err == nil) != tt.ok {
			t.Errorf("ParseKind(%q) err = %v", tt.name, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

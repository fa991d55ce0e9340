package source

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/papapumpkin/hydrosource/internal/emitter"
)

func TestPrepareWindow(t *testing.T) {
	t.Parallel()

	baryonFree := testString()
	baryonFree.FracL, baryonFree.FracR = 0, 0
	gluon := testParton()
	gluon.BaryonNumber = 0
	gluon.Tau = 2.6

	e := newEngine(t, testConfig(),
		[]emitter.QCDString{testString(), baryonFree},
		[]emitter.Parton{testParton(), gluon})

	tests := []struct {
		name string
		tau  float64
		want WindowStats
	}{
		{"before formation", 0.9, WindowStats{Tau: 0.9, Partons: 1, BaryonPartons: 1}},
		{"at formation", 1, WindowStats{Tau: 1, Strings: 2, Partons: 1, BaryonPartons: 1}},
		{"mid string", 2, WindowStats{Tau: 2, Strings: 2}},
		{"near right end", 2.6, WindowStats{Tau: 2.6, Strings: 2, BaryonStrings: 1, Partons: 1}},
		{"smearing tail", 3.49, WindowStats{Tau: 3.49, Strings: 2, BaryonStrings: 1}},
		{"support edge", 3.5, WindowStats{Tau: 3.5}},
		{"well past end", 5, WindowStats{Tau: 5}},
	}

	for _, tt := range tests {
		got := e.PrepareWindow(tt.tau)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s: PrepareWindow(%v) (-want +got):\n%s", tt.name, tt.tau, diff)
		}
		w := e.Window()
		if w.Tau() != tt.tau {
			t.Errorf("%s: Window().Tau() = %v", tt.name, w.Tau())
		}
		if len(w.Active()) != got.Strings+got.Partons || len(w.Baryon()) != got.BaryonStrings+got.BaryonPartons {
			t.Errorf("%s: list lengths %d/%d disagree with stats %+v", tt.name, len(w.Active()), len(w.Baryon()), got)
		}
	}
}

func TestPrepareWindow_StringLifetime(t *testing.T) {
	t.Parallel()

	s := testString()
	s.TauStart, s.TauEndLeft, s.TauEndRight = 1, 3, 1.5
	e := newEngine(t, testConfig(), []emitter.QCDString{s}, nil)

	if got := e.PrepareWindow(2); got.Strings != 1 {
		t.Errorf("PrepareWindow(2) selected %d strings, want 1", got.Strings)
	}
	want := emitter.Handle{Kind: emitter.KindString, Index: 0}
	if diff := cmp.Diff([]emitter.Handle{want}, e.Window().Active()); diff != "" {
		t.Errorf("Active() (-want +got):\n%s", diff)
	}
	if got := e.PrepareWindow(5); got.Strings != 0 || len(e.Window().Active()) != 0 {
		t.Errorf("PrepareWindow(5) kept %d strings, want 0", got.Strings)
	}
}

func TestPrepareWindow_ReplacesContents(t *testing.T) {
	t.Parallel()

	e := newEngine(t, testConfig(), []emitter.QCDString{testString()}, []emitter.Parton{testParton()})
	e.PrepareWindow(0.8)
	first := append([]emitter.Handle(nil), e.Window().Active()...)
	e.PrepareWindow(2)
	e.PrepareWindow(0.8)
	if diff := cmp.Diff(first, e.Window().Active()); diff != "" {
		t.Errorf("rebuild is not a pure function of tau (-first +again):\n%s", diff)
	}
}

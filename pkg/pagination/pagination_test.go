package pagination

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		def  int
		max  int
		want Params
	}{
		{name: "defaults", in: Params{}, def: 50, max: 100, want: Params{Page: 1, PerPage: 50}},
		{name: "caps per page", in: Params{Page: 2, PerPage: 500}, def: 50, max: 100, want: Params{Page: 2, PerPage: 100}},
		{name: "negative page", in: Params{Page: -3, PerPage: 10}, def: 50, max: 100, want: Params{Page: 1, PerPage: 10}},
		{name: "max above ceiling", in: Params{Page: 1, PerPage: 1000}, def: 50, max: 1000, want: Params{Page: 1, PerPage: MaxPerPage}},
		{name: "default above max", in: Params{}, def: 80, max: 20, want: Params{Page: 1, PerPage: 20}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in, tc.def, tc.max)
			if got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	p := Params{Page: 2, PerPage: 50}
	if got := NewMeta(p, 101); got.Pages != 3 || got.Total != 101 {
		t.Fatalf("unexpected meta %+v", got)
	}
	if got := NewMeta(p, 0); got.Pages != 0 {
		t.Fatalf("expected zero pages for empty set, got %+v", got)
	}
	if p.Offset() != 50 {
		t.Fatalf("expected offset 50, got %d", p.Offset())
	}
}

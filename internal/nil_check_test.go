package internal

import "testing"

type fakeCache struct{}

func TestIsNil(t *testing.T) {
	var typed *fakeCache
	var iface any = typed
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"untyped nil", nil, true},
		{"typed nil pointer", iface, true},
		{"nil map", map[string]int(nil), true},
		{"value", fakeCache{}, false},
		{"pointer", &fakeCache{}, false},
		{"number", 0, false},
	}
	for _, tc := range cases {
		if got := IsNil(tc.in); got != tc.want {
			t.Errorf("%s: IsNil = %v, want %v", tc.name, got, tc.want)
		}
	}
}

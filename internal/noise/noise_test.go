package noise

import "testing"

func TestFieldIsDeterministic(t *testing.T) {
	for _, backend := range []Backend{Simplex, Perlin} {
		a := New(backend, 42, 7, DefaultOctaves(30))
		b := New(backend, 42, 7, DefaultOctaves(30))
		for i := 0; i < 50; i++ {
			x, y := float64(i)*1.3, float64(i)*-0.7
			if a.At(x, y) != b.At(x, y) {
				t.Fatalf("%s: samples differ at (%v, %v)", backend, x, y)
			}
		}
	}
}

func TestFieldRange(t *testing.T) {
	for _, backend := range []Backend{Simplex, Perlin} {
		f := New(backend, 1, 2, DefaultOctaves(5))
		for x := -20; x <= 20; x++ {
			for y := -20; y <= 20; y++ {
				v := f.At(float64(x), float64(y))
				if v < -1 || v > 1 {
					t.Fatalf("%s: sample %v out of range", backend, v)
				}
			}
		}
	}
}

func TestSaltChangesField(t *testing.T) {
	a := New(Simplex, 9, 1, DefaultOctaves(3))
	b := New(Simplex, 9, 2, DefaultOctaves(3))
	same := 0
	for i := 0; i < 20; i++ {
		x := float64(i) + 0.25
		if a.At(x, x) == b.At(x, x) {
			same++
		}
	}
	if same == 20 {
		t.Error("different salts produced the same field")
	}
}

func TestParseBackend(t *testing.T) {
	tests := []struct {
		in      string
		want    Backend
		wantErr bool
	}{
		{"", Simplex, false},
		{"Perlin", Perlin, false},
		{"value", Simplex, true},
	}
	for _, tt := range tests {
		got, err := ParseBackend(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBackend(%q) = %v, %v", tt.in, got, err)
		}
	}
}

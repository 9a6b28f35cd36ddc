package coord

import (
	"math"
	"testing"
)

const eps = 1e-6

// Опорные значения получены из эталонной реализации с теми же константами.
func TestWgs84ToBd09Reference(t *testing.T) {
	cases := []struct {
		name             string
		lng, lat         float64
		wantLng, wantLat float64
	}{
		{"beijing", 116.404, 39.915, 116.4166272438, 39.9226995522},
		{"shanghai", 121.4737, 31.2304, 121.4847814685, 31.2343105937},
		{"guangzhou", 113.2644, 23.1291, 113.2761507516, 23.1327112572},
		{"chengdu", 104.0665, 30.5723, 104.0754809409, 30.5758561637},
		{"urumqi", 87.6168, 43.8256, 87.6260997708, 43.8329497948},
	}

	for _, tc := range cases {
		gotLng, gotLat := Wgs84ToBd09(tc.lng, tc.lat)
		if math.Abs(gotLng-tc.wantLng) > eps || math.Abs(gotLat-tc.wantLat) > eps {
			t.Errorf("%s: Wgs84ToBd09(%v, %v) = (%.10f, %.10f), want (%.10f, %.10f)",
				tc.name, tc.lng, tc.lat, gotLng, gotLat, tc.wantLng, tc.wantLat)
		}
	}
}

func TestWgs84ToGcj02Reference(t *testing.T) {
	gotLng, gotLat := Wgs84ToGcj02(116.404, 39.915)
	if math.Abs(gotLng-116.4102444992) > eps || math.Abs(gotLat-39.9164042815) > eps {
		t.Errorf("Wgs84ToGcj02(116.404, 39.915) = (%.10f, %.10f)", gotLng, gotLat)
	}
}

func TestGcj02ToBd09Reference(t *testing.T) {
	gotLng, gotLat := Gcj02ToBd09(116.404, 39.915)
	if math.Abs(gotLng-116.4103694937) > eps || math.Abs(gotLat-39.9213369935) > eps {
		t.Errorf("Gcj02ToBd09(116.404, 39.915) = (%.10f, %.10f)", gotLng, gotLat)
	}
}

func TestComposition(t *testing.T) {
	// Wgs84ToBd09 обязана совпадать с композицией двух шагов.
	lng, lat := 108.9398, 34.3416
	gLng, gLat := Wgs84ToGcj02(lng, lat)
	wantLng, wantLat := Gcj02ToBd09(gLng, gLat)
	gotLng, gotLat := Wgs84ToBd09(lng, lat)
	if gotLng != wantLng || gotLat != wantLat {
		t.Errorf("composition mismatch: (%v, %v) != (%v, %v)", gotLng, gotLat, wantLng, wantLat)
	}
}

func TestPointToBD09(t *testing.T) {
	p := Point{Lng: 116.404, Lat: 39.915, System: WGS84}
	b := p.ToBD09()
	if b.System != BD09 {
		t.Fatalf("expected BD-09 point, got %s", b.System)
	}
	wantLng, wantLat := Wgs84ToBd09(p.Lng, p.Lat)
	if b.Lng != wantLng || b.Lat != wantLat {
		t.Errorf("ToBD09 = (%v, %v), want (%v, %v)", b.Lng, b.Lat, wantLng, wantLat)
	}

	// Точка уже в BD-09 не трогается.
	same := b.ToBD09()
	if same != b {
		t.Errorf("BD-09 point changed by ToBD09: %+v != %+v", same, b)
	}
}

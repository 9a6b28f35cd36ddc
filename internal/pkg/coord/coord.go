// Package coord — преобразования между геодезическими системами координат
// WGS-84 (GPS), GCJ-02 и BD-09 (Baidu). Константы эмпирические, менять нельзя:
// любое отклонение сдвигает маркеры на карте на метры и километры.
package coord

import "math"

// System помечает, в какой системе координат выражена точка.
type System string

const (
	WGS84 System = "WGS-84"
	GCJ02 System = "GCJ-02"
	BD09  System = "BD-09"
)

// Point — координата вместе с системой отсчёта. Точку WGS-84 нельзя
// передать туда, где ждут BD-09, без явного вызова преобразования.
type Point struct {
	Lng    float64 `json:"lng"`
	Lat    float64 `json:"lat"`
	System System  `json:"system"`
}

// Эллипсоид Красовского
const (
	a  = 6378245.0
	ee = 0.00669342162296594323
)

// Wgs84ToGcj02 переводит WGS-84 в GCJ-02.
func Wgs84ToGcj02(lng, lat float64) (float64, float64) {
	dLat := transformLat(lng-105.0, lat-35.0)
	dLng := transformLng(lng-105.0, lat-35.0)

	radLat := lat / 180.0 * math.Pi
	magic := math.Sin(radLat)
	magic = 1 - ee*magic*magic
	sqrtMagic := math.Sqrt(magic)

	dLat = (dLat * 180.0) / ((a * (1 - ee)) / (magic * sqrtMagic) * math.Pi)
	dLng = (dLng * 180.0) / (a / sqrtMagic * math.Cos(radLat) * math.Pi)

	return lng + dLng, lat + dLat
}

// Gcj02ToBd09 переводит GCJ-02 в BD-09.
func Gcj02ToBd09(lng, lat float64) (float64, float64) {
	z := math.Sqrt(lng*lng+lat*lat) + 0.00002*math.Sin(lat*math.Pi*3000.0/180.0)
	theta := math.Atan2(lat, lng) + 0.000003*math.Cos(lng*math.Pi*3000.0/180.0)
	return z*math.Cos(theta) + 0.0065, z*math.Sin(theta) + 0.006
}

// Wgs84ToBd09 — композиция двух преобразований выше.
func Wgs84ToBd09(lng, lat float64) (float64, float64) {
	gLng, gLat := Wgs84ToGcj02(lng, lat)
	return Gcj02ToBd09(gLng, gLat)
}

// ToBD09 возвращает точку в BD-09. Для уже переведённых точек — копия.
func (p Point) ToBD09() Point {
	switch p.System {
	case WGS84:
		lng, lat := Wgs84ToBd09(p.Lng, p.Lat)
		return Point{Lng: lng, Lat: lat, System: BD09}
	case GCJ02:
		lng, lat := Gcj02ToBd09(p.Lng, p.Lat)
		return Point{Lng: lng, Lat: lat, System: BD09}
	default:
		return p
	}
}

func transformLat(lng, lat float64) float64 {
	ret := -100.0 + 2.0*lng + 3.0*lat + 0.2*lat*lat + 0.1*lng*lat + 0.2*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*math.Pi) + 20.0*math.Sin(2.0*lng*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lat*math.Pi) + 40.0*math.Sin(lat/3.0*math.Pi)) * 2.0 / 3.0
	ret += (160.0*math.Sin(lat/12.0*math.Pi) + 320*math.Sin(lat*math.Pi/30.0)) * 2.0 / 3.0
	return ret
}

func transformLng(lng, lat float64) float64 {
	ret := 300.0 + lng + 2.0*lat + 0.1*lng*lng + 0.1*lng*lat + 0.1*math.Sqrt(math.Abs(lng))
	ret += (20.0*math.Sin(6.0*lng*math.Pi) + 20.0*math.Sin(2.0*lng*math.Pi)) * 2.0 / 3.0
	ret += (20.0*math.Sin(lng*math.Pi) + 40.0*math.Sin(lng/3.0*math.Pi)) * 2.0 / 3.0
	ret += (150.0*math.Sin(lng/12.0*math.Pi) + 300.0*math.Sin(lng/30.0*math.Pi)) * 2.0 / 3.0
	return ret
}

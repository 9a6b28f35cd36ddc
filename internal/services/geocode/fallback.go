package geocode

import "fmt"

// Грубая привязка координаты к именованному региону, когда геокодер
// недоступен или ответил ошибкой. Это заглушка на лучшее усилие,
// а не геокодер.

type boundingBox struct {
	name           string
	minLng, maxLng float64
	minLat, maxLat float64
}

func (b boundingBox) contains(lng, lat float64) bool {
	return lng >= b.minLng && lng <= b.maxLng && lat >= b.minLat && lat <= b.maxLat
}

// Крупные агломерации проверяются первыми.
var metroBoxes = []boundingBox{
	{"北京市", 115.7, 117.4, 39.4, 41.6},
	{"上海市", 120.9, 122.1, 30.7, 31.9},
	{"广州市", 112.9, 114.1, 22.6, 23.9},
	{"深圳市", 113.7, 114.6, 22.4, 22.9},
	{"成都市", 103.0, 104.9, 30.1, 31.4},
	{"重庆市", 105.3, 110.2, 28.2, 32.2},
	{"武汉市", 113.7, 115.1, 29.9, 31.4},
	{"西安市", 107.7, 109.8, 33.7, 34.8},
}

// Государственная рамка КНР.
var chinaBox = boundingBox{"中国", 73.5, 135.1, 18.1, 53.6}

// ApproximateAddress возвращает название региона по статическим рамкам:
// сначала агломерации, затем три макрорегиона по долготе, иначе — сырые
// координаты.
func ApproximateAddress(lng, lat float64) string {
	for _, box := range metroBoxes {
		if box.contains(lng, lat) {
			return box.name
		}
	}

	if chinaBox.contains(lng, lat) {
		switch {
		case lng < 105:
			return "中国西部地区"
		case lng < 115:
			return "中国中部地区"
		default:
			return "中国东部地区"
		}
	}

	return fmt.Sprintf("坐标: %.6f, %.6f", lng, lat)
}

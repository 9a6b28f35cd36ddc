package gps

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/flyMoon99/fysl/internal/pkg/coord"
)

func TestParseProviderTimestamp(t *testing.T) {
	// 10-значное число — секунды, 13-значное — миллисекунды одного момента.
	seconds := parseProviderTimestamp(json.RawMessage("1700000000"))
	millis := parseProviderTimestamp(json.RawMessage("1700000000000"))
	if !seconds.Equal(millis) {
		t.Errorf("секунды и миллисекунды разошлись: %v vs %v", seconds, millis)
	}
	if want := time.Unix(1700000000, 0); !seconds.Equal(want) {
		t.Errorf("parseProviderTimestamp(1700000000) = %v, want %v", seconds, want)
	}

	// Строковая метка в формате провайдера.
	fromString := parseProviderTimestamp(json.RawMessage(`"2024-01-15 10:30:00"`))
	if want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local); !fromString.Equal(want) {
		t.Errorf("строковая метка: %v, want %v", fromString, want)
	}
}

func TestParseProviderTimestampUnparseable(t *testing.T) {
	before := time.Now()
	got := parseProviderTimestamp(json.RawMessage(`"мусор"`))
	after := time.Now()
	if got.Before(before) || got.After(after) {
		t.Errorf("неразборчивая метка должна давать текущее время, получено %v", got)
	}
}

func TestParseBattery(t *testing.T) {
	cases := []struct {
		soc  string
		want int
	}{
		{"85", 85},
		{"85.4", 85},
		{"85.5", 86},
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range cases {
		if got := parseBattery(tc.soc); got != tc.want {
			t.Errorf("parseBattery(%q) = %d, want %d", tc.soc, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if parseStatus("1") != "online" {
		t.Error(`parseStatus("1") должен быть online`)
	}
	for _, s := range []string{"0", "2", "", "online"} {
		if parseStatus(s) != "offline" {
			t.Errorf("parseStatus(%q) должен быть offline", s)
		}
	}
}

func TestProviderDeviceToDevice(t *testing.T) {
	pd := ProviderDevice{
		DeviceID:       "GPS001",
		Status:         "1",
		Soc:            "85",
		Longitude:      "116.404",
		Latitude:       "39.915",
		LastUploadTime: "2024-01-15 10:30:00",
	}

	device := pd.ToDevice()
	if device.DeviceNumber != "GPS001" {
		t.Errorf("DeviceNumber = %q", device.DeviceNumber)
	}
	if device.Status != "online" || device.BatteryLevel != 85 {
		t.Errorf("телеметрия: status=%q battery=%d", device.Status, device.BatteryLevel)
	}
	if device.LastLongitude != 116.404 || device.LastLatitude != 39.915 {
		t.Errorf("координаты: %v, %v", device.LastLongitude, device.LastLatitude)
	}
	if device.CustomerID != nil {
		t.Error("синхронизация не должна назначать владельца устройству")
	}
}

func TestCurrentLocationTelemetryDefaultsUpdateTime(t *testing.T) {
	// Снимок без lastUploadTime получает текущее время, а не nil.
	before := time.Now()
	tel := CurrentLocation{Status: "1", Soc: "50", Longitude: "116.404", Latitude: "39.915"}.Telemetry()
	after := time.Now()

	if tel.LastUpdateTime == nil {
		t.Fatal("LastUpdateTime не должен быть nil для снимка текущей позиции")
	}
	if tel.LastUpdateTime.Before(before) || tel.LastUpdateTime.After(after) {
		t.Errorf("ожидалось текущее время, получено %v", tel.LastUpdateTime)
	}

	// Явная метка провайдера проходит без замены.
	tel = CurrentLocation{LastUploadTime: "2024-01-15 10:30:00"}.Telemetry()
	want := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	if tel.LastUpdateTime == nil || !tel.LastUpdateTime.Equal(want) {
		t.Errorf("метка провайдера: %v, want %v", tel.LastUpdateTime, want)
	}
}

func TestTrackPointToLocation(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.Local)
	point := TrackPoint{Timestamp: at, Latitude: 39.915, Longitude: 116.404}

	loc := point.ToLocation(42)
	if loc.DeviceID != 42 {
		t.Errorf("DeviceID = %d", loc.DeviceID)
	}
	if loc.CoordinateSystem != coord.WGS84 {
		t.Errorf("система координат = %v, провайдер отдаёт WGS-84", loc.CoordinateSystem)
	}
	// created_at — исходное время замера, ключ дедупликации.
	if !loc.CreatedAt.Equal(at) {
		t.Errorf("CreatedAt = %v, want %v", loc.CreatedAt, at)
	}
}

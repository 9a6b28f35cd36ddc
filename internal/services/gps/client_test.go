package gps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string, pageSize int) *Client {
	return &Client{
		baseURL:   baseURL,
		appKey:    "testkey",
		appSecret: "testsecret",
		pageSize:  pageSize,
		pageDelay: time.Millisecond,
		http:      &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSignature(t *testing.T) {
	c := newTestClient("http://unused", 100)

	cases := []struct {
		method string
		want   string
	}{
		{"device.interfaces.getCurrentByGpsno", "54DCB852F4C779B1D99AB5FF07ECA7AF"},
		{"device.interfaces.getPlayBackByGpsno", "BA381971F46CDC0BDC0AAF1115FEA5BB"},
	}
	for _, tc := range cases {
		got := c.signature(tc.method, `{"gpsno":"GPS001"}`, "2024-01-15 10:30:00")
		if got != tc.want {
			t.Errorf("signature(%s) = %s, want %s", tc.method, got, tc.want)
		}
		// Детерминизм: одинаковый вход — одинаковая подпись.
		if again := c.signature(tc.method, `{"gpsno":"GPS001"}`, "2024-01-15 10:30:00"); again != got {
			t.Errorf("signature не детерминирована: %s vs %s", got, again)
		}
	}
}

func TestSignatureDependsOnEveryInput(t *testing.T) {
	c := newTestClient("http://unused", 100)
	base := c.signature("m", "d", "t")
	if c.signature("m2", "d", "t") == base {
		t.Error("подпись не зависит от метода")
	}
	if c.signature("m", "d2", "t") == base {
		t.Error("подпись не зависит от данных")
	}
	if c.signature("m", "d", "t2") == base {
		t.Error("подпись не зависит от метки времени")
	}
}

func TestFormatAPIDateTime(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 7, 2, 0, time.Local)
	if got, want := formatAPIDateTime(at), "2024-3-5 09:07:02"; got != want {
		t.Errorf("formatAPIDateTime = %q, want %q", got, want)
	}
	at = time.Date(2024, 11, 25, 23, 59, 59, 0, time.Local)
	if got, want := formatAPIDateTime(at), "2024-11-25 23:59:59"; got != want {
		t.Errorf("formatAPIDateTime = %q, want %q", got, want)
	}
}

func TestCallNotConfigured(t *testing.T) {
	c := newTestClient("http://unused", 100)
	c.appKey = ""
	_, err := c.ListDevices(context.Background(), DeviceFilters{}, 1, 10)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("ожидалась ErrNotConfigured, получено %v", err)
	}
}

func TestCallBusinessError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 1002, "message": "invalid sign"})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	_, err := c.ListDevices(context.Background(), DeviceFilters{}, 1, 10)

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("ожидалась ProviderError, получено %v", err)
	}
	if provErr.Code != 1002 || provErr.Message != "invalid sign" {
		t.Errorf("неожиданная ошибка провайдера: %+v", provErr)
	}
}

func TestCallHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	_, err := c.ListDevices(context.Background(), DeviceFilters{}, 1, 10)

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("ожидалась ProviderError, получено %v", err)
	}
	if provErr.Code != 0 {
		t.Errorf("транспортная ошибка должна иметь Code=0, получено %d", provErr.Code)
	}
}

func TestListDevicesRequestShape(t *testing.T) {
	var gotForm map[string]string
	var gotData map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{
			"method":    r.PostFormValue("method"),
			"app_key":   r.PostFormValue("app_key"),
			"sign":      r.PostFormValue("sign"),
			"timestamp": r.PostFormValue("timestamp"),
		}
		json.Unmarshal([]byte(r.PostFormValue("data")), &gotData)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"result": []interface{}{}, "totalCount": 0},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	if _, err := c.ListDevices(context.Background(), DeviceFilters{Gpsnos: "GPS001"}, 2, 50); err != nil {
		t.Fatalf("ListDevices: %v", err)
	}

	if gotForm["method"] != "device.syncDeviceInfos" {
		t.Errorf("method = %q", gotForm["method"])
	}
	if gotForm["app_key"] != "testkey" {
		t.Errorf("app_key = %q", gotForm["app_key"])
	}
	if len(gotForm["sign"]) != 32 {
		t.Errorf("подпись должна быть 32-символьным hex, получено %q", gotForm["sign"])
	}
	if _, err := time.ParseInLocation("2006-01-02 15:04:05", gotForm["timestamp"], time.Local); err != nil {
		t.Errorf("метка времени %q не в формате провайдера: %v", gotForm["timestamp"], err)
	}
	if gotData["gpsnos"] != "GPS001" || gotData["pageNo"] != float64(2) || gotData["pageSize"] != float64(50) {
		t.Errorf("неожиданное тело запроса: %v", gotData)
	}
}

func TestListAllDevicesPaginates(t *testing.T) {
	var pages []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		var req map[string]interface{}
		json.Unmarshal([]byte(r.PostFormValue("data")), &req)
		pageNo := int(req["pageNo"].(float64))
		pages = append(pages, pageNo)

		devices := []map[string]string{}
		// 5 устройств при размере страницы 2: страницы 1 и 2 полные, 3 — одно.
		count := 2
		if pageNo == 3 {
			count = 1
		}
		for i := 0; i < count; i++ {
			devices = append(devices, map[string]string{
				"deviceId": fmt.Sprintf("GPS%d%d", pageNo, i),
				"status":   "1",
			})
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{"result": devices, "totalCount": 5},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 2)
	devices, err := c.ListAllDevices(context.Background(), DeviceFilters{})
	if err != nil {
		t.Fatalf("ListAllDevices: %v", err)
	}
	if len(devices) != 5 {
		t.Errorf("устройств %d, ожидалось 5", len(devices))
	}
	if len(pages) != 3 || pages[0] != 1 || pages[1] != 2 || pages[2] != 3 {
		t.Errorf("неожиданный порядок страниц: %v", pages)
	}
}

func TestListAllDevicesCancelled(t *testing.T) {
	firstPageServed := make(chan struct{}, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{
				"result":     []map[string]string{{"deviceId": "GPS001"}},
				"totalCount": 10,
			},
		})
		firstPageServed <- struct{}{}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-firstPageServed
		cancel()
	}()

	c := newTestClient(server.URL, 1)
	// Пауза между страницами заведомо дольше теста: выйти можно только по отмене.
	c.pageDelay = time.Hour

	_, err := c.ListAllDevices(ctx, DeviceFilters{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидалась context.Canceled, получено %v", err)
	}
}

func TestProviderErrorUnwrapsTransportCause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	_, err := c.ListDevices(ctx, DeviceFilters{}, 1, 10)

	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("ожидалась ProviderError, получено %v", err)
	}
	// Транспортная причина видна сквозь обёртку.
	if !errors.Is(err, context.Canceled) {
		t.Errorf("errors.Is не видит context.Canceled сквозь ProviderError: %v", err)
	}
}

func TestGetHistoricalTrackParsesTriples(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]interface{}{
				"detail": []interface{}{
					[]interface{}{1700000000, 39.915, 116.404},
					[]interface{}{"not-a-triple"},
					[]interface{}{1700000060000, "31.2304", "121.4737"},
				},
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	start := time.Date(2023, 11, 14, 0, 0, 0, 0, time.Local)
	points, err := c.GetHistoricalTrack(context.Background(), "GPS001", start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("GetHistoricalTrack: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("точек %d, ожидалось 2 (битая пропущена)", len(points))
	}

	if points[0].Latitude != 39.915 || points[0].Longitude != 116.404 {
		t.Errorf("точка 0: %+v", points[0])
	}
	if !points[0].Timestamp.Equal(time.Unix(1700000000, 0)) {
		t.Errorf("секунды разобраны неверно: %v", points[0].Timestamp)
	}
	if !points[1].Timestamp.Equal(time.UnixMilli(1700000060000)) {
		t.Errorf("миллисекунды разобраны неверно: %v", points[1].Timestamp)
	}
	if points[1].Latitude != 31.2304 || points[1].Longitude != 121.4737 {
		t.Errorf("строковые координаты разобраны неверно: %+v", points[1])
	}
}

func TestGetHistoricalTrackEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"code": 0, "data": nil})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	start := time.Date(2023, 11, 14, 0, 0, 0, 0, time.Local)
	points, err := c.GetHistoricalTrack(context.Background(), "GPS001", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetHistoricalTrack: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("ожидался пустой трек, получено %d точек", len(points))
	}
}

func TestGetCurrentLocation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if got := r.PostFormValue("method"); got != "device.interfaces.getCurrentByGpsno" {
			t.Errorf("method = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 0,
			"data": map[string]string{
				"status":         "1",
				"soc":            "85.4",
				"longitude":      "116.404",
				"latitude":       "39.915",
				"lastUploadTime": "2024-01-15 10:30:00",
			},
		})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 100)
	loc, err := c.GetCurrentLocation(context.Background(), "GPS001")
	if err != nil {
		t.Fatalf("GetCurrentLocation: %v", err)
	}
	if !loc.HasCoordinate() {
		t.Error("ожидалась координата в снимке")
	}

	tel := loc.Telemetry()
	if tel.Status != "online" {
		t.Errorf("status = %q", tel.Status)
	}
	if tel.BatteryLevel != 85 {
		t.Errorf("battery = %d, ожидалось округление 85.4 до 85", tel.BatteryLevel)
	}
	if tel.LastLongitude != 116.404 || tel.LastLatitude != 39.915 {
		t.Errorf("координаты: %v, %v", tel.LastLongitude, tel.LastLatitude)
	}
	if tel.LastUpdateTime == nil {
		t.Error("ожидалось время обновления")
	}
}

package device

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/flyMoon99/fysl/internal/services/devicesync"
	"github.com/flyMoon99/fysl/internal/services/gps"
)

func TestRespondSyncError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"валидация", &devicesync.ValidationError{Reason: "окно слишком большое"}, http.StatusBadRequest, "SYNC_VALIDATION_ERROR"},
		{"провайдер не настроен", gps.ErrNotConfigured, http.StatusServiceUnavailable, "GPS_NOT_CONFIGURED"},
		{"бизнес-ошибка провайдера", &gps.ProviderError{Code: 1002, Message: "invalid sign"}, http.StatusBadGateway, "GPS_PROVIDER_ERROR"},
		{"транспортный сбой провайдера", &gps.ProviderError{Message: "connection refused"}, http.StatusBadGateway, "GPS_PROVIDER_ERROR"},
		{"прочее", errors.New("database is down"), http.StatusInternalServerError, "SYNC_ERROR"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		respondSyncError(rec, tc.err)

		if rec.Code != tc.wantStatus {
			t.Errorf("%s: статус %d, want %d", tc.name, rec.Code, tc.wantStatus)
		}
		var body map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: тело не JSON: %v", tc.name, err)
		}
		if body["code"] != tc.wantCode {
			t.Errorf("%s: code = %v, want %s", tc.name, body["code"], tc.wantCode)
		}
	}
}

func TestParseTimeParam(t *testing.T) {
	for _, s := range []string{
		"2024-01-15T10:30:00Z",
		"2024-01-15 10:30:00",
		"2024-01-15",
	} {
		if _, ok := parseTimeParam(s); !ok {
			t.Errorf("parseTimeParam(%q) не разобран", s)
		}
	}
	if _, ok := parseTimeParam(""); ok {
		t.Error("пустая строка не должна разбираться")
	}
	if _, ok := parseTimeParam("мусор"); ok {
		t.Error("мусор не должен разбираться")
	}
}

// services/gps/client.go — клиент стороннего GPS-провайдера.
//
// Каждый запрос подписывается: MD5-дайджест конкатенации
// secret + "app_key" + key + "data" + data + "method" + method + "timestamp" + ts + secret
// в верхнем регистре. Порядок конкатенации и формат времени менять нельзя —
// провайдер отвергнет запрос.
package gps

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/flyMoon99/fysl/config"
)

const defaultPageSize = 100

// Пауза между страницами ростера, чтобы не упереться в лимиты провайдера.
const pageFetchDelay = 100 * time.Millisecond

type Client struct {
	baseURL   string
	appKey    string
	appSecret string
	pageSize  int
	pageDelay time.Duration
	http      *http.Client
}

func NewClient(cfg *config.Config) *Client {
	pageSize := cfg.GpsPageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		baseURL:   cfg.GpsBaseURL,
		appKey:    cfg.GpsAppKey,
		appSecret: cfg.GpsSecret,
		pageSize:  pageSize,
		pageDelay: pageFetchDelay,
		http:      &http.Client{Timeout: cfg.GpsTimeout},
	}
}

// signature возвращает подпись запроса — uppercase hex MD5.
func (c *Client) signature(method, data, timestamp string) string {
	signString := c.appSecret + "app_key" + c.appKey + "data" + data +
		"method" + method + "timestamp" + timestamp + c.appSecret
	return strings.ToUpper(fmt.Sprintf("%x", md5.Sum([]byte(signString))))
}

// formatTimestamp — локальное время в формате YYYY-MM-DD HH:mm:ss с нулями.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatAPIDateTime — формат времени в полях запроса: месяц и день без
// ведущих нулей, время — с нулями. Так требует провайдер.
func formatAPIDateTime(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d %02d:%02d:%02d",
		t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// call отправляет подписанный form-encoded POST и разбирает конверт ответа.
func (c *Client) call(ctx context.Context, method string, requestData interface{}) (json.RawMessage, error) {
	if c.appKey == "" || c.appSecret == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(requestData)
	if err != nil {
		return nil, fmt.Errorf("gps: не удалось сериализовать данные запроса: %w", err)
	}
	data := string(payload)
	timestamp := formatTimestamp(time.Now())

	form := url.Values{}
	form.Set("method", method)
	form.Set("timestamp", timestamp)
	form.Set("app_key", c.appKey)
	form.Set("sign", c.signature(method, data, timestamp))
	form.Set("data", data)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ProviderError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Message: err.Error(), Err: err}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &ProviderError{Message: "некорректный ответ провайдера: " + err.Error()}
	}
	if env.Code != 0 {
		return nil, &ProviderError{Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

// DeviceFilters — параметры выборки ростера устройств.
type DeviceFilters struct {
	OrgID                string `json:"orgId"`
	Gpsnos               string `json:"gpsnos"`
	UpdateTimeFrom       string `json:"updateTimeFrom"`
	UpdateTimeTo         string `json:"updateTimeTo"`
	ServiceStartDateFrom string `json:"serviceStartDateFrom"`
	ServiceStartDateTo   string `json:"serviceStartDateTo"`
}

type deviceListRequest struct {
	DeviceFilters
	PageNo   int `json:"pageNo"`
	PageSize int `json:"pageSize"`
}

// ProviderDevice — устройство в формате провайдера. Числовые поля приходят
// строками, преобразование в локальный вид — в transform.go.
type ProviderDevice struct {
	DeviceID       string `json:"deviceId"`
	Status         string `json:"status"`
	Soc            string `json:"soc"`
	Longitude      string `json:"longitude"`
	Latitude       string `json:"latitude"`
	LastUploadTime string `json:"lastUploadTime"`
}

type DevicePage struct {
	Devices    []ProviderDevice
	TotalCount int
}

type deviceListResponse struct {
	Result     []ProviderDevice `json:"result"`
	TotalCount json.Number      `json:"totalCount"`
}

// ListDevices возвращает одну страницу ростера.
func (c *Client) ListDevices(ctx context.Context, filters DeviceFilters, pageNo, pageSize int) (*DevicePage, error) {
	raw, err := c.call(ctx, "device.syncDeviceInfos", deviceListRequest{
		DeviceFilters: filters,
		PageNo:        pageNo,
		PageSize:      pageSize,
	})
	if err != nil {
		return nil, err
	}

	var parsed deviceListResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Message: "некорректные данные ростера: " + err.Error()}
	}
	total, _ := parsed.TotalCount.Int64()
	return &DevicePage{Devices: parsed.Result, TotalCount: int(total)}, nil
}

// ListAllDevices выгружает весь ростер, перелистывая страницы до totalCount.
// Между страницами — короткая пауза (лимиты провайдера).
func (c *Client) ListAllDevices(ctx context.Context, filters DeviceFilters) ([]ProviderDevice, error) {
	first, err := c.ListDevices(ctx, filters, 1, c.pageSize)
	if err != nil {
		return nil, err
	}

	all := append([]ProviderDevice(nil), first.Devices...)
	totalPages := (first.TotalCount + c.pageSize - 1) / c.pageSize
	if totalPages > 1 {
		log.Printf("[gps] всего %d устройств, страниц: %d", first.TotalCount, totalPages)
	}

	for pageNo := 2; pageNo <= totalPages; pageNo++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pageDelay):
		}

		page, err := c.ListDevices(ctx, filters, pageNo, c.pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Devices...)
	}

	return all, nil
}

// TrackPoint — точка исторического трека, нормализованная к локальному виду.
type TrackPoint struct {
	Timestamp time.Time
	Latitude  float64
	Longitude float64
}

type trackResponse struct {
	Detail []json.RawMessage `json:"detail"`
}

// GetHistoricalTrack возвращает точки трека устройства за окно времени.
// Точки приходят тройками [timestamp, lat, lng]; timestamp бывает 10-значным
// (секунды), 13-значным (миллисекунды) или готовой строкой.
func (c *Client) GetHistoricalTrack(ctx context.Context, gpsno string, start, end time.Time) ([]TrackPoint, error) {
	raw, err := c.call(ctx, "device.interfaces.getPlayBackByGpsno", map[string]string{
		"gpsno":           gpsno,
		"starttime":       formatAPIDateTime(start),
		"endtime":         formatAPIDateTime(end),
		"includeEmptyLoc": "0",
	})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var parsed trackResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, &ProviderError{Message: "некорректные данные трека: " + err.Error()}
	}

	points := make([]TrackPoint, 0, len(parsed.Detail))
	for _, rawPoint := range parsed.Detail {
		var triple []json.RawMessage
		if err := json.Unmarshal(rawPoint, &triple); err != nil || len(triple) < 3 {
			log.Printf("[gps] пропущена некорректная точка трека: %s", rawPoint)
			continue
		}
		lat, latOK := parseRawFloat(triple[1])
		lng, lngOK := parseRawFloat(triple[2])
		if !latOK || !lngOK {
			log.Printf("[gps] пропущена точка с нечисловыми координатами: %s", rawPoint)
			continue
		}
		points = append(points, TrackPoint{
			Timestamp: parseProviderTimestamp(triple[0]),
			Latitude:  lat,
			Longitude: lng,
		})
	}
	return points, nil
}

// CurrentLocation — одиночный снимок текущего состояния устройства.
type CurrentLocation struct {
	Status         string `json:"status"`
	Soc            string `json:"soc"`
	Longitude      string `json:"longitude"`
	Latitude       string `json:"latitude"`
	LastUploadTime string `json:"lastUploadTime"`
}

// GetCurrentLocation запрашивает текущую позицию по номеру устройства.
func (c *Client) GetCurrentLocation(ctx context.Context, gpsno string) (*CurrentLocation, error) {
	raw, err := c.call(ctx, "device.interfaces.getCurrentByGpsno", map[string]string{"gpsno": gpsno})
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, &ProviderError{Message: "провайдер не вернул текущую позицию"}
	}

	var loc CurrentLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, &ProviderError{Message: "некорректные данные позиции: " + err.Error()}
	}
	return &loc, nil
}

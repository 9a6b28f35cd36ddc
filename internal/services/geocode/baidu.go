// services/geocode/baidu.go — обратное геокодирование через Baidu Map API v3.
//
// Сбой геокодера никогда не поднимается наверх: сохранение координат не
// должно блокироваться разрешением адреса. Вместо ошибки возвращается
// результат с адресом-заглушкой и заполненным полем Err.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/flyMoon99/fysl/config"
	"github.com/flyMoon99/fysl/internal/pkg/coord"
)

const (
	baiduBaseURL   = "https://api.map.baidu.com/reverse_geocoding/v3/"
	requestTimeout = 10 * time.Second

	// FailedAddress — адрес-заглушка при сбое геокодера.
	FailedAddress = "地址解析失败"
)

// ErrorKind — закрытое перечисление причин сбоя геокодера. Сырые коды
// Baidu за пределы клиента не выходят.
type ErrorKind int

const (
	ErrNone ErrorKind = iota
	ErrServiceDisabled   // 240: сервис не включён в консоли Baidu
	ErrKeyMisconfigured  // 101/102: проблема с ключом AK
	ErrProviderFailure   // прочие ненулевые статусы
	ErrRequestFailed     // транспортная ошибка или таймаут
	ErrNotConfigured     // AK не задан
)

func kindForStatus(status int) ErrorKind {
	switch status {
	case 240:
		return ErrServiceDisabled
	case 101, 102:
		return ErrKeyMisconfigured
	default:
		return ErrProviderFailure
	}
}

// Result — разобранный адрес. При сбое Address == FailedAddress,
// Err и Kind описывают причину.
type Result struct {
	Address      string    `json:"address"`
	Province     string    `json:"province"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Street       string    `json:"street"`
	StreetNumber string    `json:"street_number"`
	Country      string    `json:"country"`
	Adcode       string    `json:"adcode"`
	Town         string    `json:"town"`
	Confidence   int       `json:"confidence"`
	Level        string    `json:"level"`
	Err          string    `json:"error,omitempty"`
	Kind         ErrorKind `json:"-"`
}

type Client struct {
	baseURL      string
	configuredAK string
	http         *http.Client
}

func NewClient(cfg *config.Config) *Client {
	if cfg.BaiduAK == "" {
		log.Println("[geocode] AK Baidu не настроен, разрешение адресов будет недоступно")
	}
	return &Client{
		baseURL:      baiduBaseURL,
		configuredAK: cfg.BaiduAK,
		http:         &http.Client{Timeout: requestTimeout},
	}
}

// ak перечитывает ключ при каждом вызове: его могут задать уже после старта.
func (c *Client) ak() string {
	if v := os.Getenv("BAIDU_MAP_AK"); v != "" {
		return v
	}
	if v := os.Getenv("BAIDU_MAP_API_KEY"); v != "" {
		return v
	}
	return c.configuredAK
}

// IsAvailable — true, если ключ доступа настроен.
func (c *Client) IsAvailable() bool {
	return c.ak() != ""
}

type baiduResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Result  *struct {
		FormattedAddress string `json:"formatted_address"`
		Confidence       int    `json:"confidence"`
		Level            string `json:"level"`
		AddressComponent struct {
			Country      string `json:"country"`
			Province     string `json:"province"`
			City         string `json:"city"`
			District     string `json:"district"`
			Street       string `json:"street"`
			StreetNumber string `json:"street_number"`
			Adcode       string `json:"adcode"`
			Town         string `json:"town"`
		} `json:"addressComponent"`
	} `json:"result"`
}

// ReverseGeocode разрешает координату в почтовый адрес. Точки WGS-84
// сперва переводятся в BD-09 — Baidu ждёт именно их.
func (c *Client) ReverseGeocode(ctx context.Context, lng, lat float64, system coord.System) Result {
	ak := c.ak()
	if ak == "" {
		return failed("AK Baidu не настроен", ErrNotConfigured)
	}

	point := coord.Point{Lng: lng, Lat: lat, System: system}.ToBD09()

	params := url.Values{}
	params.Set("ak", ak)
	params.Set("output", "json")
	params.Set("coordtype", "bd09ll")
	params.Set("location", fmt.Sprintf("%f,%f", point.Lat, point.Lng))
	params.Set("extensions_poi", "0")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return failed(err.Error(), ErrRequestFailed)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failed(err.Error(), ErrRequestFailed)
	}
	defer resp.Body.Close()

	var parsed baiduResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return failed("некорректный ответ геокодера: "+err.Error(), ErrRequestFailed)
	}

	if parsed.Status != 0 {
		kind := kindForStatus(parsed.Status)
		switch kind {
		case ErrServiceDisabled:
			log.Println("[geocode] сервис обратного геокодирования не включён в консоли Baidu")
		case ErrKeyMisconfigured:
			log.Println("[geocode] проверьте настройку BAIDU_MAP_AK")
		}
		return failed(fmt.Sprintf("статус Baidu %d: %s", parsed.Status, parsed.Message), kind)
	}
	if parsed.Result == nil {
		return failed("пустой результат геокодера", ErrProviderFailure)
	}

	comp := parsed.Result.AddressComponent
	address := parsed.Result.FormattedAddress
	if address == "" {
		// Собираем адрес из компонентов в фиксированном порядке, пропуская пустые.
		for _, part := range []string{comp.Country, comp.Province, comp.City, comp.District, comp.Street, comp.StreetNumber} {
			address += part
		}
	}

	return Result{
		Address:      address,
		Province:     comp.Province,
		City:         comp.City,
		District:     comp.District,
		Street:       comp.Street,
		StreetNumber: comp.StreetNumber,
		Country:      orDefault(comp.Country, "中国"),
		Adcode:       comp.Adcode,
		Town:         comp.Town,
		Confidence:   parsed.Result.Confidence,
		Level:        parsed.Result.Level,
	}
}

func failed(reason string, kind ErrorKind) Result {
	return Result{
		Address: FailedAddress,
		Country: "中国",
		Err:     reason,
		Kind:    kind,
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

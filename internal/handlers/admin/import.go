// handlers/admin/import.go — массовый завоз ростера устройств из таблиц.
//
// Устройства обычно приезжают от провайдера через синхронизацию, но при
// онбординге клиента ростер часто существует только в виде таблицы —
// Google Sheets или загруженного xlsx.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"os"

	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/flyMoon99/fysl/internal/models"
	"github.com/flyMoon99/fysl/internal/pkg/response"
	"github.com/flyMoon99/fysl/internal/repositories"
)

type ImportHandler struct {
	devices *repositories.DeviceRepository
}

func NewImportHandler(devices *repositories.DeviceRepository) *ImportHandler {
	return &ImportHandler{devices: devices}
}

type importSummary struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// importRows создаёт устройства из строк вида
// [device_number, alias, remarks, model]. Уже известные номера пропускаются.
func (h *ImportHandler) importRows(ctx context.Context, rows [][]string) importSummary {
	summary := importSummary{Errors: []string{}}

	for _, row := range rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}

		existing, err := h.devices.FindByNumber(ctx, row[0])
		if err != nil {
			summary.Errors = append(summary.Errors, row[0]+": "+err.Error())
			continue
		}
		if existing != nil {
			summary.Skipped++
			continue
		}

		device := models.Device{
			DeviceNumber:  row[0],
			Status:        models.DeviceStatusOffline,
			ServiceStatus: "active",
			SettingStatus: "active",
		}
		if len(row) > 1 {
			device.DeviceAlias = row[1]
		}
		if len(row) > 2 {
			device.DeviceRemarks = row[2]
		}
		if len(row) > 3 {
			device.DeviceModel = row[3]
		}

		if err := h.devices.Create(ctx, &device); err != nil {
			summary.Errors = append(summary.Errors, row[0]+": "+err.Error())
			continue
		}
		summary.Created++
	}
	return summary
}

// ImportFromSheetHandler читает ростер из Google-таблицы.
func (h *ImportHandler) ImportFromSheetHandler(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SpreadsheetID string `json:"spreadsheetId"`
		Range         string `json:"range"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.SpreadsheetID == "" {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "spreadsheetId обязателен", "INVALID_REQUEST")
		return
	}
	if body.Range == "" {
		body.Range = "A2:D"
	}

	apiKey := os.Getenv("GOOGLE_API_KEY")
	if apiKey == "" {
		response.RespondWithErrorCode(w, http.StatusServiceUnavailable, "GOOGLE_API_KEY не настроен", "SHEETS_NOT_CONFIGURED")
		return
	}

	srv, err := sheets.NewService(r.Context(), option.WithAPIKey(apiKey))
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Не удалось создать клиент Sheets")
		return
	}

	values, err := srv.Spreadsheets.Values.Get(body.SpreadsheetID, body.Range).Do()
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusBadGateway, "Не удалось прочитать таблицу: "+err.Error(), "SHEETS_READ_ERROR")
		return
	}

	rows := make([][]string, 0, len(values.Values))
	for _, rawRow := range values.Values {
		row := make([]string, 0, len(rawRow))
		for _, cell := range rawRow {
			if s, ok := cell.(string); ok {
				row = append(row, s)
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Импорт завершён",
		"data":    h.importRows(r.Context(), rows),
	})
}

// ImportUploadHandler читает ростер из загруженного xlsx-файла.
func (h *ImportHandler) ImportUploadHandler(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Файл не передан", "INVALID_REQUEST")
		return
	}
	defer file.Close()

	xlsx, err := excelize.OpenReader(file)
	if err != nil {
		response.RespondWithErrorCode(w, http.StatusBadRequest, "Не удалось открыть xlsx", "INVALID_FILE")
		return
	}
	defer xlsx.Close()

	sheetName := xlsx.GetSheetName(0)
	rows, err := xlsx.GetRows(sheetName)
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Не удалось прочитать лист")
		return
	}
	if len(rows) > 0 {
		rows = rows[1:] // первая строка — заголовок
	}

	response.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Импорт завершён",
		"data":    h.importRows(r.Context(), rows),
	})
}

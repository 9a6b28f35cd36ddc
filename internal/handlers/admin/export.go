// handlers/admin/export.go
package admin

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/flyMoon99/fysl/internal/pkg/response"
	"github.com/flyMoon99/fysl/internal/repositories"
)

type ExportHandler struct {
	devices *repositories.DeviceRepository
}

func NewExportHandler(devices *repositories.DeviceRepository) *ExportHandler {
	return &ExportHandler{devices: devices}
}

// ExportDevicesHandler выгружает текущий ростер устройств в xlsx.
func (h *ExportHandler) ExportDevicesHandler(w http.ResponseWriter, r *http.Request) {
	devices, err := h.devices.ListAll(r.Context())
	if err != nil {
		response.RespondWithError(w, http.StatusInternalServerError, "Database error")
		return
	}

	xlsx := excelize.NewFile()
	defer xlsx.Close()
	sheet := xlsx.GetSheetName(0)

	headers := []string{"Номер устройства", "Алиас", "Статус", "Заряд, %", "Клиент", "Долгота", "Широта", "Обновлено"}
	for i, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		xlsx.SetCellValue(sheet, cell, title)
	}

	for rowIdx, d := range devices {
		customer := ""
		if d.CustomerID != nil {
			customer = fmt.Sprintf("%d", *d.CustomerID)
		}
		updated := ""
		if d.LastUpdateTime != nil {
			updated = d.LastUpdateTime.Format("2006-01-02 15:04:05")
		}
		values := []interface{}{
			d.DeviceNumber, d.DeviceAlias, d.Status, d.BatteryLevel,
			customer, d.LastLongitude, d.LastLatitude, updated,
		}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			xlsx.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("devices_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := xlsx.Write(w); err != nil {
		// Заголовки уже ушли, остаётся только залогировать на стороне клиента.
		return
	}
}

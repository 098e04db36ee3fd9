package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"

	"github.com/avelane/institut-booking/internal/repository"
)

// ExportHandler streams an institute's reservations as an XLSX workbook.
type ExportHandler struct {
	Reservations *repository.ReservationRepo
}

func NewExportHandler(reservations *repository.ReservationRepo) *ExportHandler {
	if reservations == nil {
		panic("nil repository passed to NewExportHandler")
	}
	return &ExportHandler{Reservations: reservations}
}

// Export builds the spreadsheet for a date range and writes it straight to
// the response, no temp file.
// GET /v1/admin/organizations/:org_id/reservations/export?from=&to=
func (h *ExportHandler) Export(c echo.Context) error {
	orgID, ok := pathID(c, "org_id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid org id"})
	}
	if !orgInScope(c, orgID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	from := strings.TrimSpace(c.QueryParam("from"))
	to := strings.TrimSpace(c.QueryParam("to"))
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "from and to must be YYYY-MM-DD"})
		}
	}
	if to < from {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "to must not precede from"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	rows, err := h.Reservations.ListForExport(ctx, orgID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := "Reservations"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build spreadsheet failed"})
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Client", "Email", "Phone", "Services", "Date", "Time",
		"Total", "Status", "Payment",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for i, row := range rows {
		n := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.ID)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.ClientName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.ClientEmail)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", n), row.ClientPhone)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", n), strings.Join(row.Services, ", "))
		_ = f.SetCellValue(sheet, fmt.Sprintf("F%d", n), row.Date)
		_ = f.SetCellValue(sheet, fmt.Sprintf("G%d", n), row.Time)
		_ = f.SetCellValue(sheet, fmt.Sprintf("H%d", n), row.TotalPrice)
		_ = f.SetCellValue(sheet, fmt.Sprintf("I%d", n), row.Status)
		_ = f.SetCellValue(sheet, fmt.Sprintf("J%d", n), row.PaymentStatus)
	}

	filename := fmt.Sprintf("reservations_%s_%s.xlsx", from, to)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().WriteHeader(http.StatusOK)
	return f.Write(c.Response().Writer)
}

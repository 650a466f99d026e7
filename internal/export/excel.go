// Package export renders appointment reports as Excel workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"salonbot/internal/models"
)

var appointmentColumns = []string{
	"ID", "Дата", "Время", "Услуга", "Имя", "Телефон", "Аллергия", "Создана",
}

// AppointmentsReport writes all appointments as a single-sheet workbook.
func AppointmentsReport(appts []models.Appointment, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Записи"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range appointmentColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(appointmentColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for r, a := range appts {
		row := []interface{}{
			a.ID,
			a.Date,
			a.Time,
			a.ServiceName,
			a.FullName,
			a.Phone,
			allergyLabel(a.HasAllergy),
			a.CreatedAt.Format("02.01.2006 15:04"),
		}
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func allergyLabel(has bool) string {
	if has {
		return "да"
	}
	return "нет"
}

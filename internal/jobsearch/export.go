package jobsearch

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"job-applier-go/internal/types"
)

// ExportSheet 导出工作簿中的工作表名
const ExportSheet = "Jobs"

// XLSXContentType xlsx 的 MIME 类型
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []any{"Rank", "Title", "Company", "Location", "Match Score", "Source", "Posted", "Apply URL"}

// ExportXLSX 把搜索结果写成单表工作簿
func ExportXLSX(jobs []types.JobListing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(ExportSheet, "A1", &exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, job := range jobs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			i + 1,
			job.Title,
			job.Company,
			job.Location,
			job.MatchScore,
			job.Source,
			job.DatePosted,
			job.ApplyURL,
		}
		if err := f.SetSheetRow(ExportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	_ = f.SetColWidth(ExportSheet, "B", "D", 32)
	_ = f.SetColWidth(ExportSheet, "H", "H", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

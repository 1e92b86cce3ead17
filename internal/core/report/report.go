// Package report 把表格数据渲染成 xlsx / pdf
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

func ParseFormat(s string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX, "":
		return FormatXLSX, true
	case FormatPDF:
		return FormatPDF, true
	}
	return "", false
}

type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// File 渲染结果
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Render 文件名形如 {base}_{yyyyMMddHHmmss}.{ext}
func Render(t Table, f Format, base string, now time.Time) (*File, error) {
	name := fmt.Sprintf("%s_%s.%s", base, now.Format("20060102150405"), f)
	switch f {
	case FormatXLSX:
		b, err := XLSX(t)
		if err != nil {
			return nil, err
		}
		return &File{Name: name, ContentType: ContentTypeXLSX, Body: b}, nil
	case FormatPDF:
		b, err := PDF(t)
		if err != nil {
			return nil, err
		}
		return &File{Name: name, ContentType: ContentTypePDF, Body: b}, nil
	}
	return nil, fmt.Errorf("report: unsupported format %q", f)
}

func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Title)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	for i, h := range t.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return nil, err
		}
	}
	for r, row := range t.Rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellStr(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	// 粗略自适应列宽
	for i := range t.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, float64(colWidth(t, i)))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// utf8Font 进程启动时由 UseUTF8Font 设置，之后只读
var utf8Font []byte

// UseUTF8Font 加载 TTF 字体，PDF 按 UTF-8 输出；path 为空则保持内置字体
func UseUTF8Font(fs afero.Fs, path string) error {
	if strings.TrimSpace(path) == "" {
		utf8Font = nil
		return nil
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return fmt.Errorf("report: load pdf font: %w", err)
	}
	utf8Font = b
	return nil
}

// cp1252 没有的土耳其字母折叠成 ASCII；ç ö ü 保留
var turkishFold = strings.NewReplacer(
	"ş", "s", "Ş", "S",
	"ğ", "g", "Ğ", "G",
	"ı", "i", "İ", "I",
)

// pdfFace 返回字体族与文本转换
func pdfFace(pdf *fpdf.Fpdf) (string, func(string) string) {
	if len(utf8Font) > 0 {
		pdf.AddUTF8FontFromBytes("body", "", utf8Font)
		pdf.AddUTF8FontFromBytes("body", "B", utf8Font)
		return "body", func(s string) string { return s }
	}
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	return "Helvetica", func(s string) string { return tr(turkishFold.Replace(s)) }
}

func PDF(t Table) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	family, tr := pdfFace(pdf)
	pdf.AddPage()

	pdf.SetFont(family, "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right
	widths := make([]float64, len(t.Headers))
	total := 0
	for i := range t.Headers {
		total += colWidth(t, i)
	}
	for i := range t.Headers {
		widths[i] = usable * float64(colWidth(t, i)) / float64(max(total, 1))
	}

	pdf.SetFont(family, "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range t.Headers {
		pdf.CellFormat(widths[i], 7, tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(family, "", 8)
	for _, row := range t.Rows {
		for i := range t.Headers {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			pdf.CellFormat(widths[i], 6, tr(clip(v, widths[i])), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func colWidth(t Table, i int) int {
	w := len([]rune(t.Headers[i]))
	for _, r := range t.Rows {
		if i < len(r) {
			w = max(w, len([]rune(r[i])))
		}
	}
	return min(max(w+2, 8), 50)
}

// clip 单元格按宽度截断（约 2mm/字符）
func clip(s string, widthMM float64) string {
	limit := int(widthMM / 1.8)
	rs := []rune(s)
	if limit <= 3 || len(rs) <= limit {
		return s
	}
	return string(rs[:limit-3]) + "..."
}

func sheetName(title string) string {
	s := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return -1
		}
		return r
	}, title)
	if s == "" {
		return "Sheet1"
	}
	if rs := []rune(s); len(rs) > 31 {
		s = string(rs[:31])
	}
	return s
}

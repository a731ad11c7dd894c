package export

import (
	"fmt"
	"io"

	"github.com/beevik/etree"

	"github.com/Jonatasvm/pagamento-sub000/internal/core"
)

// WriteXLS writes the requests as a SpreadsheetML 2003 workbook, which Excel
// and LibreOffice open as a native .xls spreadsheet.
func WriteXLS(w io.Writer, requests []core.PaymentRequest, obraName ObraNamer) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateProcInst("mso-application", `progid="Excel.Sheet"`)

	workbook := doc.CreateElement("Workbook")
	workbook.CreateAttr("xmlns", "urn:schemas-microsoft-com:office:spreadsheet")
	workbook.CreateAttr("xmlns:ss", "urn:schemas-microsoft-com:office:spreadsheet")

	styles := workbook.CreateElement("Styles")
	header := styles.CreateElement("Style")
	header.CreateAttr("ss:ID", "header")
	font := header.CreateElement("Font")
	font.CreateAttr("ss:Bold", "1")

	worksheet := workbook.CreateElement("Worksheet")
	worksheet.CreateAttr("ss:Name", "Pagamentos")
	table := worksheet.CreateElement("Table")

	headerRow := table.CreateElement("Row")
	for _, name := range Header {
		cell := headerRow.CreateElement("Cell")
		cell.CreateAttr("ss:StyleID", "header")
		data := cell.CreateElement("Data")
		data.CreateAttr("ss:Type", "String")
		data.SetText(name)
	}

	for _, r := range requests {
		tr := table.CreateElement("Row")
		for i, value := range row(r, resolveObra(obraName, r.Obra)) {
			cell := tr.CreateElement("Cell")
			data := cell.CreateElement("Data")
			data.CreateAttr("ss:Type", cellType(i))
			data.SetText(value)
		}
	}

	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellType marks the id and parcela-count columns numeric; every other
// column stays a string so dates and comma-decimals are not mangled.
func cellType(col int) string {
	switch col {
	case 0, 9:
		return "Number"
	default:
		return "String"
	}
}

package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/leadfinder/internal/model"
)

// SheetName is the worksheet holding the leads.
const SheetName = "Leads"

// XLSX writes a workbook with one sheet of leads.
func XLSX(w io.Writer, recs []model.Business) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(SheetName)
	if err != nil {
		return eris.Wrap(err, "export: xlsx add sheet")
	}

	header := sheet.AddRow()
	for _, c := range columns {
		header.AddCell().SetString(c)
	}

	for _, b := range recs {
		r := sheet.AddRow()
		for _, v := range toRow(b).values() {
			cell := r.AddCell()
			switch v := v.(type) {
			case nil:
			case string:
				cell.SetString(v)
			case int:
				cell.SetInt(v)
			case float64:
				cell.SetFloat(v)
			case bool:
				cell.SetBool(v)
			}
		}
	}

	return eris.Wrap(f.Write(w), "export: xlsx write")
}

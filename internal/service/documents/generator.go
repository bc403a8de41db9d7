package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/challans/internal/domain/models"
)

// ContentType is the MIME type of rendered documents.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	templateExt  = ".xlsx"
	itemPrefix   = "item."
	defaultSheet = "Challan"
)

// ErrTemplateNotFound is returned when templateRef does not name a template file.
var ErrTemplateNotFound = errors.New("document template not found")

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Data is the merged field map for one document. Items feed the item row.
type Data struct {
	Fields map[string]string
	Items  []map[string]string
}

// Merge adds extra fields without overriding existing ones.
func (d Data) Merge(extra map[string]string) Data {
	if d.Fields == nil {
		d.Fields = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, ok := d.Fields[k]; !ok {
			d.Fields[k] = v
		}
	}
	return d
}

// Generator renders spreadsheet documents from xlsx templates.
type Generator struct {
	templateDir string
	logger      *zap.Logger
}

// NewGenerator reads templates from templateDir.
func NewGenerator(templateDir string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{templateDir: templateDir, logger: logger}
}

// Render fills templateRef with data and returns the xlsx bytes. An empty
// templateRef renders the built-in challan layout.
func (g *Generator) Render(ctx context.Context, templateRef string, data Data) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := g.open(templateRef)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := fill(f, data); err != nil {
		return nil, fmt.Errorf("fill template %q: %w", templateRef, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	g.logger.Debug("document rendered",
		zap.String("template", templateRef),
		zap.Int("items", len(data.Items)),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

// Templates lists the template references available in the template directory.
func (g *Generator) Templates() ([]string, error) {
	entries, err := os.ReadDir(g.templateDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	var refs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), templateExt) || strings.HasPrefix(name, "~$") {
			continue
		}
		refs = append(refs, strings.TrimSuffix(name, filepath.Ext(name)))
	}
	return refs, nil
}

func (g *Generator) open(templateRef string) (*excelize.File, error) {
	ref := strings.TrimSpace(templateRef)
	if ref == "" {
		return defaultTemplate()
	}
	if ref != filepath.Base(ref) || strings.Contains(ref, "..") {
		return nil, fmt.Errorf("%q: %w", templateRef, ErrTemplateNotFound)
	}

	path := filepath.Join(g.templateDir, ref+templateExt)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%q: %w", templateRef, ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("stat template %q: %w", templateRef, err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template %q: %w", templateRef, err)
	}
	return f, nil
}

// fill replaces placeholders on the first sheet. The first row holding an
// item placeholder is repeated once per item, or removed when there are none.
func fill(f *excelize.File, data Data) error {
	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	itemRow := -1
	for r, row := range rows {
		if itemRow < 0 && rowHasItemPlaceholder(row) {
			itemRow = r
			continue
		}
		for c, value := range row {
			if !strings.Contains(value, "{{") {
				continue
			}
			if err := setCell(f, sheet, c+1, r+1, expand(value, data.Fields, nil)); err != nil {
				return err
			}
		}
	}
	if itemRow < 0 {
		return nil
	}

	template := rows[itemRow]
	rowNum := itemRow + 1
	if len(data.Items) == 0 {
		return f.RemoveRow(sheet, rowNum)
	}
	for i := 1; i < len(data.Items); i++ {
		if err := f.DuplicateRow(sheet, rowNum); err != nil {
			return err
		}
	}
	for i, item := range data.Items {
		for c, value := range template {
			if !strings.Contains(value, "{{") {
				continue
			}
			if err := setCell(f, sheet, c+1, rowNum+i, expand(value, data.Fields, item)); err != nil {
				return err
			}
		}
	}
	return nil
}

func rowHasItemPlaceholder(row []string) bool {
	for _, value := range row {
		for _, m := range placeholder.FindAllStringSubmatch(value, -1) {
			if strings.HasPrefix(m[1], itemPrefix) {
				return true
			}
		}
	}
	return false
}

// expand substitutes every placeholder in value. Unknown keys become empty.
func expand(value string, fields, item map[string]string) string {
	return placeholder.ReplaceAllStringFunc(value, func(token string) string {
		key := placeholder.FindStringSubmatch(token)[1]
		if strings.HasPrefix(key, itemPrefix) {
			return item[strings.TrimPrefix(key, itemPrefix)]
		}
		return fields[key]
	})
}

// setCell writes plain counts as numbers so totals in templates keep working.
// Signed or zero-padded values such as phone numbers stay text.
func setCell(f *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if isCount(value) {
		if n, err := strconv.Atoi(value); err == nil {
			return f.SetCellInt(sheet, cell, int64(n))
		}
	}
	return f.SetCellValue(sheet, cell, value)
}

func isCount(value string) bool {
	if value == "" || (value[0] == '0' && value != "0") {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

var itemColumns = []struct {
	header string
	key    string
	width  float64
}{
	{"#", "line", 6},
	{"Asset", "asset_name", 28},
	{"Description", "description", 34},
	{"Serial No.", "serial_number", 18},
	{"Qty", "quantity", 8},
	{"Returnable", "returnable", 12},
	{"Expected Return", "expected_return_date", 16},
}

var headerFields = []struct {
	label string
	key   string
}{
	{"DC Number", "dc_number"},
	{"Date", "date"},
	{"Client", "client"},
	{"Location", "location"},
	{"Project", "project_name"},
	{"PO Number", "po_number"},
	{"Prepared By", "prepared_by"},
}

// defaultTemplate builds the built-in layout: a header block followed by the item table.
func defaultTemplate() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", defaultSheet); err != nil {
		return nil, err
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	labelStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	headStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "left", Color: "#000000", Style: 1},
			{Type: "top", Color: "#000000", Style: 1},
			{Type: "bottom", Color: "#000000", Style: 1},
			{Type: "right", Color: "#000000", Style: 1},
		},
	})

	f.SetCellValue(defaultSheet, "A1", "DELIVERY CHALLAN")
	f.SetCellStyle(defaultSheet, "A1", "A1", titleStyle)

	row := 3
	for _, h := range headerFields {
		f.SetCellValue(defaultSheet, fmt.Sprintf("A%d", row), h.label)
		f.SetCellStyle(defaultSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(defaultSheet, fmt.Sprintf("B%d", row), "{{"+h.key+"}}")
		row++
	}

	row++
	last, _ := excelize.ColumnNumberToName(len(itemColumns))
	for i, col := range itemColumns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetCellValue(defaultSheet, fmt.Sprintf("%s%d", name, row), col.header)
		f.SetCellValue(defaultSheet, fmt.Sprintf("%s%d", name, row+1), "{{"+itemPrefix+col.key+"}}")
		f.SetColWidth(defaultSheet, name, name, col.width)
	}
	f.SetCellStyle(defaultSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", last, row), headStyle)

	row += 3
	f.SetCellValue(defaultSheet, fmt.Sprintf("A%d", row), "Total quantity")
	f.SetCellStyle(defaultSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(defaultSheet, fmt.Sprintf("E%d", row), "{{total_quantity}}")
	row++
	f.SetCellValue(defaultSheet, fmt.Sprintf("A%d", row), "Notes")
	f.SetCellStyle(defaultSheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
	f.SetCellValue(defaultSheet, fmt.Sprintf("B%d", row), "{{notes}}")
	row += 2
	f.SetCellValue(defaultSheet, fmt.Sprintf("A%d", row), "Received by")
	f.SetCellValue(defaultSheet, fmt.Sprintf("E%d", row), "Authorised signatory")

	return f, nil
}

// ChallanFields builds the field map for challan and one item map per line.
func ChallanFields(challan models.Challan) Data {
	totalQty := 0
	items := make([]map[string]string, 0, len(challan.Items))
	for _, item := range challan.Items {
		totalQty += item.Quantity
		returnable := "No"
		if item.Returnable {
			returnable = "Yes"
		}
		items = append(items, map[string]string{
			"line":                 strconv.Itoa(item.LineIndex),
			"item_id":              item.ItemID,
			"asset_name":           item.AssetName,
			"description":          item.Description,
			"serial_number":        item.SerialNumber,
			"quantity":             strconv.Itoa(item.Quantity),
			"returnable":           returnable,
			"expected_return_date": displayDate(item.ExpectedReturnDate),
			"returned_date":        displayDate(item.ReturnedDate),
		})
	}

	return Data{
		Fields: map[string]string{
			"dc_number":        challan.DCNumber,
			"date":             displayDate(challan.Date),
			"date_iso":         challan.Date,
			"client":           challan.Client,
			"location":         challan.Location,
			"project_name":     challan.ProjectName,
			"po_number":        challan.PONumber,
			"prepared_by":      challan.PreparedBy,
			"notes":            challan.Notes,
			"total_items":      strconv.Itoa(len(challan.Items)),
			"total_quantity":   strconv.Itoa(totalQty),
			"returnable_items": strconv.Itoa(challan.ReturnableCount()),
		},
		Items: items,
	}
}

// ClientFields exposes client contact details as client_* fields.
func ClientFields(client models.Client) map[string]string {
	return map[string]string{
		"client_contact": client.ContactPerson,
		"client_phone":   client.Phone,
		"client_email":   client.Email,
		"client_address": client.Address,
	}
}

// FileName derives a download name from a DC number.
func FileName(dcNumber string) string {
	return strings.NewReplacer("/", "-", " ", "_").Replace(dcNumber) + templateExt
}

// displayDate renders stored dates as DD-MM-YYYY and leaves bad values untouched.
func displayDate(value string) string {
	if value == "" {
		return ""
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return value
	}
	return d.Format("02-01-2006")
}

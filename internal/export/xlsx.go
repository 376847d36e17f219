// Package export renders visit listings as Excel workbooks.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the rendered workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const sheetName = "Visites"

// Row is one visit as it appears in the sheet. Numeric cells are left blank
// when nil.
type Row struct {
	DateVisite   time.Time
	Entreprise   string
	Personne     string
	Fonction     string
	Email        string
	Telephone    string
	Adresse      string
	Ville        string
	Zone         string
	Objet        string
	Commentaire  string
	StatutVisite string
	StatutAction string
	Montant      *float64
	Probabilite  *int
	Commercial   string
	CreatedAt    time.Time
}

type column struct {
	header string
	width  float64
}

var columns = []column{
	{"Date", 12},
	{"Entreprise", 35},
	{"Personne Rencontrée", 22},
	{"Fonction/Poste", 28},
	{"Email", 32},
	{"Téléphone", 15},
	{"Adresse", 35},
	{"Ville", 18},
	{"Zone", 18},
	{"Objet de la Visite", 40},
	{"Commentaire", 45},
	{"Statut Visite", 14},
	{"Statut Action", 14},
	{"Montant (DT)", 12},
	{"Probabilité (%)", 12},
	{"Commercial", 22},
	{"Créé le", 12},
}

// Filename is the attachment name for an export generated at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("visites_export_%s.xlsx", now.Format(time.DateOnly))
}

// RenderVisits builds the workbook and returns its bytes.
func RenderVisits(rows []Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("export: rename sheet: %w", err)
	}

	styles, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	headers := make([]any, len(columns))
	for i, c := range columns {
		headers[i] = c.header
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, name, name, c.width); err != nil {
			return nil, fmt.Errorf("export: column width: %w", err)
		}
	}
	if err := f.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return nil, fmt.Errorf("export: header row: %w", err)
	}
	if err := f.SetCellStyle(sheetName, "A1", lastCol+"1", styles.header); err != nil {
		return nil, fmt.Errorf("export: header style: %w", err)
	}
	_ = f.SetRowHeight(sheetName, 1, 25)

	for i, r := range rows {
		rowNum := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		values := r.values()
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("export: row %d: %w", rowNum, err)
		}
		style := styles.odd
		if i%2 == 0 {
			style = styles.even
		}
		if err := f.SetCellStyle(sheetName, cell, fmt.Sprintf("%s%d", lastCol, rowNum), style); err != nil {
			return nil, fmt.Errorf("export: row style: %w", err)
		}
		_ = f.SetRowHeight(sheetName, rowNum, r.height())
	}

	if err := f.AutoFilter(sheetName, "A1:"+lastCol+"1", nil); err != nil {
		return nil, fmt.Errorf("export: autofilter: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("export: freeze header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("export: write: %w", err)
	}
	return buf.Bytes(), nil
}

func (r Row) values() []any {
	out := []any{
		frenchDate(r.DateVisite),
		r.Entreprise,
		r.Personne,
		r.Fonction,
		r.Email,
		r.Telephone,
		r.Adresse,
		r.Ville,
		r.Zone,
		r.Objet,
		r.Commentaire,
		r.StatutVisite,
		r.StatutAction,
		"",
		"",
		r.Commercial,
		frenchDate(r.CreatedAt),
	}
	if r.Montant != nil && *r.Montant != 0 {
		out[13] = *r.Montant
	}
	if r.Probabilite != nil && *r.Probabilite != 0 {
		out[14] = *r.Probabilite
	}
	return out
}

// height grows with the longest free-text cell.
func (r Row) height() float64 {
	longest := 0
	for _, s := range []string{r.Entreprise, r.Fonction, r.Email, r.Objet, r.Commentaire} {
		if n := len([]rune(s)); n > longest {
			longest = n
		}
	}
	switch {
	case longest > 100:
		return 35
	case longest > 60:
		return 25
	default:
		return 20
	}
}

func frenchDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

type sheetStyles struct {
	header int
	even   int
	odd    int
}

func newStyles(f *excelize.File) (sheetStyles, error) {
	var s sheetStyles
	var err error

	headerBorder := []excelize.Border{
		{Type: "top", Color: "2E5090", Style: 2},
		{Type: "bottom", Color: "2E5090", Style: 2},
		{Type: "left", Color: "2E5090", Style: 1},
		{Type: "right", Color: "2E5090", Style: 1},
	}
	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Family: "Calibri", Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2E5090"}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    headerBorder,
	})
	if err != nil {
		return s, fmt.Errorf("export: header style: %w", err)
	}

	cellBorder := []excelize.Border{
		{Type: "top", Color: "D0D0D0", Style: 1},
		{Type: "bottom", Color: "D0D0D0", Style: 1},
		{Type: "left", Color: "D0D0D0", Style: 1},
		{Type: "right", Color: "D0D0D0", Style: 1},
	}
	body := excelize.Style{
		Font:      &excelize.Font{Size: 10, Family: "Calibri"},
		Alignment: &excelize.Alignment{Vertical: "top", Horizontal: "left"},
		Border:    cellBorder,
	}
	if s.odd, err = f.NewStyle(&body); err != nil {
		return s, fmt.Errorf("export: row style: %w", err)
	}
	body.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F5F5F5"}}
	if s.even, err = f.NewStyle(&body); err != nil {
		return s, fmt.Errorf("export: row style: %w", err)
	}
	return s, nil
}

// Package workbook renders the dataset as an xlsx dashboard.
package workbook

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"companydash/finance"
)

const (
	DashboardSheet   = "Dashboard"
	RawDataSheet     = "Raw Data"
	CompanyListSheet = "Company List"

	headerColor = "FF366092"
)

// Header is the first row of the raw data sheet.
var Header = []string{"Company", "Sector", "Price", "Market Cap", "P/E", "URL"}

// metrics are the dashboard lookups: label and column in the raw data sheet.
var metrics = []struct {
	label string
	col   int
}{
	{"Current Price:", 3},
	{"Market Cap:", 4},
	{"P/E Ratio:", 5},
	{"Sector:", 2},
}

var instructions = []string{
	"1. Select a company from the dropdown above",
	"2. All metrics will update automatically",
	"3. Check 'Raw Data' sheet for all company information",
}

// Filename returns the timestamped output name for a workbook created at now.
func Filename(now time.Time) string {
	return fmt.Sprintf("Company_Dashboard_%s.xlsx", now.Format("20060102_150405"))
}

// Render writes the workbook into dir and returns its path.
func Render(ds finance.Dataset, dir string, now time.Time) (string, error) {
	f, err := Build(ds)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, Filename(now))
	out, err := os.Create(path)
	if err != nil {
		return "", eris.Wrapf(err, "workbook: create %s", path)
	}
	if err := save(f, out); err != nil {
		_ = out.Close()
		return "", eris.Wrapf(err, "workbook: save %s", path)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "workbook: close %s", path)
	}
	return path, nil
}

// Write streams the workbook to w.
func Write(ds finance.Dataset, w io.Writer) error {
	f, err := Build(ds)
	if err != nil {
		return err
	}
	if err := save(f, w); err != nil {
		return eris.Wrap(err, "workbook: write")
	}
	return nil
}

// save zips the workbook parts like File.Write, but marks hidden sheets as
// hidden in workbook.xml; xlsx/v2 writes every sheet as visible.
func save(f *xlsx.File, w io.Writer) error {
	parts, err := f.MarshallParts()
	if err != nil {
		return err
	}
	for i, sh := range f.Sheets {
		if !sh.Hidden {
			continue
		}
		visible := fmt.Sprintf(`sheetId="%d" r:id="rId%d" state="visible"`, i+1, i+1)
		hidden := strings.Replace(visible, `state="visible"`, `state="hidden"`, 1)
		parts["xl/workbook.xml"] = strings.Replace(parts["xl/workbook.xml"], visible, hidden, 1)
	}

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	zw := zip.NewWriter(w)
	for _, name := range names {
		pw, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(pw, parts[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// Build assembles the dashboard, raw data and hidden company list sheets.
func Build(ds finance.Dataset) (*xlsx.File, error) {
	f := xlsx.NewFile()

	dash, err := f.AddSheet(DashboardSheet)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: add dashboard sheet")
	}
	raw, err := f.AddSheet(RawDataSheet)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: add raw data sheet")
	}
	list, err := f.AddSheet(CompanyListSheet)
	if err != nil {
		return nil, eris.Wrap(err, "workbook: add company list sheet")
	}

	fillRawData(raw, ds)
	fillCompanyList(list, ds)
	if err := fillDashboard(dash, ds); err != nil {
		return nil, err
	}
	return f, nil
}

func fillRawData(sh *xlsx.Sheet, ds finance.Dataset) {
	header := sh.AddRow()
	for _, h := range Header {
		c := header.AddCell()
		c.SetString(h)
		c.SetStyle(headerStyle())
	}
	for _, rec := range ds.Records {
		row := sh.AddRow()
		for _, v := range rec.Row() {
			row.AddCell().SetString(v)
		}
	}

	sh.SetColWidth(0, 0, 25)
	sh.SetColWidth(1, 1, 20)
	sh.SetColWidth(5, 5, 50)
}

func fillCompanyList(sh *xlsx.Sheet, ds finance.Dataset) {
	sh.AddRow().AddCell().SetString("Company Name")
	for _, name := range ds.Names() {
		sh.AddRow().AddCell().SetString(name)
	}
	sh.Hidden = true
}

func fillDashboard(sh *xlsx.Sheet, ds finance.Dataset) error {
	title := sh.Cell(0, 0)
	title.SetString("COMPANY FINANCIAL DASHBOARD")
	title.SetStyle(titleStyle())
	title.Merge(5, 0)
	sh.Rows[0].SetHeight(30)

	label := sh.Cell(2, 0)
	label.SetString("Select Company:")
	label.SetStyle(boldStyle(12))

	// B3 holds the selected company; the lookups below key off it.
	picker := sh.Cell(2, 1)
	if len(ds.Records) > 0 {
		picker.SetString(ds.Records[0].Name)
	} else {
		picker.SetString("")
	}
	// The list covers 'Company List'!A2 down to the last company.
	dv := xlsx.NewDataValidation(2, 1, 2, 1, false)
	if err := dv.SetInFileList(CompanyListSheet, 0, 1, 0, len(ds.Records)); err != nil {
		return eris.Wrap(err, "workbook: company dropdown")
	}
	picker.SetDataValidation(dv)

	heading := sh.Cell(4, 0)
	heading.SetString("Key Metrics")
	heading.SetStyle(boldStyle(14))

	for i, m := range metrics {
		l := sh.Cell(5+i, 0)
		l.SetString(m.label)
		l.SetStyle(boldStyle(11))
		sh.Cell(5+i, 1).SetFormula(fmt.Sprintf("VLOOKUP($B$3,'%s'!$A:$F,%d,FALSE)", RawDataSheet, m.col))
	}

	help := sh.Cell(11, 0)
	help.SetString("Instructions:")
	help.SetStyle(boldStyle(12))
	for i, line := range instructions {
		sh.Cell(12+i, 0).SetString(line)
	}

	sh.SetColWidth(0, 0, 20)
	sh.SetColWidth(1, 1, 30)
	return nil
}

func headerStyle() *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font.Bold = true
	s.Font.Color = "FFFFFFFF"
	s.Fill = *xlsx.NewFill("solid", headerColor, headerColor)
	s.ApplyFont = true
	s.ApplyFill = true
	return s
}

func titleStyle() *xlsx.Style {
	s := headerStyle()
	s.Font.Size = 18
	s.Alignment.Horizontal = "center"
	s.Alignment.Vertical = "center"
	s.ApplyAlignment = true
	return s
}

func boldStyle(size int) *xlsx.Style {
	s := xlsx.NewStyle()
	s.Font.Bold = true
	s.Font.Size = size
	s.ApplyFont = true
	return s
}

// Package sheets mirrors the dataset into a Google Sheets range.
package sheets

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"companydash/finance"
)

// Header is the first row written to the sheet.
var Header = []string{"Company", "Sector", "Current Price", "Market Cap", "P/E Ratio", "URL"}

// Writer replaces the contents of a sheet range.
type Writer interface {
	Replace(ctx context.Context, clearRange, writeRange string, rows [][]string) error
}

// Client writes to one spreadsheet through the Sheets v4 API.
type Client struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// NewClient builds a client from base64-encoded service account JSON.
// Extra options are passed through to the API client.
func NewClient(ctx context.Context, spreadsheetID, credentialsBase64 string, opts ...option.ClientOption) (*Client, error) {
	if credentialsBase64 != "" {
		creds, err := base64.StdEncoding.DecodeString(credentialsBase64)
		if err != nil {
			return nil, eris.Wrap(err, "sheets: decode credentials")
		}
		opts = append([]option.ClientOption{
			option.WithCredentialsJSON(creds),
			option.WithScopes(gsheets.SpreadsheetsScope),
		}, opts...)
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "sheets: create service")
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// Replace clears clearRange and writes rows starting at writeRange.
func (c *Client) Replace(ctx context.Context, clearRange, writeRange string, rows [][]string) error {
	_, err := c.svc.Spreadsheets.Values.
		Clear(c.spreadsheetID, clearRange, &gsheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: clear %s", clearRange)
	}

	values := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		cells := make([]interface{}, 0, len(row))
		for _, v := range row {
			cells = append(cells, v)
		}
		values = append(values, cells)
	}

	_, err = c.svc.Spreadsheets.Values.
		Update(c.spreadsheetID, writeRange, &gsheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return eris.Wrapf(err, "sheets: update %s", writeRange)
	}
	return nil
}

// URL returns the browser link for the spreadsheet.
func (c *Client) URL() string {
	return SpreadsheetURL(c.spreadsheetID)
}

// SpreadsheetURL returns the browser link for spreadsheetID.
func SpreadsheetURL(spreadsheetID string) string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
}

// Rows flattens the dataset into the header plus one row per record.
func Rows(ds finance.Dataset) [][]string {
	rows := make([][]string, 0, len(ds.Records)+1)
	rows = append(rows, Header)
	for _, r := range ds.Records {
		rows = append(rows, r.Row())
	}
	return rows
}

// Publish writes ds through w and returns the number of rows written.
func Publish(ctx context.Context, w Writer, clearRange, writeRange string, ds finance.Dataset) (int, error) {
	rows := Rows(ds)
	if err := w.Replace(ctx, clearRange, writeRange, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

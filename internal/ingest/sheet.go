// internal/ingest/sheet.go
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/config"
	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// SheetFetcher pulls the stock log out of a Google Sheet. Published sheets
// are fetched as CSV over plain HTTP; private spreadsheets go through the
// Sheets API with service-account credentials.
type SheetFetcher struct {
	cfg    config.SheetConfig
	client *resty.Client
}

func NewSheetFetcher(cfg config.SheetConfig) *SheetFetcher {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)

	return &SheetFetcher{cfg: cfg, client: client}
}

// Fetch returns per-item observation series from whichever source is
// configured. The authenticated path wins when credentials are present.
func (f *SheetFetcher) Fetch(ctx context.Context) (map[string][]domain.StockObservation, error) {
	if f.cfg.CredentialsJSON != "" && f.cfg.SpreadsheetID != "" {
		return f.fetchAPI(ctx)
	}
	if f.cfg.CSVURL != "" {
		return f.fetchCSV(ctx)
	}
	return nil, fmt.Errorf("no sheet source configured: set SHEET_CSV_URL or SHEET_SPREADSHEET_ID with credentials")
}

func (f *SheetFetcher) fetchCSV(ctx context.Context) (map[string][]domain.StockObservation, error) {
	resp, err := f.client.R().SetContext(ctx).Get(f.cfg.CSVURL)
	if err != nil {
		return nil, fmt.Errorf("fetch published sheet: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch published sheet: unexpected status %s", resp.Status())
	}
	return ReadObservations(bytes.NewReader(resp.Body()))
}

func (f *SheetFetcher) fetchAPI(ctx context.Context) (map[string][]domain.StockObservation, error) {
	jwt, err := google.JWTConfigFromJSON([]byte(f.cfg.CredentialsJSON), sheetsapi.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}

	service, err := sheetsapi.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("init sheets client: %w", err)
	}

	readRange := f.cfg.ReadRange
	if readRange == "" {
		readRange = "A:C"
	}

	values, err := service.Spreadsheets.Values.Get(f.cfg.SpreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", readRange, err)
	}
	if len(values.Values) == 0 {
		return nil, &domain.SchemaError{Missing: []string{"date", "current_stock"}}
	}

	return rowsToObservations(values.Values)
}

// rowsToObservations applies the same header mapping and row-drop rules as
// the CSV reader to raw Sheets API values.
func rowsToObservations(rows [][]interface{}) (map[string][]domain.StockObservation, error) {
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = fmt.Sprint(cell)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxDate := colIndex("date", "tanggal", "timestamp")
	idxStock := colIndex("current_stock", "stock", "stok", "on_hand")
	idxItem := colIndex("item", "item_id", "sku", "product")

	missing := make([]string, 0, 2)
	if idxDate < 0 {
		missing = append(missing, "date")
	}
	if idxStock < 0 {
		missing = append(missing, "current_stock")
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	cell := func(row []interface{}, idx int) string {
		if idx < 0 || idx >= len(row) {
			return ""
		}
		return fmt.Sprint(row[idx])
	}

	series := make(map[string][]domain.StockObservation)
	for _, row := range rows[1:] {
		ts, ok := parseDate(cell(row, idxDate))
		if !ok {
			continue
		}
		onHand, ok := parseQuantity(cell(row, idxStock))
		if !ok {
			continue
		}
		itemID := cell(row, idxItem)
		if itemID == "" {
			itemID = DefaultItemID
		}
		series[itemID] = append(series[itemID], domain.StockObservation{
			ItemID:    itemID,
			Timestamp: ts,
			OnHand:    onHand,
		})
	}

	for id := range series {
		obs := series[id]
		sort.Slice(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })
		series[id] = obs
	}

	return series, nil
}

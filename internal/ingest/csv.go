// internal/ingest/csv.go
package ingest

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Haffner32/hackathon-restock-ai/internal/domain"
	"github.com/Haffner32/hackathon-restock-ai/pkg/logger"
)

// DefaultItemID is used when the source table has no item column: the
// whole sheet is one item's stock log.
const DefaultItemID = "default"

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2/1/2006",
	"02-01-2006",
	"Jan 2, 2006",
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// ReadObservations parses a stock-log table into per-item observation
// series, sorted ascending by timestamp. The table needs a date column and
// an on-hand quantity column (several header spellings are accepted); an
// item/sku column is optional. Missing required columns fail with
// SchemaError. Rows whose date or quantity cannot be parsed are dropped,
// not fatal.
func ReadObservations(r io.Reader) (map[string][]domain.StockObservation, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &domain.SchemaError{Missing: []string{"date", "current_stock"}}
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
	idxStock := colIndex("current_stock", "stock", "stok", "on_hand", "on hand qty")
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

	series := make(map[string][]domain.StockObservation)
	dropped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed line is a bad row, not a bad table.
			dropped++
			continue
		}

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		ts, ok := parseDate(get(idxDate))
		if !ok {
			dropped++
			continue
		}
		onHand, ok := parseQuantity(get(idxStock))
		if !ok {
			dropped++
			continue
		}

		itemID := get(idxItem)
		if itemID == "" {
			itemID = DefaultItemID
		}

		series[itemID] = append(series[itemID], domain.StockObservation{
			ItemID:    itemID,
			Timestamp: ts,
			OnHand:    onHand,
		})
	}

	if dropped > 0 {
		logger.Log.Debug().Int("rows", dropped).Msg("dropped unparseable rows")
	}

	for id := range series {
		obs := series[id]
		sort.Slice(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })
		series[id] = obs
	}

	return series, nil
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseQuantity(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	value = strings.ReplaceAll(value, ",", "")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Package sheets keeps the ledger slots in a Google Sheets tab, one row per
// slot: key in column A, JSON payload in B, last write time in C. Row 1 is a
// header and is never read.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"caixa/internal/log"
)

// DefaultSheetName is the tab used when none is configured.
const DefaultSheetName = "Slots"

// maxCellChars is the Sheets limit on the text held by one cell.
const maxCellChars = 50000

var ErrPayloadTooLarge = errors.New("slot payload exceeds the sheet cell limit")

type Store struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	now           func() time.Time
}

// New opens the store over spreadsheetID. Client options select the
// credentials or, in tests, the endpoint.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...goption.ClientOption) (*Store, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = DefaultSheetName
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheet: sheetName, now: time.Now}, nil
}

// NewFromEnv opens the store with service account credentials taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func NewFromEnv(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.Discard()
	}
	credentialsJSON, source, err := loadCredentials()
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Using service account credentials", "source", source, "scope", gsheet.SpreadsheetsScope)

	return New(ctx, spreadsheetID, sheetName,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

func loadCredentials() ([]byte, string, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), "inline", nil
	}

	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, "", errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read service account file: %w", err)
	}
	return data, "file", nil
}

// rangeOf quotes the tab name so names with spaces work.
func (s *Store) rangeOf(cells string) string {
	return "'" + strings.ReplaceAll(s.sheet, "'", "''") + "'!" + cells
}

func (s *Store) rows(ctx context.Context, cells string) ([][]any, error) {
	rng := s.rangeOf(cells)
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

func cell(row []any, i int) string {
	if i >= len(row) || row[i] == nil {
		return ""
	}
	return fmt.Sprint(row[i])
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	rows, err := s.rows(ctx, "A2:B")
	if err != nil {
		return nil, false, err
	}
	for _, row := range rows {
		if strings.TrimSpace(cell(row, 0)) == key {
			return []byte(cell(row, 1)), true, nil
		}
	}
	return nil, false, nil
}

// PutAll overwrites the rows of existing keys and adds rows for new ones,
// all in a single batch update.
func (s *Store) PutAll(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}
	for key, payload := range entries {
		if len(payload) > maxCellChars {
			return fmt.Errorf("%w: %s has %d bytes", ErrPayloadTooLarge, key, len(payload))
		}
	}

	rows, err := s.rows(ctx, "A2:A")
	if err != nil {
		return err
	}
	rowOf := make(map[string]int, len(rows))
	for i, row := range rows {
		if k := strings.TrimSpace(cell(row, 0)); k != "" {
			rowOf[k] = i + 2
		}
	}
	next := len(rows) + 2

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	stamp := s.now().UTC().Format(time.RFC3339)
	data := make([]*gsheet.ValueRange, 0, len(keys))
	for _, k := range keys {
		row, ok := rowOf[k]
		if !ok {
			row = next
			next++
		}
		data = append(data, &gsheet.ValueRange{
			Range:  s.rangeOf(fmt.Sprintf("A%d:C%d", row, row)),
			Values: [][]any{{k, string(entries[k]), stamp}},
		})
	}

	_, err = s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write slots to %s: %w", s.sheet, err)
	}
	return nil
}

// Ping checks that the spreadsheet is reachable with the configured
// credentials.
func (s *Store) Ping(ctx context.Context) error {
	_, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("ping spreadsheet: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

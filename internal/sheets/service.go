// Package sheets publishes aggregate tables to Google Sheets. All writes go
// through a shared throttle with bounded retries on rate-limit responses,
// since a full publish issues dozens of API calls back to back.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

const (
	// writeGap keeps consecutive write calls under the per-minute quota.
	writeGap = 800 * time.Millisecond

	// maxRetries bounds attempts per call when the API returns 429.
	maxRetries = 7

	// backoffBase grows the wait exponentially between retries.
	backoffBase = 1.2
)

// Service is an authenticated Google Sheets client shared by every
// spreadsheet handle it opens.
type Service struct {
	api     *sheetsapi.Service
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewService authenticates with a service account JSON key.
func NewService(ctx context.Context, credentialsJSON []byte, logger *slog.Logger) (*Service, error) {
	config, err := google.JWTConfigFromJSON(credentialsJSON,
		sheetsapi.SpreadsheetsScope,
		sheetsapi.DriveFileScope,
		sheetsapi.DriveScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	api, err := sheetsapi.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		api:     api,
		limiter: rate.NewLimiter(rate.Every(writeGap), 1),
		logger:  logger,
	}, nil
}

// call runs one API call behind the throttle, retrying on 429 with
// exponential backoff plus jitter.
func (s *Service) call(ctx context.Context, op string, fn func() error) error {
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		err := fn()
		if err == nil {
			return nil
		}

		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests && attempt < maxRetries {
			wait := time.Duration((math.Pow(backoffBase, float64(attempt)) + rand.Float64()/2) * float64(time.Second))
			s.logger.Warn("rate limited, backing off", "op", op, "attempt", attempt, "wait", wait)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: %w", op, ctx.Err())
			case <-time.After(wait):
			}
			continue
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: retry budget exhausted", op)
}

// Spreadsheet is a handle on one spreadsheet with its worksheet IDs cached.
type Spreadsheet struct {
	svc      *Service
	id       string
	url      string
	sheetIDs map[string]int64
}

// Create makes a new spreadsheet with the given title.
func (s *Service) Create(ctx context.Context, title string) (*Spreadsheet, error) {
	var created *sheetsapi.Spreadsheet
	err := s.call(ctx, "create spreadsheet", func() error {
		var err error
		created, err = s.api.Spreadsheets.Create(&sheetsapi.Spreadsheet{
			Properties: &sheetsapi.SpreadsheetProperties{Title: title},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	ss := &Spreadsheet{svc: s, id: created.SpreadsheetId, url: created.SpreadsheetUrl, sheetIDs: map[string]int64{}}
	for _, sheet := range created.Sheets {
		ss.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}
	return ss, nil
}

// Open loads an existing spreadsheet by ID.
func (s *Service) Open(ctx context.Context, spreadsheetID string) (*Spreadsheet, error) {
	var meta *sheetsapi.Spreadsheet
	err := s.call(ctx, "open spreadsheet", func() error {
		var err error
		meta, err = s.api.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	ss := &Spreadsheet{svc: s, id: spreadsheetID, url: meta.SpreadsheetUrl, sheetIDs: map[string]int64{}}
	for _, sheet := range meta.Sheets {
		ss.sheetIDs[sheet.Properties.Title] = sheet.Properties.SheetId
	}
	return ss, nil
}

// ID returns the spreadsheet ID.
func (p *Spreadsheet) ID() string { return p.id }

// URL returns the spreadsheet URL.
func (p *Spreadsheet) URL() string { return p.url }

// batch sends one batchUpdate with the given requests.
func (p *Spreadsheet) batch(ctx context.Context, op string, reqs ...*sheetsapi.Request) error {
	return p.svc.call(ctx, op, func() error {
		_, err := p.svc.api.Spreadsheets.BatchUpdate(p.id,
			&sheetsapi.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
		return err
	})
}

// Upsert makes sure a worksheet with the given title exists and is empty:
// existing worksheets are cleared, missing ones created with the given size.
func (p *Spreadsheet) Upsert(ctx context.Context, title string, rows, cols int64) error {
	if _, ok := p.sheetIDs[title]; ok {
		return p.svc.call(ctx, "clear worksheet "+title, func() error {
			_, err := p.svc.api.Spreadsheets.Values.Clear(p.id,
				fmt.Sprintf("'%s'!A:ZZ", title), &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
			return err
		})
	}

	var resp *sheetsapi.BatchUpdateSpreadsheetResponse
	err := p.svc.call(ctx, "add worksheet "+title, func() error {
		var err error
		resp, err = p.svc.api.Spreadsheets.BatchUpdate(p.id, &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{
						Title:          title,
						GridProperties: &sheetsapi.GridProperties{RowCount: rows, ColumnCount: cols},
					},
				},
			}},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return err
	}

	p.sheetIDs[title] = resp.Replies[0].AddSheet.Properties.SheetId
	return nil
}

// WriteMatrix writes a rectangular block starting at a 1-based row and
// column. With userEntered set, formulas in the values are evaluated.
func (p *Spreadsheet) WriteMatrix(ctx context.Context, title string, startRow, startCol int, matrix [][]interface{}, userEntered bool) error {
	if len(matrix) == 0 {
		return nil
	}

	endRow := startRow + len(matrix) - 1
	endCol := startCol + len(matrix[0]) - 1
	rangeStr := rangeRef(title, startRow, startCol, endRow, endCol)

	inputOption := "RAW"
	if userEntered {
		inputOption = "USER_ENTERED"
	}

	return p.svc.call(ctx, "write "+rangeStr, func() error {
		_, err := p.svc.api.Spreadsheets.Values.Update(p.id, rangeStr,
			&sheetsapi.ValueRange{Values: matrix}).
			ValueInputOption(inputOption).
			Context(ctx).Do()
		return err
	})
}

// Freeze pins header rows and columns of a worksheet.
func (p *Spreadsheet) Freeze(ctx context.Context, title string, rows, cols int64) error {
	return p.batch(ctx, "freeze "+title, &sheetsapi.Request{
		UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
			Properties: &sheetsapi.SheetProperties{
				SheetId:        p.sheetIDs[title],
				GridProperties: &sheetsapi.GridProperties{FrozenRowCount: rows, FrozenColumnCount: cols},
			},
			Fields: "gridProperties.frozenRowCount,gridProperties.frozenColumnCount",
		},
	})
}

// DropdownFromRange installs a data validation dropdown on a single cell
// whose options come from a range on another worksheet.
func (p *Spreadsheet) DropdownFromRange(ctx context.Context, title string, row, col int, sourceRange string) error {
	return p.batch(ctx, "dropdown "+cellRef(row, col)+" on "+title, &sheetsapi.Request{
		SetDataValidation: &sheetsapi.SetDataValidationRequest{
			Range: singleCellRange(p.sheetIDs[title], row, col),
			Rule: &sheetsapi.DataValidationRule{
				Condition: &sheetsapi.BooleanCondition{
					Type:   "ONE_OF_RANGE",
					Values: []*sheetsapi.ConditionValue{{UserEnteredValue: "=" + sourceRange}},
				},
				ShowCustomUi: true,
				Strict:       true,
			},
		},
	})
}

// DropdownFromList installs a data validation dropdown on a single cell
// with a fixed option list.
func (p *Spreadsheet) DropdownFromList(ctx context.Context, title string, row, col int, items []string) error {
	values := make([]*sheetsapi.ConditionValue, 0, len(items))
	for _, item := range items {
		values = append(values, &sheetsapi.ConditionValue{UserEnteredValue: item})
	}

	return p.batch(ctx, "dropdown "+cellRef(row, col)+" on "+title, &sheetsapi.Request{
		SetDataValidation: &sheetsapi.SetDataValidationRequest{
			Range: singleCellRange(p.sheetIDs[title], row, col),
			Rule: &sheetsapi.DataValidationRule{
				Condition:    &sheetsapi.BooleanCondition{Type: "ONE_OF_LIST", Values: values},
				ShowCustomUi: true,
				Strict:       true,
			},
		},
	})
}

// MoveFirst moves a worksheet to the front of the tab strip.
func (p *Spreadsheet) MoveFirst(ctx context.Context, title string) error {
	return p.batch(ctx, "move "+title+" first", &sheetsapi.Request{
		UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
			Properties: &sheetsapi.SheetProperties{
				SheetId:         p.sheetIDs[title],
				Index:           0,
				ForceSendFields: []string{"Index"},
			},
			Fields: "index",
		},
	})
}

func singleCellRange(sheetID int64, row, col int) *sheetsapi.GridRange {
	return &sheetsapi.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(row - 1),
		EndRowIndex:      int64(row),
		StartColumnIndex: int64(col - 1),
		EndColumnIndex:   int64(col),
	}
}

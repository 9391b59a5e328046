package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"debtledger/internal/core"
	"debtledger/internal/log"
	ports "debtledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	summarySheet  string
	expensesSheet string
	paymentsSheet string
	now           func() time.Time
	logger        *log.Logger
}

// Ensure interface conformance
var _ ports.SummaryWriter = (*Client)(nil)

// Options configures the summary mirror. One of CredentialsJSON or
// CredentialsFile is required unless ClientOptions supplies authentication.
type Options struct {
	SpreadsheetID   string
	SummarySheet    string
	CredentialsJSON string
	CredentialsFile string
	Logger          *log.Logger
	// ClientOptions are appended when creating the Sheets service.
	ClientOptions []goption.ClientOption
}

// New creates a Sheets client using service account credentials. Expenses
// and payments are written to "<summary> Expenses" and "<summary> Payments".
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	summary := strings.TrimSpace(opts.SummarySheet)
	if summary == "" {
		summary = "Summary"
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		summarySheet:  summary,
		expensesSheet: summary + " Expenses",
		paymentsSheet: summary + " Payments",
		now:           time.Now,
		logger:        logger,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context, opts Options, logger *log.Logger) (*gsheet.Service, error) {
	clientOpts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}

	switch {
	case strings.TrimSpace(opts.CredentialsJSON) != "":
		logger.DebugContext(ctx, "Using inline JSON credentials")
		clientOpts = append(clientOpts, goption.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case strings.TrimSpace(opts.CredentialsFile) != "":
		credentialsJSON, err := os.ReadFile(opts.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.DebugContext(ctx, "Read credentials file", "path", opts.CredentialsFile, "size", len(credentialsJSON))
		clientOpts = append(clientOpts, goption.WithCredentialsJSON(credentialsJSON))
	case len(opts.ClientOptions) == 0:
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	service, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// WriteSummary clears the three mirror sheets and rewrites them in one batch.
func (c *Client) WriteSummary(ctx context.Context, agg core.Aggregates) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	ranges := []string{
		c.summarySheet + "!A:B",
		c.expensesSheet + "!A:E",
		c.paymentsSheet + "!A:C",
	}
	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{
		Ranges: ranges,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear summary sheets: %w", err)
	}

	req := &gsheet.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data: []*gsheet.ValueRange{
			{Range: c.summarySheet + "!A1", Values: summaryRows(agg, c.now())},
			{Range: c.expensesSheet + "!A1", Values: expenseRows(agg.Expenses)},
			{Range: c.paymentsSheet + "!A1", Values: paymentRows(agg.DebtPayments)},
		},
	}
	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update summary sheets: %w", err)
	}

	c.logger.InfoContext(ctx, "Mirrored ledger summary",
		log.FieldSpreadsheet, c.spreadsheetID,
		log.FieldExpenses, len(agg.Expenses),
		log.FieldPayments, len(agg.DebtPayments),
		"updated_cells", resp.TotalUpdatedCells)
	return nil
}

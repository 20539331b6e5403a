// Package google exports alerts and month summaries to a Google
// spreadsheet using a service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"margine/internal/core"
	ports "margine/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	alertsSheet   string
	summarySheet  string
}

// Ensure interface conformance
var (
	_ ports.AlertWriter   = (*Client)(nil)
	_ ports.SummaryWriter = (*Client)(nil)
)

// Config names the spreadsheet destination. Empty sheet names fall back to
// "Alerts" and "Summary".
type Config struct {
	SpreadsheetID string
	AlertsSheet   string
	SummarySheet  string
}

func (c Config) withDefaults() (Config, error) {
	c.SpreadsheetID = strings.TrimSpace(c.SpreadsheetID)
	if c.SpreadsheetID == "" {
		return c, errors.New("missing spreadsheet id")
	}
	if c.AlertsSheet = strings.TrimSpace(c.AlertsSheet); c.AlertsSheet == "" {
		c.AlertsSheet = "Alerts"
	}
	if c.SummarySheet = strings.TrimSpace(c.SummarySheet); c.SummarySheet == "" {
		c.SummarySheet = "Summary"
	}
	return c, nil
}

// New creates a Sheets client for the configured spreadsheet. Service
// account credentials come from the environment: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config) (*Client, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		alertsSheet:   cfg.AlertsSheet,
		summarySheet:  cfg.SummarySheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		data, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	)
}

// AppendAlerts appends one row per alert to the alerts sheet.
func (c *Client) AppendAlerts(ctx context.Context, alerts []core.FinancialAlert) error {
	if len(alerts) == 0 {
		return nil
	}

	values := make([][]interface{}, 0, len(alerts))
	for _, a := range alerts {
		values = append(values, []interface{}{
			a.CreatedAt.UTC().Format("2006-01-02"),
			string(a.Type),
			string(a.Severity),
			string(a.Category),
			a.CurrentAmount.Units(),
			a.AverageAmount.Units(),
			a.PercentageDiff,
			a.Message,
		})
	}

	rangeRef := fmt.Sprintf("%s!A:H", c.alertsSheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append alerts: %w", err)
	}
	return nil
}

// AppendMonthSummary appends one row with the month's computed figures.
func (c *Client) AppendMonthSummary(ctx context.Context, year, month int, s core.MonthSummary) error {
	row := []interface{}{
		fmt.Sprintf("%04d-%02d", year, month),
		s.IncomeTotal.Units(),
		s.FixedTotal.Units(),
		s.CommitmentsTotal.Units(),
		s.CardDueTotal.Units(),
		s.PersonalTotal.Units(),
		s.LeftoverBeforePersonal.Units(),
		s.LeftoverAfterPersonal.Units(),
		s.DailySuggestion.Units(),
	}

	rangeRef := fmt.Sprintf("%s!A:I", c.summarySheet)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rangeRef, &gsheet.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append month summary: %w", err)
	}
	return nil
}

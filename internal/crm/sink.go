package crm

import (
	"context"
	"errors"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/discovery-api/internal/resilience"
	"github.com/sells-group/discovery-api/pkg/airtable"
	"github.com/sells-group/discovery-api/pkg/notion"
)

// Sink persists leads to a CRM. Save returns the new record's ID.
type Sink interface {
	Name() string
	Save(ctx context.Context, l Lead) (string, error)
}

// AirtableSink writes each lead as a row in an Airtable table.
type AirtableSink struct {
	client  airtable.Client
	table   string
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
}

// NewAirtableSink creates an AirtableSink. breaker may be nil.
func NewAirtableSink(client airtable.Client, table string, breaker *resilience.Breaker, retry resilience.RetryConfig) *AirtableSink {
	// Creates are not idempotent: only retry when Airtable refused the
	// request outright.
	retry.ShouldRetry = isRateLimited
	retry.OnRetry = resilience.RetryLogger("airtable", "create_record")
	return &AirtableSink{client: client, table: table, breaker: breaker, retry: retry}
}

func (s *AirtableSink) Name() string { return "airtable" }

func (s *AirtableSink) Save(ctx context.Context, l Lead) (string, error) {
	fields := BuildFields(l)
	create := func(ctx context.Context) (string, error) {
		return resilience.DoVal(ctx, s.retry, func(ctx context.Context) (string, error) {
			return s.client.CreateRecord(ctx, s.table, fields)
		})
	}

	var (
		id  string
		err error
	)
	if s.breaker != nil {
		id, err = resilience.Call(ctx, s.breaker, create)
	} else {
		id, err = create(ctx)
	}
	if err != nil {
		return "", eris.Wrapf(err, "crm: save %s to airtable", l.Business.PlaceID)
	}
	return id, nil
}

func isRateLimited(err error) bool {
	var apiErr *airtable.APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// NotionSink writes each lead as a page in a Notion database.
type NotionSink struct {
	client     notion.Client
	databaseID string
	breaker    *resilience.Breaker
}

// NewNotionSink creates a NotionSink. breaker may be nil.
func NewNotionSink(client notion.Client, databaseID string, breaker *resilience.Breaker) *NotionSink {
	return &NotionSink{client: client, databaseID: databaseID, breaker: breaker}
}

func (s *NotionSink) Name() string { return "notion" }

func (s *NotionSink) Save(ctx context.Context, l Lead) (string, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(s.databaseID),
		},
		Properties: notion.BuildProperties(FieldBusinessName, BuildFields(l)),
	}

	create := func(ctx context.Context) (*notionapi.Page, error) {
		return s.client.CreatePage(ctx, req)
	}

	var (
		page *notionapi.Page
		err  error
	)
	if s.breaker != nil {
		page, err = resilience.Call(ctx, s.breaker, create)
	} else {
		page, err = create(ctx)
	}
	if err != nil {
		return "", eris.Wrapf(err, "crm: save %s to notion", l.Business.PlaceID)
	}
	return string(page.ID), nil
}

// Discard accepts every lead without writing it. Used for dry runs.
type Discard struct{}

func (Discard) Name() string { return "discard" }

func (Discard) Save(context.Context, Lead) (string, error) { return "", nil }

package crm

import (
	"context"
	"sync"

	"github.com/jomei/notionapi"
)

type fakeAirtable struct {
	mu     sync.Mutex
	calls  int
	table  string
	fields map[string]any
	errs   []error // returned in order, then success
	id     string
}

func (f *fakeAirtable) CreateRecord(_ context.Context, table string, fields map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.table = table
	f.fields = fields
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return "", err
	}
	return f.id, nil
}

type fakeNotion struct {
	req  *notionapi.PageCreateRequest
	page *notionapi.Page
	err  error
}

func (f *fakeNotion) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

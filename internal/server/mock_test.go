package server

import (
	"context"
	"sync"

	"github.com/sells-group/discovery-api/internal/chat"
	"github.com/sells-group/discovery-api/internal/discovery"
)

type fakeDiscoverer struct {
	mu   sync.Mutex
	resp *discovery.Response
	err  error
	got  []discovery.Request
}

func (f *fakeDiscoverer) Discover(_ context.Context, req discovery.Request) (*discovery.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, req)
	return f.resp, f.err
}

type fakeResponder struct {
	reply chat.Reply
	err   error
	got   chat.Request
}

func (f *fakeResponder) Respond(_ context.Context, req chat.Request) (chat.Reply, error) {
	f.got = req
	return f.reply, f.err
}

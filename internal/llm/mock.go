package llm

import (
	"context"
	"strings"
	"sync"
)

// MockClient is a test double for the Client interface.
//
// Scripted entries in Responses/Errs are consumed one per call; once they
// run out, Response and Err are returned for every further call.
type MockClient struct {
	Response  *Response
	Err       error
	Responses []*Response
	Errs      []error
	// Fragments, when set, is what Stream emits before returning StreamErr.
	Fragments []string
	StreamErr error

	mu    sync.Mutex
	Calls []Request // records requests sent
}

func (m *MockClient) next(req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := len(m.Calls)
	m.Calls = append(m.Calls, req)

	resp, err := m.Response, m.Err
	if i < len(m.Responses) {
		resp = m.Responses[i]
	}
	if i < len(m.Errs) {
		err = m.Errs[i]
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Complete records the call and returns the scripted response.
func (m *MockClient) Complete(ctx context.Context, req Request) (*Response, error) {
	return m.next(req)
}

// Stream emits Fragments (or the scripted response as one fragment) and
// then returns StreamErr, if any.
func (m *MockClient) Stream(ctx context.Context, req Request, onToken func(string)) (*Response, error) {
	if len(m.Fragments) > 0 {
		m.mu.Lock()
		m.Calls = append(m.Calls, req)
		frags, streamErr := m.Fragments, m.StreamErr
		m.mu.Unlock()

		for _, f := range frags {
			onToken(f)
		}
		if streamErr != nil {
			return nil, streamErr
		}
		return &Response{Content: strings.Join(frags, ""), Provider: "mock"}, nil
	}

	resp, err := m.next(req)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Content != "" {
		onToken(resp.Content)
	}
	return resp, nil
}

// CallCount returns how many requests were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

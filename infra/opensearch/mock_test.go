package opensearch

import (
	"io"
	"net/http"
	"strings"

	opensearchsdk "github.com/opensearch-project/opensearch-go/v2"
)

type mockResponse struct {
	status int
	body   string
}

// mockTransport 按顺序返回预置响应，并记录请求体。
type mockTransport struct {
	responses []mockResponse
	err       error
	requests  []string
	paths     []string
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.requests = append(m.requests, string(data))
	} else {
		m.requests = append(m.requests, "")
	}
	m.paths = append(m.paths, req.URL.Path)

	resp := mockResponse{status: 200, body: `{}`}
	if len(m.responses) > 0 {
		resp = m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &http.Response{
		StatusCode: resp.status,
		Body:       io.NopCloser(strings.NewReader(resp.body)),
		Header:     header,
	}, nil
}

func newMockTransportClient(responses ...mockResponse) (*opensearchsdk.Client, *mockTransport) {
	transport := &mockTransport{responses: responses}
	client, _ := opensearchsdk.NewClient(opensearchsdk.Config{
		Transport: transport,
		Addresses: []string{"http://localhost:9200"},
	})
	return client, transport
}

func newMockClient(status int, body string) *opensearchsdk.Client {
	client, _ := newMockTransportClient(mockResponse{status: status, body: body})
	return client
}

func newMockClientWithError(err error) *opensearchsdk.Client {
	client, _ := opensearchsdk.NewClient(opensearchsdk.Config{
		Transport: &mockTransport{err: err},
		Addresses: []string{"http://localhost:9200"},
	})
	return client
}

package opensearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
	"github.com/pkg/errors"
)

// ResponseError OpenSearch 返回的非 2xx 响应。
type ResponseError struct {
	StatusCode int
	Type       string
	Reason     string
	RootCause  string // 第一个 root_cause，格式为 "type - reason"
	Raw        string // 响应体无法识别时的原文
}

func (e *ResponseError) Error() string {
	switch {
	case e.Reason != "" && e.RootCause != "":
		return fmt.Sprintf("[%s] %s (root: %s)", e.Type, e.Reason, e.RootCause)
	case e.Reason != "":
		return fmt.Sprintf("[%s] %s", e.Type, e.Reason)
	case e.Raw != "":
		return fmt.Sprintf("opensearch 返回 %d: %s", e.StatusCode, e.Raw)
	default:
		return fmt.Sprintf("opensearch 返回 %d", e.StatusCode)
	}
}

// hasStatus 判断 err 是否为指定状态码的 ResponseError。
func hasStatus(err error, code int) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == code
}

type errorBody struct {
	Error struct {
		Type      string `json:"type"`
		Reason    string `json:"reason"`
		RootCause []struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"root_cause"`
	} `json:"error"`
}

func newResponseError(statusCode int, data []byte) *ResponseError {
	respErr := &ResponseError{StatusCode: statusCode}
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Reason != "" {
		respErr.Type = body.Error.Type
		respErr.Reason = body.Error.Reason
		if len(body.Error.RootCause) > 0 {
			rc := body.Error.RootCause[0]
			respErr.RootCause = rc.Type + " - " + rc.Reason
		}
		return respErr
	}
	respErr.Raw = strings.TrimSpace(string(data))
	return respErr
}

// readResponse 读取并关闭响应体，非 2xx 时返回 *ResponseError。
func readResponse(res *opensearchapi.Response) ([]byte, error) {
	defer func() {
		_ = res.Body.Close()
	}()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "读取 OpenSearch 响应失败")
	}
	if res.IsError() {
		return nil, newResponseError(res.StatusCode, data)
	}
	return data, nil
}

// searchResponse 同时覆盖 search_after 翻页与聚合计数需要的字段。
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source json.RawMessage `json:"_source"`
			Sort   []any           `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
	Aggregations map[string]struct {
		Buckets []termsBucket `json:"buckets"`
	} `json:"aggregations"`
}

type termsBucket struct {
	Key      json.Number `json:"key"`
	DocCount int         `json:"doc_count"`
}

// decodeSearchResponse 使用 UseNumber，sort 中的大整数原样回传给 search_after。
func decodeSearchResponse(data []byte) (*searchResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var resp searchResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, errors.Wrap(err, "解析 search 响应失败")
	}
	return &resp, nil
}

func decodeHits[T any](resp *searchResponse) ([]T, error) {
	items := make([]T, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		if len(hit.Source) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(hit.Source, &item); err != nil {
			return nil, errors.Wrapf(err, "解析文档失败: %s", hit.Source)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeMGet[T any](data []byte) ([]T, error) {
	var resp struct {
		Docs []struct {
			Found  bool            `json:"found"`
			Source json.RawMessage `json:"_source"`
		} `json:"docs"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "解析 mget 响应失败")
	}
	items := make([]T, 0, len(resp.Docs))
	for _, doc := range resp.Docs {
		if !doc.Found || len(doc.Source) == 0 {
			continue
		}
		var item T
		if err := json.Unmarshal(doc.Source, &item); err != nil {
			return nil, errors.Wrapf(err, "解析文档失败: %s", doc.Source)
		}
		items = append(items, item)
	}
	return items, nil
}

func encodeBody(payload any) (*bytes.Reader, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "序列化请求体失败")
	}
	return bytes.NewReader(data), nil
}

// chunkUint64s 按 size 切分，避免 terms 超过 max_terms_count。
func chunkUint64s(ids []uint64, size int) [][]uint64 {
	if size <= 0 {
		size = maxQuerySize
	}
	var chunks [][]uint64
	for len(ids) > 0 {
		n := min(size, len(ids))
		chunks = append(chunks, ids[:n])
		ids = ids[n:]
	}
	return chunks
}

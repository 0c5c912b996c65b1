package opensearch

import (
	"strings"
	"testing"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-recurring-incident/domain"
	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResponseError(t *testing.T) {
	Convey("TestResponseError", t, func() {
		Convey("带 root_cause", func() {
			err := newResponseError(400, []byte(`{"error":{"type":"search_phase_execution_exception","reason":"all shards failed","root_cause":[{"type":"query_shard_exception","reason":"bad field"}]},"status":400}`))
			So(err.Error(), ShouldEqual, "[search_phase_execution_exception] all shards failed (root: query_shard_exception - bad field)")
			So(err.StatusCode, ShouldEqual, 400)
		})

		Convey("只有 reason", func() {
			err := newResponseError(404, []byte(`{"error":{"type":"document_missing_exception","reason":"[12]: document missing"}}`))
			So(err.Error(), ShouldEqual, "[document_missing_exception] [12]: document missing")
		})

		Convey("非 JSON 响应保留原文", func() {
			So(newResponseError(504, []byte(" gateway timeout ")).Error(), ShouldEqual, "opensearch 返回 504: gateway timeout")
		})

		Convey("空响应", func() {
			So(newResponseError(500, nil).Error(), ShouldEqual, "opensearch 返回 500")
		})

		Convey("hasStatus 穿透 Wrap", func() {
			err := errors.Wrap(newResponseError(404, nil), "更新失败")
			So(hasStatus(err, 404), ShouldBeTrue)
			So(hasStatus(err, 409), ShouldBeFalse)
			So(hasStatus(errors.New("other"), 404), ShouldBeFalse)
		})
	})
}

func TestDecodeSearchResponse(t *testing.T) {
	Convey("TestDecodeSearchResponse", t, func() {
		Convey("保留 sort 中的大整数", func() {
			resp, err := decodeSearchResponse([]byte(`{"hits":{"hits":[{"_source":{"event_id":9007199254740993},"sort":[1700000000,9007199254740993]}]}}`))
			So(err, ShouldBeNil)
			So(resp.Hits.Hits, ShouldHaveLength, 1)
			body, err := encodeBody(map[string]any{"search_after": resp.Hits.Hits[0].Sort})
			So(err, ShouldBeNil)
			buf := new(strings.Builder)
			_, _ = body.WriteTo(buf)
			So(buf.String(), ShouldEqual, `{"search_after":[1700000000,9007199254740993]}`)

			events, err := decodeHits[domain.ProblemEvent](resp)
			So(err, ShouldBeNil)
			So(events[0].EventID, ShouldEqual, uint64(9007199254740993))
		})

		Convey("非法 JSON", func() {
			_, err := decodeSearchResponse([]byte(`{`))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestDecodeMGet(t *testing.T) {
	Convey("TestDecodeMGet", t, func() {
		items, err := decodeMGet[domain.ProblemEvent]([]byte(`{"docs":[{"found":true,"_source":{"event_id":1}},{"found":false}]}`))
		So(err, ShouldBeNil)
		So(items, ShouldHaveLength, 1)
		So(items[0].EventID, ShouldEqual, uint64(1))
	})
}

func TestChunkUint64s(t *testing.T) {
	Convey("TestChunkUint64s", t, func() {
		So(chunkUint64s([]uint64{1, 2, 3, 4, 5}, 2), ShouldResemble, [][]uint64{{1, 2}, {3, 4}, {5}})
		So(chunkUint64s(nil, 2), ShouldBeNil)
		So(chunkUint64s([]uint64{1, 2}, 0), ShouldResemble, [][]uint64{{1, 2}})
	})
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huichen/huoyan/types"
	"github.com/huichen/huoyan/utils"
)

type fakeLinker struct {
	err error
}

func (l fakeLinker) Link(ctx context.Context, docs []string) (types.LinkResponse, error) {
	if l.err != nil {
		return types.LinkResponse{}, l.err
	}
	response := types.LinkResponse{RequestId: "r1", NumBatches: 1}
	for i, doc := range docs {
		response.Chunks = append(response.Chunks, types.ChunkResult{
			Chunk:    types.Chunk{Text: doc, DocIndex: i},
			Mentions: []types.MentionResult{{Mention: types.Mention{Text: "moscow", Positions: []int{0}}, EntityIds: []string{"E1"}}},
		})
	}
	return response, nil
}

func (l fakeLinker) LinkEntities(ctx context.Context, mentions []types.Mention, contextTokens []string) ([][]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	output := make([][]string, len(mentions))
	for i, m := range mentions {
		output[i] = []string{"id:" + m.Text}
	}
	return output, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func post(router http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/link", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestLinkDocs(t *testing.T) {
	router := NewRouter(fakeLinker{}, nil, nil)
	w := post(router, `{"docs": ["Moscow is big."]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response types.LinkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	utils.Expect(t, "r1", response.RequestId)
	utils.Expect(t, "1", len(response.Chunks))
	utils.Expect(t, "Moscow is big.", response.Chunks[0].Text)
	utils.Expect(t, "[E1]", response.Chunks[0].Mentions[0].EntityIds)
	assert.Contains(t, w.Body.String(), `"doc_index":0`)
}

func TestLinkMentions(t *testing.T) {
	router := NewRouter(fakeLinker{}, nil, nil)
	w := post(router, `{"mentions": [{"text": "moscow"}, {"text": "paris", "positions": [3]}], "context_tokens": ["a"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	utils.Expect(t, `{"entity_ids":[["id:moscow"],["id:paris"]]}`, w.Body.String())
}

func TestLinkBadRequests(t *testing.T) {
	router := NewRouter(fakeLinker{}, nil, nil)
	utils.Expect(t, "400", post(router, `{"docs": `).Code)
	utils.Expect(t, "400", post(router, `{}`).Code)
}

func TestLinkErrors(t *testing.T) {
	router := NewRouter(fakeLinker{err: types.WrapError(errors.New("boom"), types.ErrCodeCollaborator, "recognize")}, nil, nil)
	w := post(router, `{"docs": ["x"]}`)
	utils.Expect(t, "502", w.Code)
	assert.Contains(t, w.Body.String(), `"code":"collaborator"`)

	router = NewRouter(fakeLinker{err: types.NewError(types.ErrCodeNotInitialized, "not ready")}, nil, nil)
	utils.Expect(t, "503", post(router, `{"docs": ["x"]}`).Code)

	router = NewRouter(fakeLinker{err: errors.New("unknown")}, nil, nil)
	utils.Expect(t, "500", post(router, `{"mentions": [{"text": "x"}]}`).Code)
}

func TestHealthzAndMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("huoyan_link_requests_total 1\n"))
	})
	router := NewRouter(fakeLinker{}, metrics, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	utils.Expect(t, "200", w.Code)
	utils.Expect(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	utils.Expect(t, "200", w.Code)
	assert.Contains(t, w.Body.String(), "huoyan_link_requests_total")

	w = httptest.NewRecorder()
	NewRouter(fakeLinker{}, nil, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	utils.Expect(t, "404", w.Code)
}

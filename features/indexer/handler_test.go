package indexer

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestHandler_Index_Incremental(t *testing.T) {
	idx := new(MockIndexer)
	src := &MockSource{contentType: "project"}
	h := NewHandler(NewService(idx, []ContentSource{src}, nil))

	src.On("GetPublished", mock.Anything, "p1").Return(&ContentItem{ID: "p1", Title: "T", Text: "t"}, nil)
	idx.On("Index", mock.Anything, "project", "p1", "T", "t", mock.Anything).Return(nil)

	req := httptest.NewRequest("POST", "/index", strings.NewReader(`{"contentType":"project","contentId":"p1"}`))
	w := httptest.NewRecorder()
	h.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "p1", resp["data"]["contentId"])
}

func TestHandler_Index_Bulk(t *testing.T) {
	idx := new(MockIndexer)
	src := &MockSource{contentType: "gallery"}
	h := NewHandler(NewService(idx, []ContentSource{src}, nil))

	src.On("ListPublished", mock.Anything).Return([]ContentItem{{ID: "g1", Title: "T", Text: "t"}}, nil)
	idx.On("Index", mock.Anything, "gallery", "g1", "T", "t", mock.Anything).Return(nil)
	idx.On("Prune", mock.Anything, "gallery", []string{"g1"}).Return(int64(2), nil)

	req := httptest.NewRequest("POST", "/index", strings.NewReader(`{"contentType":"gallery"}`))
	w := httptest.NewRecorder()
	h.Index(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data Report `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Processed)
	assert.Equal(t, int64(2), resp.Data.Pruned)
}

func TestHandler_Index_Validation(t *testing.T) {
	h := NewHandler(NewService(new(MockIndexer), nil, nil))

	t.Run("MissingContentType", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/index", strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		h.Index(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("UnknownContentType", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/index", strings.NewReader(`{"contentType":"testimonial"}`))
		w := httptest.NewRecorder()
		h.Index(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("BadJSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/index", strings.NewReader(`{`))
		w := httptest.NewRecorder()
		h.Index(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Index_IndexingFailure(t *testing.T) {
	idx := new(MockIndexer)
	src := &MockSource{contentType: "project"}
	h := NewHandler(NewService(idx, []ContentSource{src}, nil))

	src.On("GetPublished", mock.Anything, "p1").Return(&ContentItem{ID: "p1", Title: "T", Text: "t"}, nil)
	idx.On("Index", mock.Anything, "project", "p1", "T", "t", mock.Anything).Return(errors.New("service down"))

	req := httptest.NewRequest("POST", "/index", strings.NewReader(`{"contentType":"project","contentId":"p1"}`))
	w := httptest.NewRecorder()
	h.Index(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "INDEXING_ERROR")
}

func TestHandler_ReindexAll(t *testing.T) {
	idx := new(MockIndexer)
	projects := &MockSource{contentType: "project"}
	services := &MockSource{contentType: "service"}
	gallery := &MockSource{contentType: "gallery"}
	h := NewHandler(NewService(idx, []ContentSource{projects, services, gallery}, nil))

	for _, src := range []*MockSource{projects, services, gallery} {
		src.On("ListPublished", mock.Anything).Return([]ContentItem{}, nil)
	}
	idx.On("Prune", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)

	req := httptest.NewRequest("POST", "/reindex", nil)
	w := httptest.NewRecorder()
	h.ReindexAll(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Reports []Report `json:"reports"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Reports, 3)
}

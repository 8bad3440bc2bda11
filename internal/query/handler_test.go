package query

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/report"
)

type fakePublisher struct {
	name string
	body []byte
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, name string, body []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.name, p.body = name, body
	return "reports/" + name, nil
}

func get(h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlerQuery(t *testing.T) {
	h := NewHandler(seeded(t), nil, nil)

	rec := get(h.Query, "/query?type=combined&field=Department&op=equals&value=Finance")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		DataType string           `json:"data_type"`
		Count    int              `json:"count"`
		Rows     []map[string]any `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Combined", body.DataType)
	assert.Equal(t, 1, body.Count)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "u1", body.Rows[0]["account"])

	for _, target := range []string{
		"/query?type=payroll&field=x&op=equals&value=y",
		"/query?type=combined&field=salary&op=equals&value=y",
		"/query?type=combined&field=Department&operator=before&value=01/01/2024",
		"/query?type=combined&field=Leave+Date&op=after&value=soon",
	} {
		rec := get(h.Query, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandlerExportWorkbook(t *testing.T) {
	h := NewHandler(seeded(t), nil, nil)

	rec := get(h.Export, "/query/export?type=Employment&field=Account&op=is-not-empty")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, report.ContentType, rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), `attachment; filename="Employment_Report_`))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Employment")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Account", rows[0][1])
	assert.Equal(t, "u1", rows[1][1])

	rec = get(h.Export, "/query/export?type=Employment&field=Account&op=is-not-empty&publish=true")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerExportPublish(t *testing.T) {
	pub := &fakePublisher{}
	h := NewHandler(seeded(t), pub, nil)

	rec := get(h.Export, "/query/export?type=Combined&field=Department&op=equals&value=Finance&publish=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reports/"+pub.name, body["key"])
	assert.EqualValues(t, 1, body["rows"])
	assert.Equal(t, false, body["truncated"])
	assert.NotEmpty(t, pub.body)

	pub.err = errors.New("bucket gone")
	rec = get(h.Export, "/query/export?type=Combined&field=Department&op=equals&value=Finance&publish=true")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestExportName(t *testing.T) {
	at := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "Combined_Report_20240102_150405.xlsx", ExportName(DataCombined, at))
}

package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/MichielDePaepe/RadioAssetManagement/internal/feed"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/repository"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/service"
	"github.com/MichielDePaepe/RadioAssetManagement/internal/store"
)

func newTestRouter(t *testing.T) (*Router, *repository.MemorySubscriptionsRepo) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	subs := repository.NewMemorySubscriptionsRepo()
	subs.SeedTEIRange(10000000000000, 99999999999999, 1)
	subs.SeedCustomerRange(2000000, 2999999, 1, true)

	logger := zap.NewNop()
	reconcile := service.NewReconcileService(subs, store.NewRedisKV(client), logger)

	router := NewRouter(logger)
	router.RegisterSubscriptionRoutes(NewSubscriptionHandler(subs, reconcile, logger))
	return router, subs
}

func feedUpload(t *testing.T, rows [][]any) (*bytes.Buffer, string) {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []any{feed.ColTEI, feed.ColISSI, feed.ColAlias, feed.ColModelType}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	var wb bytes.Buffer
	_, err := f.WriteTo(&wb)
	require.NoError(t, err)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "feed.xlsx")
	require.NoError(t, err)
	_, err = part.Write(wb.Bytes())
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestUploadReconciles(t *testing.T) {
	router, subs := newTestRouter(t)

	body, contentType := feedUpload(t, [][]any{
		{"123456789012340", "2090001", "PUMP 01", "TPH900"},
		{"22345678901234", "bad-issi", "", "TPH900"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[map[string]any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ResultSuccess, resp.Code)
	assert.EqualValues(t, 1, resp.Result["created"])
	assert.Len(t, resp.Result["row_errors"], 1)

	sub, err := subs.GetByTEI(req.Context(), 12345678901234)
	require.NoError(t, err)
	assert.Equal(t, "PUMP 01", sub.AstridAlias)
}

func TestUploadWithoutFile(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/upload", bytes.NewBufferString("nope"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Result[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, ResultError, resp.Code)
}

func TestListSubscriptions(t *testing.T) {
	router, subs := newTestRouter(t)
	subs.SeedSubscription(12345678901234, 2090001, "PUMP 01", false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp Result[map[string]any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, ResultSuccess, resp.Code)
	assert.EqualValues(t, 1, resp.Result["total"])
}

func TestImportTemplateDownload(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/import-template", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	// the template must round-trip through the parser
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{feed.ColTEI, feed.ColISSI, feed.ColAlias, feed.ColModelType}, rows[0])
}

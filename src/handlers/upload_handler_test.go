// backend/src/handlers/upload_handler_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/fleetfolio/backend/src/config"
	"github.com/username/fleetfolio/backend/src/logger"
	"github.com/username/fleetfolio/backend/src/processors"
	"github.com/username/fleetfolio/backend/src/services"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	config.Cfg = &config.AppConfig{
		MaxUploadSizeBytes: 10 * 1024 * 1024,
		RefreshTokenExpiry: 24 * time.Hour,
	}
	os.Exit(m.Run())
}

// fakeUploadService records the call and returns a canned outcome.
type fakeUploadService struct {
	result   *processors.ImportResult
	err      error
	filename string
	adminID  int64
}

func (f *fakeUploadService) ProcessUpload(fileReader io.Reader, adminID int64, filename string) (*processors.ImportResult, error) {
	io.Copy(io.Discard, fileReader)
	f.adminID = adminID
	f.filename = filename
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newUploadRequest(t *testing.T, filename, content string, userID int64) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	partHeader.Set("Content-Type", "text/csv")
	part, err := writer.CreatePart(partHeader)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload-csv", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), userIDContextKey, userID))
	}
	return req
}

func TestHandleUploadSuccess(t *testing.T) {
	svc := &fakeUploadService{result: &processors.ImportResult{Created: 3, Updated: 1, Platform: "bolt"}}
	handler := NewUploadHandler(svc)

	req := newUploadRequest(t, "zarobki_15_03_2024.csv", "Kierowca,Zarobki netto|ZŁ\nJan,100\n", 7)
	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), svc.adminID)
	assert.Equal(t, "zarobki_15_03_2024.csv", svc.filename)

	var result processors.ImportResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 3, result.Created)
	assert.Equal(t, "bolt", result.Platform)
}

func TestHandleUploadRequiresAuthContext(t *testing.T) {
	handler := NewUploadHandler(&fakeUploadService{})

	req := newUploadRequest(t, "zarobki.csv", "a,b\n", 0)
	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleUploadRejectsBinaryContent(t *testing.T) {
	svc := &fakeUploadService{}
	handler := NewUploadHandler(svc)

	req := newUploadRequest(t, "zarobki.csv", "PK\x03\x04\x00\x00\xff\xfe", 7)
	rec := httptest.NewRecorder()
	handler.HandleUpload(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.filename)
}

func TestHandleUploadMapsServiceErrors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"unknown platform", services.ErrPlatformUnknown, http.StatusBadRequest},
		{"parse failure", services.ErrParsingFailed, http.StatusBadRequest},
		{"storage failure", assert.AnError, http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewUploadHandler(&fakeUploadService{err: tc.err})

			req := newUploadRequest(t, "zarobki_15_03_2024.csv", "Kierowca,Zarobki netto|ZŁ\nJan,100\n", 7)
			rec := httptest.NewRecorder()
			handler.HandleUpload(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

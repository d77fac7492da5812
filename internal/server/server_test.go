package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/config"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/fields"
	"github.com/LUCIANOGFORTES02/Suprimento-Obito/internal/odt"
)

type fakeProcessor struct {
	record fields.Record
	err    error
	paths  []string
}

func (f *fakeProcessor) Process(_ context.Context, path string) (fields.Record, error) {
	f.paths = append(f.paths, path)
	return f.record, f.err
}

func newTestServer(t *testing.T, p Processor) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.WorkDir = t.TempDir()

	s := New(cfg, p, odt.NewGenerator("", nil), nil)
	s.validatePDF = func(string) error { return nil }
	return s
}

func uploadRequest(t *testing.T, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sampleRecord() fields.Record {
	return fields.Record{
		NumeroProcesso: fields.Found("0801234-56.2023.8.18.0140"),
		Requerente:     fields.Found("Maria das Dores Silva"),
		Parentesco:     fields.Found("mãe"),
		NomeFalecido:   fields.Found("Antonia Pereira da Silva"),
		LocalObito:     fields.Found("Teresina-PI"),
		Data:           fields.Found("10/01/2020"),
		IDParecer:      fields.Found("71058319"),
		IDCertidoes:    []fields.Citation{{Page: 3, Num: "100", Pag: "1"}},
	}
}

func TestUploadAndReviewRoundTrip(t *testing.T) {
	proc := &fakeProcessor{record: sampleRecord()}
	s := newTestServer(t, proc)
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, uploadRequest(t, "processo.pdf", []byte("%PDF-1.4 fake")))
	require.Equal(t, http.StatusOK, rr.Code)

	var uploaded fields.ReviewData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &uploaded))
	assert.Equal(t, "0801234-56.2023.8.18.0140", uploaded.NumeroProcesso)
	assert.Equal(t, []string{"Num. 100 - Pág. 1"}, uploaded.IDCertidoes)
	assert.Equal(t, "", uploaded.IDDeclaracao, "absent field serializes as empty")
	require.Len(t, proc.paths, 1)

	// The stored review is served back for the review screen.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/review", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var review fields.ReviewData
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &review))
	assert.Equal(t, uploaded, review)
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, uploadRequest(t, "planilha.xlsx", []byte("data")))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpload_RejectsInvalidPDF(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	s.validatePDF = func(string) error { return errors.New("corrupt xref") }

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, uploadRequest(t, "processo.pdf", []byte("not a pdf")))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUpload_ProcessingFailure(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{err: errors.New("open pdf: boom")})

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, uploadRequest(t, "processo.pdf", []byte("%PDF")))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestUpload_MissingFileField(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	req := httptest.NewRequest(http.MethodPost, "/upload", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetReview_BeforeAnyUpload(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/review", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPostReviewRendersDownloadableDocument(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	h := s.Handler()

	payload := fields.ReviewData{
		NumeroProcesso: "0801234-56.2023.8.18.0140",
		Requerente:     "Maria das Dores Silva",
		IDCertidoes:    []string{"Num. 100 - Pág. 1"},
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/review", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp reviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Regexp(t, `^suprimento-[0-9a-f-]+\.odt$`, resp.Filename)
	assert.Equal(t, "/download/"+resp.Filename, resp.URL)

	// Download the rendered document and check it is a valid archive.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, resp.URL, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, odtContentType, rr.Header().Get("Content-Type"))

	zr, err := zip.NewReader(bytes.NewReader(rr.Body.Bytes()), int64(rr.Body.Len()))
	require.NoError(t, err)
	require.NotEmpty(t, zr.File)
	assert.Equal(t, "mimetype", zr.File[0].Name)
}

func TestPostReview_InvalidPayload(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	req := httptest.NewRequest(http.MethodPost, "/review", bytes.NewReader([]byte("{invalid")))

	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDownload_RejectsTraversalNames(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	h := s.Handler()

	for _, name := range []string{"..%2F..%2Fetc%2Fpasswd", "notes.txt", "suprimento-..-x.pdf"} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/download/"+name, nil))
		assert.NotEqual(t, http.StatusOK, rr.Code, "name %q must not be served", name)
	}
}

func TestDownload_UnknownDocument(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr,
		httptest.NewRequest(http.MethodGet, "/download/suprimento-0000.odt", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	h := s.Handler()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/upload", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, &fakeProcessor{})
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "suprimento-server", body["name"])
}

package files

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

func newTestStore(max int64) (*Store, afero.Fs) {
	fs := afero.NewMemMapFs()
	return NewStore(fs, "/uploads", max), fs
}

func TestSaveWritesUnderCategory(t *testing.T) {
	store, fs := newTestStore(1024)

	rel, err := store.Save(CategoryInvoices, "Bill.PDF", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "invoices/"))
	require.True(t, strings.HasSuffix(rel, ".pdf"))

	data, err := afero.ReadFile(fs, "/uploads/"+rel)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4", string(data))
}

func TestSaveRejectsDisallowedExtension(t *testing.T) {
	store, _ := newTestStore(1024)
	_, err := store.Save(CategoryInvoices, "run.exe", strings.NewReader("MZ"))
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = store.Save("secrets", "a.png", strings.NewReader("x"))
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSaveRejectsOversizedAndCleansUp(t *testing.T) {
	store, fs := newTestStore(4)
	_, err := store.Save(CategoryPaymentProofs, "proof.png", strings.NewReader("123456"))
	require.ErrorIs(t, err, shared.ErrValidation)

	entries, err := afero.ReadDir(fs, "/uploads/"+CategoryPaymentProofs)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestOpenRefusesTraversal(t *testing.T) {
	store, _ := newTestStore(1024)
	for _, rel := range []string{"../etc/passwd", "invoices/../../x", "invoices/", "other/a.pdf", "invoices/.."} {
		_, _, err := store.Open(rel)
		require.ErrorIs(t, err, shared.ErrForbidden, rel)
	}
	_, _, err := store.Open("invoices/missing.pdf")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func multipartRequest(t *testing.T, field, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, body)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("note", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestSaveFormStoresFile(t *testing.T) {
	store, _ := newTestStore(1024)
	rel, err := store.SaveForm(httptest.NewRecorder(), multipartRequest(t, "file", "inv.jpg", "jpeg"), "file", CategoryInvoices)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rel, "invoices/"))
}

func TestSaveFormMissingFileReturnsEmpty(t *testing.T) {
	store, _ := newTestStore(1024)
	rel, err := store.SaveForm(httptest.NewRecorder(), multipartRequest(t, "", "", ""), "file", CategoryInvoices)
	require.NoError(t, err)
	require.Empty(t, rel)
}

func TestHandlerServesStoredFile(t *testing.T) {
	store, _ := newTestStore(1024)
	rel, err := store.Save(CategoryInvoices, "a.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	r := chi.NewRouter()
	NewHandler(nil, store).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+rel, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	require.Equal(t, "png-bytes", rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/secrets/a.png", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}

package api

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
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wbkost/backend/pkg/catalog"
	catalogrepo "github.com/wbkost/backend/pkg/catalog/repo/memory"
	"github.com/wbkost/backend/pkg/filevault"
	vaultrepo "github.com/wbkost/backend/pkg/filevault/repo/memory"
	vaultstore "github.com/wbkost/backend/pkg/filevault/storage/memory"
	"github.com/wbkost/backend/pkg/social"
	socialrepo "github.com/wbkost/backend/pkg/social/repo/memory"
)

type testEnv struct {
	server    *httptest.Server
	tokenAuth *jwtauth.JWTAuth
	vault     filevault.Service
	products  catalog.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	vault, err := filevault.New(
		filevault.WithRepository(vaultrepo.New()),
		filevault.WithBlobStore("memory", vaultstore.New()),
	)
	require.NoError(t, err)

	posts, err := social.New(socialrepo.New())
	require.NoError(t, err)

	products, err := catalog.New(catalogrepo.New(), vault)
	require.NoError(t, err)

	tokenAuth := NewTokenAuth("test-secret")
	router := NewRouter(tokenAuth, vault, posts, products, nil)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, tokenAuth: tokenAuth, vault: vault, products: products}
}

func (e *testEnv) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()

	_, tokenString, err := e.tokenAuth.Encode(map[string]interface{}{"sub": userID.String()})
	require.NoError(t, err)
	return tokenString
}

func (e *testEnv) do(t *testing.T, method, path, token string, body io.Reader, contentType string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func multipartFile(t *testing.T, fieldName, fileName, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, fileName))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func decodeResponse(t *testing.T, resp *http.Response) Response {
	t.Helper()
	defer resp.Body.Close()

	var envelope Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	return envelope
}

func uploadTestFile(t *testing.T, env *testEnv, token, fileName, contentType string, data []byte) map[string]interface{} {
	t.Helper()

	body, formType := multipartFile(t, "file", fileName, contentType, data)
	resp := env.do(t, http.MethodPost, "/api/files/upload", token, body, formType)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	envelope := decodeResponse(t, resp)
	require.True(t, envelope.Success)
	return envelope.Data.(map[string]interface{})
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t)
	user := uuid.New()
	token := env.token(t, user)

	data := uploadTestFile(t, env, token, "logo.png", "image/png", []byte("png bytes"))
	assert.Regexp(t, `^wbkost_\d+_logo\.png$`, data["storage_key"])
	assert.Equal(t, "logo.png", data["original_name"])
	assert.Equal(t, "image/png", data["content_type"])
	assert.Equal(t, float64(9), data["size_bytes"])
	assert.Equal(t, user.String(), data["owner_id"])
}

func TestUpload_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	body, formType := multipartFile(t, "file", "logo.png", "image/png", []byte("x"))
	resp := env.do(t, http.MethodPost, "/api/files/upload", "", body, formType)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpload_RejectsDisallowedType(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	body, formType := multipartFile(t, "file", "virus.exe", "application/x-msdownload", []byte("MZ"))
	resp := env.do(t, http.MethodPost, "/api/files/upload", token, body, formType)

	envelope := decodeResponse(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, envelope.Success)
	assert.NotEmpty(t, envelope.Error)
}

func TestUpload_MissingFileField(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	body, formType := multipartFile(t, "wrong", "logo.png", "image/png", []byte("x"))
	resp := env.do(t, http.MethodPost, "/api/files/upload", token, body, formType)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownload(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	payload := []byte("report contents")
	data := uploadTestFile(t, env, token, "report final.txt", "text/plain", payload)
	storageKey := data["storage_key"].(string)

	resp := env.do(t, http.MethodGet, "/api/files/download/"+storageKey, token, nil, "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="report final.txt"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, "15", resp.Header.Get("Content-Length"))

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownload_OtherUsersFile(t *testing.T) {
	env := newTestEnv(t)
	owner := env.token(t, uuid.New())
	stranger := env.token(t, uuid.New())

	data := uploadTestFile(t, env, owner, "logo.png", "image/png", []byte("png"))
	storageKey := data["storage_key"].(string)

	resp := env.do(t, http.MethodGet, "/api/files/download/"+storageKey, stranger, nil, "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInfo(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	data := uploadTestFile(t, env, token, "style.css", "text/css", []byte("body{}"))
	storageKey := data["storage_key"].(string)

	resp := env.do(t, http.MethodGet, "/api/files/info/"+storageKey, token, nil, "")
	envelope := decodeResponse(t, resp)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := envelope.Data.(map[string]interface{})
	assert.Equal(t, "style.css", info["original_name"])
	assert.Equal(t, float64(6), info["size_bytes"])
}

func TestMyFiles_WithInUseFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	token := env.token(t, user)

	attached := uploadTestFile(t, env, token, "used.zip", "application/zip", []byte("zip"))
	uploadTestFile(t, env, token, "loose.zip", "application/zip", []byte("zip"))

	product, err := env.products.CreateProduct(ctx, catalog.CreateProductRequest{
		SellerID: user,
		Title:    "Theme",
		Category: catalog.CategoryTemplate,
	})
	require.NoError(t, err)
	_, err = env.products.AttachFile(ctx, product.ID, user, attached["storage_key"].(string))
	require.NoError(t, err)

	resp := env.do(t, http.MethodGet, "/api/files/my-files", token, nil, "")
	envelope := decodeResponse(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	files := envelope.Data.([]interface{})
	require.Len(t, files, 2)

	byName := make(map[string]map[string]interface{})
	for _, f := range files {
		entry := f.(map[string]interface{})
		byName[entry["original_name"].(string)] = entry
	}
	assert.Equal(t, true, byName["used.zip"]["is_in_use"])
	assert.Equal(t, false, byName["loose.zip"]["is_in_use"])
	assert.Contains(t, byName["used.zip"]["download_url"], "/api/files/download/")
}

func TestDeleteFile(t *testing.T) {
	env := newTestEnv(t)
	token := env.token(t, uuid.New())

	data := uploadTestFile(t, env, token, "logo.png", "image/png", []byte("png"))
	storageKey := data["storage_key"].(string)

	resp := env.do(t, http.MethodDelete, "/api/files/"+storageKey, token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// The file is gone from every read path.
	resp = env.do(t, http.MethodGet, "/api/files/download/"+storageKey, token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Deleting again reports not found.
	resp = env.do(t, http.MethodDelete, "/api/files/"+storageKey, token, nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(env.server.URL + "/healthz/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

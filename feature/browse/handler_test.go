package browse

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"dataset-streamer/core/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestApp(t *testing.T) (*fiber.App, *mocks.Client) {
	t.Helper()
	app := fiber.New()
	mockClient := new(mocks.Client)
	svc := NewService(mockClient, "test-bucket", zap.NewNop())
	handler := NewHandler(svc)
	handler.RegisterRoutes(app)
	return app, mockClient
}

func TestHandleList(t *testing.T) {
	app, mockClient := setupTestApp(t)

	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "shards/a.bin", Size: 10}
	ch <- minio.ObjectInfo{Key: "shards/b.bin", Size: 20}
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	req := httptest.NewRequest("GET", "/objects/?prefix=shards/", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Prefix  string          `json:"prefix"`
		Count   int             `json:"count"`
		Objects []ObjectSummary `json:"objects"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "shards/", body.Prefix)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Objects, 2)
	assert.Equal(t, "shards/a.bin", body.Objects[0].Key)
}

func TestHandleList_Limit(t *testing.T) {
	app, mockClient := setupTestApp(t)

	ch := make(chan minio.ObjectInfo, 3)
	ch <- minio.ObjectInfo{Key: "a"}
	ch <- minio.ObjectInfo{Key: "b"}
	ch <- minio.ObjectInfo{Key: "c"}
	close(ch)
	mockClient.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(ch))

	req := httptest.NewRequest("GET", "/objects/?limit=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
}

func TestHandleGet(t *testing.T) {
	app, mockClient := setupTestApp(t)

	mockClient.On("GetObject", mock.Anything, "test-bucket", "shards/a.bin", mock.Anything).
		Return(io.NopCloser(strings.NewReader("payload")), minio.ObjectInfo{
			Key:         "shards/a.bin",
			Size:        7,
			ContentType: "application/octet-stream",
		}, nil)

	req := httptest.NewRequest("GET", "/objects/shards/a.bin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestHandleGet_NotFound(t *testing.T) {
	app, mockClient := setupTestApp(t)

	mockClient.On("GetObject", mock.Anything, "test-bucket", "missing.bin", mock.Anything).
		Return(nil, minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey", StatusCode: 404})

	req := httptest.NewRequest("GET", "/objects/missing.bin", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestLoader(t *testing.T) {
	mockClient := new(mocks.Client)
	feature := NewFeature(mockClient, "test-bucket", zap.NewNop())

	assert.Equal(t, "browse", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	require.NoError(t, feature.Load(app))
}

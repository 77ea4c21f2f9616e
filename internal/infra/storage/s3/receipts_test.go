package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReceiptStoreValidatesConfig(t *testing.T) {
	_, err := NewReceiptStore(Config{Bucket: "receipts"}, nil)
	assert.ErrorIs(t, err, ErrEndpointRequired)

	_, err = NewReceiptStore(Config{Endpoint: "localhost:9000"}, nil)
	assert.ErrorIs(t, err, ErrBucketRequired)
}

func TestReceiptStoreBuildsObjectURL(t *testing.T) {
	store, err := NewReceiptStore(Config{
		Endpoint:       "http://minio:9000",
		PublicEndpoint: "https://files.example.com/",
		Bucket:         "rentgate-receipts",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com", store.publicBaseURL)
	assert.Equal(t,
		"https://files.example.com/rentgate-receipts/receipts/res-1/tx-1.png",
		objectURL(store.publicBaseURL, store.bucket, "/receipts/res-1/tx-1.png"))
}

func TestUploadRejectsMissingInput(t *testing.T) {
	store, err := NewReceiptStore(Config{Endpoint: "localhost:9000", Bucket: "b"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", store.publicBaseURL)

	_, err = store.Upload(context.Background(), "k", nil, 0, "image/png")
	assert.ErrorIs(t, err, ErrBodyRequired)
	_, err = store.Upload(context.Background(), " / ", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrKeyRequired)
}

func TestHostOfStripsScheme(t *testing.T) {
	assert.Equal(t, "minio:9000", hostOf("http://minio:9000"))
	assert.Equal(t, "minio:9000", hostOf("minio:9000"))
}

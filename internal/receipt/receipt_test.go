package receipt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int
		wantType string
		wantErr  error
	}{
		{"png", "receipt.png", 100, "image/png", nil},
		{"upper-case jpeg", "IMG_0001.JPEG", 100, "image/jpeg", nil},
		{"webp", "scan.webp", DefaultMaxUploadBytes, "image/webp", nil},
		{"empty", "receipt.png", 0, "", ErrEmptyUpload},
		{"too large", "receipt.png", DefaultMaxUploadBytes + 1, "", ErrUploadTooLarge},
		{"pdf", "receipt.pdf", 100, "", ErrUnsupportedType},
		{"no extension", "receipt", 100, "", ErrUnsupportedType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateUpload(tt.filename, tt.size, DefaultMaxUploadBytes)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, got)
		})
	}
}

func TestParseCandidates(t *testing.T) {
	t.Run("fenced portuguese output", func(t *testing.T) {
		raw := "```json\n{\"itens\": [" +
			"{\"item\": \"REFRIGERANTE COCA-COLA\", \"quantidade\": 2, \"preco_unitario\": 8.50, \"preco_total\": 17.00}," +
			"{\"item\": \"PRATO EXECUTIVO\", \"preco_unitario\": 32.00}" +
			"]}\n```"
		got, err := ParseCandidates([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, []Candidate{
			{Name: "REFRIGERANTE COCA-COLA", Quantity: 2, UnitPrice: 8.5},
			{Name: "PRATO EXECUTIVO", Quantity: 1, UnitPrice: 32},
		}, got)
	})

	t.Run("english output with gaps", func(t *testing.T) {
		got, err := ParseCandidates([]byte(`{"items": [{"quantity": 3, "unit_price": -1}]}`))
		require.NoError(t, err)
		assert.Equal(t, []Candidate{{Name: "N/A", Quantity: 3, UnitPrice: 0}}, got)
	})

	t.Run("no items", func(t *testing.T) {
		_, err := ParseCandidates([]byte(`{"itens": []}`))
		require.ErrorIs(t, err, ErrNoItems)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := ParseCandidates([]byte("I could not read this receipt"))
		require.Error(t, err)
	})
}

func TestHTTPExtractor(t *testing.T) {
	var gotAuth, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{"itens": [{"item": "Chopp", "quantidade": 4, "preco_unitario": 12.9}]}`))
	}))
	defer srv.Close()

	e := NewHTTPExtractor(srv.URL, "secret", 5*time.Second)
	got, err := e.Extract(context.Background(), []byte("png-bytes"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, []Candidate{{Name: "Chopp", Quantity: 4, UnitPrice: 12.9}}, got)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png-bytes", string(gotBody))
}

func TestHTTPExtractor_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewHTTPExtractor(srv.URL, "", time.Second).Extract(context.Background(), []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

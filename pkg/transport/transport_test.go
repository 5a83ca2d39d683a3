package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><body><table class="results"></table></body></html>`

func compressedServer(t *testing.T, encoding string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Accept-Encoding"), "br")
		var buf bytes.Buffer
		switch encoding {
		case "gzip":
			zw := gzip.NewWriter(&buf)
			_, _ = zw.Write([]byte(page))
			_ = zw.Close()
		case "br":
			bw := brotli.NewWriter(&buf)
			_, _ = bw.Write([]byte(page))
			_ = bw.Close()
		default:
			buf.WriteString(page)
		}
		if encoding != "" {
			w.Header().Set("Content-Encoding", encoding)
		}
		_, _ = w.Write(buf.Bytes())
	}))
}

func TestGetHTMLDecodesContent(t *testing.T) {
	for _, encoding := range []string{"", "gzip", "br"} {
		t.Run("encoding="+encoding, func(t *testing.T) {
			srv := compressedServer(t, encoding)
			defer srv.Close()

			body, err := GetHTML(context.Background(), srv.URL)
			require.NoError(t, err)
			assert.Equal(t, page, string(body))
		})
	}
}

func TestGetHTMLRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := GetHTML(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestConfigureRejectsMissingBundle(t *testing.T) {
	_, err := NewHTTPClient(ClientConfig{CABundlePath: "/nonexistent/bundle.pem"})
	assert.Error(t, err)
}

func TestStreamTransportFraming(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}
{"jsonrpc":"2.0",
 "method":"tools/call",
 "params":{"name":"au_leagues","arguments":{"note":"a } brace"}},
 "id":"two"}`)
	var out bytes.Buffer
	tr := NewStreamTransport(in, &out)

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Method)

	req, err = tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "tools/call", req.Method)
	assert.Equal(t, "two", req.ID)

	_, err = tr.ReadRequest()
	assert.True(t, errors.Is(err, io.EOF))

	resp, err := protocol.NewJsonRpcResponse(map[string]any{}, 1)
	require.NoError(t, err)
	require.NoError(t, tr.WriteResponse(resp))
	assert.True(t, strings.HasSuffix(out.String(), "\n"))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "2.0", decoded["jsonrpc"])
}

func TestStreamTransportBadVersion(t *testing.T) {
	tr := NewStreamTransport(strings.NewReader(`{"jsonrpc":"1.0","method":"ping","id":1}`), io.Discard)
	_, err := tr.ReadRequest()
	var rpcErr *protocol.JsonRpcError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, protocol.ErrInvalidRequest, rpcErr.Code)
}

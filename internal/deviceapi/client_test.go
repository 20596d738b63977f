// FilePath: internal/deviceapi/client_test.go
package deviceapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/strct-org/beeportal/internal/errors"
)

// rewriteTransport sends every request to the test server regardless of the
// resolved device host, so the per-device URL scheme can stay untouched.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Host == "" {
		req.Host = req.URL.Host
	}
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func testClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	target, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parse test server url: %v", err)
	}

	client := NewClient(NewResolver("strct.org"), 2*time.Second)
	client.http.SetTransport(rewriteTransport{target: target})
	return client
}

func TestStatusParsesBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Host != "d1.strct.org" {
			t.Fatalf("expected per-device host, got %s", r.Host)
		}
		w.Write([]byte(`{"used":1024,"total":4096,"ip":"192.168.1.5","uptime":7200}`))
	})

	status, err := client.Status(context.Background(), "d1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Used != 1024 || status.Total != 4096 {
		t.Fatalf("unexpected storage values: %+v", status)
	}
	if status.IP != "192.168.1.5" || status.Uptime != 7200 {
		t.Fatalf("unexpected optional values: %+v", status)
	}
}

func TestStatusNon2xxIsError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := client.Status(context.Background(), "d1"); err == nil {
		t.Fatalf("expected error for http 500")
	}
}

func TestListFilesNilBecomesEmptySlice(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("path") != "/Photos" {
			t.Fatalf("missing path query, got %q", r.URL.Query().Get("path"))
		}
		w.Write([]byte(`{"files":null}`))
	})

	files, err := client.ListFiles(context.Background(), "d1", "/Photos")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if files == nil || len(files) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", files)
	}
}

func TestMkdirConflictMapsToConflictError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/mkdir" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusConflict)
	})

	err := client.Mkdir(context.Background(), "d1", "/", "Photos")
	if err == nil {
		t.Fatalf("expected conflict error")
	}
	if !errors.IsConflict(err) {
		t.Fatalf("expected a typed conflict, got %v", err)
	}
	if !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected already-exists message, got %v", err)
	}
}

func TestUploadSendsMultipartFileField(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/strct_agent/fs/upload" {
			t.Fatalf("unexpected upload path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("path") != "/Docs" {
			t.Fatalf("missing target directory query")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("expected multipart field 'file': %v", err)
		}
		defer file.Close()
		if header.Filename != "notes.txt" {
			t.Fatalf("unexpected filename: %s", header.Filename)
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := client.Upload(context.Background(), "d1", "/Docs", "notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
}

func TestTriggerSpeedtestUsesGet(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/network/speedtest" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := client.TriggerSpeedtest(context.Background(), "d1"); err != nil {
		t.Fatalf("TriggerSpeedtest failed: %v", err)
	}
}

func TestDownloadStreamsRawBody(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/Docs/notes.txt" {
			t.Fatalf("unexpected download path: %s", r.URL.Path)
		}
		w.Write([]byte("file-content"))
	})

	stream, err := client.Download(context.Background(), "d1", "/Docs/notes.txt")
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	defer stream.Close()

	buf := make([]byte, 32)
	n, _ := stream.Read(buf)
	if string(buf[:n]) != "file-content" {
		t.Fatalf("unexpected stream content: %q", buf[:n])
	}
}

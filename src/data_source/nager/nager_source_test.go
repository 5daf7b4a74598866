package nager

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"holiday-pipeline/src/logger"
	"holiday-pipeline/src/models"
	"holiday-pipeline/src/network"
)

func TestFetchRawUsesPathParams(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.URL.RawQuery != "" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	nm := network.NewNetworkManager(&models.MConfig{}, logger.NewLogger(nil, "test"))
	src := NewNagerSource(models.MProviderConfig{BaseURL: srv.URL}, nm)

	body, err := src.FetchRaw(context.Background(), "de", 2025)
	if err != nil {
		t.Fatalf("FetchRaw: %v", err)
	}
	if string(body) != "[]" {
		t.Errorf("body = %s", body)
	}
	if gotPath != "/PublicHolidays/2025/DE" {
		t.Errorf("path = %s", gotPath)
	}
	if src.Name() != models.ProviderNager {
		t.Errorf("Name = %s", src.Name())
	}
}

func TestDefaultBaseURL(t *testing.T) {
	src := NewNagerSource(models.MProviderConfig{}, nil)
	if src.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s", src.BaseURL)
	}
}

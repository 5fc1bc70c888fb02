// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pdiddy/pmc-harvest/internal/httputil"
	"github.com/pdiddy/pmc-harvest/pkg/types"
)

const fakePDFContent = "%PDF-1.4 fake"
const fakeXMLContent = `<article><front/></article>`

func overrideOABase(tsURL string) func() {
	orig := oaBase
	oaBase = tsURL + "/oa.fcgi"
	return func() { oaBase = orig }
}

func testClient() *httputil.Client {
	return httputil.New(types.HTTPConfig{RateLimit: 1000})
}

// buildTarGz creates a .tar.gz archive from name to contents pairs, in the
// given entry order.
func buildTarGz(t *testing.T, entries [][2]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, e := range entries {
		hdr := &tar.Header{
			Name: e[0],
			Mode: 0o644,
			Size: int64(len(e[1])),
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header: %v", err)
		}
		if _, err := tw.Write([]byte(e[1])); err != nil {
			t.Fatalf("writing tar entry: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

func TestDownloadDirectLinks(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oa.fcgi":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<OA><records><record>
				<link format="pdf" href="%s/files/article.pdf"/>
				<link format="xml" href="%s/files/article.xml"/>
			</record></records></OA>`, ts.URL, ts.URL)
		case "/files/article.pdf":
			fmt.Fprint(w, fakePDFContent)
		case "/files/article.xml":
			fmt.Fprint(w, fakeXMLContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	cfg := types.DownloadConfig{SaveDir: saveDir}
	Download(context.Background(), testClient(), "PMC123", cfg, zerolog.Nop())

	pdf := filepath.Join(saveDir, "PMC123", "PMC123.pdf")
	nxml := filepath.Join(saveDir, "PMC123", "PMC123.nxml")

	data, err := os.ReadFile(pdf)
	if err != nil {
		t.Fatalf("reading %s: %v", pdf, err)
	}
	if string(data) != fakePDFContent {
		t.Errorf("pdf content = %q, want %q", data, fakePDFContent)
	}
	if _, err := os.Stat(nxml); err != nil {
		t.Errorf("expected %s: %v", nxml, err)
	}
}

func TestDownloadOAError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<OA><error code="idIsNotOpenAccess">identifier 'PMC123' is not Open Access</error></OA>`)
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	cfg := types.DownloadConfig{SaveDir: saveDir}
	Download(context.Background(), testClient(), "PMC123", cfg, zerolog.Nop())

	entries, err := os.ReadDir(filepath.Join(saveDir, "PMC123"))
	if err == nil && len(entries) > 0 {
		t.Errorf("files written despite OA error: %v", entries)
	}
}

func TestDownloadMalformedOAResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<OA><records`)
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	// Must log and return without writing anything or panicking.
	Download(context.Background(), testClient(), "PMC123", types.DownloadConfig{SaveDir: saveDir}, zerolog.Nop())

	if _, err := os.Stat(filepath.Join(saveDir, "PMC123")); err == nil {
		t.Error("article directory created despite malformed response")
	}
}

func TestDownloadSiblingFailureDoesNotAbort(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oa.fcgi":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<OA><records><record>
				<link format="pdf" href="%s/missing.pdf"/>
				<link format="xml" href="%s/files/article.xml"/>
			</record></records></OA>`, ts.URL, ts.URL)
		case "/files/article.xml":
			fmt.Fprint(w, fakeXMLContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	Download(context.Background(), testClient(), "PMC123", types.DownloadConfig{SaveDir: saveDir}, zerolog.Nop())

	if _, err := os.Stat(filepath.Join(saveDir, "PMC123", "PMC123.pdf")); err == nil {
		t.Error("pdf written despite failed download")
	}
	if _, err := os.Stat(filepath.Join(saveDir, "PMC123", "PMC123.nxml")); err != nil {
		t.Errorf("xml sibling not downloaded: %v", err)
	}
}

func TestDownloadPackageFallback(t *testing.T) {
	archive := buildTarGz(t, [][2]string{
		{"PMC123/aaa.pdf", "first pdf"},
		{"PMC123/article.nxml", "first xml"},
		{"PMC123/zzz.pdf", "second pdf"},
	})

	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oa.fcgi":
			w.Header().Set("Content-Type", "application/xml")
			// The OA service hands out ftp hrefs for packages.
			fmt.Fprintf(w, `<OA><records><record>
				<link format="tgz" href="%s/packages/PMC123.tar.gz"/>
			</record></records></OA>`, ts.URL)
		case "/packages/PMC123.tar.gz":
			w.Write(archive)
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	Download(context.Background(), testClient(), "PMC123", types.DownloadConfig{SaveDir: saveDir}, zerolog.Nop())

	articleDir := filepath.Join(saveDir, "PMC123")

	data, err := os.ReadFile(filepath.Join(articleDir, "PMC123.pdf"))
	if err != nil {
		t.Fatalf("canonical pdf missing: %v", err)
	}
	// Lexically first match wins; the second pdf must not overwrite it.
	if string(data) != "first pdf" {
		t.Errorf("pdf content = %q, want %q", data, "first pdf")
	}
	if _, err := os.Stat(filepath.Join(articleDir, "PMC123", "zzz.pdf")); err != nil {
		t.Errorf("second pdf should stay untouched: %v", err)
	}

	data, err = os.ReadFile(filepath.Join(articleDir, "PMC123.nxml"))
	if err != nil {
		t.Fatalf("canonical nxml missing: %v", err)
	}
	if string(data) != "first xml" {
		t.Errorf("nxml content = %q, want %q", data, "first xml")
	}

	if _, err := os.Stat(filepath.Join(articleDir, "PMC123.tar.gz")); err == nil {
		t.Error("archive not removed after extraction")
	}
}

func TestDownloadCorruptPackage(t *testing.T) {
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/oa.fcgi":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<OA><records><record>
				<link format="tgz" href="%s/packages/PMC123.tar.gz"/>
			</record></records></OA>`, ts.URL)
		case "/packages/PMC123.tar.gz":
			fmt.Fprint(w, "this is not a gzip stream")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	saveDir := t.TempDir()
	Download(context.Background(), testClient(), "PMC123", types.DownloadConfig{SaveDir: saveDir}, zerolog.Nop())

	if _, err := os.Stat(filepath.Join(saveDir, "PMC123", "PMC123.pdf")); err == nil {
		t.Error("canonical pdf present despite corrupt archive")
	}
}

func TestLookupLinksNormalizesFTP(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("id"); got != "PMC77" {
			t.Errorf("id param = %q, want %q", got, "PMC77")
		}
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, `<OA><records><record>
			<link format="tgz" href="ftp://ftp.ncbi.nlm.nih.gov/pub/pmc/oa_package/PMC77.tar.gz"/>
			<link format="pdf" href="https://example.org/PMC77.pdf"/>
		</record></records></OA>`)
	}))
	defer ts.Close()
	defer overrideOABase(ts.URL)()

	links, ok := lookupLinks(context.Background(), testClient(), "PMC77", zerolog.Nop())
	if !ok {
		t.Fatal("lookupLinks() ok = false, want true")
	}

	want := "https://ftp.ncbi.nlm.nih.gov/pub/pmc/oa_package/PMC77.tar.gz"
	if links["tgz"] != want {
		t.Errorf("tgz link = %q, want %q", links["tgz"], want)
	}
	if links["pdf"] != "https://example.org/PMC77.pdf" {
		t.Errorf("pdf link = %q", links["pdf"])
	}
}

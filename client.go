/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

//go:embed client
var embeddedClient embed.FS

const qrSize = 320

// clientBundle is the set of files served to browsers. index.html is parsed
// as a template so it can learn where the game socket lives.
type clientBundle struct {
	files fs.FS
	index *template.Template
}

type indexData struct {
	Prefix string
	Socket string
}

func loadClientBundle(cfg *Config) (*clientBundle, error) {
	var files fs.FS

	if cfg.clientDir != "" {
		info, err := os.Stat(cfg.clientDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", cfg.clientDir)
		}
		files = os.DirFS(cfg.clientDir)
	} else {
		sub, err := fs.Sub(embeddedClient, "client")
		if err != nil {
			return nil, err
		}
		files = sub
	}

	index, err := template.ParseFS(files, "index.html")
	if err != nil {
		return nil, err
	}

	return &clientBundle{files: files, index: index}, nil
}

func getFavicon() string {
	return `<link rel="icon" type="image/svg+xml" href="/favicon.svg">`
}

func cacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
}

// socketURL points the browser at the game listener on the host it used to
// reach us.
func socketURL(cfg *Config, r *http.Request) string {
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	return cfg.wsScheme() + "://" + net.JoinHostPort(host, strconv.Itoa(cfg.wsPort)) + "/ws"
}

func serveIndex(cfg *Config, bundle *clientBundle, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		var page bytes.Buffer
		err := bundle.index.Execute(&page, indexData{
			Prefix: cfg.prefix,
			Socket: socketURL(cfg, r),
		})
		if err != nil {
			errs <- err
			http.Error(w, "unable to render client", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(page.Len()))
		securityHeaders(cfg, w)
		w.Header().Set("Content-Security-Policy", "default-src 'self'; connect-src 'self' ws: wss:; img-src 'self' data:")

		written, err := w.Write(page.Bytes())
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Client (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func contentType(fname string) string {
	switch strings.ToLower(filepath.Ext(fname)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "text/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".wasm":
		return "application/wasm"
	case ".woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}

func serveFile(cfg *Config, bundle *clientBundle, fname string, w http.ResponseWriter, r *http.Request, errs chan<- error) {
	if !fs.ValidPath(fname) {
		http.NotFound(w, r)
		return
	}

	data, err := fs.ReadFile(bundle.files, fname)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	cacheHeaders(w)
	w.Header().Set("Content-Type", contentType(fname))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	securityHeaders(cfg, w)

	_, err = w.Write(data)
	if err != nil {
		errs <- err

		return
	}
}

func serveAssets(cfg *Config, bundle *clientBundle, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := "assets/" + strings.TrimPrefix(p.ByName("file"), "/")

		serveFile(cfg, bundle, fname, w, r, errs)
	}
}

func serveFavicon(cfg *Config, bundle *clientBundle, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		serveFile(cfg, bundle, "favicon.svg", w, r, errs)
	}
}

// serveQR renders a PNG QR code of the client URL, so a second player can
// join from a phone.
func serveQR(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := cfg.scheme()
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		url := scheme + "://" + r.Host + cfg.prefix + "/"

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		securityHeaders(cfg, w)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

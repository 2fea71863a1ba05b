package web

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"nmeafix/internal/config"
)

// Deps are the pieces the HTTP surface reads from. Nil members disable
// their endpoints.
type Deps struct {
	Status    *Status
	Logs      *LogBuffer
	Fixes     *FixBroadcaster
	Metrics   *Metrics
	Config    *config.Config
	Dialect   string
	Sentences []string
}

func writeJSON(w http.ResponseWriter, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		http.Error(w, "marshal failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
	_, _ = w.Write([]byte("\n"))
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func Handler(d Deps) http.Handler {
	status := d.Status
	if status == nil {
		status = NewStatus()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/status", getOnly(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, status.Snapshot(time.Now().UTC()))
	}))

	mux.HandleFunc("/api/fix", getOnly(func(w http.ResponseWriter, r *http.Request) {
		snap := status.GPS()
		if snap.Fix == nil {
			http.Error(w, "no fix yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, snap.Fix)
	}))

	mux.HandleFunc("/api/satellites", getOnly(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, status.GPS().Satellites)
	}))

	if d.Fixes != nil {
		mux.HandleFunc("/ws/fix", d.Fixes.ServeWS)
	}
	if d.Logs != nil {
		mux.Handle("/api/logs", d.Logs.Handler())
	}
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics.Handler())
	}
	if d.Config != nil {
		mux.Handle("/api/config", ConfigHandler(*d.Config))
	}
	mux.Handle("/api/about", AboutHandler(d.Dialect, d.Sentences))

	mux.HandleFunc("/", getOnly(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		g := status.GPS()
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprintf(w, "<!doctype html><html><head><meta charset=\"utf-8\"><title>nmeafix</title></head><body>")
		_, _ = fmt.Fprintf(w, "<h1>nmeafix</h1>")
		_, _ = fmt.Fprintf(w, "<p>See <a href=\"/api/status\">/api/status</a>, <a href=\"/api/fix\">/api/fix</a> and <a href=\"/metrics\">/metrics</a>.</p>")
		_, _ = fmt.Fprintf(w, "<pre>source=%s\nvalid=%t\nsentences=%d\nchecksum_errors=%d\nfixes=%d\nlast_fix_utc=%s\nlast_error=%s</pre>",
			html.EscapeString(g.Source), g.Valid, g.Stats.Sentences, g.Stats.ChecksumErrors, g.Fixes,
			html.EscapeString(g.LastFixUTC), html.EscapeString(g.LastError),
		)
		_, _ = fmt.Fprintf(w, "</body></html>")
	}))

	return mux
}

func Serve(ctx context.Context, listenAddr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

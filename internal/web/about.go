package web

import (
	"net/http"
	"runtime"
	"runtime/debug"
	"time"
)

type AboutResponse struct {
	Service    string   `json:"service"`
	NowUTC     string   `json:"now_utc"`
	GoVersion  string   `json:"go_version"`
	ModulePath string   `json:"module_path,omitempty"`
	Version    string   `json:"version,omitempty"`
	Commit     string   `json:"commit,omitempty"`
	Dirty      bool     `json:"dirty,omitempty"`
	Dialect    string   `json:"dialect,omitempty"`
	Sentences  []string `json:"sentences,omitempty"`
}

// AboutHandler reports build info plus the sentences the decoder knows.
func AboutHandler(dialect string, sentences []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := AboutResponse{
			Service:   "nmeafix",
			NowUTC:    time.Now().UTC().Format(time.RFC3339Nano),
			GoVersion: runtime.Version(),
			Dialect:   dialect,
			Sentences: sentences,
		}
		if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
			resp.ModulePath = bi.Main.Path
			resp.Version = bi.Main.Version
			for _, s := range bi.Settings {
				switch s.Key {
				case "vcs.revision":
					resp.Commit = s.Value
				case "vcs.modified":
					resp.Dirty = s.Value == "true"
				}
			}
		}
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, resp)
	})
}

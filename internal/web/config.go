package web

import (
	"net/http"

	"gopkg.in/yaml.v3"

	"nmeafix/internal/config"
)

// ConfigHandler serves the effective configuration, defaults applied, as
// YAML. The config is read once at start so this never changes.
func ConfigHandler(cfg config.Config) http.Handler {
	b, err := yaml.Marshal(cfg)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			http.Error(w, "marshal failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(b)
	})
}

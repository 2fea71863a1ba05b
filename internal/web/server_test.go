package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nmeafix/internal/config"
	"nmeafix/internal/fix"
	"nmeafix/internal/gps"
	"nmeafix/internal/nmea"
)

func testFix() fix.Fix {
	f := fix.Fix{Status: fix.StatusStandard, Lat: 373838062, Lon: -1219899755, Satellites: 9}
	f.Valid.Set(fix.FieldStatus)
	f.Valid.Set(fix.FieldLocation)
	f.Valid.Set(fix.FieldSatellites)
	return f
}

func testStatus() *Status {
	f := testFix()
	rep := f.Report()
	snap := gps.Snapshot{
		Enabled:    true,
		Valid:      true,
		Source:     "replay",
		Fix:        &rep,
		Satellites: []nmea.SatelliteView{{ID: 10, Elevation: 63, Azimuth: 137, SNR: 17}},
		Stats:      nmea.Stats{Sentences: 3, ChecksumErrors: 1, Chars: 210},
		Fixes:      2,
	}
	st := NewStatus()
	st.SetGPS(func() gps.Snapshot { return snap })
	st.SetOutputs(map[string]any{"udp": "127.0.0.1:4000"})
	return st
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(b)
}

func TestAPIStatus(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Status: testStatus()}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var snap StatusSnapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if snap.Service != "nmeafix" {
		t.Fatalf("service=%q", snap.Service)
	}
	if !snap.GPS.Valid || snap.GPS.Stats.Sentences != 3 {
		t.Fatalf("gps=%+v", snap.GPS)
	}
	if snap.Outputs["udp"] != "127.0.0.1:4000" {
		t.Fatalf("outputs=%v", snap.Outputs)
	}
}

func TestAPIFix(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Status: testStatus()}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/fix")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	var rep fix.Report
	if err := json.Unmarshal([]byte(body), &rep); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if rep.LatE7 == nil || *rep.LatE7 != 373838062 {
		t.Fatalf("lat_e7=%v", rep.LatE7)
	}
}

func TestAPIFix_NotFoundBeforeFirstFix(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{}))
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/api/fix")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
}

func TestAPIStatus_MethodNotAllowed(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{}))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
}

func TestRootPage(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Status: testStatus()}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if !strings.Contains(body, "source=replay") || !strings.Contains(body, "sentences=3") {
		t.Fatalf("body=%s", body)
	}

	resp, _ = get(t, ts.URL+"/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path status code=%d", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	st := testStatus()
	ts := httptest.NewServer(Handler(Deps{Status: st, Metrics: NewMetrics(st.GPS)}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	for _, want := range []string{
		"nmeafix_sentences_total 3",
		"nmeafix_checksum_errors_total 1",
		"nmeafix_chars_total 210",
		"nmeafix_fixes_total 2",
		"nmeafix_fix_valid 1",
		"nmeafix_satellites_in_view 1",
		"nmeafix_satellites_used 9",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics missing %q:\n%s", want, body)
		}
	}
}

func TestAPIConfig(t *testing.T) {
	cfg, err := config.Parse([]byte("gps:\n  enable: true\n  device: /dev/ttyACM0\n"))
	if err != nil {
		t.Fatalf("config.Parse: %v", err)
	}
	ts := httptest.NewServer(Handler(Deps{Config: &cfg}))
	defer ts.Close()

	resp, body := get(t, ts.URL+"/api/config")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code=%d", resp.StatusCode)
	}
	if !strings.Contains(body, "device: /dev/ttyACM0") || !strings.Contains(body, "last_sentence: RMC") {
		t.Fatalf("body=%s", body)
	}
}

func TestAPIAbout(t *testing.T) {
	ts := httptest.NewServer(Handler(Deps{Dialect: "ublox", Sentences: []string{"GGA", "RMC"}}))
	defer ts.Close()

	_, body := get(t, ts.URL+"/api/about")
	var about AboutResponse
	if err := json.Unmarshal([]byte(body), &about); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if about.Service != "nmeafix" || about.Dialect != "ublox" || len(about.Sentences) != 2 {
		t.Fatalf("about=%+v", about)
	}
}

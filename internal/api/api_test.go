package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	geojson "github.com/paulmach/go.geojson"

	"github.com/talgya/hexforge/internal/persistence"
	"github.com/talgya/hexforge/internal/ruleset"
	"github.com/talgya/hexforge/internal/world"
)

const testKey = "secret"

const smallRequest = `{
	"params": {"shape": "hexagonal", "size": "custom", "radius": 6, "archetype": "continents", "seed": 42},
	"majors": 2,
	"city_states": 1
}`

func newTestServer(t *testing.T, key string, limit int) *httptest.Server {
	t.Helper()
	db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	s := &Server{DB: db, Rules: ruleset.Default(), AdminKey: key, GenerateLimit: limit}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createMap(t *testing.T, srv *httptest.Server) createResponse {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/v1/maps", testKey, smallRequest)
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("create status = %d: %s", resp.StatusCode, b)
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" {
		t.Fatal("create returned no id")
	}
	if got := resp.Header.Get("Location"); got != "/api/v1/maps/"+out.ID {
		t.Errorf("Location = %q", got)
	}
	return out
}

func TestAdminAuth(t *testing.T) {
	open := newTestServer(t, "", 0)
	if resp := do(t, http.MethodPost, open.URL+"/api/v1/maps", "", smallRequest); resp.StatusCode != http.StatusForbidden {
		t.Errorf("no admin key: status = %d, want 403", resp.StatusCode)
	}

	srv := newTestServer(t, testKey, 0)
	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/maps", "wrong", smallRequest); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad token: status = %d, want 401", resp.StatusCode)
	}
	if resp := do(t, http.MethodDelete, srv.URL+"/api/v1/maps/abc", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("delete without token: status = %d, want 401", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/v1/status", "", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("status endpoint: %d", resp.StatusCode)
	}
}

func TestMapLifecycle(t *testing.T) {
	srv := newTestServer(t, testKey, 0)
	created := createMap(t, srv)

	if created.Seed != 42 {
		t.Errorf("seed = %d, want 42", created.Seed)
	}
	if len(created.Starts)+len(created.Unplaced) != 3 {
		t.Errorf("%d starts and %d unplaced, want 3 factions accounted for", len(created.Starts), len(created.Unplaced))
	}

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/maps", "", "")
	var list []persistence.Summary
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != created.ID {
		t.Fatalf("list = %+v", list)
	}
	if list[0].Tiles != 127 {
		t.Errorf("listed %d tiles, want 127", list[0].Tiles)
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+created.ID, "", "")
	var snap world.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if len(snap.Tiles) != 127 {
		t.Errorf("snapshot has %d tiles", len(snap.Tiles))
	}
	if len(snap.Starts) != len(created.Starts) {
		t.Errorf("snapshot has %d starts, created %d", len(snap.Starts), len(created.Starts))
	}

	resp = do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+created.ID+"/preview", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("preview status = %d", resp.StatusCode)
	}

	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/maps/"+created.ID, testKey, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}
	resp = do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+created.ID, "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", resp.StatusCode)
	}
	resp = do(t, http.MethodDelete, srv.URL+"/api/v1/maps/"+created.ID, testKey, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", resp.StatusCode)
	}
}

func TestThumbnail(t *testing.T) {
	srv := newTestServer(t, testKey, 0)
	id := createMap(t, srv).ID

	for _, mode := range []string{"", "terrain", "continents"} {
		resp := do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+id+"/thumbnail.png?width=64&mode="+mode, "", "")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("mode %q: status %d", mode, resp.StatusCode)
		}
		img, err := png.Decode(resp.Body)
		if err != nil {
			t.Fatalf("mode %q: %v", mode, err)
		}
		if img.Bounds().Dx() != 64 {
			t.Errorf("mode %q: width %d, want 64", mode, img.Bounds().Dx())
		}
	}

	if resp := do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+id+"/thumbnail.png?mode=relief", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad mode: status %d, want 400", resp.StatusCode)
	}
	if resp := do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+id+"/thumbnail.png?width=4", "", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("tiny width: status %d, want 400", resp.StatusCode)
	}
}

func TestStartsGeoJSONEndpoint(t *testing.T) {
	srv := newTestServer(t, testKey, 0)
	created := createMap(t, srv)

	resp := do(t, http.MethodGet, srv.URL+"/api/v1/maps/"+created.ID+"/starts.geojson", "", "")
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		t.Fatal(err)
	}

	starts, continents := 0, 0
	for _, f := range fc.Features {
		switch f.PropertyMustString("kind") {
		case "start":
			starts++
			if !f.Geometry.IsPoint() {
				t.Errorf("start geometry %s", f.Geometry.Type)
			}
		case "continent":
			continents++
		}
	}
	if starts != len(created.Starts) {
		t.Errorf("%d start features, want %d", starts, len(created.Starts))
	}
	if continents == 0 {
		t.Error("no continent features")
	}
}

func TestCreateRejectsBadRequests(t *testing.T) {
	srv := newTestServer(t, testKey, 0)

	bodies := map[string]string{
		"malformed":     `{"params":`,
		"too many":      `{"majors": 99}`,
		"unknown shape": `{"params": {"shape": "triangle"}}`,
		"oversized":     `{"params": {"shape": "rectangular", "size": "custom", "width": 400, "height": 400}}`,
		"neg radius":    `{"params": {"size": "custom", "radius": -1}}`,
	}
	for name, body := range bodies {
		resp := do(t, http.MethodPost, srv.URL+"/api/v1/maps", testKey, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", name, resp.StatusCode)
		}
	}

	big := `{"params": {"name": "` + strings.Repeat("x", maxBodyBytes) + `"}}`
	if resp := do(t, http.MethodPost, srv.URL+"/api/v1/maps", testKey, big); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("huge body: status %d, want 400", resp.StatusCode)
	}
}

func TestGenerateRateLimit(t *testing.T) {
	srv := newTestServer(t, testKey, 1)
	createMap(t, srv)

	resp := do(t, http.MethodPost, srv.URL+"/api/v1/maps", testKey, smallRequest)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second create: status %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestStream(t *testing.T) {
	srv := newTestServer(t, "", 0)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/stream"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	if err := conn.WriteMessage(websocket.TextMessage, []byte(smallRequest)); err != nil {
		t.Fatal(err)
	}

	var stages []string
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read after %v: %v", stages, err)
		}
		if msg.Type == "error" {
			t.Fatalf("stream error: %s", msg.Error)
		}
		if msg.Type == "done" {
			if msg.Seed != 42 {
				t.Errorf("done seed = %d", msg.Seed)
			}
			if msg.Preview == nil || len(msg.Preview.Starts) == 0 {
				t.Error("done message has no starts")
			}
			break
		}
		stages = append(stages, string(msg.Event.Stage))
	}

	want := []string{"terrain", "continents", "regions", "starts", "normalize", "city_states", "resources", "done"}
	if strings.Join(stages, ",") != strings.Join(want, ",") {
		t.Errorf("stages = %v, want %v", stages, want)
	}
}

func TestStreamRejectsInvalidRequest(t *testing.T) {
	srv := newTestServer(t, "", 0)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/generate/stream"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.WriteMessage(websocket.TextMessage, []byte(`{"majors": -1}`))

	var msg streamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "error" || msg.Error == "" {
		t.Errorf("got %+v, want an error message", msg)
	}
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, "", 0)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/maps", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin %q", got)
	}
}

func TestRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests refused")
	}
	if rl.Allow("a") {
		t.Error("third request allowed")
	}
	if !rl.Allow("b") {
		t.Error("other client refused")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Errorf("RetryAfter = %d, want 61", got)
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("refused after the window reset")
	}
}

func TestClientAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := clientAddr(r); got != "10.0.0.1" {
		t.Errorf("clientAddr = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := clientAddr(r); got != "203.0.113.9" {
		t.Errorf("forwarded clientAddr = %q", got)
	}
}

func TestRenderKeepsAspect(t *testing.T) {
	m, err := world.NewRectangular(20, 10, false, ruleset.Default())
	if err != nil {
		t.Fatal(err)
	}
	img := Render(m, RenderTerrain, 200)
	// 41×20 native pixels scaled to 200 wide.
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 97 {
		t.Errorf("rendered %v", b)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, Render(m, RenderContinents, 1)); err != nil {
		t.Fatal(err)
	}
}

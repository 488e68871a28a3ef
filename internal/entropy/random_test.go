package entropy

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNilClientUsesCrypto(t *testing.T) {
	var c *Client
	if c.Enabled() {
		t.Fatal("nil client reports enabled")
	}
	seed, err := c.Seed()
	if err != nil || seed <= 0 {
		t.Fatalf("Seed() = %d, %v", seed, err)
	}
	if NewClient("") != nil {
		t.Error("empty key should give a nil client")
	}
}

func TestSeedFromPool(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Method string `json:"method"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Method != "generateIntegers" {
			t.Errorf("method = %q", req.Method)
		}
		w.Write([]byte(`{"jsonrpc":"2.0","result":{"random":{"data":[11,0,22]}},"id":1}`))
	}))
	defer srv.Close()

	c := NewClient("key").WithEndpoint(srv.URL)
	for _, want := range []int64{11, 22} {
		got, err := c.Seed()
		if err != nil || got != want {
			t.Fatalf("Seed() = %d, %v; want %d", got, err, want)
		}
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}
}

func TestSeedFallsBackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","error":{"message":"quota exceeded"},"id":1}`))
	}))
	defer srv.Close()

	seed, err := NewClient("key").WithEndpoint(srv.URL).Seed()
	if err != nil || seed <= 0 {
		t.Fatalf("Seed() = %d, %v", seed, err)
	}
}

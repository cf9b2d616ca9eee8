//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

func baseURL() string {
	if v := os.Getenv("BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:8080"
}

func waitReady(url string, timeout time.Duration) error {
	dead := time.Now().Add(timeout)
	for time.Now().Before(dead) {
		r, err := http.Get(url + "/readyz")
		if err == nil && r.StatusCode == 204 {
			r.Body.Close()
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("ready timeout")
}

var noFollow = &http.Client{
	Timeout:       5 * time.Second,
	CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
}

func get(path string, hdr map[string]string) (*http.Response, error) {
	req, err := http.NewRequest(http.MethodGet, baseURL()+path, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	return noFollow.Do(req)
}

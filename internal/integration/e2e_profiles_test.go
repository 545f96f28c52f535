//go:build e2e
// +build e2e

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	apiPort            = "18080"
	baseURL            = "http://localhost:" + apiPort
	buildTimeout       = 3 * time.Minute
	readyTimeout       = 30 * time.Second
	readyPollInterval  = 250 * time.Millisecond
	statusPollTimeout  = 30 * time.Second
	statusPollInterval = 250 * time.Millisecond
	requestContentType = "application/json"
	idempotencyHeader  = "X-Idempotency-Key"
)

type refreshResponse struct {
	BatchID string `json:"batch_id"`
}

type batchDetails struct {
	ID        string `json:"id"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Status    string `json:"status"`
}

type quoteResponse struct {
	Code      string  `json:"code"`
	Price     float64 `json:"price"`
	Source    string  `json:"source"`
	ErrorKind string  `json:"error_kind"`
}

func TestE2E_MemoryProfile(t *testing.T) {
	if os.Getenv("E2E_PROFILES") != "1" {
		t.Skip("E2E_PROFILES not enabled")
	}
	startAPI(t, "STORAGE=none")

	waitForReady(t, baseURL)
	batchID := postRefresh(t, baseURL, []string{"600000", "000001"}, "e2e-memory")
	b := waitForBatch(t, baseURL, batchID)
	require.Equal(t, 2, b.Completed)
	require.Zero(t, b.Failed)

	q := getQuote(t, baseURL, "600000")
	require.Equal(t, "fake", q.Source)
	require.Greater(t, q.Price, 0.0)
}

func TestE2E_SQLiteProfile(t *testing.T) {
	if os.Getenv("E2E_PROFILES") != "1" {
		t.Skip("E2E_PROFILES not enabled")
	}
	dbPath := filepath.Join(t.TempDir(), "e2e.db")
	startAPI(t, "STORAGE=sqlite", "SQLITE_PATH="+dbPath)

	waitForReady(t, baseURL)
	batchID := postRefresh(t, baseURL, []string{"300750"}, "e2e-sqlite")
	b := waitForBatch(t, baseURL, batchID)
	require.Equal(t, 1, b.Total)

	q := getQuote(t, baseURL, "300750")
	require.Empty(t, q.ErrorKind)
}

// startAPI builds cmd/api and runs it with the fake provider until the test ends.
func startAPI(t *testing.T, env ...string) {
	t.Helper()
	bin := filepath.Join(t.TempDir(), "api")

	ctx, cancel := context.WithTimeout(context.Background(), buildTimeout)
	defer cancel()
	build := exec.CommandContext(ctx, "go", "build", "-o", bin, "./cmd/api")
	build.Dir = repoPath(t)
	out, err := build.CombinedOutput()
	require.NoError(t, err, "go build failed:\n%s", out)

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"PORT="+apiPort,
		"PROVIDERS=fake",
		"MARKET_CAP=false",
		"REDIS_ADDR=",
		"NSQ_ADDR=",
		"LOG_LEVEL=warn",
	)
	cmd.Env = append(cmd.Env, env...)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Signal(os.Interrupt)
		done := make(chan struct{})
		go func() { _ = cmd.Wait(); close(done) }()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			_ = cmd.Process.Kill()
		}
	})
}

func waitForReady(t *testing.T, baseURL string) {
	t.Helper()
	deadline := time.Now().Add(readyTimeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/readyz")
		if err == nil && resp.StatusCode == http.StatusOK {
			_ = resp.Body.Close()
			return
		}
		if resp != nil {
			_ = resp.Body.Close()
		}
		time.Sleep(readyPollInterval)
	}
	t.Fatalf("API did not become ready within %s", readyTimeout)
}

func postRefresh(t *testing.T, baseURL string, symbols []string, idem string) string {
	t.Helper()
	data, _ := json.Marshal(map[string]any{"symbols": symbols})
	req, err := http.NewRequest(http.MethodPost, baseURL+"/v1/refresh", bytes.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", requestContentType)
	req.Header.Set(idempotencyHeader, idem)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var out refreshResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.BatchID)
	return out.BatchID
}

func waitForBatch(t *testing.T, baseURL, id string) batchDetails {
	t.Helper()
	deadline := time.Now().Add(statusPollTimeout)
	client := &http.Client{Timeout: 5 * time.Second}
	for time.Now().Before(deadline) {
		b, err := getBatch(client, baseURL, id)
		if err == nil && b.Status == "completed" {
			return b
		}
		time.Sleep(statusPollInterval)
	}
	t.Fatalf("batch %s did not complete within %s", id, statusPollTimeout)
	return batchDetails{}
}

func getBatch(client *http.Client, baseURL, id string) (batchDetails, error) {
	resp, err := client.Get(baseURL + "/v1/batches/" + id)
	if err != nil {
		return batchDetails{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return batchDetails{}, fmt.Errorf("status %d", resp.StatusCode)
	}
	var b batchDetails
	err = json.NewDecoder(resp.Body).Decode(&b)
	return b, err
}

func getQuote(t *testing.T, baseURL, symbol string) quoteResponse {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/v1/quotes/" + symbol)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out quoteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func repoPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("failed to determine caller")
	}
	// internal/integration -> internal -> repo root
	return filepath.Dir(filepath.Dir(filepath.Dir(file)))
}

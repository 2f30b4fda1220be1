package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lemonberrylabs/lunarc/pkg/store"
)

const sampleSrc = `
import produce(name x);
import consume(value x);
sub main() {
	df x;
	produce(x);
	consume(x);
}
`

// execSrc calls only symbols pkg/natives registers, so the server's
// interpreted executions can actually run it (sampleSrc's produce/consume
// only need to compile).
const execSrc = `
import time_now(name t);
import math_abs(value t, name a);
sub main() {
	df t, a;
	time_now(t);
	math_abs(t, a);
}
`

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	return New(store.New(), 4)
}

func TestCreateAndGetProgram(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("POST", "/v1/programs", bytes.NewReader(mustJSON(t, map[string]any{
		"id":     "p1",
		"source": sampleSrc,
	})))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var created map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created["name"] != "p1" {
		t.Fatalf("unexpected name: %v", created)
	}

	getReq := httptest.NewRequest("GET", "/v1/programs/p1", nil)
	getResp, err := srv.App().Test(getReq, -1)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if getResp.StatusCode != 200 {
		body, _ := io.ReadAll(getResp.Body)
		t.Fatalf("expected 200, got %d: %s", getResp.StatusCode, body)
	}
}

func TestCreateProgramRejectsBadSource(t *testing.T) {
	srv := setupTestServer(t)

	req := httptest.NewRequest("POST", "/v1/programs", bytes.NewReader(mustJSON(t, map[string]any{
		"id":     "bad",
		"source": "sub main( { }",
	})))
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 400 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 400, got %d: %s", resp.StatusCode, body)
	}
}

func TestListPrograms(t *testing.T) {
	srv := setupTestServer(t)

	for _, id := range []string{"p-a", "p-b"} {
		req := httptest.NewRequest("POST", "/v1/programs", bytes.NewReader(mustJSON(t, map[string]any{
			"id":     id,
			"source": sampleSrc,
		})))
		req.Header.Set("Content-Type", "application/json")
		if _, err := srv.App().Test(req, -1); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}

	req := httptest.NewRequest("GET", "/v1/programs", nil)
	resp, err := srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("list request failed: %v", err)
	}
	var listed map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	programs, ok := listed["programs"].([]any)
	if !ok || len(programs) != 2 {
		t.Fatalf("expected 2 programs, got %v", listed)
	}
}

func TestCreateExecutionRunsToCompletion(t *testing.T) {
	srv := setupTestServer(t)

	createReq := httptest.NewRequest("POST", "/v1/programs", bytes.NewReader(mustJSON(t, map[string]any{
		"id":     "exec-test",
		"source": execSrc,
	})))
	createReq.Header.Set("Content-Type", "application/json")
	if _, err := srv.App().Test(createReq, -1); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	execReq := httptest.NewRequest("POST", "/v1/programs/exec-test/executions", nil)
	execResp, err := srv.App().Test(execReq, -1)
	if err != nil {
		t.Fatalf("execution request failed: %v", err)
	}
	var exec map[string]any
	if err := json.NewDecoder(execResp.Body).Decode(&exec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	name, _ := exec["name"].(string)
	if name == "" {
		t.Fatal("expected execution name to be set")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		getReq := httptest.NewRequest("GET", "/v1/executions/"+name, nil)
		getResp, err := srv.App().Test(getReq, -1)
		if err != nil {
			t.Fatalf("get execution failed: %v", err)
		}
		var got map[string]any
		if err := json.NewDecoder(getResp.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got["state"] == string(store.ExecutionSucceeded) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("execution did not complete in time")
}

func mustJSON(t *testing.T, v map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

package web

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

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

func setupTestApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()
	s := store.New()
	h := New(s)
	app := fiber.New()
	h.Register(app)
	return app, s
}

func TestDashboardEmpty(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/ui", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	if !containsStr(html, "Dashboard") {
		t.Error("expected Dashboard in response")
	}
	if !containsStr(html, "lunarc") {
		t.Error("expected lunarc brand in response")
	}
	if !containsStr(html, "No programs deployed") {
		t.Error("expected empty state message")
	}
}

func TestDashboardWithData(t *testing.T) {
	app, s := setupTestApp(t)

	if _, err := s.CreateProgram("hello-world", sampleSrc); err != nil {
		t.Fatalf("failed to create program: %v", err)
	}

	req := httptest.NewRequest("GET", "/ui", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	if !containsStr(html, "hello-world") {
		t.Error("expected program name in response")
	}
}

func TestProgramList(t *testing.T) {
	app, s := setupTestApp(t)

	s.CreateProgram("p-one", sampleSrc)
	s.CreateProgram("p-two", sampleSrc)

	req := httptest.NewRequest("GET", "/ui/programs", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	if !containsStr(html, "p-one") {
		t.Error("expected p-one in response")
	}
	if !containsStr(html, "p-two") {
		t.Error("expected p-two in response")
	}
}

func TestProgramDetail(t *testing.T) {
	app, s := setupTestApp(t)

	s.CreateProgram("my-prog", sampleSrc)

	req := httptest.NewRequest("GET", "/ui/programs/my-prog", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	if !containsStr(html, "my-prog") {
		t.Error("expected program name in response")
	}
	if !containsStr(html, "produce") {
		t.Error("expected source content in response")
	}
	if !containsStr(html, "Trigger Execution") {
		t.Error("expected trigger button in response")
	}
}

func TestProgramNotFound(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/ui/programs/nonexistent", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	html := string(body)

	if !containsStr(html, "Not Found") {
		t.Error("expected not found message")
	}
}

func TestRootRedirect(t *testing.T) {
	app, _ := setupTestApp(t)

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != 302 {
		t.Fatalf("expected 302 redirect, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if loc != "/ui" {
		t.Fatalf("expected redirect to /ui, got %s", loc)
	}
}

func containsStr(s, substr string) bool {
	return len(s) >= len(substr) && stringContains(s, substr)
}

func stringContains(s, sub string) bool {
	for i := 0; i <= len(s)-len(sub); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

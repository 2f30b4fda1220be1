// Package web provides the embedded dashboard UI for lunarc's
// program/execution registry.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/lunarc/pkg/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the web UI pages.
type Handler struct {
	store   *store.Store
	funcMap template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	Data      interface{}
}

// New creates a new web UI handler over s.
func New(s *store.Store) *Handler {
	return &Handler{
		store: s,
		funcMap: template.FuncMap{
			"timeAgo":    timeAgo,
			"formatTime": formatTime,
			"duration":   duration,
			"stateClass": stateClass,
			"stateIcon":  stateIcon,
			"truncate":   truncate,
			"execID":     execID,
			"countLines": countLines,
			"hasPrefix":  strings.HasPrefix,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.dashboard)
	app.Get("/ui/programs", h.programList)
	app.Get("/ui/programs/:id", h.programDetail)
	app.Get("/ui/programs/:id/executions", h.executionList)
	app.Get("/ui/executions", h.allExecutionsList)
	app.Get("/ui/executions/:id", h.executionDetail)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type dashboardContent struct {
	Programs       []*store.Program
	RecentExecs    []*store.Execution
	RunningCount   int
	SucceededCount int
	FailedCount    int
}

type programListContent struct {
	Programs []*programView
}

type programView struct {
	*store.Program
	ExecutionCount int
	RunningCount   int
}

type programDetailContent struct {
	Program    *store.Program
	Executions []*store.Execution
}

type executionListContent struct {
	Program    string
	Executions []*store.Execution
}

type executionDetailContent struct {
	Execution *store.Execution
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) dashboard(c *fiber.Ctx) error {
	programs := h.store.ListPrograms()
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].UpdateTime.After(programs[j].UpdateTime)
	})

	var allExecs []*store.Execution
	var running, succeeded, failed int

	for _, p := range programs {
		execs := h.store.ListExecutions(p.Name)
		allExecs = append(allExecs, execs...)
		for _, e := range execs {
			switch e.State {
			case store.ExecutionRunning:
				running++
			case store.ExecutionSucceeded:
				succeeded++
			case store.ExecutionFailed:
				failed++
			}
		}
	}

	sort.Slice(allExecs, func(i, j int) bool {
		return allExecs[i].StartTime.After(allExecs[j].StartTime)
	})

	recent := allExecs
	if len(recent) > 10 {
		recent = recent[:10]
	}

	return h.render(c, "dashboard.html", "dashboard", dashboardContent{
		Programs:       programs,
		RecentExecs:    recent,
		RunningCount:   running,
		SucceededCount: succeeded,
		FailedCount:    failed,
	})
}

func (h *Handler) programList(c *fiber.Ctx) error {
	programs := h.store.ListPrograms()
	sort.Slice(programs, func(i, j int) bool {
		return programs[i].UpdateTime.After(programs[j].UpdateTime)
	})

	var views []*programView
	for _, p := range programs {
		execs := h.store.ListExecutions(p.Name)
		running := 0
		for _, e := range execs {
			if e.State == store.ExecutionRunning {
				running++
			}
		}
		views = append(views, &programView{
			Program:        p,
			ExecutionCount: len(execs),
			RunningCount:   running,
		})
	}

	return h.render(c, "program_list.html", "programs", programListContent{Programs: views})
}

func (h *Handler) programDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	p, err := h.store.GetProgram(id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Program %q not found", id),
		})
	}

	execs := h.store.ListExecutions(p.Name)
	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartTime.After(execs[j].StartTime)
	})

	return h.render(c, "program_detail.html", "programs", programDetailContent{
		Program:    p,
		Executions: execs,
	})
}

func (h *Handler) allExecutionsList(c *fiber.Ctx) error {
	programs := h.store.ListPrograms()

	var all []*store.Execution
	for _, p := range programs {
		all = append(all, h.store.ListExecutions(p.Name)...)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].StartTime.After(all[j].StartTime)
	})

	return h.render(c, "execution_list.html", "executions", executionListContent{
		Program:    "",
		Executions: all,
	})
}

func (h *Handler) executionList(c *fiber.Ctx) error {
	id := c.Params("id")

	execs := h.store.ListExecutions(id)
	sort.Slice(execs, func(i, j int) bool {
		return execs[i].StartTime.After(execs[j].StartTime)
	})

	return h.render(c, "execution_list.html", "programs", executionListContent{
		Program:    id,
		Executions: execs,
	})
}

func (h *Handler) executionDetail(c *fiber.Ctx) error {
	id := c.Params("id")

	exec, err := h.store.GetExecution(id)
	if err != nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Execution %q not found", id),
		})
	}

	return h.render(c, "execution_detail.html", "programs", executionDetailContent{
		Execution: exec,
	})
}

// --- Template Helpers ---

// execID extracts the trailing "exec-N" segment of a "program/executions/exec-N" name.
func execID(name string) string {
	parts := strings.Split(name, "/")
	return parts[len(parts)-1]
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		m := int(d.Minutes())
		if m == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", m)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hrs)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04:05")
}

func duration(start, end time.Time) string {
	if end.IsZero() {
		return fmt.Sprintf("%s (running)", formatDuration(time.Since(start)))
	}
	return formatDuration(end.Sub(start))
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}

func stateClass(state string) string {
	switch store.ExecutionState(state) {
	case store.ExecutionRunning:
		return "state-running"
	case store.ExecutionSucceeded:
		return "state-succeeded"
	case store.ExecutionFailed:
		return "state-failed"
	default:
		return ""
	}
}

func stateIcon(state string) template.HTML {
	switch store.ExecutionState(state) {
	case store.ExecutionRunning:
		return "&#9654;"
	case store.ExecutionSucceeded:
		return "&#10003;"
	case store.ExecutionFailed:
		return "&#10007;"
	default:
		return "&#8226;"
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

// Package api implements the REST API surface over pkg/store: submit DSL
// source as a Program, then run it and poll its Execution, modeled on the
// teacher's Workflows/Executions fiber handlers but fronting compiled
// programs instead of GCP Workflows YAML.
package api

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lemonberrylabs/lunarc/pkg/dfruntime"
	"github.com/lemonberrylabs/lunarc/pkg/natives"
	"github.com/lemonberrylabs/lunarc/pkg/store"
	"github.com/lemonberrylabs/lunarc/pkg/translator"
)

// Server is the REST API server for lunarc's program/execution registry.
type Server struct {
	app     *fiber.App
	store   *store.Store
	workers int
}

// New creates a new API server backed by s, running interpreted executions
// with the given worker pool size.
func New(s *store.Store, workers int) *Server {
	srv := &Server{
		store:   s,
		workers: workers,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	app.Post("/v1/programs", srv.createProgram)
	app.Get("/v1/programs/:id", srv.getProgram)
	app.Get("/v1/programs", srv.listPrograms)
	app.Post("/v1/programs/:id/executions", srv.createExecution)
	// Execution names contain slashes ("<program>/executions/exec-N"), so the
	// whole remaining path is the name.
	app.Get("/v1/executions/*", srv.getExecution)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// --- Program handlers ---

type createProgramRequest struct {
	ID     string `json:"id"`
	Source string `json:"source"`
}

func (s *Server) createProgram(c *fiber.Ctx) error {
	var req createProgramRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, 400, "INVALID_ARGUMENT", fmt.Sprintf("invalid request body: %v", err))
	}
	if req.ID == "" || req.Source == "" {
		return errorResponse(c, 400, "INVALID_ARGUMENT", "id and source are required")
	}

	p, err := s.store.CreateProgram(req.ID, req.Source)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return errorResponse(c, 409, "ALREADY_EXISTS", err.Error())
		}
		return errorResponse(c, 400, "INVALID_ARGUMENT", err.Error())
	}

	return c.Status(200).JSON(programToJSON(p))
}

func (s *Server) getProgram(c *fiber.Ctx) error {
	p, err := s.store.GetProgram(c.Params("id"))
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(programToJSON(p))
}

func (s *Server) listPrograms(c *fiber.Ctx) error {
	programs := s.store.ListPrograms()
	items := make([]fiber.Map, len(programs))
	for i, p := range programs {
		items[i] = programToJSON(p)
	}
	return c.JSON(fiber.Map{"programs": items})
}

// --- Execution handlers ---

func (s *Server) createExecution(c *fiber.Ctx) error {
	id := c.Params("id")
	p, err := s.store.GetProgram(id)
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}

	exec, err := s.store.CreateExecution(p.Name, store.ModeInterp)
	if err != nil {
		return errorResponse(c, 500, "INTERNAL", err.Error())
	}

	go s.runExecution(exec.Name, p)

	return c.Status(200).JSON(executionToJSON(exec))
}

// runExecution drives p's main subroutine on a fresh dfruntime.Runtime and
// records the outcome back into the store, the interpreted-mode analogue of
// the teacher's runtime.Engine.Execute goroutine.
func (s *Server) runExecution(execName string, p *store.Program) {
	reg := natives.NewRegistry()
	rt := dfruntime.NewRuntime(s.workers, reg.Natives())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := rt.Run(ctx, p.Prog, "main"); err != nil {
		_ = s.store.FailExecution(execName, err)
		return
	}
	_ = s.store.CompleteExecution(execName)
}

func (s *Server) getExecution(c *fiber.Ctx) error {
	exec, err := s.store.GetExecution(c.Params("*"))
	if err != nil {
		return errorResponse(c, 404, "NOT_FOUND", err.Error())
	}
	return c.JSON(executionToJSON(exec))
}

// --- Directory Loading ---

var validProgramID = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// WatchDir loads every .lunar file in dir and deploys it as a Program, the
// file name (sans extension) becoming the Program ID. Mirrors the
// teacher's WatchDir, adapted from YAML/JSON workflow files to .lunar
// sources and from store.CreateWorkflow's (parent, id, yaml, desc)
// signature to store.CreateProgram's (id, source) one.
func (s *Server) WatchDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading programs directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".lunar" {
			continue
		}

		base := strings.TrimSuffix(name, ".lunar")
		programID := strings.ToLower(base)
		if programID != base {
			log.Printf("Warning: lowercased program ID %q (from file %q)", programID, name)
		}
		if !validProgramID.MatchString(programID) || len(programID) > 128 {
			log.Printf("Warning: skipping file %q - invalid program ID %q", name, programID)
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Printf("Warning: could not read %q: %v", name, err)
			continue
		}

		if _, err := s.store.CreateProgram(programID, string(data)); err != nil {
			log.Printf("Warning: could not deploy %q: %v", name, err)
			continue
		}
	}

	return nil
}

// --- Helpers ---

func errorResponse(c *fiber.Ctx, code int, status, message string) error {
	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
}

func programToJSON(p *store.Program) fiber.Map {
	blocks := 0
	var walk func(b *translator.Block)
	walk = func(b *translator.Block) {
		blocks++
		switch b.Kind {
		case translator.Fork:
			for _, c := range b.Children {
				walk(c)
			}
		case translator.For:
			walk(b.Child)
		case translator.If:
			walk(b.Then)
			if b.HasElse {
				walk(b.Else)
			}
		}
	}
	for _, root := range p.Prog.Subs {
		walk(root)
	}
	return fiber.Map{
		"name":       p.Name,
		"state":      p.State,
		"revisionId": p.RevisionID,
		"createTime": p.CreateTime.Format(time.RFC3339),
		"updateTime": p.UpdateTime.Format(time.RFC3339),
		"blockCount": blocks,
		"source":     p.Source,
	}
}

func executionToJSON(exec *store.Execution) fiber.Map {
	result := fiber.Map{
		"name":      exec.Name,
		"program":   exec.Program,
		"mode":      exec.Mode,
		"state":     exec.State,
		"startTime": exec.StartTime.Format(time.RFC3339),
	}
	if exec.Error != "" {
		result["error"] = exec.Error
	}
	if !exec.EndTime.IsZero() {
		result["endTime"] = exec.EndTime.Format(time.RFC3339)
	}
	return result
}

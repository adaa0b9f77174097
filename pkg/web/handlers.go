package web

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-fiducial/internal/log"
	"github.com/teslashibe/go-fiducial/pkg/hub"
	"github.com/teslashibe/go-fiducial/pkg/snapshot"
)

// handleStatus returns the latest measurement
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.Status())
}

// handleTakeSnapshot captures the next processed frame
func (s *Server) handleTakeSnapshot(c *fiber.Ctx) error {
	if s.OnSnapshot == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "snapshots not configured",
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	rec, err := s.OnSnapshot(ctx)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = fiber.StatusGatewayTimeout
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleListSnapshots returns saved snapshots, newest first
func (s *Server) handleListSnapshots(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	records, err := s.store.List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(records)
}

// handleGetSnapshot returns one snapshot record
func (s *Server) handleGetSnapshot(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	rec, err := s.store.Get(c.Params("id"))
	if err != nil {
		return snapshotError(c, err)
	}
	return c.JSON(rec)
}

// handleSnapshotImage serves the saved JPEG
func (s *Server) handleSnapshotImage(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	path, err := s.store.ImagePath(c.Params("id"))
	if err != nil {
		return snapshotError(c, err)
	}
	c.Type("jpg")
	return c.SendFile(path)
}

// handleDeleteSnapshot removes a snapshot
func (s *Server) handleDeleteSnapshot(c *fiber.Ctx) error {
	if s.store == nil {
		return storeUnavailable(c)
	}

	if err := s.store.Delete(c.Params("id")); err != nil {
		return snapshotError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func storeUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "snapshot store not configured",
	})
}

func snapshotError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if errors.Is(err, snapshot.ErrNotFound) {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}

// handleStatusWS streams status updates, starting with the current one
func (s *Server) handleStatusWS(c *websocket.Conn) {
	data, err := json.Marshal(s.Status())
	if err != nil {
		log.Warn("status encode failed", "error", err)
		s.statusHub.Serve(c)
		return
	}
	s.statusHub.Serve(c, hub.NewJSONMessage(data))
}

// handleFramesWS streams JPEG preview frames
func (s *Server) handleFramesWS(c *websocket.Conn) {
	s.frameHub.Serve(c)
}

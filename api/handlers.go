package api

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/memory"
)

// SaveRequest is the body of POST /save.
type SaveRequest struct {
	UserID int64  `json:"user_id"`
	Text   string `json:"text"`
}

// SaveResponse is the success body of POST /save.
type SaveResponse struct {
	Status         int                `json:"status"`
	UserID         int64              `json:"user_id"`
	Message        string             `json:"success_message"`
	Items          []memory.SavedItem `json:"items,omitempty"`
	DeletedFactIDs []string           `json:"deleted_entries,omitempty"`
}

// RetrieveResponse is the body of GET /retrieve, returned with status 200
// when at least one target resolved exactly and 404 when the answer is
// suggestions only.
type RetrieveResponse struct {
	Status int    `json:"status"`
	Answer string `json:"answer"`
}

// RenameRequest is the body of PUT /rename-location.
type RenameRequest struct {
	UserID           int64    `json:"user_id"`
	FactIDs          []string `json:"fact_ids"`
	OriginalLocation string   `json:"original_location"`
	ModifiedLocation string   `json:"modified_location"`
}

// DeleteRequest is the body of DELETE /delete.
type DeleteRequest struct {
	UserID  int64    `json:"user_id"`
	FactIDs []string `json:"fact_ids"`
}

// MessageResponse is the generic success status/message body.
type MessageResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every 4xx/5xx. Message is filled only on
// malformed-body rejections, as a hint alongside the error text.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleSave stores, or deletes, memories from one natural-language
// statement.
func (s *Server) handleSave(c *fiber.Ctx) error {
	var req SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(c)
	}
	if req.UserID <= 0 || req.Text == "" {
		return badRequest(c, "user_id and text are required")
	}

	result, err := s.svc.Save(c.Context(), req.UserID, req.Text)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(SaveResponse{
		Status:         fiber.StatusOK,
		UserID:         req.UserID,
		Message:        result.Message,
		Items:          result.Items,
		DeletedFactIDs: result.DeletedFactIDs,
	})
}

// handleRetrieve answers a natural-language question about stored memories.
func (s *Server) handleRetrieve(c *fiber.Ctx) error {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		return badRequest(c, "user_id query parameter is required")
	}
	text := c.Query("text")
	if text == "" {
		return badRequest(c, "text query parameter is required")
	}

	result, err := s.svc.Retrieve(c.Context(), userID, text)
	if err != nil {
		return s.fail(c, err)
	}

	// An unresolved answer still carries the suggestions; the 404 tells the
	// caller nothing matched exactly.
	status := fiber.StatusOK
	if !result.Resolved {
		status = fiber.StatusNotFound
	}
	return c.Status(status).JSON(RetrieveResponse{
		Status: status,
		Answer: result.Answer,
	})
}

// handleRenameLocation rewrites the named facts to reference a new location.
func (s *Server) handleRenameLocation(c *fiber.Ctx) error {
	var req RenameRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(c)
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}

	if err := s.svc.RenameLocation(c.Context(), req.UserID, req.FactIDs, req.OriginalLocation, req.ModifiedLocation); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(MessageResponse{
		Status:  fiber.StatusOK,
		Message: "Location renamed successfully.",
	})
}

// handleDelete removes facts by ID.
func (s *Server) handleDelete(c *fiber.Ctx) error {
	var req DeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return malformedBody(c)
	}
	if req.UserID <= 0 {
		return badRequest(c, "user_id is required")
	}

	if err := s.svc.DeleteFacts(c.Context(), req.UserID, req.FactIDs); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(MessageResponse{
		Status:  fiber.StatusOK,
		Message: "Memories deleted successfully.",
	})
}

// fail maps a pipeline error onto its HTTP status. Caller mistakes are 400,
// misses are 404, everything else is a 500 with the detail kept in the logs.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, memory.ErrValidation),
		errors.Is(err, memory.ErrInvalidQuery),
		errors.Is(err, memory.ErrAmbiguousFact),
		errors.Is(err, memory.ErrUnrecognizedIntent),
		errors.Is(err, memory.ErrDuplicateFact):
		status = fiber.StatusBadRequest
	case errors.Is(err, memory.ErrNotFound):
		status = fiber.StatusNotFound
	}

	message := err.Error()
	if status == fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		message = "internal error"
	}

	return c.Status(status).JSON(ErrorResponse{
		Status: status,
		Error:  message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Status: fiber.StatusBadRequest,
		Error:  message,
	})
}

func malformedBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Status:  fiber.StatusBadRequest,
		Error:   "invalid request body",
		Message: "request body must be valid JSON",
	})
}

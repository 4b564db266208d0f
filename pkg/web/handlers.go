package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/services"
)

type APIHandlers struct {
	sessionService *services.Session
	validator      *validator.Validate
}

func NewAPIHandlers(sessionService *services.Session, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		sessionService: sessionService,
		validator:      validator,
	}
}

// GetCatalog returns every step definition in catalog order.
func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	steps := h.sessionService.Catalog().Steps()

	responses := make([]StepResponse, 0, len(steps))
	for _, step := range steps {
		responses = append(responses, TransformStepResponse(step))
	}

	return c.JSON(fiber.Map{"steps": responses})
}

func (h *APIHandlers) CreateSession(c fiber.Ctx) error {
	var req CreateSessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.sessionService.CreateSession(c.Context(), services.CreateSessionRequest{
		ProjectID:   req.ProjectID,
		Coordinates: req.Coordinates,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(state)
}

func (h *APIHandlers) GetSessions(c fiber.Ctx) error {
	sessions, err := h.sessionService.ListSessions(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *APIHandlers) GetSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	state, err := h.sessionService.Session(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) DeleteSession(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	if err := h.sessionService.DeleteSession(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) StartStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Session ID and step ID are required")
	}

	state, err := h.sessionService.StartStep(c.Context(), id, stepID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) CompleteStep(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Session ID and step ID are required")
	}

	var req CompleteStepRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.sessionService.CompleteStep(c.Context(), id, stepID, models.StepResult{
		Success:             req.Success,
		Data:                req.Data,
		Artifacts:           req.Artifacts,
		NextRecommendedStep: req.NextRecommendedStep,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) AdvanceTo(c fiber.Ctx) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Session ID and step ID are required")
	}

	state, err := h.sessionService.AdvanceTo(c.Context(), id, stepID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) AcceptUpgrade(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	var req AcceptUpgradeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	state, err := h.sessionService.AcceptUpgrade(c.Context(), id, req.Target)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(state)
}

func (h *APIHandlers) GetEvaluation(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	evaluation, err := h.sessionService.Evaluate(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(evaluation)
}

// GetEvents returns the session's sink records, oldest first.
func (h *APIHandlers) GetEvents(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Session ID is required")
	}

	records := h.sessionService.Events(id)

	responses := make([]EventResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, EventResponse{
			Type:  string(record.Event.GetType()),
			Event: record.Event,
		})
	}

	return c.JSON(fiber.Map{"events": responses})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.sessionService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Windscape API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "Windscape API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

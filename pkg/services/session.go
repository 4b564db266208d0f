package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/windscape/windscape/pkg/disclosure"
	"github.com/windscape/windscape/pkg/eventbus"
	"github.com/windscape/windscape/pkg/models"
	"github.com/windscape/windscape/pkg/otelhelper"
	"github.com/windscape/windscape/pkg/persistence"
	"github.com/windscape/windscape/pkg/workflow"
)

// Session orchestrates workflow sessions: it owns one state machine per
// session, runs the disclosure engine after every mutation, persists
// snapshots and fans events out to the sink and the event bus.
type Session struct {
	persistence persistence.Persistence
	catalog     *models.Catalog
	engine      *disclosure.Engine
	sink        *eventbus.Sink
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	validate    *validator.Validate
	logger      *slog.Logger

	mu       sync.Mutex
	machines map[string]*workflow.StateMachine
}

type SessionOption func(*Session)

// WithEventPublisher adds an external publisher (e.g. the Kafka-backed bus)
// next to the built-in sink.
func WithEventPublisher(publisher eventbus.EventPublisher) SessionOption {
	return func(s *Session) {
		s.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) SessionOption {
	return func(s *Session) {
		s.tracer = tracer
	}
}

func WithServiceLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session service.
func NewSession(store persistence.Persistence, cat *models.Catalog, engine *disclosure.Engine, opts ...SessionOption) *Session {
	service := &Session{
		persistence: store,
		catalog:     cat,
		engine:      engine,
		sink:        eventbus.NewSink(),
		validate:    validator.New(),
		logger:      slog.Default(),
		machines:    make(map[string]*workflow.StateMachine),
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// Sink exposes the append-only event log for observers.
func (s *Session) Sink() *eventbus.Sink {
	return s.sink
}

// Catalog returns the step catalog driving all sessions of this service.
func (s *Session) Catalog() *models.Catalog {
	return s.catalog
}

// HealthCheck checks the health of the persistence layer.
func (s *Session) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// CreateSessionRequest describes a new analysis session.
type CreateSessionRequest struct {
	ProjectID   string              `json:"project_id"`
	Coordinates *models.Coordinates `json:"coordinates,omitempty"`
}

// CreateSession starts a fresh workflow session and persists its initial
// state. Available steps are seeded from the catalog's prerequisite-free
// steps.
func (s *Session) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.WorkflowState, error) {
	if err := s.validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	machine := workflow.New(s.catalog, models.SessionData{
		ProjectID:   req.ProjectID,
		Coordinates: req.Coordinates,
	}, s.machineOptions()...)

	snapshot := machine.Snapshot()

	if err := s.persistence.SaveSession(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	s.mu.Lock()
	s.machines[machine.SessionID()] = machine
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Session created",
		"session_id", machine.SessionID(),
		"project_id", req.ProjectID,
	)

	return snapshot, nil
}

// Session returns a read-only snapshot of the session state.
func (s *Session) Session(ctx context.Context, sessionID string) (*models.WorkflowState, error) {
	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return machine.Snapshot(), nil
}

// ListSessions returns snapshots of every persisted session.
func (s *Session) ListSessions(ctx context.Context) ([]*models.WorkflowState, error) {
	return s.persistence.Sessions(ctx)
}

// DeleteSession tears the session down: the cached machine, its sink
// records and the persisted state are all gone for good.
func (s *Session) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.machines, sessionID)
	s.mu.Unlock()

	s.sink.DropKey(sessionID)

	return s.persistence.DeleteSession(ctx, sessionID)
}

// StartStep starts the given step, re-evaluates disclosure and persists.
func (s *Session) StartStep(ctx context.Context, sessionID, stepID string) (*models.WorkflowState, error) {
	ctx, span := s.startSpan(ctx, "session.start_step", sessionID, stepID)
	defer span.End()

	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if err := machine.StartStep(ctx, stepID); err != nil {
		return nil, s.fail(span, err)
	}

	s.applyDisclosure(ctx, machine)

	return s.persistSnapshot(ctx, span, machine)
}

// CompleteStepResult bundles everything a caller needs after a completion:
// the new state, the completion status and the fresh disclosure evaluation.
type CompleteStepResult struct {
	State      *models.WorkflowState     `json:"state"`
	Status     workflow.CompletionStatus `json:"status"`
	Evaluation disclosure.Evaluation     `json:"evaluation"`
}

// CompleteStep records a step result, applies disclosure outcomes and
// persists the new state. Completion is idempotent per step ID.
func (s *Session) CompleteStep(ctx context.Context, sessionID, stepID string, result models.StepResult) (*CompleteStepResult, error) {
	ctx, span := s.startSpan(ctx, "session.complete_step", sessionID, stepID)
	defer span.End()

	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	status, err := machine.CompleteStep(ctx, stepID, result)
	if err != nil {
		return nil, s.fail(span, err)
	}

	evaluation := s.applyDisclosure(ctx, machine)

	state, err := s.persistSnapshot(ctx, span, machine)
	if err != nil {
		return nil, err
	}

	return &CompleteStepResult{
		State:      state,
		Status:     status,
		Evaluation: evaluation,
	}, nil
}

// AdvanceTo starts the step after validating it against the previous step's
// suggested next steps.
func (s *Session) AdvanceTo(ctx context.Context, sessionID, stepID string) (*models.WorkflowState, error) {
	ctx, span := s.startSpan(ctx, "session.advance_to", sessionID, stepID)
	defer span.End()

	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	if err := machine.AdvanceTo(ctx, stepID); err != nil {
		return nil, s.fail(span, err)
	}

	s.applyDisclosure(ctx, machine)

	return s.persistSnapshot(ctx, span, machine)
}

// AcceptUpgrade commits a standing complexity upgrade offer. The target
// must match the offer produced by the current state; tiers cannot be
// skipped or entered without satisfied criteria.
func (s *Session) AcceptUpgrade(ctx context.Context, sessionID string, target models.ComplexityLevel) (*models.WorkflowState, error) {
	ctx, span := s.startSpan(ctx, "session.accept_upgrade", sessionID, "")
	span.SetAttributes(attribute.String(otelhelper.TierKey, string(target)))

	defer span.End()

	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return nil, s.fail(span, err)
	}

	offer := s.engine.Evaluate(machine.Snapshot()).ComplexityUpgrade
	if offer == nil || offer.To != target {
		return nil, s.fail(span, fmt.Errorf("%w: no standing offer for tier %s", ErrInvalidTierTransition, target))
	}

	if err := machine.AcceptComplexityUpgrade(ctx, target, offer.Features); err != nil {
		return nil, s.fail(span, err)
	}

	s.applyDisclosure(ctx, machine)

	return s.persistSnapshot(ctx, span, machine)
}

// Evaluate runs the disclosure engine read-only against the current state.
func (s *Session) Evaluate(ctx context.Context, sessionID string) (disclosure.Evaluation, error) {
	machine, err := s.machineFor(ctx, sessionID)
	if err != nil {
		return disclosure.Evaluation{}, err
	}

	return s.engine.Evaluate(machine.Snapshot()), nil
}

// Events returns the sink records for one session in publish order.
func (s *Session) Events(sessionID string) []eventbus.Record {
	return s.sink.RecordsForKey(sessionID)
}

// applyDisclosure commits the deltas of an evaluation: new features and
// achievements are granted, a standing upgrade offer is surfaced as an
// event. The tier itself is only changed by AcceptUpgrade.
func (s *Session) applyDisclosure(ctx context.Context, machine *workflow.StateMachine) disclosure.Evaluation {
	evaluation := s.engine.Evaluate(machine.Snapshot())

	if len(evaluation.NewFeatures) > 0 {
		machine.GrantFeatures(ctx, evaluation.FeatureLevel, evaluation.NewFeatures)
	}

	if len(evaluation.Achievements) > 0 {
		machine.GrantAchievements(ctx, evaluation.Achievements)
	}

	if evaluation.ComplexityUpgrade != nil {
		machine.NoteUpgradeOffer(ctx, evaluation.ComplexityUpgrade.From, evaluation.ComplexityUpgrade.To)
	}

	return evaluation
}

func (s *Session) machineFor(ctx context.Context, sessionID string) (*workflow.StateMachine, error) {
	s.mu.Lock()
	machine, cached := s.machines[sessionID]
	s.mu.Unlock()

	if cached {
		return machine, nil
	}

	state, err := s.persistence.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	machine, err = workflow.Resume(s.catalog, state, s.machineOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to resume session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have resumed the same session concurrently; keep
	// the first machine so there is a single writer per session.
	if existing, ok := s.machines[sessionID]; ok {
		return existing, nil
	}

	s.machines[sessionID] = machine

	return machine, nil
}

func (s *Session) machineOptions() []workflow.Option {
	publishers := []eventbus.EventPublisher{s.sink}
	if s.publisher != nil {
		publishers = append(publishers, s.publisher)
	}

	return []workflow.Option{
		workflow.WithPublisher(eventbus.NewFanoutPublisher(publishers...)),
		workflow.WithLogger(s.logger),
	}
}

func (s *Session) persistSnapshot(ctx context.Context, span trace.Span, machine *workflow.StateMachine) (*models.WorkflowState, error) {
	snapshot := machine.Snapshot()

	if err := s.persistence.SaveSession(ctx, snapshot); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to persist session %s: %w", machine.SessionID(), err))
	}

	return snapshot, nil
}

func (s *Session) startSpan(ctx context.Context, name, sessionID, stepID string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}

	attrs := []attribute.KeyValue{
		attribute.String(otelhelper.SessionIDKey, sessionID),
	}
	if stepID != "" {
		attrs = append(attrs, attribute.String(otelhelper.StepIDKey, stepID))
	}

	return otelhelper.StartSpan(ctx, s.tracer, name, attrs...)
}

func (s *Session) fail(span trace.Span, err error) error {
	if span.IsRecording() {
		otelhelper.SetError(span, err)
	}

	return err
}

package core

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/JonMunkholm/churchbase/internal/config"
	"github.com/google/uuid"
)

// Service is the entry point for every churchbase operation. Handlers
// talk to it and never to the store directly.
type Service struct {
	store    Store
	importer *Importer
	limiter  *ImportLimiter
	actions  *ActionRegistry
	metrics  *Metrics
	now      func() time.Time
}

// NewService wires a store to the importer, action registry and metrics.
// metrics may be nil.
func NewService(store Store, cfg *config.Config, metrics *Metrics) *Service {
	limiter := NewImportLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	return &Service{
		store: store,
		importer: NewImporter(store, ImporterConfig{
			MaxFileSize: cfg.Import.MaxFileSize,
			Timeout:     cfg.Import.Timeout,
			Limiter:     limiter,
			Metrics:     metrics,
		}),
		limiter: limiter,
		actions: DefaultMemberActions(),
		metrics: metrics,
		now:     time.Now,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportMembers runs a member CSV import. See Importer.Import.
func (s *Service) ImportMembers(ctx context.Context, file ImportFile, opts ImportOptions) (ImportOutcome, error) {
	return s.importer.Import(ctx, file, opts)
}

func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish. Used on shutdown.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// CreateMember validates raw fields with the import rules and stores one
// member.
func (s *Service) CreateMember(ctx context.Context, fields map[string]string) (Member, error) {
	in, err := ValidateMemberRow(fields)
	if err != nil {
		return Member{}, err
	}
	return s.store.CreateMember(ctx, in)
}

// SearchMembers returns at most MaxSearchResults members, newest first.
func (s *Service) SearchMembers(ctx context.Context, f MemberFilter) ([]Member, error) {
	if f.Limit <= 0 || f.Limit > MaxSearchResults {
		f.Limit = MaxSearchResults
	}
	return s.store.SearchMembers(ctx, f)
}

func (s *Service) ExportMembersCSV(ctx context.Context, w io.Writer) error {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return err
	}
	s.metrics.observeExport("members", "csv")
	return WriteMembersCSV(w, members)
}

func (s *Service) ExportMembersXLSX(ctx context.Context, w io.Writer) error {
	members, err := s.store.ListMembers(ctx)
	if err != nil {
		return err
	}
	s.metrics.observeExport("members", "xlsx")
	return WriteMembersXLSX(w, members)
}

func (s *Service) ExportCommunicationsCSV(ctx context.Context, w io.Writer) error {
	logs, err := s.store.ListCommunications(ctx)
	if err != nil {
		return err
	}
	s.metrics.observeExport("communications", "csv")
	return WriteCommunicationsCSV(w, logs)
}

func (s *Service) MemberActions() []Action {
	return s.actions.All()
}

// RunMemberAction runs a registered action over the selected members.
func (s *Service) RunMemberAction(ctx context.Context, name string, ids []uuid.UUID) (ActionResult, error) {
	if _, ok := s.actions.Get(name); !ok {
		return ActionResult{}, fmt.Errorf("%w: %s", ErrUnknownAction, name)
	}
	if len(ids) == 0 {
		return ActionResult{}, ErrNoSelection
	}

	members, err := s.store.MembersByIDs(ctx, ids)
	if err != nil {
		return ActionResult{}, err
	}
	if len(members) == 0 {
		return ActionResult{}, ErrNoSelection
	}

	result, err := s.actions.Run(ctx, name, members)
	if err != nil {
		return ActionResult{}, fmt.Errorf("run %s: %w", name, err)
	}
	s.metrics.observeAction(name)
	return result, nil
}

func (s *Service) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	in, err := ValidateGroupInput(in)
	if err != nil {
		return Group{}, err
	}
	return s.store.CreateGroup(ctx, in)
}

func (s *Service) ListGroups(ctx context.Context) ([]Group, error) {
	return s.store.ListGroups(ctx)
}

// AddGroupMembers links members to a group. Existing links are kept and
// not counted.
func (s *Service) AddGroupMembers(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, ErrNoSelection
	}
	return s.store.AddGroupMembers(ctx, groupID, memberIDs)
}

func (s *Service) CreateEvent(ctx context.Context, in EventInput) (Event, error) {
	in, err := ValidateEventInput(in)
	if err != nil {
		return Event{}, err
	}
	return s.store.CreateEvent(ctx, in)
}

func (s *Service) ListEvents(ctx context.Context) ([]Event, error) {
	return s.store.ListEvents(ctx)
}

// RecordAttendance stores or replaces a member's attendance for an event.
func (s *Service) RecordAttendance(ctx context.Context, eventID uuid.UUID, in AttendanceInput) (Attendance, error) {
	in, err := ValidateAttendanceInput(in)
	if err != nil {
		return Attendance{}, err
	}
	return s.store.RecordAttendance(ctx, eventID, in)
}

func (s *Service) LogCommunication(ctx context.Context, in CommunicationInput) (CommunicationLog, error) {
	in, err := ValidateCommunicationInput(in)
	if err != nil {
		return CommunicationLog{}, err
	}
	return s.store.CreateCommunication(ctx, in)
}

func (s *Service) ListCommunications(ctx context.Context) ([]CommunicationLog, error) {
	return s.store.ListCommunications(ctx)
}

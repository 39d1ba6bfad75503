package guest

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/aldea-dev/aldea/core"
)

type service struct {
	repo         Repository
	notification core.NotificationService
	validate     *validator.Validate
}

// NewService creates a new guest service
func NewService(repo Repository, notification core.NotificationService) core.GuestService {
	return &service{
		repo:         repo,
		notification: notification,
		validate:     newValidator(),
	}
}

// canView reports whether the requester may read the record at all.
// Admins and security staff see every guest in their tenant; residents
// only their own household's.
func canView(requester core.Requester, guest core.Guest) bool {
	if guest.TenantID != requester.TenantID {
		return false
	}
	if requester.RoleCode == core.RoleAdmin || requester.RoleCode == core.RoleSecurity {
		return true
	}
	return requester.HouseholdID != nil && *requester.HouseholdID == guest.HouseholdID
}

func (s *service) Create(ctx context.Context, requester core.Requester, draft core.GuestDraft) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Create")
	defer span.End()

	if requester.HouseholdID == nil {
		return core.Guest{}, core.NewErrorPermissionDenied()
	}

	if err := toValidationError(s.validate.Struct(draft)); err != nil {
		return core.Guest{}, err
	}
	if fields := validateVisitWindow(draft.VisitDateStart, draft.VisitDateEnd, time.Now()); len(fields) > 0 {
		return core.Guest{}, core.NewValidationError(fields...)
	}

	active, err := s.repo.CountActive(ctx, *requester.HouseholdID)
	if err != nil {
		span.RecordError(err)
		return core.Guest{}, err
	}
	if active >= core.MaxActiveGuests {
		return core.Guest{}, core.NewValidationError(core.FieldError{
			Field:   "guestName",
			Message: "household already has the maximum number of active guests",
		})
	}

	start, _ := time.Parse(dateFormat, draft.VisitDateStart)
	end, _ := time.Parse(dateFormat, draft.VisitDateEnd)

	guest := core.Guest{
		ID:             xid.New().String(),
		TenantID:       requester.TenantID,
		HouseholdID:    *requester.HouseholdID,
		GuestName:      draft.GuestName,
		Purpose:        draft.Purpose,
		VisitDateStart: start,
		VisitDateEnd:   end,
		Status:         core.GuestStatusPending,
		CreatedBy:      requester.UserID,
	}
	if draft.Phone != "" {
		phone := draft.Phone
		guest.Phone = &phone
	}
	if draft.VehiclePlate != "" {
		plate := NormalizePlate(draft.VehiclePlate)
		guest.VehiclePlate = &plate
	}
	if draft.ExpectedArrivalTime != "" {
		arrival := draft.ExpectedArrivalTime
		guest.ExpectedArrivalTime = &arrival
	}
	if draft.SpecialInstructions != "" {
		instructions := draft.SpecialInstructions
		guest.SpecialInstructions = &instructions
	}

	return s.repo.Create(ctx, guest)
}

func (s *service) Get(ctx context.Context, requester core.Requester, id string) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Get")
	defer span.End()

	guest, err := s.repo.Get(ctx, id)
	if err != nil {
		return core.Guest{}, err
	}
	if !canView(requester, guest) {
		// hide existence from other households
		return core.Guest{}, core.NewErrorNotFound()
	}
	return guest, nil
}

func (s *service) Query(ctx context.Context, requester core.Requester, query core.GuestQuery) (core.Page[core.Guest], error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Query")
	defer span.End()

	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = core.DefaultPageSize
	}
	if query.PageSize > core.MaxPageSize {
		query.PageSize = core.MaxPageSize
	}

	householdID := ""
	if requester.RoleCode == core.RoleResident {
		if requester.HouseholdID == nil {
			return core.Page[core.Guest]{}, core.NewErrorPermissionDenied()
		}
		householdID = *requester.HouseholdID
	}

	guests, count, err := s.repo.Query(ctx, requester.TenantID, householdID, query)
	if err != nil {
		span.RecordError(err)
		return core.Page[core.Guest]{}, err
	}

	return core.NewPage(guests, count, query.Page, query.PageSize), nil
}

func (s *service) Update(ctx context.Context, requester core.Requester, id string, patch core.GuestPatch) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Update")
	defer span.End()

	guest, err := s.Get(ctx, requester, id)
	if err != nil {
		return core.Guest{}, err
	}
	if !core.GuestEditable(guest.Status) {
		return core.Guest{}, core.NewErrorInvalidTransition()
	}

	if err := toValidationError(s.validate.Struct(patch)); err != nil {
		return core.Guest{}, err
	}

	if patch.GuestName != nil {
		guest.GuestName = *patch.GuestName
	}
	if patch.Phone != nil {
		if *patch.Phone == "" {
			guest.Phone = nil
		} else {
			guest.Phone = patch.Phone
		}
	}
	if patch.VehiclePlate != nil {
		if *patch.VehiclePlate == "" {
			guest.VehiclePlate = nil
		} else {
			plate := NormalizePlate(*patch.VehiclePlate)
			guest.VehiclePlate = &plate
		}
	}
	if patch.Purpose != nil {
		guest.Purpose = *patch.Purpose
	}

	startStr := guest.VisitDateStart.Format(dateFormat)
	endStr := guest.VisitDateEnd.Format(dateFormat)
	if patch.VisitDateStart != nil {
		startStr = *patch.VisitDateStart
	}
	if patch.VisitDateEnd != nil {
		endStr = *patch.VisitDateEnd
	}
	if patch.VisitDateStart != nil || patch.VisitDateEnd != nil {
		if fields := validateVisitWindow(startStr, endStr, time.Now()); len(fields) > 0 {
			return core.Guest{}, core.NewValidationError(fields...)
		}
		guest.VisitDateStart, _ = time.Parse(dateFormat, startStr)
		guest.VisitDateEnd, _ = time.Parse(dateFormat, endStr)
	}

	if patch.ExpectedArrivalTime != nil {
		if *patch.ExpectedArrivalTime == "" {
			guest.ExpectedArrivalTime = nil
		} else {
			guest.ExpectedArrivalTime = patch.ExpectedArrivalTime
		}
	}
	if patch.SpecialInstructions != nil {
		if *patch.SpecialInstructions == "" {
			guest.SpecialInstructions = nil
		} else {
			guest.SpecialInstructions = patch.SpecialInstructions
		}
	}

	return s.repo.Update(ctx, guest)
}

func (s *service) Delete(ctx context.Context, requester core.Requester, id string) error {
	ctx, span := tracer.Start(ctx, "Guest.Service.Delete")
	defer span.End()

	guest, err := s.Get(ctx, requester, id)
	if err != nil {
		return err
	}
	if !core.GuestDeletable(guest.Status) {
		return core.NewErrorInvalidTransition()
	}

	return s.repo.Delete(ctx, guest)
}

// UpdateStatus moves a guest through its lifecycle. Who may perform a
// move depends on the target state: approvals and denials are admin
// actions, gate arrivals and completions belong to the gate, and only
// the household itself re-opens a denied request.
func (s *service) UpdateStatus(ctx context.Context, requester core.Requester, id, status string) (core.Guest, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.UpdateStatus")
	defer span.End()

	guest, err := s.Get(ctx, requester, id)
	if err != nil {
		return core.Guest{}, err
	}

	if !core.CanTransitionGuestStatus(guest.Status, status) {
		return core.Guest{}, core.NewErrorInvalidTransition()
	}

	allowed := false
	switch status {
	case core.GuestStatusApproved, core.GuestStatusDenied:
		allowed = requester.RoleCode == core.RoleAdmin
	case core.GuestStatusAtGate, core.GuestStatusCompleted:
		allowed = requester.RoleCode == core.RoleSecurity || requester.RoleCode == core.RoleAdmin
	case core.GuestStatusPending:
		// re-open from denied
		allowed = requester.HouseholdID != nil && *requester.HouseholdID == guest.HouseholdID
	}
	if !allowed {
		return core.Guest{}, core.NewErrorPermissionDenied()
	}

	guest.Status = status
	switch status {
	case core.GuestStatusApproved:
		approver := requester.UserID
		guest.ApprovedBy = &approver
	case core.GuestStatusAtGate:
		now := time.Now()
		guest.ArrivalTime = &now
	case core.GuestStatusPending:
		guest.ApprovedBy = nil
		guest.ArrivalTime = nil
	}

	updated, err := s.repo.Update(ctx, guest)
	if err != nil {
		return core.Guest{}, err
	}

	if status == core.GuestStatusAtGate {
		s.notifyArrival(ctx, updated)
	}

	return updated, nil
}

func (s *service) notifyArrival(ctx context.Context, guest core.Guest) {
	ctx, span := tracer.Start(ctx, "Guest.Service.notifyArrival")
	defer span.End()

	entityType := TableName
	_, err := s.notification.Create(ctx, core.Notification{
		TenantID:          guest.TenantID,
		UserID:            guest.CreatedBy,
		Type:              core.NotificationGuestArrival,
		Priority:          core.PriorityHigh,
		Title:             "Guest at the gate",
		Content:           guest.GuestName + " has arrived at the gate",
		RelatedEntityID:   &guest.ID,
		RelatedEntityType: &entityType,
	})
	if err != nil {
		// the status change already landed; arrival banners are best effort
		span.RecordError(err)
	}
}

func (s *service) Stats(ctx context.Context, requester core.Requester) (core.GuestStats, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Stats")
	defer span.End()

	householdID := ""
	if requester.RoleCode == core.RoleResident {
		if requester.HouseholdID == nil {
			return core.GuestStats{}, core.NewErrorPermissionDenied()
		}
		householdID = *requester.HouseholdID
	}

	return s.repo.Stats(ctx, requester.TenantID, householdID)
}

func (s *service) Count(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "Guest.Service.Count")
	defer span.End()

	return s.repo.Count(ctx)
}

package guest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/aldea-dev/aldea/core"
	mock_core "github.com/aldea-dev/aldea/core/mock"
	mock_guest "github.com/aldea-dev/aldea/x/guest/mock"
)

func ptr(s string) *string {
	return &s
}

func residentRequester(householdID string) core.Requester {
	return core.Requester{
		UserID:      "f1b8a5c9-0000-4000-8000-000000000001",
		TenantID:    "a1b8a5c9-0000-4000-8000-000000000002",
		RoleCode:    core.RoleResident,
		HouseholdID: &householdID,
	}
}

func adminRequester(tenantID string) core.Requester {
	return core.Requester{
		UserID:   "f1b8a5c9-0000-4000-8000-000000000009",
		TenantID: tenantID,
		RoleCode: core.RoleAdmin,
	}
}

func validDraft() core.GuestDraft {
	start := time.Now().AddDate(0, 0, 1).Format(dateFormat)
	return core.GuestDraft{
		GuestName:      "Juan dela Cruz",
		Phone:          "0917 123 4567",
		VehiclePlate:   "abc-1234",
		Purpose:        "birthday party",
		VisitDateStart: start,
		VisitDateEnd:   start,
	}
}

func TestCreate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1b8a5c9-0000-4000-8000-000000000003")

	repo.EXPECT().CountActive(gomock.Any(), *requester.HouseholdID).Return(int64(2), nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, guest core.Guest) (core.Guest, error) {
			return guest, nil
		},
	)

	created, err := service.Create(context.Background(), requester, validDraft())
	assert.NoError(t, err)
	assert.Equal(t, core.GuestStatusPending, created.Status)
	assert.Equal(t, *requester.HouseholdID, created.HouseholdID)
	assert.Equal(t, requester.UserID, created.CreatedBy)
	if assert.NotNil(t, created.VehiclePlate) {
		assert.Equal(t, "ABC1234", *created.VehiclePlate)
	}
	assert.NotEmpty(t, created.ID)
}

func TestCreateRejectsDateTooFarAhead(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// validation fails before any repository call
	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	draft := validDraft()
	draft.VisitDateStart = time.Now().AddDate(0, 0, core.MaxAdvanceDays+1).Format(dateFormat)
	draft.VisitDateEnd = draft.VisitDateStart

	_, err := service.Create(context.Background(), residentRequester("h1"), draft)

	var validation core.ValidationError
	assert.ErrorAs(t, err, &validation)
	assert.Equal(t, "visitDateStart", validation.Fields[0].Field)
}

func TestCreateRejectsPastDate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	draft := validDraft()
	draft.VisitDateStart = time.Now().AddDate(0, 0, -1).Format(dateFormat)
	draft.VisitDateEnd = draft.VisitDateStart

	_, err := service.Create(context.Background(), residentRequester("h1"), draft)

	var validation core.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreateRejectsInvalidPhone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	draft := validDraft()
	draft.Phone = "12345"

	_, err := service.Create(context.Background(), residentRequester("h1"), draft)

	var validation core.ValidationError
	if assert.ErrorAs(t, err, &validation) {
		assert.Equal(t, "phone", validation.Fields[0].Field)
	}
}

func TestCreateAcceptsInternationalPhone(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	draft := validDraft()
	draft.Phone = "+63 917 123 4567"

	repo.EXPECT().CountActive(gomock.Any(), gomock.Any()).Return(int64(0), nil)
	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, guest core.Guest) (core.Guest, error) {
			return guest, nil
		},
	)

	_, err := service.Create(context.Background(), residentRequester("h1"), draft)
	assert.NoError(t, err)
}

func TestCreateEnforcesActiveLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	repo.EXPECT().CountActive(gomock.Any(), gomock.Any()).Return(int64(core.MaxActiveGuests), nil)

	_, err := service.Create(context.Background(), residentRequester("h1"), validDraft())

	var validation core.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestQueryPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	repo.EXPECT().
		Query(gomock.Any(), requester.TenantID, "h1", core.GuestQuery{Page: 3, PageSize: 10}).
		Return(make([]core.Guest, 5), int64(25), nil)

	page, err := service.Query(context.Background(), requester, core.GuestQuery{Page: 3, PageSize: 10})
	assert.NoError(t, err)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, int64(25), page.Count)
	assert.Equal(t, 3, page.TotalPages)
}

func TestQueryDefaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	repo.EXPECT().
		Query(gomock.Any(), requester.TenantID, "h1", core.GuestQuery{Page: 1, PageSize: core.DefaultPageSize}).
		Return([]core.Guest{}, int64(0), nil)

	page, err := service.Query(context.Background(), requester, core.GuestQuery{})
	assert.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 0, page.TotalPages)
	assert.NotNil(t, page.Items)
}

func TestQueryAdminSeesWholeTenant(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := adminRequester("t1")

	repo.EXPECT().
		Query(gomock.Any(), "t1", "", gomock.Any()).
		Return([]core.Guest{}, int64(0), nil)

	_, err := service.Query(context.Background(), requester, core.GuestQuery{Page: 1, PageSize: 10})
	assert.NoError(t, err)
}

func TestGetHidesOtherHouseholds(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    requester.TenantID,
		HouseholdID: "h2",
	}, nil)

	_, err := service.Get(context.Background(), requester, "g1")
	assert.True(t, errors.Is(err, core.ErrorNotFound{}))
}

func TestUpdateOnlyWhilePending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    requester.TenantID,
		HouseholdID: "h1",
		Status:      core.GuestStatusApproved,
	}, nil)

	_, err := service.Update(context.Background(), requester, "g1", core.GuestPatch{GuestName: ptr("Maria")})
	assert.True(t, errors.Is(err, core.ErrorInvalidTransition{}))
}

func TestDeleteOnlyPendingOrDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	denied := core.Guest{ID: "g1", TenantID: requester.TenantID, HouseholdID: "h1", Status: core.GuestStatusDenied}
	repo.EXPECT().Get(gomock.Any(), "g1").Return(denied, nil)
	repo.EXPECT().Delete(gomock.Any(), denied).Return(nil)

	err := service.Delete(context.Background(), requester, "g1")
	assert.NoError(t, err)

	completed := core.Guest{ID: "g2", TenantID: requester.TenantID, HouseholdID: "h1", Status: core.GuestStatusCompleted}
	repo.EXPECT().Get(gomock.Any(), "g2").Return(completed, nil)

	err = service.Delete(context.Background(), requester, "g2")
	assert.True(t, errors.Is(err, core.ErrorInvalidTransition{}))
}

func TestUpdateStatusApprove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := adminRequester("t1")

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    "t1",
		HouseholdID: "h1",
		Status:      core.GuestStatusPending,
	}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, guest core.Guest) (core.Guest, error) {
			return guest, nil
		},
	)

	updated, err := service.UpdateStatus(context.Background(), requester, "g1", core.GuestStatusApproved)
	assert.NoError(t, err)
	assert.Equal(t, core.GuestStatusApproved, updated.Status)
	if assert.NotNil(t, updated.ApprovedBy) {
		assert.Equal(t, requester.UserID, *updated.ApprovedBy)
	}
}

func TestUpdateStatusApproveRequiresAdmin(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    requester.TenantID,
		HouseholdID: "h1",
		Status:      core.GuestStatusPending,
	}, nil)

	_, err := service.UpdateStatus(context.Background(), requester, "g1", core.GuestStatusApproved)
	assert.True(t, errors.Is(err, core.ErrorPermissionDenied{}))
}

func TestUpdateStatusAtGateNotifiesCreator(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := core.Requester{
		UserID:   "u-guard",
		TenantID: "t1",
		RoleCode: core.RoleSecurity,
	}

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    "t1",
		HouseholdID: "h1",
		GuestName:   "Juan dela Cruz",
		Status:      core.GuestStatusApproved,
		CreatedBy:   "u-owner",
	}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, guest core.Guest) (core.Guest, error) {
			return guest, nil
		},
	)
	notification.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, n core.Notification) (core.Notification, error) {
			assert.Equal(t, "u-owner", n.UserID)
			assert.Equal(t, core.NotificationGuestArrival, n.Type)
			return n, nil
		},
	)

	updated, err := service.UpdateStatus(context.Background(), requester, "g1", core.GuestStatusAtGate)
	assert.NoError(t, err)
	assert.NotNil(t, updated.ArrivalTime)
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := adminRequester("t1")

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    "t1",
		HouseholdID: "h1",
		Status:      core.GuestStatusCompleted,
	}, nil)

	_, err := service.UpdateStatus(context.Background(), requester, "g1", core.GuestStatusPending)
	assert.True(t, errors.Is(err, core.ErrorInvalidTransition{}))
}

func TestUpdateStatusReopenDenied(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mock_guest.NewMockRepository(ctrl)
	notification := mock_core.NewMockNotificationService(ctrl)
	service := NewService(repo, notification)

	requester := residentRequester("h1")
	approver := "u-admin"

	repo.EXPECT().Get(gomock.Any(), "g1").Return(core.Guest{
		ID:          "g1",
		TenantID:    requester.TenantID,
		HouseholdID: "h1",
		Status:      core.GuestStatusDenied,
		ApprovedBy:  &approver,
	}, nil)
	repo.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, guest core.Guest) (core.Guest, error) {
			return guest, nil
		},
	)

	updated, err := service.UpdateStatus(context.Background(), requester, "g1", core.GuestStatusPending)
	assert.NoError(t, err)
	assert.Equal(t, core.GuestStatusPending, updated.Status)
	assert.Nil(t, updated.ApprovedBy)
}

func TestNormalizePlate(t *testing.T) {
	assert.Equal(t, "ABC1234", NormalizePlate("abc-1234"))
	assert.Equal(t, "NCR1234", NormalizePlate("ncr 1234"))
	assert.Equal(t, "1234AB", NormalizePlate("1234-ab"))
}

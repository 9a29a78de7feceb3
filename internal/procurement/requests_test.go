package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()

	_, err := f.service.CreateRequest(ctx, f.manager, CreateRequestInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.service.CreateRequest(ctx, f.manager, CreateRequestInput{Lines: []RequestLineInput{{Quantity: dec("1")}}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.service.CreateRequest(ctx, f.runner, CreateRequestInput{Lines: []RequestLineInput{{Description: "x", Quantity: dec("1")}}})
	require.ErrorIs(t, err, shared.ErrForbidden)
	require.Empty(t, f.repo.state.requests)
}

func TestCreateRequestNumbersAndAmounts(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	material := uuid.New()
	input := CreateRequestInput{Lines: []RequestLineInput{
		{MaterialID: &material, Quantity: dec("2.5"), ExpectedRate: dec("3.333")},
		{Description: "Labels", Quantity: dec("100"), ExpectedRate: dec("0.25")},
	}}

	first, err := f.service.CreateRequest(ctx, f.manager, input)
	require.NoError(t, err)
	second, err := f.service.CreateRequest(ctx, f.accountant, input)
	require.NoError(t, err)
	require.Equal(t, "MR-2026-0001", first.RequestNo)
	require.Equal(t, "MR-2026-0002", second.RequestNo)

	stored := f.repo.state.requests[first.ID]
	require.Equal(t, RequestDraft, stored.Status)
	require.Equal(t, dateOnly(f.now), stored.RequestedDate)

	lines := f.repo.state.requestLines[first.ID]
	require.Len(t, lines, 2)
	require.Equal(t, 1, lines[0].LineNo)
	require.True(t, dec("8.33").Equal(lines[0].ExpectedAmount))
	require.True(t, dec("25").Equal(lines[1].ExpectedAmount))
}

func TestUpdateRequestPartialFields(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	created, err := f.service.CreateRequest(ctx, f.manager, CreateRequestInput{
		Department: "Stitching",
		Notes:      "urgent",
		Lines:      []RequestLineInput{{Description: "Needles", Quantity: dec("5")}},
	})
	require.NoError(t, err)

	when := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, f.service.UpdateRequest(ctx, f.manager, created.ID, UpdateRequestInput{
		Fields: RequestFields{ExpectedPurchaseDate: &when},
	}))
	stored := f.repo.state.requests[created.ID]
	require.Equal(t, "Stitching", stored.Department)
	require.Equal(t, "urgent", stored.Notes)
	require.Equal(t, when, *stored.ExpectedPurchaseDate)
	require.Len(t, f.repo.state.requestLines[created.ID], 1)
}

func TestUpdateRequestOwnership(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	created, err := f.service.CreateRequest(ctx, f.manager, CreateRequestInput{Lines: []RequestLineInput{{Description: "Tape", Quantity: dec("1")}}})
	require.NoError(t, err)

	notes := "changed"
	other := shared.Actor{ID: uuid.New(), Role: shared.RoleStoreManager}
	require.ErrorIs(t, f.service.UpdateRequest(ctx, other, created.ID, UpdateRequestInput{Fields: RequestFields{Notes: &notes}}), shared.ErrForbidden)
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.runner, created.ID, UpdateRequestInput{Fields: RequestFields{Notes: &notes}}), shared.ErrForbidden)
	require.NoError(t, f.service.UpdateRequest(ctx, f.accountant, created.ID, UpdateRequestInput{Fields: RequestFields{Notes: &notes}}))
	require.Equal(t, "changed", f.repo.state.requests[created.ID].Notes)
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, uuid.New(), UpdateRequestInput{}), shared.ErrNotFound)
}

func TestUpdateRequestLinesLockedAfterPurchase(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	req := f.submittedRequest()

	replacement := []RequestLineInput{{Description: "Elastic", Quantity: dec("3"), ExpectedRate: dec("2")}}
	require.NoError(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Lines: replacement}))
	require.Equal(t, "Elastic", f.repo.state.requestLines[req.ID][0].Description)

	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Lines: []RequestLineInput{}}), shared.ErrValidation)

	f.purchase(req.ID, InvoiceTax, "6")
	err := f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Lines: replacement})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateRequestStrictTransitions(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	req := f.submittedRequest()
	before := len(f.emitter.Notices())

	inProgress := RequestInProgress
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &inProgress}), shared.ErrInvalidState)

	done := RequestCompleted
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &done}), shared.ErrInvalidState)

	// Repeating the current status is a no-op and does not re-notify.
	pending := RequestPendingPurchase
	require.NoError(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &pending}))
	require.Len(t, f.emitter.Notices(), before)

	bogus := RequestStatus("ARCHIVED")
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &bogus}), shared.ErrValidation)

	f.purchase(req.ID, InvoiceTax, "50")
	require.NoError(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &done}))
	require.Equal(t, RequestCompleted, f.repo.state.requests[req.ID].Status)

	cancel := RequestCancelled
	require.ErrorIs(t, f.service.UpdateRequest(ctx, f.manager, req.ID, UpdateRequestInput{Status: &cancel}), shared.ErrInvalidState)
}

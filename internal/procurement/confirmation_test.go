package procurement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/textileco/pettycash/internal/shared"
)

func TestApplyAcknowledgementTimestampsSetOnce(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t1.Add(time.Hour)
	remark := "shown receipt"

	vc, err := applyAcknowledgement(VendorConfirmation{Status: AckNotAcknowledged}, AckShownToVendor, &remark, t0)
	require.NoError(t, err)
	require.Equal(t, AckShownToVendor, vc.Status)
	require.Equal(t, t0, *vc.ShownToVendorAt)
	require.Nil(t, vc.VendorConfirmedAt)

	vc, err = applyAcknowledgement(vc, AckVendorConfirmed, nil, t1)
	require.NoError(t, err)
	require.Equal(t, t0, *vc.ShownToVendorAt)
	require.Equal(t, t1, *vc.VendorConfirmedAt)
	require.Equal(t, remark, vc.RunnerRemark)

	updated := "vendor signed"
	vc, err = applyAcknowledgement(vc, AckVendorConfirmed, &updated, t2)
	require.NoError(t, err)
	require.Equal(t, t1, *vc.VendorConfirmedAt)
	require.Equal(t, updated, vc.RunnerRemark)

	_, err = applyAcknowledgement(vc, AckShownToVendor, nil, t2)
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestApplyAcknowledgementJumpBackfillsShown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	vc, err := applyAcknowledgement(VendorConfirmation{Status: AckNotAcknowledged}, AckVendorConfirmed, nil, now)
	require.NoError(t, err)
	require.Equal(t, now, *vc.ShownToVendorAt)
	require.Equal(t, now, *vc.VendorConfirmedAt)
}

func TestApplyAcknowledgementRejectsUnknownStatus(t *testing.T) {
	_, err := applyAcknowledgement(VendorConfirmation{Status: AckNotAcknowledged}, AckNotAcknowledged, nil, time.Now())
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = applyAcknowledgement(VendorConfirmation{Status: AckNotAcknowledged}, "LOST", nil, time.Now())
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestAcknowledgeFlow(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	ctx := context.Background()
	p := f.approvedPurchase(InvoiceTax, "55")

	got, err := f.service.GetAcknowledgement(ctx, f.runner, p.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	_, err = f.pay(p.ID, "55")
	require.NoError(t, err)

	shownAt := f.now
	vc, err := f.service.Acknowledge(ctx, f.runner, p.ID, AcknowledgeInput{Status: AckShownToVendor})
	require.NoError(t, err)
	require.Equal(t, AckShownToVendor, vc.Status)

	f.now = f.now.Add(2 * time.Hour)
	remark := "vendor confirmed on call"
	vc, err = f.service.Acknowledge(ctx, f.runner, p.ID, AcknowledgeInput{Status: AckVendorConfirmed, Remark: &remark})
	require.NoError(t, err)
	require.Equal(t, shownAt, *vc.ShownToVendorAt)
	require.Equal(t, f.now, *vc.VendorConfirmedAt)

	got, err = f.service.GetAcknowledgement(ctx, f.accountant, p.ID)
	require.NoError(t, err)
	require.Equal(t, AckVendorConfirmed, got.Status)
	require.Equal(t, remark, got.RunnerRemark)

	_, err = f.service.Acknowledge(ctx, f.accountant, p.ID, AcknowledgeInput{Status: AckVendorConfirmed})
	require.ErrorIs(t, err, shared.ErrForbidden, "accountant is not the assigned runner")
}

func TestAcknowledgeCreatesMissingConfirmation(t *testing.T) {
	f := newFixture(t, ServiceConfig{})
	p := f.approvedPurchase(InvoiceTax, "55")

	vc, err := f.service.Acknowledge(context.Background(), f.runner, p.ID, AcknowledgeInput{Status: AckShownToVendor})
	require.NoError(t, err)
	require.Equal(t, f.runner.ID, vc.RunnerID)
	require.Contains(t, f.repo.state.confirmations, p.ID)

	audits := f.emitter.Audits()
	require.Equal(t, "CREATE", audits[len(audits)-1].Action)
	require.Equal(t, EntityConfirmation, audits[len(audits)-1].Entity)
}

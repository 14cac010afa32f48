package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"muster/internal/access"
	"muster/internal/charter"
	"muster/internal/models"
	"muster/internal/repository"
	"muster/internal/roster"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCharterService_Create(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	res, err := f.charters.Create(ctx, f.owner, f.league.Slug, typeInput(f.travel), rosterCSV("Skate Queen", "Blocker Jane"))
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, "Charter 2026-03-14 has been created", res.Message)
	assert.True(t, strings.HasPrefix(res.Charter.Slug, "2026-03-14-"))
	assert.Equal(t, "/leagues/rose-city/charters/"+res.Charter.Slug, res.Redirect)

	stored := f.reload(t, res.Charter.Slug)
	require.Len(t, stored.Skaters, 2)
	assert.Equal(t, "Skate Queen", stored.Skaters[0].Name)
	assert.Equal(t, "1", stored.Skaters[0].Number)
	assert.Equal(t, charter.StateDraft, charter.StateOf(stored, nil, f.clock.Now()))

	events, err := f.events.ListBySubject(ctx, "charter", stored.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, AuditStored, events[0].Action)
	assert.Equal(t, f.owner.ID, *events[0].UserID)
}

func TestCharterService_CreateValidation(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	_, err := f.charters.Create(ctx, f.owner, f.league.Slug, CharterInput{}, nil)
	assertCode(t, err, models.CodeValidation)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "charter_type_id")
	assert.Contains(t, appErr.Fields, "csv")

	missing := uint(999)
	_, err = f.charters.Create(ctx, f.owner, f.league.Slug, CharterInput{CharterTypeID: &missing}, rosterCSV("A"))
	assertCode(t, err, models.CodeValidation)

	_, err = f.charters.Create(ctx, f.owner, f.league.Slug, typeInput(f.travel),
		&Upload{Filename: "roster.pdf", Reader: strings.NewReader("x")})
	assertCode(t, err, models.CodeValidation)

	var count int64
	require.NoError(t, f.db.Model(&models.Charter{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCharterService_CreateParseFailurePersistsNothing(t *testing.T) {
	f := newFixture(t, "")

	names := make([]string, roster.MaxSkaters+1)
	for i := range names {
		names[i] = "Skater"
	}
	_, err := f.charters.Create(context.Background(), f.owner, f.league.Slug, typeInput(f.travel), rosterCSV(names...))
	assertCode(t, err, models.CodeRosterParse)
	assert.Equal(t, roster.ErrMalformedFile.Error(), err.(*models.AppError).Message)

	var charters, skaters int64
	require.NoError(t, f.db.Unscoped().Model(&models.Charter{}).Count(&charters).Error)
	require.NoError(t, f.db.Model(&models.Skater{}).Count(&skaters).Error)
	assert.Zero(t, charters)
	assert.Zero(t, skaters)
}

func TestCharterService_CreateAccess(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	denied := map[string]access.Actor{
		"stranger":  f.stranger,
		"staff":     f.staff,
		"operator":  f.operator,
		"anonymous": f.anonymous,
	}
	for name, actor := range denied {
		_, err := f.charters.Create(ctx, actor, f.league.Slug, typeInput(f.travel), rosterCSV("A"))
		assertCode(t, err, models.CodeNotFound)
		assert.NotContains(t, err.Error(), "permission", name)
	}

	res, err := f.charters.Create(ctx, f.root, f.league.Slug, typeInput(f.travel), rosterCSV("A"))
	require.NoError(t, err)
	assert.True(t, res.Changed)

	_, err = f.charters.Create(ctx, f.root, "no-such-league", typeInput(f.travel), rosterCSV("A"))
	assertCode(t, err, models.CodeNotFound)
}

func TestCharterService_OneDraftPerType(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	f.create(t, f.travel, "First")

	_, err := f.charters.Create(ctx, f.owner, f.league.Slug, typeInput(f.travel), rosterCSV("A"))
	assertCode(t, err, models.CodeValidation)

	other := f.create(t, f.bteam, "Other type")
	assert.NotZero(t, other.ID)
}

func buildWorkbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	wb := excelize.NewFile()
	defer func() { _ = wb.Close() }()
	sheet := wb.GetSheetName(0)
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, wb.SetSheetRow(sheet, cellName, &r))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestCharterService_CreateFromWorkbookBehindFlag(t *testing.T) {
	rows := [][]interface{}{{"uniform_nbr", "derby_name"}, {"12", "Skate Queen"}}

	disabled := newFixture(t, "")
	_, err := disabled.charters.Create(context.Background(), disabled.owner, disabled.league.Slug, typeInput(disabled.travel),
		&Upload{Filename: "roster.xlsx", Reader: buildWorkbook(t, rows)})
	assertCode(t, err, models.CodeValidation)
	assert.Contains(t, err.(*models.AppError).Fields["csv"], "csv, txt.")

	enabled := newFixture(t, "xlsx_rosters=on")
	res, err := enabled.charters.Create(context.Background(), enabled.owner, enabled.league.Slug, typeInput(enabled.travel),
		&Upload{Filename: "roster.xlsx", Reader: buildWorkbook(t, rows)})
	require.NoError(t, err)

	stored := enabled.reload(t, res.Charter.Slug)
	require.Len(t, stored.Skaters, 1)
	assert.Equal(t, "12", stored.Skaters[0].Number)
}

func TestCharterService_UpdateReplacesRoster(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A", "B", "C")

	in := typeInput(f.bteam)
	in.Name = "Spring v2"
	res, err := f.charters.Update(ctx, f.owner, f.league.Slug, c.Slug, in, rosterCSV("D", "E"))
	require.NoError(t, err)
	assert.Equal(t, "Charter Spring v2 has been updated", res.Message)

	stored := f.reload(t, c.Slug)
	assert.Equal(t, "Spring v2", stored.Name)
	assert.Equal(t, f.bteam.ID, *stored.CharterTypeID)
	require.Len(t, stored.Skaters, 2)
	assert.Equal(t, "D", stored.Skaters[0].Name)

	// A failing upload keeps the previous roster.
	bad := make([]string, roster.MaxSkaters+1)
	_, err = f.charters.Update(ctx, f.owner, f.league.Slug, c.Slug, typeInput(f.bteam), rosterCSV(bad...))
	assertCode(t, err, models.CodeRosterParse)
	assert.Len(t, f.reload(t, c.Slug).Skaters, 2)

	_, err = f.charters.Update(ctx, f.stranger, f.league.Slug, c.Slug, typeInput(f.bteam), rosterCSV("X"))
	assertCode(t, err, models.CodeNotFound)
}

func TestCharterService_UpdateApprovedIsUnchanged(t *testing.T) {
	f := newFixture(t, "")
	c := f.create(t, f.travel, "Spring", "A")
	f.approve(t, c, epoch)

	res, err := f.charters.Update(context.Background(), f.owner, f.league.Slug, c.Slug, typeInput(f.travel), rosterCSV("Z"))
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "Charter Spring has already been approved!", res.Message)
	assert.Equal(t, "A", f.reload(t, c.Slug).Skaters[0].Name)
}

func TestCharterService_RequestApproval(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A")

	res, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Charter Spring has been submitted for approval", res.Message)

	stored := f.reload(t, c.Slug)
	require.NotNil(t, stored.ApprovalRequestedAt)
	assert.True(t, stored.ApprovalRequestedAt.Equal(epoch))
	assert.Equal(t, charter.StatePending, charter.StateOf(stored, nil, f.clock.Now()))
	assert.Equal(t, []string{"submitted:Spring"}, f.notifier.Events())

	again, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, "You have already requested approval for charter Spring!", again.Message)
	assert.Len(t, f.notifier.Events(), 1)

	_, err = f.charters.RequestApproval(ctx, f.operator, f.league.Slug, c.Slug)
	assertCode(t, err, models.CodeNotFound)
}

func TestCharterService_OnePendingPerType(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	first := f.create(t, f.travel, "First", "A")
	_, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, first.Slug)
	require.NoError(t, err)

	second := f.create(t, f.travel, "Second", "B")
	_, err = f.charters.RequestApproval(ctx, f.owner, f.league.Slug, second.Slug)
	assertCode(t, err, models.CodeValidation)
	assert.Nil(t, f.reload(t, second.Slug).ApprovalRequestedAt)
}

func TestCharterService_Approve(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A")

	res, err := f.charters.Approve(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "Charter Spring has not been submitted for approval!", res.Message)

	_, err = f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)

	_, err = f.charters.Approve(ctx, f.staff, f.league.Slug, c.Slug, CharterInput{})
	assertCode(t, err, models.CodeNotFound)
	_, err = f.charters.Approve(ctx, f.owner, f.league.Slug, c.Slug, CharterInput{})
	assertCode(t, err, models.CodeNotFound)

	f.clock.Advance(time.Hour)
	res, err = f.charters.Approve(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{Name: "Spring 2026"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Charter Spring 2026 has been approved", res.Message)

	stored := f.reload(t, c.Slug)
	require.NotNil(t, stored.ApprovedAt)
	require.NotNil(t, stored.ActiveFrom)
	assert.True(t, stored.ActiveFrom.Equal(f.clock.Now()), "active_from defaults to now")
	assert.Equal(t, "Spring 2026", stored.Name)
	assert.Equal(t, charter.StateCurrent, charter.StateOf(stored, nil, f.clock.Now()))
	assert.Equal(t, []string{"submitted:Spring", "approved:Spring 2026"}, f.notifier.Events())

	again, err := f.charters.Approve(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{})
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, "Charter Spring 2026 has already been approved!", again.Message)

	_, err = f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.True(t, f.reload(t, c.Slug).ApprovalRequestedAt.Equal(epoch), "approved charters are not re-requested")
}

func TestCharterService_Reject(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A")
	_, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)

	res, err := f.charters.Reject(ctx, f.root, f.league.Slug, c.Slug, CharterInput{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Charter Spring has been rejected!", res.Message)

	stored := f.reload(t, c.Slug)
	assert.Nil(t, stored.ApprovalRequestedAt)
	assert.Nil(t, stored.ApprovedAt)
	assert.Equal(t, charter.StateDraft, charter.StateOf(stored, nil, f.clock.Now()))
	assert.Equal(t, []string{"submitted:Spring", "rejected:Spring"}, f.notifier.Events())

	again, err := f.charters.Reject(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{})
	require.NoError(t, err)
	assert.False(t, again.Changed)

	events, err := f.events.ListBySubject(ctx, "charter", c.ID)
	require.NoError(t, err)
	actions := make([]string, len(events))
	for i, e := range events {
		actions[i] = e.Action
	}
	assert.Equal(t, []string{AuditStored, AuditRequestedApproval, AuditRejected}, actions)

	// A rejected charter can be submitted again like a fresh draft.
	f.clock.Advance(2 * time.Hour)
	res, err = f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	stored = f.reload(t, c.Slug)
	require.NotNil(t, stored.ApprovalRequestedAt)
	assert.True(t, stored.ApprovalRequestedAt.Equal(f.clock.Now()))
	assert.Equal(t, charter.StatePending, charter.StateOf(stored, nil, f.clock.Now()))
	assert.Equal(t, []string{"submitted:Spring", "rejected:Spring", "submitted:Spring"}, f.notifier.Events())
}

func TestCharterService_RejectKeepsOneDraft(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	submitted := f.create(t, f.travel, "Submitted", "A")
	_, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, submitted.Slug)
	require.NoError(t, err)
	draft := f.create(t, f.travel, "Draft", "B")

	_, err = f.charters.Reject(ctx, f.operator, f.league.Slug, submitted.Slug, CharterInput{})
	assertCode(t, err, models.CodeValidation)
	assert.NotNil(t, f.reload(t, submitted.Slug).ApprovalRequestedAt)
	assert.Equal(t, []string{"submitted:Submitted"}, f.notifier.Events())

	// Once the other draft is gone the rejection goes through.
	_, err = f.charters.Delete(ctx, f.owner, f.league.Slug, draft.Slug)
	require.NoError(t, err)
	res, err := f.charters.Reject(ctx, f.operator, f.league.Slug, submitted.Slug, CharterInput{})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Nil(t, f.reload(t, submitted.Slug).ApprovalRequestedAt)
}

func TestCharterService_ReviewRechecksUnderLock(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A")
	_, err := f.charters.RequestApproval(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)

	repo := newLockingRepo(f.db)
	repo.onLock = func(ctx context.Context, tx repository.CharterRepository) error {
		locked, err := tx.GetBySlug(ctx, f.league.ID, c.Slug, false)
		if err != nil {
			return err
		}
		return tx.Update(ctx, locked, map[string]interface{}{"approved_at": epoch, "active_from": epoch})
	}
	svc := f.serviceWith(repo)

	res, err := svc.Reject(ctx, f.operator, f.league.Slug, c.Slug, CharterInput{})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, "Charter Spring has already been approved!", res.Message)
	assert.Equal(t, 1, *repo.locks)
	assert.Equal(t, []string{"submitted:Spring"}, f.notifier.Events(), "no rejection is sent")
}

func TestCharterService_DeleteRechecksUnderLock(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()
	c := f.create(t, f.travel, "Spring", "A")

	repo := newLockingRepo(f.db)
	repo.onLock = func(ctx context.Context, tx repository.CharterRepository) error {
		locked, err := tx.GetBySlug(ctx, f.league.ID, c.Slug, false)
		if err != nil {
			return err
		}
		return tx.Update(ctx, locked, map[string]interface{}{"approval_requested_at": epoch})
	}

	_, err := f.serviceWith(repo).Delete(ctx, f.owner, f.league.Slug, c.Slug)
	assertCode(t, err, models.CodeNotFound)
	assert.Equal(t, 1, *repo.locks)
	assert.False(t, f.reload(t, c.Slug).IsDeleted())

	plain := newLockingRepo(f.db)
	res, err := f.serviceWith(plain).Delete(ctx, f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, *plain.locks)
	assert.True(t, f.reload(t, c.Slug).IsDeleted())
}

func TestCharterService_Delete(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	draft := f.create(t, f.travel, "Draft", "A")
	res, err := f.charters.Delete(ctx, f.owner, f.league.Slug, draft.Slug)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "Charter Draft has been deleted", res.Message)
	assert.Equal(t, "/leagues/rose-city", res.Redirect)
	assert.True(t, f.reload(t, draft.Slug).IsDeleted())

	_, err = f.charters.Delete(ctx, f.owner, f.league.Slug, draft.Slug)
	assertCode(t, err, models.CodeNotFound)

	pending := f.create(t, f.travel, "Pending", "A")
	_, err = f.charters.RequestApproval(ctx, f.owner, f.league.Slug, pending.Slug)
	require.NoError(t, err)

	_, err = f.charters.Delete(ctx, f.owner, f.league.Slug, pending.Slug)
	assertCode(t, err, models.CodeNotFound)
	assert.False(t, f.reload(t, pending.Slug).IsDeleted())

	res, err = f.charters.Delete(ctx, f.root, f.league.Slug, pending.Slug)
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = f.charters.Delete(ctx, f.root, f.league.Slug, pending.Slug)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestCharterService_Show(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	current := f.create(t, f.travel, "Current", "A")
	f.approve(t, current, epoch)
	draft := f.create(t, f.travel, "Draft", "B")

	view, err := f.charters.Show(ctx, f.anonymous, f.league.Slug, current.Slug)
	require.NoError(t, err)
	assert.Equal(t, charter.StateCurrent, *view.State)
	require.Len(t, view.Charter.Skaters, 1)

	_, err = f.charters.Show(ctx, f.anonymous, f.league.Slug, draft.Slug)
	assertCode(t, err, models.CodeNotFound)
	_, err = f.charters.Show(ctx, f.stranger, f.league.Slug, draft.Slug)
	assertCode(t, err, models.CodeNotFound)

	for _, actor := range []access.Actor{f.owner, f.staff, f.root, f.operator} {
		view, err := f.charters.Show(ctx, actor, f.league.Slug, draft.Slug)
		require.NoError(t, err)
		assert.Equal(t, charter.StateDraft, *view.State)
	}

	_, err = f.charters.Delete(ctx, f.owner, f.league.Slug, draft.Slug)
	require.NoError(t, err)

	_, err = f.charters.Show(ctx, f.owner, f.league.Slug, draft.Slug)
	assertCode(t, err, models.CodeNotFound)
	view, err = f.charters.Show(ctx, f.root, f.league.Slug, draft.Slug)
	require.NoError(t, err)
	assert.Equal(t, charter.StateDeleted, *view.State)
}

func TestCharterService_ShowDeletedLeague(t *testing.T) {
	f := newFixture(t, "")
	c := f.create(t, f.travel, "Spring", "A")
	require.NoError(t, f.db.Delete(f.league).Error)

	view, err := f.charters.Show(context.Background(), f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.Equal(t, "League has been deleted, charters can no longer be viewed!", view.Message)
	assert.Equal(t, "/leagues/rose-city", view.Redirect)
	assert.Nil(t, view.Charter)
	assert.Nil(t, view.State)
	payload, err := json.Marshal(view)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), `"state"`)

	_, err = f.charters.RequestApproval(context.Background(), f.owner, f.league.Slug, c.Slug)
	assertCode(t, err, models.CodeNotFound)
}

func TestCharterService_Edit(t *testing.T) {
	f := newFixture(t, "")
	c := f.create(t, f.travel, "Spring", "A")

	view, err := f.charters.Edit(context.Background(), f.owner, f.league.Slug, c.Slug)
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.Charter.ID)
	assert.Len(t, view.CharterTypes, 2)

	_, err = f.charters.Edit(context.Background(), f.staff, f.league.Slug, c.Slug)
	assertCode(t, err, models.CodeNotFound)
}

func TestCharterService_CurrentMovesWithClock(t *testing.T) {
	f := newFixture(t, "")
	ctx := context.Background()

	old := f.create(t, f.travel, "Old", "A")
	f.approve(t, old, epoch)
	next := f.create(t, f.travel, "Next", "B")
	f.approve(t, next, epoch.Add(48*time.Hour))

	view, err := f.charters.Show(ctx, f.owner, f.league.Slug, next.Slug)
	require.NoError(t, err)
	assert.Equal(t, charter.StateUpcoming, *view.State)

	f.clock.Advance(72 * time.Hour)

	view, err = f.charters.Show(ctx, f.owner, f.league.Slug, next.Slug)
	require.NoError(t, err)
	assert.Equal(t, charter.StateCurrent, *view.State)
	view, err = f.charters.Show(ctx, f.owner, f.league.Slug, old.Slug)
	require.NoError(t, err)
	assert.Equal(t, charter.StateHistorical, *view.State)

	_, err = f.charters.Show(ctx, f.anonymous, f.league.Slug, old.Slug)
	assertCode(t, err, models.CodeNotFound)
}

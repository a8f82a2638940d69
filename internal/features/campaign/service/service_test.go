package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	"crowdfunding-ledger-backend/internal/common/amount"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/common/validation"
	accessmodels "crowdfunding-ledger-backend/internal/features/access/models"
	accessrepository "crowdfunding-ledger-backend/internal/features/access/repository"
	accessmemory "crowdfunding-ledger-backend/internal/features/access/repository/memory"
	accessservice "crowdfunding-ledger-backend/internal/features/access/service"
	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/repository"
	"crowdfunding-ledger-backend/internal/features/campaign/repository/memory"
	custodymodels "crowdfunding-ledger-backend/internal/features/custody/models"
	custodymemory "crowdfunding-ledger-backend/internal/features/custody/repository/memory"
	custody "crowdfunding-ledger-backend/internal/features/custody/service"
	"crowdfunding-ledger-backend/internal/features/events"
	eventmodels "crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	deployer = address.MustNormalize("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	creator  = address.MustNormalize("0x70997970c51812dc3a010c7d01b50e0d17dc79c8")
	donorA   = address.MustNormalize("0x3c44cdddb6a900fa2b585dd299e03d12fa4293bc")
	donorB   = address.MustNormalize("0x90f79bf6eb2c4f870365e785982e1f101e93b906")
	stranger = address.MustNormalize("0x15d34aaf54267db7d7c367839aaf71a00a2c6a65")
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc     CampaignService
	access  accessservice.AccessService
	roles   accessrepository.RoleRepository
	locker  lock.Locker
	clock   *fakeClock
	events  *events.Recorder
	custody custody.CustodyService
}

func newFixture(t *testing.T, repo repository.CampaignRepository, opts ...func(*fixtureOptions)) *fixture {
	t.Helper()
	o := &fixtureOptions{}
	for _, opt := range opts {
		opt(o)
	}

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	rec := &events.Recorder{}
	locker := lock.NewKeyedMutex()

	roles := accessmemory.NewRoleRepository()
	access := accessservice.NewAccessService(roles, locker, rec, nil,
		accessservice.WithClock(clock.Now))
	require.NoError(t, access.Bootstrap(ctx, deployer, []string{creator}))

	payouts := custodymemory.NewPayoutRepository()
	var transferer custody.Transferer = custody.NewLedgerTransferer(payouts)
	if o.transferer != nil {
		transferer = o.transferer
	}

	svc := NewCampaignService(repo, access, transferer, locker, rec, WithClock(clock.Now))
	rec.Reset()

	return &fixture{
		svc:     svc,
		access:  access,
		roles:   roles,
		locker:  locker,
		clock:   clock,
		events:  rec,
		custody: custody.NewCustodyService(payouts),
	}
}

type fixtureOptions struct {
	transferer custody.Transferer
}

func withTransferer(t custody.Transferer) func(*fixtureOptions) {
	return func(o *fixtureOptions) { o.transferer = t }
}

func validInput() CreateCampaignInput {
	return CreateCampaignInput{
		Title:        "Clean water",
		Description:  "Boreholes for three schools",
		ImageURL:     "https://example.org/well.png",
		TargetAmount: amount.MustEther("1"),
		DurationDays: 30,
	}
}

func (f *fixture) create(t *testing.T, input CreateCampaignInput) uint64 {
	t.Helper()
	id, err := f.svc.CreateCampaign(context.Background(), creator, input)
	require.NoError(t, err)
	return id
}

func (f *fixture) donate(t *testing.T, donor string, id uint64, eth string) {
	t.Helper()
	require.NoError(t, f.svc.DonateToCampaign(context.Background(), donor, id, amount.MustEther(eth)))
}

func (f *fixture) get(t *testing.T, id uint64) *models.CampaignResponse {
	t.Helper()
	c, err := f.svc.GetCampaign(context.Background(), id)
	require.NoError(t, err)
	return c
}

func requireAppError(t *testing.T, err error, code apperrors.ErrorCode, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	assert.Equal(t, message, appErr.Message)
}

func TestCreateCampaignStoresInputs(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	created := f.clock.Now()

	id := f.create(t, validInput())
	assert.Equal(t, uint64(0), id)

	c := f.get(t, id)
	assert.Equal(t, "Clean water", c.Title)
	assert.Equal(t, creator, c.Owner)
	assert.Equal(t, "1000000000000000000", c.TargetAmount)
	assert.Equal(t, "1", c.TargetEth)
	assert.Equal(t, "0", c.RaisedAmount)
	assert.True(t, c.CreatedAt.Equal(created))
	assert.True(t, c.Deadline.Equal(created.Add(30*24*time.Hour)))
	assert.False(t, c.IsCompleted)
	assert.Equal(t, int64(30*24*3600), c.RemainingSeconds)

	createdEvents := f.events.OfType(eventmodels.CampaignCreated)
	require.Len(t, createdEvents, 1)
	assert.Equal(t, id, *createdEvents[0].CampaignID)
	assert.Equal(t, creator, createdEvents[0].Owner)
	assert.True(t, createdEvents[0].TargetAmount.Equal(amount.MustEther("1")))

	second := f.create(t, validInput())
	assert.Equal(t, uint64(1), second)
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  string
		mutate  func(*CreateCampaignInput)
		code    apperrors.ErrorCode
		message string
	}{
		{"empty title", creator, func(in *CreateCampaignInput) { in.Title = "  " }, apperrors.ErrCodeValidation, validation.ReasonTitleEmpty},
		{"empty image", creator, func(in *CreateCampaignInput) { in.ImageURL = "" }, apperrors.ErrCodeValidation, validation.ReasonImageURLEmpty},
		{"zero target", creator, func(in *CreateCampaignInput) { in.TargetAmount = decimal.Zero }, apperrors.ErrCodeValidation, validation.ReasonTargetNotPos},
		{"negative target", creator, func(in *CreateCampaignInput) { in.TargetAmount = decimal.NewFromInt(-1) }, apperrors.ErrCodeValidation, validation.ReasonTargetNotPos},
		{"zero duration", creator, func(in *CreateCampaignInput) { in.DurationDays = 0 }, apperrors.ErrCodeValidation, validation.ReasonInvalidDuration},
		{"duration too long", creator, func(in *CreateCampaignInput) { in.DurationDays = 366 }, apperrors.ErrCodeValidation, validation.ReasonInvalidDuration},
		{"not a creator", stranger, func(in *CreateCampaignInput) {}, apperrors.ErrCodeUnauthorized, accessservice.ReasonNotCreator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := f.svc.CreateCampaign(ctx, tt.caller, input)
			requireAppError(t, err, tt.code, tt.message)
		})
	}

	total, err := f.svc.GetTotalCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, f.events.Events())

	// Boundaries are inclusive.
	for _, days := range []int64{1, 365} {
		input := validInput()
		input.DurationDays = days
		f.create(t, input)
	}
}

func TestDonationsAccumulate(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.TargetAmount = amount.MustEther("10")
	id := f.create(t, input)

	f.donate(t, donorA, id, "1")
	f.donate(t, donorB, id, "0.25")
	f.donate(t, donorA, id, "2")

	c := f.get(t, id)
	assert.Equal(t, "3.25", c.RaisedEth)
	assert.Equal(t, uint64(3), c.DonationCount)
	assert.False(t, c.IsCompleted)
	assert.Equal(t, 32.5, c.ProgressPercentage)

	a, err := f.svc.GetDonorContribution(ctx, id, donorA)
	require.NoError(t, err)
	assert.Equal(t, "3", a.AmountEth)

	b, err := f.svc.GetDonorContribution(ctx, id, donorB)
	require.NoError(t, err)
	assert.Equal(t, "0.25", b.AmountEth)

	none, err := f.svc.GetDonorContribution(ctx, id, stranger)
	require.NoError(t, err)
	assert.Equal(t, "0", none.Amount)

	donations, err := f.svc.GetCampaignDonations(ctx, id)
	require.NoError(t, err)
	require.Len(t, donations, 3)
	for i, d := range donations {
		assert.Equal(t, uint64(i), d.Seq)
	}
	assert.Equal(t, donorB, donations[1].Donor)
	assert.Equal(t, "250000000000000000", donations[1].Amount)

	received := f.events.OfType(eventmodels.DonationReceived)
	require.Len(t, received, 3)
	assert.True(t, received[2].RaisedAmount.Equal(amount.MustEther("3.25")))
	assert.Empty(t, f.events.OfType(eventmodels.CampaignTargetReached))
}

func TestTargetReachedThenWithdraw(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	id := f.create(t, validInput())

	f.donate(t, donorA, id, "0.5")
	c := f.get(t, id)
	assert.Equal(t, "0.5", c.RaisedEth)
	assert.False(t, c.IsCompleted)

	f.donate(t, donorB, id, "0.5")
	c = f.get(t, id)
	assert.True(t, c.IsCompleted)
	assert.True(t, c.TargetReached)

	reached := f.events.OfType(eventmodels.CampaignTargetReached)
	require.Len(t, reached, 1)
	assert.True(t, reached[0].RaisedAmount.Equal(amount.MustEther("1")))

	err := f.svc.DonateToCampaign(ctx, donorA, id, amount.MustEther("0.1"))
	requireAppError(t, err, apperrors.ErrCodeConflict, ReasonAlreadyCompleted)
	assert.Len(t, f.events.OfType(eventmodels.CampaignTargetReached), 1)

	before, err := f.custody.GetBalance(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, "0", before.Balance)

	resp, err := f.svc.WithdrawFunds(ctx, creator, id)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.AmountEth)
	assert.NotEmpty(t, resp.Reference)

	after, err := f.custody.GetBalance(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, "1", after.BalanceEth)

	c = f.get(t, id)
	assert.Equal(t, "0", c.RaisedAmount)
	assert.Equal(t, "1", c.CompletedEth)
	assert.True(t, c.FundsWithdrawn)
	assert.True(t, c.IsCompleted)
	assert.Equal(t, float64(100), c.ProgressPercentage)

	withdrawn := f.events.OfType(eventmodels.FundsWithdrawn)
	require.Len(t, withdrawn, 1)
	assert.True(t, withdrawn[0].Amount.Equal(amount.MustEther("1")))
	assert.Equal(t, creator, withdrawn[0].Owner)

	_, err = f.svc.WithdrawFunds(ctx, creator, id)
	requireAppError(t, err, apperrors.ErrCodeConflict, ReasonAlreadyWithdrawn)
}

func TestOvershootIsAcceptedInFull(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	id := f.create(t, validInput())

	f.donate(t, donorA, id, "0.75")
	f.donate(t, donorB, id, "0.5")

	c := f.get(t, id)
	assert.Equal(t, "1.25", c.RaisedEth)
	assert.True(t, c.TargetReached)
	assert.Equal(t, float64(125), c.ProgressPercentage)
}

func TestDonationAfterDeadline(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.DurationDays = 1
	id := f.create(t, input)

	f.clock.Advance(2 * 24 * time.Hour)

	err := f.svc.DonateToCampaign(ctx, donorA, id, amount.MustEther("0.1"))
	requireAppError(t, err, apperrors.ErrCodeExpired, ReasonEnded)

	c := f.get(t, id)
	assert.True(t, c.IsCompleted)
	assert.False(t, c.TargetReached)
	assert.Equal(t, int64(0), c.RemainingSeconds)

	active, err := f.svc.GetTotalActiveCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), active)
}

func TestDonationAtExactDeadlineIsExpired(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	input := validInput()
	input.DurationDays = 1
	id := f.create(t, input)

	f.clock.Advance(24*time.Hour - time.Second)
	f.donate(t, donorA, id, "0.1")

	f.clock.Advance(time.Second)
	err := f.svc.DonateToCampaign(context.Background(), donorA, id, amount.MustEther("0.1"))
	requireAppError(t, err, apperrors.ErrCodeExpired, ReasonEnded)
}

func TestDonationValidation(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	id := f.create(t, validInput())

	err := f.svc.DonateToCampaign(ctx, donorA, id, decimal.Zero)
	requireAppError(t, err, apperrors.ErrCodeValidation, validation.ReasonDonationNotPos)

	err = f.svc.DonateToCampaign(ctx, donorA, 99, amount.MustEther("1"))
	requireAppError(t, err, apperrors.ErrCodeNotFound, ReasonNotFound)

	c := f.get(t, id)
	assert.Equal(t, "0", c.RaisedAmount)
	assert.Empty(t, f.events.OfType(eventmodels.DonationReceived))
}

func TestAmountsBeyondUint256(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	input := validInput()
	input.TargetAmount = decimal.RequireFromString("1e20000000")
	_, err := f.svc.CreateCampaign(ctx, creator, input)
	requireAppError(t, err, apperrors.ErrCodeValidation, validation.ReasonTargetTooLarge)

	input.TargetAmount = amount.MaxWei
	id := f.create(t, input)

	err = f.svc.DonateToCampaign(ctx, donorA, id, decimal.RequireFromString("1e20000000"))
	requireAppError(t, err, apperrors.ErrCodeValidation, validation.ReasonDonationTooLarge)

	almost := amount.MaxWei.Sub(decimal.New(1, 0))
	require.NoError(t, f.svc.DonateToCampaign(ctx, donorA, id, almost))
	err = f.svc.DonateToCampaign(ctx, donorB, id, decimal.New(2, 0))
	requireAppError(t, err, apperrors.ErrCodeValidation, validation.ReasonDonationTooLarge)

	c := f.get(t, id)
	assert.Equal(t, almost.String(), c.RaisedAmount)
	assert.False(t, c.IsCompleted)
}

func TestCreateWaitsForRoleChangeInProgress(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	// Hold the roles lock the way a revoke does while it writes.
	release, err := f.locker.Lock(ctx, accessmodels.RolesLockKey)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.CreateCampaign(ctx, creator, validInput())
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("create finished while roles were locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	removed, err := f.roles.RemoveCreator(ctx, creator)
	require.NoError(t, err)
	require.True(t, removed)
	release()

	select {
	case err := <-done:
		requireAppError(t, err, apperrors.ErrCodeUnauthorized, accessservice.ReasonNotCreator)
	case <-time.After(5 * time.Second):
		t.Fatal("create did not resume after the roles lock was released")
	}

	total, err := f.svc.GetTotalCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestWithdrawRules(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.DurationDays = 7
	id := f.create(t, input)
	f.donate(t, donorA, id, "0.4")

	_, err := f.svc.WithdrawFunds(ctx, creator, id)
	requireAppError(t, err, apperrors.ErrCodeConflict, ReasonStillActive)

	_, err = f.svc.WithdrawFunds(ctx, deployer, id)
	requireAppError(t, err, apperrors.ErrCodeForbidden, accessservice.ReasonNotOwner)

	_, err = f.svc.WithdrawFunds(ctx, creator, 42)
	requireAppError(t, err, apperrors.ErrCodeNotFound, ReasonNotFound)

	// Deadline completion releases a partially funded campaign.
	f.clock.Advance(7 * 24 * time.Hour)
	resp, err := f.svc.WithdrawFunds(ctx, creator, id)
	require.NoError(t, err)
	assert.Equal(t, "0.4", resp.AmountEth)

	c := f.get(t, id)
	assert.Equal(t, "0.4", c.CompletedEth)
	assert.Equal(t, "0", c.RaisedAmount)
}

func TestWithdrawWithNothingRaised(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.DurationDays = 1
	id := f.create(t, input)
	f.clock.Advance(25 * time.Hour)

	resp, err := f.svc.WithdrawFunds(ctx, creator, id)
	require.NoError(t, err)
	assert.Equal(t, "0", resp.Amount)
	assert.Empty(t, resp.Reference)
	assert.True(t, f.get(t, id).FundsWithdrawn)
}

type failingTransferer struct{ calls int }

func (f *failingTransferer) Transfer(ctx context.Context, req custody.TransferRequest) (*custodymodels.Payout, error) {
	f.calls++
	return nil, errors.New("recipient rejected value")
}

func TestWithdrawTransferFailureLeavesStateUnchanged(t *testing.T) {
	failing := &failingTransferer{}
	f := newFixture(t, memory.NewCampaignRepository(), withTransferer(failing))
	ctx := context.Background()
	id := f.create(t, validInput())
	f.donate(t, donorA, id, "1")

	_, err := f.svc.WithdrawFunds(ctx, creator, id)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTransferFailed))
	assert.Equal(t, 1, failing.calls)

	c := f.get(t, id)
	assert.Equal(t, "1", c.RaisedEth)
	assert.Equal(t, "0", c.CompletedAmount)
	assert.False(t, c.FundsWithdrawn)
	assert.Empty(t, f.events.OfType(eventmodels.FundsWithdrawn))
}

// commitFailingRepo fails every commit once armed.
type commitFailingRepo struct {
	repository.CampaignRepository
	armed bool
}

type failingCommitTx struct{ repository.Transaction }

func (failingCommitTx) Commit() error { return errors.New("connection reset") }

func (r *commitFailingRepo) BeginTx(ctx context.Context) (repository.Transaction, error) {
	tx, err := r.CampaignRepository.BeginTx(ctx)
	if err != nil || !r.armed {
		return tx, err
	}
	return failingCommitTx{tx}, nil
}

func (r *commitFailingRepo) UpdateTx(ctx context.Context, tx repository.Transaction, c *models.Campaign) error {
	if wrapped, ok := tx.(failingCommitTx); ok {
		tx = wrapped.Transaction
	}
	return r.CampaignRepository.UpdateTx(ctx, tx, c)
}

func TestWithdrawCommitFailureReversesPayout(t *testing.T) {
	repo := &commitFailingRepo{CampaignRepository: memory.NewCampaignRepository()}
	f := newFixture(t, repo)
	ctx := context.Background()
	id := f.create(t, validInput())
	f.donate(t, donorA, id, "1")

	repo.armed = true
	_, err := f.svc.WithdrawFunds(ctx, creator, id)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorage))

	balance, err := f.custody.GetBalance(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, "0", balance.Balance)
	assert.False(t, f.get(t, id).FundsWithdrawn)
}

func TestDeleteCampaign(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	funded := f.create(t, validInput())
	empty := f.create(t, validInput())
	byAdmin := f.create(t, validInput())
	f.donate(t, donorA, funded, "1")

	requireAppError(t, f.svc.DeleteCampaign(ctx, creator, funded), apperrors.ErrCodeConflict, ReasonHasFunds)
	requireAppError(t, f.svc.DeleteCampaign(ctx, stranger, empty), apperrors.ErrCodeForbidden, accessservice.ReasonDeleteNotOwner)

	require.NoError(t, f.svc.DeleteCampaign(ctx, creator, empty))
	require.NoError(t, f.svc.DeleteCampaign(ctx, deployer, byAdmin))

	_, err := f.svc.WithdrawFunds(ctx, creator, funded)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteCampaign(ctx, creator, funded))

	deleted := f.events.OfType(eventmodels.CampaignDeleted)
	require.Len(t, deleted, 3)
	assert.Equal(t, deployer, deleted[1].Actor)

	_, err = f.svc.GetCampaign(ctx, empty)
	requireAppError(t, err, apperrors.ErrCodeNotFound, ReasonNotFound)
	requireAppError(t, f.svc.DeleteCampaign(ctx, creator, empty), apperrors.ErrCodeNotFound, ReasonNotFound)
	requireAppError(t, f.svc.DonateToCampaign(ctx, donorA, empty, amount.MustEther("1")), apperrors.ErrCodeNotFound, ReasonNotFound)
	_, err = f.svc.WithdrawFunds(ctx, creator, empty)
	requireAppError(t, err, apperrors.ErrCodeNotFound, ReasonNotFound)
	_, err = f.svc.GetCampaignDonations(ctx, empty)
	requireAppError(t, err, apperrors.ErrCodeNotFound, ReasonNotFound)

	list, err := f.svc.GetAllCampaigns(ctx, models.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// Ids of deleted campaigns are never handed out again.
	next := f.create(t, validInput())
	assert.Equal(t, uint64(3), next)
}

func TestRevokedCreatorCannotCreate(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	require.NoError(t, f.access.RevokeCampaignCreatorRole(ctx, deployer, creator))
	_, err := f.svc.CreateCampaign(ctx, creator, validInput())
	requireAppError(t, err, apperrors.ErrCodeUnauthorized, accessservice.ReasonNotCreator)

	require.NoError(t, f.access.GrantCampaignCreatorRole(ctx, deployer, creator))
	f.create(t, validInput())
}

func TestListingAndStats(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()

	short := validInput()
	short.DurationDays = 1
	a := f.create(t, short)
	b := f.create(t, validInput())
	mine, err := f.svc.CreateCampaign(ctx, deployer, validInput())
	require.NoError(t, err)

	f.donate(t, donorA, b, "0.3")
	f.clock.Advance(2 * 24 * time.Hour)

	list, err := f.svc.GetAllCampaigns(ctx, models.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uint64{a, b, mine}, []uint64{list[0].ID, list[1].ID, list[2].ID})

	owned, err := f.svc.GetAllCampaigns(ctx, models.ListFilter{Owner: "0xF39FD6E51AAD88F6F4CE6AB8827279CFFFB92266"})
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, mine, owned[0].ID)

	_, err = f.svc.GetAllCampaigns(ctx, models.ListFilter{Owner: "bogus"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	stats, err := f.svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalCampaigns)
	assert.Equal(t, int64(2), stats.ActiveCampaigns)
	assert.Equal(t, "0.3", stats.EscrowedEth)
}

func TestConcurrentDonationsSerialize(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.TargetAmount = decimal.NewFromInt(1000)
	id := f.create(t, input)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			donor := donorA
			if i%2 == 1 {
				donor = donorB
			}
			assert.NoError(t, f.svc.DonateToCampaign(ctx, donor, id, decimal.NewFromInt(1)))
		}(i)
	}
	wg.Wait()

	c := f.get(t, id)
	assert.Equal(t, "50", c.RaisedAmount)
	assert.Equal(t, uint64(n), c.DonationCount)

	donations, err := f.svc.GetCampaignDonations(ctx, id)
	require.NoError(t, err)
	require.Len(t, donations, n)
	seen := make(map[uint64]bool)
	for _, d := range donations {
		seen[d.Seq] = true
	}
	assert.Len(t, seen, n)

	a, err := f.svc.GetDonorContribution(ctx, id, donorA)
	require.NoError(t, err)
	assert.Equal(t, "25", a.Amount)
}

func TestConcurrentDonationsRacingTarget(t *testing.T) {
	f := newFixture(t, memory.NewCampaignRepository())
	ctx := context.Background()
	input := validInput()
	input.TargetAmount = decimal.NewFromInt(10)
	id := f.create(t, input)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.svc.DonateToCampaign(ctx, donorA, id, decimal.NewFromInt(1)); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			} else {
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeConflict))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	assert.Equal(t, "10", f.get(t, id).RaisedAmount)
	assert.Len(t, f.events.OfType(eventmodels.CampaignTargetReached), 1)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	"crowdfunding-ledger-backend/internal/common/amount"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/common/metrics"
	"crowdfunding-ledger-backend/internal/common/validation"
	accessmodels "crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/campaign/mapper"
	"crowdfunding-ledger-backend/internal/features/campaign/models"
	"crowdfunding-ledger-backend/internal/features/campaign/repository"
	custodymodels "crowdfunding-ledger-backend/internal/features/custody/models"
	custody "crowdfunding-ledger-backend/internal/features/custody/service"
	"crowdfunding-ledger-backend/internal/features/events"
	eventmodels "crowdfunding-ledger-backend/internal/features/events/models"

	"github.com/shopspring/decimal"
)

const (
	sequenceLockKey    = "campaign:sequence"
	defaultLockTimeout = 10 * time.Second
	day                = 24 * time.Hour
)

// Authorizer decides whether actor may perform op on a resource.
type Authorizer interface {
	Authorize(ctx context.Context, op accessmodels.Operation, actor string, resource accessmodels.Resource) error
}

type campaignService struct {
	repo        repository.CampaignRepository
	access      Authorizer
	transferer  custody.Transferer
	locker      lock.Locker
	publisher   events.Publisher
	metrics     *metrics.Metrics
	now         func() time.Time
	lockTimeout time.Duration
}

type Option func(*campaignService)

// WithClock replaces time.Now. Completion is evaluated against this clock.
func WithClock(now func() time.Time) Option {
	return func(s *campaignService) { s.now = now }
}

func WithLockTimeout(d time.Duration) Option {
	return func(s *campaignService) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *campaignService) { s.metrics = m }
}

func NewCampaignService(
	repo repository.CampaignRepository,
	access Authorizer,
	transferer custody.Transferer,
	locker lock.Locker,
	publisher events.Publisher,
	opts ...Option,
) CampaignService {
	s := &campaignService{
		repo:        repo,
		access:      access,
		transferer:  transferer,
		locker:      locker,
		publisher:   publisher,
		now:         time.Now,
		lockTimeout: defaultLockTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func lockKey(id uint64) string {
	return fmt.Sprintf("campaign:%d", id)
}

// acquire takes the writer lock for key, giving up after lockTimeout.
func (s *campaignService) acquire(ctx context.Context, key string) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()

	release, err := s.locker.Lock(lctx, key)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeLockTimeout, ReasonBusy).WithDetail("key", key)
	}
	return release, nil
}

// finish records the outcome of a mutating operation.
func (s *campaignService) finish(op accessmodels.Operation, id *uint64, caller string, err error) {
	s.metrics.ObserveOperation(string(op), err)
	if err == nil {
		return
	}

	e := logger.Warn()
	msg := "Ledger operation rejected"
	if appErr, ok := apperrors.AsAppError(err); !ok || appErr.IsInternal() {
		e, msg = logger.Error(), "Ledger operation failed"
	}
	e = e.Err(err).Str("operation", string(op)).Str("caller", caller)
	if id != nil {
		e = e.Uint64("campaign_id", *id)
	}
	e.Msg(msg)
}

// load returns a visible campaign or NotFound.
func (s *campaignService) load(ctx context.Context, id uint64) (*models.Campaign, error) {
	c, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrCampaignNotFound) {
		return nil, errNotFound(id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get campaign", err)
	}
	if c.IsDeleted {
		return nil, errNotFound(id)
	}
	return c, nil
}

func (s *campaignService) CreateCampaign(ctx context.Context, caller string, input CreateCampaignInput) (id uint64, err error) {
	defer func() { s.finish(accessmodels.OpCreateCampaign, nil, caller, err) }()

	releaseRoles, err := s.acquire(ctx, accessmodels.RolesLockKey)
	if err != nil {
		return 0, err
	}
	defer releaseRoles()

	if err := s.access.Authorize(ctx, accessmodels.OpCreateCampaign, caller, accessmodels.Resource{}); err != nil {
		return 0, err
	}
	owner, err := address.Normalize(caller)
	if err != nil {
		return 0, apperrors.NewUnauthorizedError("Invalid caller address")
	}

	title := strings.TrimSpace(input.Title)
	imageURL := strings.TrimSpace(input.ImageURL)
	if err := validation.ValidateTitle(title); err != nil {
		return 0, err
	}
	if err := validation.ValidateDescription(input.Description); err != nil {
		return 0, err
	}
	if err := validation.ValidateImageURL(imageURL); err != nil {
		return 0, err
	}
	if err := validation.ValidateTargetAmount(input.TargetAmount); err != nil {
		return 0, err
	}
	if err := validation.ValidateDurationDays(input.DurationDays); err != nil {
		return 0, err
	}

	release, err := s.acquire(ctx, sequenceLockKey)
	if err != nil {
		return 0, err
	}
	defer release()

	id, err = s.repo.NextID(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("allocate campaign id", err)
	}

	now := s.now().UTC()
	campaign := &models.Campaign{
		ID:              id,
		Title:           title,
		Description:     input.Description,
		ImageURL:        imageURL,
		TargetAmount:    input.TargetAmount,
		RaisedAmount:    decimal.Zero,
		CompletedAmount: decimal.Zero,
		Owner:           owner,
		CreatedAt:       now,
		Deadline:        now.Add(time.Duration(input.DurationDays) * day),
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.repo.CreateTx(ctx, tx, campaign); err != nil {
		return 0, apperrors.NewStorageError("create campaign", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStorageError("commit campaign", err)
	}

	logger.Info().
		Uint64("campaign_id", id).
		Str("owner", owner).
		Str("target", campaign.TargetAmount.String()).
		Time("deadline", campaign.Deadline).
		Msg("Campaign created")

	s.publisher.Publish(ctx, eventmodels.Event{
		Type:         eventmodels.CampaignCreated,
		CampaignID:   &id,
		Actor:        owner,
		Title:        campaign.Title,
		Owner:        owner,
		TargetAmount: eventmodels.Decimal(campaign.TargetAmount),
		Deadline:     &campaign.Deadline,
	})
	return id, nil
}

func (s *campaignService) GetCampaign(ctx context.Context, id uint64) (*models.CampaignResponse, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapper.ToCampaignResponse(c, s.now()), nil
}

func (s *campaignService) GetAllCampaigns(ctx context.Context, filter models.ListFilter) ([]*models.CampaignResponse, error) {
	if filter.Owner != "" {
		owner, err := address.Normalize(filter.Owner)
		if err != nil {
			return nil, apperrors.NewValidationError("owner", "Invalid address")
		}
		filter.Owner = owner
	}

	list, err := s.repo.GetAll(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStorageError("list campaigns", err)
	}
	return mapper.ToCampaignResponses(list, s.now()), nil
}

func (s *campaignService) GetTotalCampaigns(ctx context.Context) (int64, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.TotalCampaigns, nil
}

func (s *campaignService) GetTotalActiveCampaigns(ctx context.Context) (int64, error) {
	stats, err := s.GetStats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.ActiveCampaigns, nil
}

// GetStats counts visible campaigns and sums the funds still in escrow.
func (s *campaignService) GetStats(ctx context.Context) (*models.StatsResponse, error) {
	list, err := s.repo.GetAll(ctx, models.ListFilter{})
	if err != nil {
		return nil, apperrors.NewStorageError("list campaigns", err)
	}

	now := s.now()
	var active int64
	escrowed := decimal.Zero
	for _, c := range list {
		if c.IsActive(now) {
			active++
		}
		escrowed = escrowed.Add(c.RaisedAmount)
	}
	return &models.StatsResponse{
		TotalCampaigns:  int64(len(list)),
		ActiveCampaigns: active,
		EscrowedAmount:  escrowed.String(),
		EscrowedEth:     amount.Ether(escrowed),
	}, nil
}

func (s *campaignService) DeleteCampaign(ctx context.Context, caller string, id uint64) (err error) {
	defer func() { s.finish(accessmodels.OpDeleteCampaign, &id, caller, err) }()

	release, err := s.acquire(ctx, lockKey(id))
	if err != nil {
		return err
	}
	defer release()

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.access.Authorize(ctx, accessmodels.OpDeleteCampaign, caller, accessmodels.Resource{Owner: c.Owner}); err != nil {
		return err
	}
	if !c.RaisedAmount.IsZero() {
		return apperrors.NewConflictError(ReasonHasFunds).WithDetail("raised_amount", c.RaisedAmount.String())
	}

	c.IsDeleted = true

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.repo.UpdateTx(ctx, tx, c); err != nil {
		return apperrors.NewStorageError("delete campaign", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit delete", err)
	}

	logger.Info().Uint64("campaign_id", id).Str("actor", caller).Msg("Campaign deleted")
	s.publisher.Publish(ctx, eventmodels.Event{
		Type:       eventmodels.CampaignDeleted,
		CampaignID: &id,
		Actor:      caller,
		Owner:      c.Owner,
	})
	return nil
}

func (s *campaignService) DonateToCampaign(ctx context.Context, caller string, id uint64, value decimal.Decimal) (err error) {
	defer func() { s.finish(accessmodels.OpDonate, &id, caller, err) }()

	if err := s.access.Authorize(ctx, accessmodels.OpDonate, caller, accessmodels.Resource{}); err != nil {
		return err
	}
	donor, err := address.Normalize(caller)
	if err != nil {
		return apperrors.NewUnauthorizedError("Invalid caller address")
	}

	release, err := s.acquire(ctx, lockKey(id))
	if err != nil {
		return err
	}
	defer release()

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}

	now := s.now()
	if !now.Before(c.Deadline) {
		return apperrors.NewExpiredError(ReasonEnded).WithDetail("deadline", c.Deadline)
	}
	if c.IsCompleted(now) {
		return apperrors.NewConflictError(ReasonAlreadyCompleted)
	}
	if err := validation.ValidateDonationAmount(value); err != nil {
		return err
	}
	if c.RaisedAmount.Add(value).GreaterThan(amount.MaxWei) {
		return apperrors.NewValidationError("amount", validation.ReasonDonationTooLarge)
	}

	contributed, err := s.repo.GetContribution(ctx, id, donor)
	if err != nil {
		return apperrors.NewStorageError("get contribution", err)
	}

	donation := &models.Donation{
		CampaignID: id,
		Seq:        c.DonationCount,
		Donor:      donor,
		Amount:     value,
		Timestamp:  now.UTC(),
	}
	c.DonationCount++
	c.RaisedAmount = c.RaisedAmount.Add(value)
	reached := c.RaisedAmount.GreaterThanOrEqual(c.TargetAmount)
	c.TargetReached = reached

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.repo.UpdateTx(ctx, tx, c); err != nil {
		return apperrors.NewStorageError("update campaign", err)
	}
	if err := s.repo.AddDonationTx(ctx, tx, donation); err != nil {
		return apperrors.NewStorageError("add donation", err)
	}
	err = s.repo.SetContributionTx(ctx, tx, &models.Contribution{
		CampaignID: id,
		Donor:      donor,
		Amount:     contributed.Add(value),
	})
	if err != nil {
		return apperrors.NewStorageError("set contribution", err)
	}
	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("commit donation", err)
	}

	s.metrics.AddDonated(value)
	logger.Info().
		Uint64("campaign_id", id).
		Str("donor", donor).
		Str("amount", value.String()).
		Str("raised", c.RaisedAmount.String()).
		Msg("Donation received")

	s.publisher.Publish(ctx, eventmodels.Event{
		Type:         eventmodels.DonationReceived,
		CampaignID:   &id,
		Actor:        donor,
		Donor:        donor,
		Amount:       eventmodels.Decimal(value),
		RaisedAmount: eventmodels.Decimal(c.RaisedAmount),
	})
	if reached {
		logger.Info().Uint64("campaign_id", id).Msg("Campaign target reached")
		s.publisher.Publish(ctx, eventmodels.Event{
			Type:         eventmodels.CampaignTargetReached,
			CampaignID:   &id,
			Actor:        donor,
			Owner:        c.Owner,
			TargetAmount: eventmodels.Decimal(c.TargetAmount),
			RaisedAmount: eventmodels.Decimal(c.RaisedAmount),
		})
	}
	return nil
}

func (s *campaignService) GetCampaignDonations(ctx context.Context, id uint64) ([]*models.DonationResponse, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	list, err := s.repo.GetDonations(ctx, id)
	if err != nil {
		return nil, apperrors.NewStorageError("get donations", err)
	}
	return mapper.ToDonationResponses(list), nil
}

func (s *campaignService) GetDonorContribution(ctx context.Context, id uint64, donor string) (*models.ContributionResponse, error) {
	addr, err := address.Normalize(donor)
	if err != nil {
		return nil, apperrors.NewValidationError("address", "Invalid address")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	total, err := s.repo.GetContribution(ctx, id, addr)
	if err != nil {
		return nil, apperrors.NewStorageError("get contribution", err)
	}
	return mapper.ToContributionResponse(id, addr, total), nil
}

// WithdrawFunds releases the escrow of a completed campaign to its owner.
// The ledger write and the transfer succeed together or not at all.
func (s *campaignService) WithdrawFunds(ctx context.Context, caller string, id uint64) (resp *models.WithdrawResponse, err error) {
	defer func() { s.finish(accessmodels.OpWithdrawFunds, &id, caller, err) }()

	release, err := s.acquire(ctx, lockKey(id))
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.Authorize(ctx, accessmodels.OpWithdrawFunds, caller, accessmodels.Resource{Owner: c.Owner}); err != nil {
		return nil, err
	}
	if !c.IsCompleted(s.now()) {
		return nil, apperrors.NewConflictError(ReasonStillActive).WithDetail("deadline", c.Deadline)
	}
	if c.FundsWithdrawn {
		return nil, apperrors.NewConflictError(ReasonAlreadyWithdrawn)
	}

	released := c.RaisedAmount
	c.CompletedAmount = released
	c.RaisedAmount = decimal.Zero
	c.FundsWithdrawn = true

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("begin transaction", err)
	}
	defer tx.Rollback()

	if err := s.repo.UpdateTx(ctx, tx, c); err != nil {
		return nil, apperrors.NewStorageError("update campaign", err)
	}

	resp = &models.WithdrawResponse{
		CampaignID: id,
		Owner:      c.Owner,
		Amount:     released.String(),
		AmountEth:  amount.Ether(released),
	}

	if released.IsPositive() {
		payout, err := s.transferer.Transfer(ctx, custody.TransferRequest{
			CampaignID: id,
			To:         c.Owner,
			Amount:     released,
		})
		if err != nil {
			return nil, apperrors.NewTransferError(err)
		}
		resp.Reference = payout.Reference
		if resp.Reference == "" {
			resp.Reference = payout.ID
		}

		if err := tx.Commit(); err != nil {
			s.compensate(ctx, id, payout, err)
			return nil, apperrors.NewStorageError("commit withdrawal", err)
		}
	} else if err := tx.Commit(); err != nil {
		return nil, apperrors.NewStorageError("commit withdrawal", err)
	}

	s.metrics.AddWithdrawn(released)
	logger.Info().
		Uint64("campaign_id", id).
		Str("owner", c.Owner).
		Str("amount", released.String()).
		Str("reference", resp.Reference).
		Msg("Funds withdrawn")

	s.publisher.Publish(ctx, eventmodels.Event{
		Type:       eventmodels.FundsWithdrawn,
		CampaignID: &id,
		Actor:      c.Owner,
		Owner:      c.Owner,
		Amount:     eventmodels.Decimal(released),
	})
	return resp, nil
}

// compensate undoes a payout whose ledger write did not commit. On-chain
// payouts cannot be undone and are left for manual reconciliation.
func (s *campaignService) compensate(ctx context.Context, id uint64, payout *custodymodels.Payout, cause error) {
	if reverser, ok := s.transferer.(custody.Reverser); ok {
		// The request may be gone, the reversal still has to land.
		err := reverser.Reverse(context.WithoutCancel(ctx), payout)
		if err == nil {
			logger.Warn().
				Err(cause).
				Uint64("campaign_id", id).
				Str("payout_id", payout.ID).
				Msg("Withdrawal commit failed, payout reversed")
			return
		}
		cause = fmt.Errorf("%v; reverse: %w", cause, err)
	}
	logger.Error().
		Err(cause).
		Uint64("campaign_id", id).
		Str("payout_id", payout.ID).
		Str("reference", payout.Reference).
		Str("amount", payout.Amount.String()).
		Msg("Withdrawal commit failed after transfer, reconcile manually")
}

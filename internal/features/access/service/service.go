package service

import (
	"context"
	"fmt"
	"time"

	"crowdfunding-ledger-backend/internal/common/address"
	apperrors "crowdfunding-ledger-backend/internal/common/errors"
	"crowdfunding-ledger-backend/internal/common/lock"
	"crowdfunding-ledger-backend/internal/common/logger"
	"crowdfunding-ledger-backend/internal/common/metrics"
	"crowdfunding-ledger-backend/internal/features/access/models"
	"crowdfunding-ledger-backend/internal/features/access/repository"
	"crowdfunding-ledger-backend/internal/features/events"
	eventmodels "crowdfunding-ledger-backend/internal/features/events/models"
)

type accessService struct {
	repo repository.RoleRepository
	// authority answers Authorize. It differs from repo when repo is a
	// cache, which may serve a role that was just revoked.
	authority repository.RoleRepository
	locker    lock.Locker
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*accessService)

// WithAuthority makes Authorize read roles from authority instead of the
// service repository. Used when the repository is a read-through cache.
func WithAuthority(authority repository.RoleRepository) Option {
	return func(s *accessService) { s.authority = authority }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *accessService) { s.now = now }
}

func NewAccessService(
	repo repository.RoleRepository,
	locker lock.Locker,
	publisher events.Publisher,
	m *metrics.Metrics,
	opts ...Option,
) AccessService {
	s := &accessService{
		repo:      repo,
		locker:    locker,
		publisher: publisher,
		metrics:   m,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.authority == nil {
		s.authority = repo
	}
	return s
}

func (s *accessService) Bootstrap(ctx context.Context, admin string, creators []string) error {
	adminAddr, err := address.Normalize(admin)
	if err != nil {
		return fmt.Errorf("admin address: %w", err)
	}

	release, err := s.locker.Lock(ctx, models.RolesLockKey)
	if err != nil {
		return err
	}
	defer release()

	now := s.now().UTC()
	current, err := s.repo.GetAdmin(ctx)
	if err != nil {
		return apperrors.NewStorageError("get admin", err)
	}
	if current == "" {
		if err := s.repo.SetAdmin(ctx, adminAddr, adminAddr, now); err != nil {
			return apperrors.NewStorageError("set admin", err)
		}
		if _, err := s.repo.AddCreator(ctx, adminAddr, adminAddr, now); err != nil {
			return apperrors.NewStorageError("add creator", err)
		}
		logger.Info().Str("admin", adminAddr).Msg("Access registry initialized")
		current = adminAddr
	} else if current != adminAddr {
		logger.Warn().
			Str("configured", adminAddr).
			Str("stored", current).
			Msg("Stored admin differs from configured admin, keeping stored")
	}

	for _, raw := range creators {
		addr, err := address.Normalize(raw)
		if err != nil {
			return fmt.Errorf("creator address: %w", err)
		}
		if _, err := s.repo.AddCreator(ctx, addr, current, now); err != nil {
			return apperrors.NewStorageError("add creator", err)
		}
	}
	return nil
}

func (s *accessService) HasRole(ctx context.Context, role models.Role, account string) (bool, error) {
	return hasRole(ctx, s.repo, role, account)
}

func hasRole(ctx context.Context, repo repository.RoleRepository, role models.Role, account string) (bool, error) {
	addr, err := address.Normalize(account)
	if err != nil {
		return false, errInvalidAddress("address")
	}

	switch role {
	case models.RoleAdmin:
		admin, err := repo.GetAdmin(ctx)
		if err != nil {
			return false, apperrors.NewStorageError("get admin", err)
		}
		return admin != "" && admin == addr, nil
	case models.RoleCampaignCreator:
		ok, err := repo.IsCreator(ctx, addr)
		if err != nil {
			return false, apperrors.NewStorageError("check creator", err)
		}
		return ok, nil
	default:
		return false, nil
	}
}

func (s *accessService) GetAdmin(ctx context.Context) (string, error) {
	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		return "", apperrors.NewStorageError("get admin", err)
	}
	return admin, nil
}

func (s *accessService) ListCreators(ctx context.Context) ([]models.RoleAssignment, error) {
	list, err := s.repo.ListCreators(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("list creators", err)
	}
	return list, nil
}

func (s *accessService) GrantCampaignCreatorRole(ctx context.Context, caller, account string) (err error) {
	defer func() { s.metrics.ObserveOperation(string(models.OpGrantRole), err) }()

	addr, err := address.Normalize(account)
	if err != nil {
		return errInvalidAddress("address")
	}

	release, err := s.locker.Lock(ctx, models.RolesLockKey)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeLockTimeout, "Ledger is busy, retry later")
	}
	defer release()

	if err := s.Authorize(ctx, models.OpGrantRole, caller, models.Resource{}); err != nil {
		return err
	}

	added, err := s.repo.AddCreator(ctx, addr, caller, s.now().UTC())
	if err != nil {
		return apperrors.NewStorageError("add creator", err)
	}
	if !added {
		return nil
	}

	logger.Info().Str("account", addr).Str("admin", caller).Msg("Campaign creator role granted")
	s.publisher.Publish(ctx, eventmodels.Event{
		Type:    eventmodels.RoleGranted,
		Actor:   caller,
		Role:    string(models.RoleCampaignCreator),
		Account: addr,
	})
	return nil
}

func (s *accessService) RevokeCampaignCreatorRole(ctx context.Context, caller, account string) (err error) {
	defer func() { s.metrics.ObserveOperation(string(models.OpRevokeRole), err) }()

	addr, err := address.Normalize(account)
	if err != nil {
		return errInvalidAddress("address")
	}

	release, err := s.locker.Lock(ctx, models.RolesLockKey)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeLockTimeout, "Ledger is busy, retry later")
	}
	defer release()

	if err := s.Authorize(ctx, models.OpRevokeRole, caller, models.Resource{}); err != nil {
		return err
	}

	removed, err := s.repo.RemoveCreator(ctx, addr)
	if err != nil {
		return apperrors.NewStorageError("remove creator", err)
	}
	if !removed {
		return nil
	}

	logger.Info().Str("account", addr).Str("admin", caller).Msg("Campaign creator role revoked")
	s.publisher.Publish(ctx, eventmodels.Event{
		Type:    eventmodels.RoleRevoked,
		Actor:   caller,
		Role:    string(models.RoleCampaignCreator),
		Account: addr,
	})
	return nil
}

// TransferAdmin hands the admin role to newAdmin. The registry always has
// exactly one admin, there is no way to leave it empty.
func (s *accessService) TransferAdmin(ctx context.Context, caller, newAdmin string) (err error) {
	defer func() { s.metrics.ObserveOperation(string(models.OpTransferAdmin), err) }()

	addr, err := address.Normalize(newAdmin)
	if err != nil {
		return errInvalidAddress("address")
	}

	release, err := s.locker.Lock(ctx, models.RolesLockKey)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeLockTimeout, "Ledger is busy, retry later")
	}
	defer release()

	if err := s.Authorize(ctx, models.OpTransferAdmin, caller, models.Resource{}); err != nil {
		return err
	}
	if address.Equal(addr, caller) {
		return nil
	}

	if err := s.repo.SetAdmin(ctx, addr, caller, s.now().UTC()); err != nil {
		return apperrors.NewStorageError("set admin", err)
	}

	logger.Info().Str("from", caller).Str("to", addr).Msg("Admin role transferred")
	s.publisher.Publish(ctx, eventmodels.Event{
		Type:    eventmodels.AdminTransferred,
		Actor:   caller,
		Role:    string(models.RoleAdmin),
		Account: addr,
	})
	return nil
}

func (s *accessService) Authorize(ctx context.Context, op models.Operation, actor string, resource models.Resource) error {
	switch op {
	case models.OpDonate:
		return nil

	case models.OpCreateCampaign:
		ok, err := hasRole(ctx, s.authority, models.RoleCampaignCreator, actor)
		if err != nil {
			return s.denyOnLookup(err, apperrors.NewUnauthorizedError(ReasonNotCreator))
		}
		if !ok {
			return apperrors.NewUnauthorizedError(ReasonNotCreator)
		}
		return nil

	case models.OpWithdrawFunds:
		if !address.Equal(actor, resource.Owner) {
			return apperrors.NewForbiddenError(ReasonNotOwner)
		}
		return nil

	case models.OpDeleteCampaign:
		if address.Equal(actor, resource.Owner) {
			return nil
		}
		ok, err := hasRole(ctx, s.authority, models.RoleAdmin, actor)
		if err != nil {
			return s.denyOnLookup(err, apperrors.NewForbiddenError(ReasonDeleteNotOwner))
		}
		if !ok {
			return apperrors.NewForbiddenError(ReasonDeleteNotOwner)
		}
		return nil

	case models.OpGrantRole, models.OpRevokeRole, models.OpTransferAdmin:
		ok, err := hasRole(ctx, s.authority, models.RoleAdmin, actor)
		if err != nil {
			return s.denyOnLookup(err, apperrors.NewUnauthorizedError(ReasonNotAdmin))
		}
		if !ok {
			return apperrors.NewUnauthorizedError(ReasonNotAdmin)
		}
		return nil

	default:
		return apperrors.NewForbiddenError(fmt.Sprintf("Unknown operation %q", op))
	}
}

// denyOnLookup keeps storage failures visible and maps a malformed actor
// address to the plain denial.
func (s *accessService) denyOnLookup(err error, denial error) error {
	if apperrors.HasCode(err, apperrors.ErrCodeValidation) {
		return denial
	}
	return err
}

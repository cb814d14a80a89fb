package strategies

import (
	"context"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/identity"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// FullIdentityStrategy creates an IdentityProfile row. Re-creating the same
// signing address is a no-op, matching the idempotence invariant every
// strategy carries.
type FullIdentityStrategy struct {
	persist *persistence.Client
}

func NewFullIdentityStrategy(persist *persistence.Client) *FullIdentityStrategy {
	return &FullIdentityStrategy{persist: persist}
}

// Apply implements registry.IndexStrategy.
func (s *FullIdentityStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.FullIdentityPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a full-identity payload", t.Unsigned.TransactionId)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := identity.NewRepository(uow.Querier())
	if err := repo.InsertIfAbsent(ctx, identity.Profile{
		PublicSigningAddress: payload.PublicSigningAddress,
		Alias:                payload.Alias,
		ShortAlias:           payload.ShortAlias,
		PublicEncryptAddress: payload.PublicEncryptAddress,
		IsPublic:             payload.IsPublic,
		BlockIndex:           blockIndex,
	}); err != nil {
		return fmt.Errorf("inserting identity profile: %w", err)
	}

	return uow.CommitAsync()
}

// UpdateIdentityStrategy changes an existing profile's alias and publishes
// IdentityUpdated for any RPC-facing cache to invalidate (spec §4.12).
type UpdateIdentityStrategy struct {
	persist *persistence.Client
	bus     *eventbus.Bus
}

func NewUpdateIdentityStrategy(persist *persistence.Client, bus *eventbus.Bus) *UpdateIdentityStrategy {
	return &UpdateIdentityStrategy{persist: persist, bus: bus}
}

// Apply implements registry.IndexStrategy.
func (s *UpdateIdentityStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.UpdateIdentityPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not an update-identity payload", t.Unsigned.TransactionId)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := identity.NewRepository(uow.Querier())
	changed, err := repo.UpdateAlias(ctx, payload.PublicSigningAddress, payload.Alias, blockIndex)
	if err != nil {
		return fmt.Errorf("updating identity alias: %w", err)
	}

	if err := uow.CommitAsync(); err != nil {
		return err
	}

	if changed {
		s.bus.PublishIdentityUpdated(eventbus.IdentityUpdated{PublicSigningAddress: payload.PublicSigningAddress})
	}
	return nil
}

// Package identity is the Identity bounded context: public profiles keyed
// by signing address.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// Profile is IdentityProfile from spec §3.
type Profile struct {
	PublicSigningAddress string
	Alias                string
	ShortAlias           string
	PublicEncryptAddress string
	IsPublic             bool
	BlockIndex           ids.BlockIndex
}

type Repository struct {
	q persistence.Querier
}

func NewRepository(q persistence.Querier) *Repository { return &Repository{q: q} }

// Get reads a profile by signing address.
func (r *Repository) Get(ctx context.Context, publicSigningAddress string) (Profile, error) {
	var p Profile
	row := r.q.QueryRowContext(ctx, `
		SELECT public_signing_address, alias, short_alias, public_encrypt_address, is_public, block_index
		FROM identity_profiles WHERE public_signing_address = $1`, publicSigningAddress)
	err := row.Scan(&p.PublicSigningAddress, &p.Alias, &p.ShortAlias, &p.PublicEncryptAddress, &p.IsPublic, &p.BlockIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, persistence.ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("reading identity profile: %w", persistence.ClassifyConnErr(err))
	}
	return p, nil
}

// InsertIfAbsent creates the profile row; a pre-existing row is left untouched.
func (r *Repository) InsertIfAbsent(ctx context.Context, p Profile) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO identity_profiles (public_signing_address, alias, short_alias, public_encrypt_address, is_public, block_index)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (public_signing_address) DO NOTHING`,
		p.PublicSigningAddress, p.Alias, p.ShortAlias, p.PublicEncryptAddress, p.IsPublic, int64(p.BlockIndex))
	if err != nil {
		return fmt.Errorf("inserting identity profile: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// UpdateAlias updates alias + BlockIndex on an existing row; it is a no-op
// if the row does not exist (UpdateIdentityStrategy only mutates profiles
// that were already created).
func (r *Repository) UpdateAlias(ctx context.Context, publicSigningAddress, alias string, blockIndex ids.BlockIndex) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		UPDATE identity_profiles SET alias = $2, block_index = $3
		WHERE public_signing_address = $1`, publicSigningAddress, alias, int64(blockIndex))
	if err != nil {
		return false, fmt.Errorf("updating identity profile: %w", persistence.ClassifyConnErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reading rows affected: %w", err)
	}
	return n > 0, nil
}

// SearchByDisplayName does a prefix search over alias, backing
// HushIdentity.SearchByDisplayName (spec §6).
func (r *Repository) SearchByDisplayName(ctx context.Context, partial string) ([]Profile, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT public_signing_address, alias, short_alias, public_encrypt_address, is_public, block_index
		FROM identity_profiles WHERE alias LIKE $1 || '%' ORDER BY alias LIMIT 50`, partial)
	if err != nil {
		return nil, fmt.Errorf("searching identity profiles: %w", persistence.ClassifyConnErr(err))
	}
	defer rows.Close()

	var profiles []Profile
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.PublicSigningAddress, &p.Alias, &p.ShortAlias, &p.PublicEncryptAddress, &p.IsPublic, &p.BlockIndex); err != nil {
			return nil, fmt.Errorf("scanning identity profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

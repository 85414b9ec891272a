// Package bootstrap provides startup-time initialization routines
// such as seeding the superuser account.
package bootstrap

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/seojin/crm-dispatch/internal/auth"
	"github.com/seojin/crm-dispatch/internal/storage"
)

// SeedSuperuser ensures a superuser account exists for the given email.
// It is idempotent: an existing user with that email is left untouched.
// Superusers belong to no tenant; their queries run unscoped.
func SeedSuperuser(ctx context.Context, queries storage.Querier, log zerolog.Logger, email string) error {
	existing, err := queries.GetUserByEmail(ctx, email)
	if err == nil {
		log.Info().Str("email", email).Str("user_id", existing.ID.String()).Msg("superuser already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	user, err := queries.CreateUser(ctx, storage.CreateUserParams{
		Email: email,
		Name:  "Superuser",
		Role:  auth.RoleSuperuser,
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("email", email).
		Str("user_id", user.ID.String()).
		Msg("superuser seeded successfully")

	return nil
}

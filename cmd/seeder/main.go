// Command seeder populates a demo tenant with audience groups, leads, a
// template, and a campaign, then issues a login session for the demo user
// and prints its token. Intended for local development.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/seojin/crm-dispatch/internal/config"
	"github.com/seojin/crm-dispatch/internal/logger"
	"github.com/seojin/crm-dispatch/internal/storage"
)

func main() {
	cfg, err := config.Load("config")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)

	ctx := context.Background()
	db, err := storage.NewDB(ctx, cfg.Database.URL, cfg.Database.PoolMin, cfg.Database.PoolMax, cfg.Database.ConnectTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	queries := storage.New(db.Pool)

	tenant, err := queries.CreateTenant(ctx, storage.CreateTenantParams{Name: "Acme Demo"})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create demo tenant (already seeded?)")
	}
	log.Info().Str("tenant_id", tenant.ID.String()).Msg("demo tenant created")

	user, err := queries.CreateUser(ctx, storage.CreateUserParams{
		TenantID: pgtype.UUID{Bytes: tenant.ID, Valid: true},
		Email:    "demo@acme.test",
		Name:     "Demo User",
		Role:     "member",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create demo user")
	}

	groups := make(map[string]uuid.UUID)
	for _, name := range []string{"newsletter", "vip"} {
		group, err := queries.CreateAudienceGroup(ctx, storage.CreateAudienceGroupParams{
			TenantID: tenant.ID,
			Name:     name,
		})
		if err != nil {
			log.Fatal().Err(err).Str("group", name).Msg("failed to create audience group")
		}
		groups[name] = group.ID
	}

	leads := []struct {
		email  string
		name   string
		groups []string
	}{
		{"amy@example.com", "Amy Park", []string{"newsletter"}},
		{"ben@example.com", "Ben Cho", []string{"newsletter", "vip"}},
		{"cid@example.com", "Cid Lee", []string{"vip"}},
		{"", "No Address", []string{"newsletter"}}, // excluded from dispatches
	}
	for _, l := range leads {
		lead, err := queries.CreateLead(ctx, storage.CreateLeadParams{
			TenantID: tenant.ID,
			Email:    l.email,
			Name:     l.name,
		})
		if err != nil {
			log.Fatal().Err(err).Str("email", l.email).Msg("failed to create lead")
		}
		for _, g := range l.groups {
			if err := queries.AddLeadToGroup(ctx, storage.AddLeadToGroupParams{
				GroupID: groups[g],
				LeadID:  lead.ID,
			}); err != nil {
				log.Fatal().Err(err).Msg("failed to add lead to group")
			}
		}
	}

	template, err := queries.CreateTemplate(ctx, storage.CreateTemplateParams{
		TenantID: tenant.ID,
		Name:     "welcome",
		Subject:  "Welcome, {{name}}!",
		Body:     `<html><body><p>Hi {{name}}, thanks for joining {{group}}.</p><a href="https://example.com/start">Get started</a></body></html>`,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create template")
	}

	campaign, err := queries.CreateCampaign(ctx, storage.CreateCampaignParams{
		TenantID:   tenant.ID,
		Name:       "onboarding",
		TemplateID: pgtype.UUID{Bytes: template.ID, Valid: true},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create campaign")
	}

	token, err := newSessionToken()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to generate session token")
	}
	if _, err := queries.CreateSession(ctx, storage.CreateSessionParams{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(30 * 24 * time.Hour), Valid: true},
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to create session")
	}

	log.Info().Msg("demo data seeded")
	fmt.Printf("tenant:        %s\n", tenant.ID)
	fmt.Printf("template:      %s\n", template.ID)
	fmt.Printf("campaign:      %s\n", campaign.ID)
	for name, id := range groups {
		fmt.Printf("group %-8s %s\n", name+":", id)
	}
	fmt.Printf("session token: %s\n", token)
}

// newSessionToken produces an opaque 256-bit token.
func newSessionToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

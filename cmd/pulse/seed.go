package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/mood"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/tenant"
	"github.com/teampulse/pulse/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo company with an admin, a member and a team",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	demoCompany  = "Acme Demo"
	demoPassword = "Pulse2024"
)

var (
	demoAdmin  = user.SignupInput{Email: "admin@acme.test", Password: demoPassword, FirstName: "Ada", LastName: "Admin"}
	demoMember = user.SignupInput{Email: "max@acme.test", Password: demoPassword, FirstName: "Max", LastName: "Member"}
)

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	// Check if seed has already run.
	_, err = a.userStore.GetByEmail(ctx, demoAdmin.Email)
	if err == nil {
		slog.Info("demo data already exists, skipping seed")
		return nil
	}
	if !database.IsNoRows(err) {
		return fmt.Errorf("checking existing users: %w", err)
	}

	demoAdmin.Company = user.CompanyRef{Name: demoCompany}
	admin, err := a.users.Signup(ctx, demoAdmin)
	if err != nil {
		return fmt.Errorf("creating demo admin: %w", err)
	}
	demoMember.Company = user.CompanyRef{ID: admin.CompanyID}
	member, err := a.users.Signup(ctx, demoMember)
	if err != nil {
		return fmt.Errorf("creating demo member: %w", err)
	}

	scope := tenant.Scope{CompanyID: admin.CompanyID, UserID: admin.ID}
	t, err := a.teams.Create(ctx, scope, team.CreateTeamInput{TeamName: "Core"})
	if err != nil {
		return fmt.Errorf("creating demo team: %w", err)
	}
	lead := true
	if _, err := a.integrity.ReassignUser(ctx, scope.CompanyID, member.ID, user.MembershipChange{
		Team:       user.NullableID{Set: true, ID: &t.ID},
		IsTeamlead: &lead,
	}); err != nil {
		return fmt.Errorf("assigning demo member: %w", err)
	}

	today := mood.NewDate(time.Now()).String()
	memberScope := tenant.Scope{CompanyID: member.CompanyID, UserID: member.ID}
	if _, err := a.moods.Create(ctx, memberScope, mood.CreateEntryInput{Score: 4, Date: today}); err != nil {
		return fmt.Errorf("creating demo mood entry: %w", err)
	}

	slog.Info("seeded demo company", "company_id", admin.CompanyID, "team_id", t.ID)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n=== Demo Data Seeded ===\n")
	fmt.Fprintf(out, "Company:   %s (%s)\n", demoCompany, admin.CompanyID)
	fmt.Fprintf(out, "Admin:     %s / %s\n", demoAdmin.Email, demoPassword)
	fmt.Fprintf(out, "Member:    %s / %s (lead of %s)\n", demoMember.Email, demoPassword, t.TeamName)
	fmt.Fprintf(out, "\nTry it:\n")
	fmt.Fprintf(out, "  curl -X POST -d '{\"email\":%q,\"password\":%q}' http://%s/api/auth/login\n", demoAdmin.Email, demoPassword, cfg.Addr())
	return nil
}

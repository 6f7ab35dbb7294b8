package integrity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/teampulse/pulse/internal/apperr"
	"github.com/teampulse/pulse/internal/database"
	"github.com/teampulse/pulse/internal/team"
	"github.com/teampulse/pulse/internal/user"
)

// Operation names reported to observers.
const (
	OpDeleteUser      = "delete_user"
	OpDeleteTeam      = "delete_team"
	OpAssignTeamLeads = "assign_team_leads"
	OpReassignUser    = "reassign_user"
)

const (
	msgUserNotFound   = "User not found."
	msgTeamNotFound   = "Team not found."
	msgSelfDelete     = "You cannot delete your own account."
	msgTeamHasMembers = "Cannot delete team: users are still assigned to this team. Please reassign all users to other teams first."
	msgTeamRequired   = "Cannot remove team without providing a replacement."
	msgLeadNeedsTeam  = "A team lead must be assigned to a team."
	msgLeadNotMember  = "Team leads must be members of the team."
	msgUnknownLead    = "Team lead not found."
)

// Observer is told the outcome ("ok", or the failing error kind) of every
// coordinator operation.
type Observer func(op, outcome string)

// Coordinator performs the cascading updates that keep users, teams and mood
// entries consistent.
type Coordinator struct {
	tx        TxRunner
	retention Retention
	observers []Observer
}

// New creates a coordinator. An empty retention means RetainDetached.
func New(tx TxRunner, retention Retention, observers ...Observer) *Coordinator {
	if retention == "" {
		retention = RetainDetached
	}
	return &Coordinator{tx: tx, retention: retention, observers: observers}
}

// Retention returns the mood entry policy applied on user deletion.
func (c *Coordinator) Retention() Retention {
	return c.retention
}

func (c *Coordinator) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	for _, fn := range c.observers {
		fn(op, outcome)
	}
}

// DeleteUser removes a user and every reference other entities hold to it.
// References are cleared before the user row goes, all in one transaction.
func (c *Coordinator) DeleteUser(ctx context.Context, companyID, actorID, userID uuid.UUID) (err error) {
	defer func() { c.observe(OpDeleteUser, err) }()

	if actorID == userID {
		return apperr.Authorization(msgSelfDelete)
	}

	var leads, teams, companies, entries int64
	err = c.tx.InTx(ctx, func(r Repos) error {
		if _, err := r.Users.GetByIDForUpdate(ctx, companyID, userID); err != nil {
			if database.IsNoRows(err) {
				return apperr.NotFound(msgUserNotFound)
			}
			return err
		}

		var err error
		if leads, err = r.Teams.RemoveLeadEverywhere(ctx, companyID, userID); err != nil {
			return err
		}
		if teams, err = r.Teams.ClearCreator(ctx, companyID, userID); err != nil {
			return err
		}
		if companies, err = r.Companies.ClearCreator(ctx, companyID, userID); err != nil {
			return err
		}

		switch c.retention {
		case RetainNone:
			entries, err = r.Moods.DeleteByAuthor(ctx, companyID, userID)
		default:
			entries, err = r.Moods.DetachAuthor(ctx, companyID, userID)
		}
		if err != nil {
			return err
		}

		n, err := r.Users.Delete(ctx, companyID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound(msgUserNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	entriesKey := "entries_detached"
	if c.retention == RetainNone {
		entriesKey = "entries_deleted"
	}
	slog.Info("user deleted",
		"company_id", companyID,
		"user_id", userID,
		"leads_removed", leads,
		"teams_orphaned", teams,
		"companies_orphaned", companies,
		entriesKey, entries,
	)
	return nil
}

// DeleteTeam deletes an empty team. A team that still has members is not
// touched; the members are reported so the caller can reassign them.
func (c *Coordinator) DeleteTeam(ctx context.Context, companyID, teamID uuid.UUID) (err error) {
	defer func() { c.observe(OpDeleteTeam, err) }()

	err = c.tx.InTx(ctx, func(r Repos) error {
		if _, err := r.Teams.GetByID(ctx, companyID, teamID); err != nil {
			if database.IsNoRows(err) {
				return apperr.NotFound(msgTeamNotFound)
			}
			return err
		}

		if err := blockingMembers(ctx, r.Users, companyID, teamID); err != nil {
			return err
		}

		n, err := r.Teams.Delete(ctx, companyID, teamID)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.NotFound(msgTeamNotFound)
		}
		return nil
	})

	// A member joined between the check and the delete. Report who, from a
	// fresh transaction since the failed one is unusable.
	if database.IsForeignKeyViolation(err, team.MembersKey) {
		slog.Warn("team delete lost race with member assignment", "team_id", teamID)
		fkErr := err
		err = c.tx.InTx(ctx, func(r Repos) error {
			return blockingMembers(ctx, r.Users, companyID, teamID)
		})
		if err == nil {
			err = apperr.Wrap(apperr.KindConflict, msgTeamHasMembers, fkErr)
		}
	}
	if err != nil {
		return err
	}

	slog.Info("team deleted", "company_id", companyID, "team_id", teamID)
	return nil
}

func blockingMembers(ctx context.Context, users UserRepo, companyID, teamID uuid.UUID) error {
	members, err := users.ListByTeam(ctx, companyID, teamID)
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	refs := make([]apperr.UserRef, 0, len(members))
	for _, m := range members {
		refs = append(refs, m.Ref())
	}
	return apperr.ConflictWithUsers(msgTeamHasMembers, refs)
}

// AssignTeamLeads replaces a team's lead set. Every lead must be a member of
// the team. Members dropped from the set lose their isTeamlead flag. A non-nil
// rename, already validated, is applied in the same transaction.
func (c *Coordinator) AssignTeamLeads(ctx context.Context, companyID, teamID uuid.UUID, leadIDs []uuid.UUID, rename *string) (t *team.Team, err error) {
	defer func() { c.observe(OpAssignTeamLeads, err) }()

	ids := dedupe(leadIDs)
	err = c.tx.InTx(ctx, func(r Repos) error {
		if _, err := r.Teams.GetByID(ctx, companyID, teamID); err != nil {
			if database.IsNoRows(err) {
				return apperr.NotFound(msgTeamNotFound)
			}
			return err
		}

		leads, err := r.Users.ListByIDsForUpdate(ctx, companyID, ids)
		if err != nil {
			return err
		}
		if len(leads) != len(ids) {
			return apperr.Validation(msgUnknownLead)
		}
		for _, u := range leads {
			if !u.InTeam(teamID) {
				return apperr.Validation(msgLeadNotMember)
			}
		}

		if rename != nil {
			if err := r.Teams.Rename(ctx, companyID, teamID, *rename); err != nil {
				return team.RenameError(err)
			}
		}
		if err := r.Teams.ReplaceLeads(ctx, teamID, ids); err != nil {
			return err
		}
		if err := r.Users.SyncTeamleadFlags(ctx, companyID, teamID, ids); err != nil {
			return err
		}

		t, err = r.Teams.GetByID(ctx, companyID, teamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ReassignUser moves a user between teams and toggles team leadership. A user
// leaving a team, or stepping down, is removed from that team's lead set.
func (c *Coordinator) ReassignUser(ctx context.Context, companyID, userID uuid.UUID, change user.MembershipChange) (u *user.User, err error) {
	defer func() { c.observe(OpReassignUser, err) }()

	err = c.tx.InTx(ctx, func(r Repos) error {
		current, err := r.Users.GetByIDForUpdate(ctx, companyID, userID)
		if err != nil {
			if database.IsNoRows(err) {
				return apperr.NotFound(msgUserNotFound)
			}
			return err
		}

		teamID := current.TeamID
		isLead := current.IsTeamlead
		if change.Team.Set {
			if change.Team.ID == nil && current.TeamID != nil {
				return apperr.Validation(msgTeamRequired)
			}
			if change.Team.ID != nil {
				if _, err := r.Teams.GetByID(ctx, companyID, *change.Team.ID); err != nil {
					if database.IsNoRows(err) {
						return apperr.NotFound(msgTeamNotFound)
					}
					return err
				}
				if !current.InTeam(*change.Team.ID) {
					isLead = false
				}
			}
			teamID = change.Team.ID
		}
		if change.IsTeamlead != nil {
			isLead = *change.IsTeamlead
		}
		if isLead && teamID == nil {
			return apperr.Validation(msgLeadNeedsTeam)
		}

		moved := current.TeamID != nil && (teamID == nil || *teamID != *current.TeamID)
		if current.TeamID != nil && (moved || !isLead) {
			if err := r.Teams.RemoveLead(ctx, *current.TeamID, userID); err != nil {
				return err
			}
		}
		if isLead {
			if err := r.Teams.AddLead(ctx, *teamID, userID); err != nil {
				return err
			}
		}

		u, err = r.Users.SetMembership(ctx, companyID, userID, teamID, isLead)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

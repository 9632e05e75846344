package user

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// Queries is the subset of the generated querier used for account administration.
type Queries interface {
	CountUsers(ctx context.Context) (int64, error)
	ListUsers(ctx context.Context, arg dbgen.ListUsersParams) ([]dbgen.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (dbgen.User, error)
	UpdateUserAccess(ctx context.Context, arg dbgen.UpdateUserAccessParams) (dbgen.User, error)
	DeleteUser(ctx context.Context, id pgtype.UUID) (int64, error)
	DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error
}

// AccessInput changes roles and/or the active flag. Nil fields are left alone.
type AccessInput struct {
	Roles  []string
	Active *bool
}

// Service lets administrators manage accounts.
type Service struct {
	Q Queries
}

// List returns one page of accounts, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) ([]auth.User, int64, error) {
	total, err := s.Q.CountUsers(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Q.ListUsers(ctx, dbgen.ListUsersParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users := lo.Map(rows, func(u dbgen.User, _ int) auth.User { return auth.ToUser(u) })
	return users, total, nil
}

// UpdateAccess changes roles or activation. Admins cannot demote or
// deactivate themselves. Deactivation revokes all sessions of the account.
func (s *Service) UpdateAccess(ctx context.Context, actorID, targetID string, in AccessInput) (auth.User, error) {
	id, err := common.ParseUUID(targetID)
	if err != nil {
		return auth.User{}, common.ErrNotFound("user")
	}
	current, err := s.Q.GetUserByID(ctx, id)
	if err != nil {
		if common.IsNoRows(err) {
			return auth.User{}, common.ErrNotFound("user")
		}
		return auth.User{}, fmt.Errorf("load user: %w", err)
	}

	params := dbgen.UpdateUserAccessParams{ID: id, Roles: current.Roles, Active: current.Active}
	if in.Roles != nil {
		params.Roles = lo.Uniq(in.Roles)
	}
	if in.Active != nil {
		params.Active = *in.Active
	}

	if actorID == targetID {
		if !params.Active || !lo.Contains(params.Roles, auth.RoleAdmin) {
			return auth.User{}, common.NewAppError("SELF_MODIFICATION", "admins cannot demote or deactivate themselves", http.StatusConflict, nil)
		}
	}

	updated, err := s.Q.UpdateUserAccess(ctx, params)
	if err != nil {
		return auth.User{}, fmt.Errorf("update user access: %w", err)
	}
	if current.Active && !updated.Active {
		if err := s.Q.DeleteSessionsByUser(ctx, id); err != nil {
			return auth.User{}, fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return auth.ToUser(updated), nil
}

// Delete removes an account. Invoices and customers owned by the account
// are removed by the database cascade.
func (s *Service) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return common.NewAppError("SELF_MODIFICATION", "admins cannot delete themselves", http.StatusConflict, nil)
	}
	id, err := common.ParseUUID(targetID)
	if err != nil {
		return common.ErrNotFound("user")
	}
	affected, err := s.Q.DeleteUser(ctx, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound("user")
	}
	return nil
}

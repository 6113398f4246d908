package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
)

// Policy controls whether missing references are created on the fly.
type Policy struct {
	AutoCreateAccount  bool `json:"autoCreateAccount"`
	AutoCreateCategory bool `json:"autoCreateCategory"`
}

// Resolution is the outcome of resolving one row. CreatedCategory and
// CreatedAccount are set whenever the entity was created, even if a later
// step failed the row.
type Resolution struct {
	Transaction     repository.NewTransaction
	Warnings        []string
	CreatedCategory string
	CreatedAccount  string
}

// EntityResolver turns the textual references of a ParsedRow into entity ids.
type EntityResolver struct {
	gateway repository.Gateway
	actor   repository.User
}

// NewEntityResolver creates a resolver acting on behalf of actor
func NewEntityResolver(gateway repository.Gateway, actor repository.User) *EntityResolver {
	return &EntityResolver{gateway: gateway, actor: actor}
}

// Resolve resolves category, then account, then owner. The first failure
// stops resolution, so owner warnings are only produced for rows that resolve.
func (r *EntityResolver) Resolve(ctx context.Context, row ParsedRow, cache *ReferenceCache, policy Policy) (Resolution, error) {
	var res Resolution

	categoryID, created, err := r.resolveCategory(ctx, row, cache, policy)
	if created {
		res.CreatedCategory = row.CategoryName
	}
	if err != nil {
		return res, err
	}

	accountID, created, err := r.resolveAccount(ctx, row, cache, policy)
	if created {
		res.CreatedAccount = row.AccountName
	}
	if err != nil {
		return res, err
	}

	userID, warning := r.resolveOwner(row, cache)
	if warning != "" {
		res.Warnings = append(res.Warnings, warning)
	}

	res.Transaction = repository.NewTransaction{
		Date:        row.Date,
		Type:        row.Type,
		Amount:      row.Amount,
		Description: row.Description,
		CategoryID:  categoryID,
		AccountID:   accountID,
		UserID:      userID,
	}
	return res, nil
}

func (r *EntityResolver) resolveCategory(ctx context.Context, row ParsedRow, cache *ReferenceCache, policy Policy) (*uuid.UUID, bool, error) {
	name := row.CategoryName
	if name == "" || name == NoCategory {
		return nil, false, nil
	}

	if category, ok := cache.FindCategory(name); ok {
		id := category.ID
		return &id, false, nil
	}

	if !policy.AutoCreateCategory {
		return nil, false, &UnknownCategoryError{Name: name, Suggestions: suggest(name, cache.CategoryNames())}
	}

	category, err := r.gateway.CreateCategory(ctx, name, row.Type)
	if err != nil {
		return nil, false, fmt.Errorf("create category %q: %w", name, err)
	}
	cache.RegisterCategory(*category)
	id := category.ID
	return &id, true, nil
}

func (r *EntityResolver) resolveAccount(ctx context.Context, row ParsedRow, cache *ReferenceCache, policy Policy) (uuid.UUID, bool, error) {
	name := row.AccountName

	if account, ok := cache.FindAccount(name); ok {
		return account.ID, false, nil
	}

	if !policy.AutoCreateAccount {
		return uuid.Nil, false, &UnknownAccountError{Name: name, Suggestions: suggest(name, cache.AccountNames())}
	}

	account, err := r.gateway.CreateAccount(ctx, name, repository.AccountTypeBank, decimal.Zero, r.actor.ID)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("create account %q: %w", name, err)
	}
	cache.RegisterAccount(*account)
	return account.ID, true, nil
}

// resolveOwner never fails: an unknown owner falls back to the actor with a warning.
func (r *EntityResolver) resolveOwner(row ParsedRow, cache *ReferenceCache) (uuid.UUID, string) {
	name := row.OwnerName
	if name == "" || name == r.actor.Name || name == r.actor.Email {
		return r.actor.ID, ""
	}

	if user, ok := cache.FindUser(name); ok {
		return user.ID, ""
	}

	return r.actor.ID, fmt.Sprintf("row %d: user %q not found, attributed to %q", row.Line, name, r.actor.DisplayName())
}

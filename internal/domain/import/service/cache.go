package service

import (
	"context"
	"fmt"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
)

// ReferenceCache holds the categories, accounts and users visible to one import
// run, keyed by exact name. It is loaded once and only grows through Register*.
// It is used by a single goroutine and is not safe for concurrent use.
type ReferenceCache struct {
	categories    map[string]repository.Category
	accounts      map[string]repository.Account
	users         map[string]repository.User
	categoryNames []string
	accountNames  []string
}

// NewReferenceCache builds a cache from already loaded entities. When two
// entities share a name the first one wins.
func NewReferenceCache(categories []repository.Category, accounts []repository.Account, users []repository.User) *ReferenceCache {
	c := &ReferenceCache{
		categories: make(map[string]repository.Category, len(categories)),
		accounts:   make(map[string]repository.Account, len(accounts)),
		users:      make(map[string]repository.User, len(users)*2),
	}
	for _, category := range categories {
		c.RegisterCategory(category)
	}
	for _, account := range accounts {
		c.RegisterAccount(account)
	}
	for _, user := range users {
		// A user is reachable by name or by email.
		for _, key := range []string{user.Name, user.Email} {
			if key == "" {
				continue
			}
			if _, exists := c.users[key]; !exists {
				c.users[key] = user
			}
		}
	}
	return c
}

// LoadReferenceCache reads global categories plus the accounts and users of
// the actor's household.
func LoadReferenceCache(ctx context.Context, gateway repository.Gateway, actor repository.User) (*ReferenceCache, error) {
	household := actor.Household()

	categories, err := gateway.FindCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	accounts, err := gateway.FindAccounts(ctx, household)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}
	users, err := gateway.FindUsers(ctx, household)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	return NewReferenceCache(categories, accounts, users), nil
}

// FindCategory looks up a category by exact name
func (c *ReferenceCache) FindCategory(name string) (repository.Category, bool) {
	category, ok := c.categories[name]
	return category, ok
}

// FindAccount looks up an account by exact name
func (c *ReferenceCache) FindAccount(name string) (repository.Account, bool) {
	account, ok := c.accounts[name]
	return account, ok
}

// FindUser looks up a household member by exact name or email
func (c *ReferenceCache) FindUser(nameOrEmail string) (repository.User, bool) {
	user, ok := c.users[nameOrEmail]
	return user, ok
}

// RegisterCategory adds a category unless one with the same name is already present.
func (c *ReferenceCache) RegisterCategory(category repository.Category) {
	if _, exists := c.categories[category.Name]; exists {
		return
	}
	c.categories[category.Name] = category
	c.categoryNames = append(c.categoryNames, category.Name)
}

// RegisterAccount adds an account unless one with the same name is already present.
func (c *ReferenceCache) RegisterAccount(account repository.Account) {
	if _, exists := c.accounts[account.Name]; exists {
		return
	}
	c.accounts[account.Name] = account
	c.accountNames = append(c.accountNames, account.Name)
}

// CategoryNames returns the known category names in registration order.
func (c *ReferenceCache) CategoryNames() []string {
	return c.categoryNames
}

// AccountNames returns the known account names in registration order.
func (c *ReferenceCache) AccountNames() []string {
	return c.accountNames
}

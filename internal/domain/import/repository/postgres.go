package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/household-ledger/pkg/money"
)

var tracer = otel.Tracer("household-ledger/import/repository")

// PostgresGateway implements Gateway using PostgreSQL.
// Amounts are stored in minor units of a single configured currency.
type PostgresGateway struct {
	db       DBTX
	currency string
}

// NewPostgresGateway creates a gateway storing amounts in currency (ISO-4217).
func NewPostgresGateway(db DBTX, currency string) *PostgresGateway {
	if currency == "" {
		currency = money.CNY
	}
	return &PostgresGateway{db: db, currency: currency}
}

// GetUser retrieves a user by ID
func (g *PostgresGateway) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	ctx, span := tracer.Start(ctx, "GetUser", trace.WithAttributes(attribute.String("user.id", id.String())))
	defer span.End()

	query := `
		SELECT id, COALESCE(name, ''), email, family_id, created_at
		FROM users
		WHERE id = $1`

	user := &User{}
	err := g.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.FamilyID,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindCategories returns all categories, oldest first
func (g *PostgresGateway) FindCategories(ctx context.Context) ([]Category, error) {
	ctx, span := tracer.Start(ctx, "FindCategories")
	defer span.End()

	query := `
		SELECT id, name, type, created_at
		FROM categories
		ORDER BY created_at, id`

	rows, err := g.db.Query(ctx, query)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	span.SetAttributes(attribute.Int("categories.count", len(categories)))
	return categories, nil
}

// FindAccounts returns every account owned by a member of the household, oldest first
func (g *PostgresGateway) FindAccounts(ctx context.Context, household HouseholdFilter) ([]Account, error) {
	ctx, span := tracer.Start(ctx, "FindAccounts")
	defer span.End()

	query := `
		SELECT a.id, a.name, a.type, a.balance_minor, a.user_id, a.created_at
		FROM accounts a
		JOIN users u ON u.id = a.user_id
		WHERE u.id = $1 OR u.family_id = $2
		ORDER BY a.created_at, a.id`

	rows, err := g.db.Query(ctx, query, household.UserID, household.FamilyID)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var (
			a            Account
			balanceMinor int64
		)
		if err := rows.Scan(&a.ID, &a.Name, &a.Type, &balanceMinor, &a.UserID, &a.CreatedAt); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		a.Balance = g.fromMinor(balanceMinor)
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))
	return accounts, nil
}

// FindUsers returns the members of the household, oldest first
func (g *PostgresGateway) FindUsers(ctx context.Context, household HouseholdFilter) ([]User, error) {
	ctx, span := tracer.Start(ctx, "FindUsers")
	defer span.End()

	query := `
		SELECT id, COALESCE(name, ''), email, family_id, created_at
		FROM users
		WHERE id = $1 OR family_id = $2
		ORDER BY created_at, id`

	rows, err := g.db.Query(ctx, query, household.UserID, household.FamilyID)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.FamilyID, &u.CreatedAt); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}

// CreateCategory inserts a new category
func (g *PostgresGateway) CreateCategory(ctx context.Context, name string, kind TransactionType) (*Category, error) {
	ctx, span := tracer.Start(ctx, "CreateCategory")
	defer span.End()

	query := `
		INSERT INTO categories (id, name, type)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	category := &Category{ID: uuid.New(), Name: name, Type: kind}
	err := g.db.QueryRow(ctx, query, category.ID, category.Name, category.Type).Scan(&category.CreatedAt)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

// CreateAccount inserts a new account owned by ownerID
func (g *PostgresGateway) CreateAccount(ctx context.Context, name string, kind AccountType, openingBalance decimal.Decimal, ownerID uuid.UUID) (*Account, error) {
	ctx, span := tracer.Start(ctx, "CreateAccount")
	defer span.End()

	query := `
		INSERT INTO accounts (id, name, type, balance_minor, currency_code, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	balanceMinor, err := money.ToMinor(openingBalance, g.currency)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("invalid opening balance %s: %w", openingBalance, err)
	}

	account := &Account{
		ID:      uuid.New(),
		Name:    name,
		Type:    kind,
		Balance: openingBalance,
		UserID:  ownerID,
	}
	err = g.db.QueryRow(ctx, query,
		account.ID,
		account.Name,
		account.Type,
		balanceMinor,
		g.currency,
		account.UserID,
	).Scan(&account.CreatedAt)
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return account, nil
}

// CreateTransaction inserts one imported transaction
func (g *PostgresGateway) CreateTransaction(ctx context.Context, tx NewTransaction) error {
	ctx, span := tracer.Start(ctx, "CreateTransaction")
	defer span.End()

	query := `
		INSERT INTO transactions (id, date, type, amount_minor, currency_code, description, category_id, account_id, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	amountMinor, err := money.ToMinor(tx.Amount, g.currency)
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("invalid amount %s: %w", tx.Amount, err)
	}

	_, err = g.db.Exec(ctx, query,
		uuid.New(),
		tx.Date,
		tx.Type,
		amountMinor,
		g.currency,
		tx.Description,
		tx.CategoryID,
		tx.AccountID,
		tx.UserID,
	)
	if err != nil {
		recordError(span, err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactions returns household transactions dated in [from, to), oldest first.
// A zero from or to leaves that side of the range open.
func (g *PostgresGateway) ListTransactions(ctx context.Context, household HouseholdFilter, from, to time.Time) ([]TransactionView, error) {
	ctx, span := tracer.Start(ctx, "ListTransactions")
	defer span.End()

	query := `
		SELECT t.id, t.date, t.type, t.amount_minor, t.currency_code, COALESCE(t.description, ''),
			COALESCE(c.name, ''), a.name, COALESCE(NULLIF(u.name, ''), u.email)
		FROM transactions t
		JOIN users u ON u.id = t.user_id
		JOIN accounts a ON a.id = t.account_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE (u.id = $1 OR u.family_id = $2)
			AND ($3::timestamptz IS NULL OR t.date >= $3)
			AND ($4::timestamptz IS NULL OR t.date < $4)
		ORDER BY t.date, t.created_at`

	rows, err := g.db.Query(ctx, query, household.UserID, household.FamilyID, nullableTime(from), nullableTime(to))
	if err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var views []TransactionView
	for rows.Next() {
		var (
			v           TransactionView
			amountMinor int64
		)
		if err := rows.Scan(
			&v.ID,
			&v.Date,
			&v.Type,
			&amountMinor,
			&v.CurrencyCode,
			&v.Description,
			&v.CategoryName,
			&v.AccountName,
			&v.UserName,
		); err != nil {
			recordError(span, err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		v.Amount = money.New(amountMinor, v.CurrencyCode).ToDecimal()
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		recordError(span, err)
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return views, nil
}

func (g *PostgresGateway) fromMinor(minor int64) decimal.Decimal {
	return money.New(minor, g.currency).ToDecimal()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

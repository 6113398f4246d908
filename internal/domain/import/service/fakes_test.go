package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/household-ledger/internal/domain/import/parser"
	"github.com/FACorreiaa/household-ledger/internal/domain/import/repository"
	"github.com/FACorreiaa/household-ledger/pkg/storage"
)

// fakeGateway is an in-memory repository.Gateway that records every call.
type fakeGateway struct {
	users        []repository.User
	categories   []repository.Category
	accounts     []repository.Account
	transactions []repository.NewTransaction
	views        []repository.TransactionView

	createCategoryCalls []string
	createAccountCalls  []string

	createTransactionErr func(tx repository.NewTransaction) error
	createAccountErr     error
	findErr              error
}

func (f *fakeGateway) GetUser(_ context.Context, id uuid.UUID) (*repository.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGateway) FindCategories(_ context.Context) ([]repository.Category, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return append([]repository.Category(nil), f.categories...), nil
}

func (f *fakeGateway) FindAccounts(_ context.Context, household repository.HouseholdFilter) ([]repository.Account, error) {
	members := make(map[uuid.UUID]bool)
	for _, u := range f.householdUsers(household) {
		members[u.ID] = true
	}
	var out []repository.Account
	for _, a := range f.accounts {
		if members[a.UserID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeGateway) FindUsers(_ context.Context, household repository.HouseholdFilter) ([]repository.User, error) {
	return f.householdUsers(household), nil
}

func (f *fakeGateway) householdUsers(household repository.HouseholdFilter) []repository.User {
	var out []repository.User
	for _, u := range f.users {
		if u.ID == household.UserID || (u.FamilyID != nil && *u.FamilyID == household.FamilyID) {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeGateway) CreateCategory(_ context.Context, name string, kind repository.TransactionType) (*repository.Category, error) {
	f.createCategoryCalls = append(f.createCategoryCalls, name)
	c := repository.Category{ID: uuid.New(), Name: name, Type: kind, CreatedAt: time.Now()}
	f.categories = append(f.categories, c)
	return &c, nil
}

func (f *fakeGateway) CreateAccount(_ context.Context, name string, kind repository.AccountType, openingBalance decimal.Decimal, ownerID uuid.UUID) (*repository.Account, error) {
	f.createAccountCalls = append(f.createAccountCalls, name)
	if f.createAccountErr != nil {
		return nil, f.createAccountErr
	}
	a := repository.Account{ID: uuid.New(), Name: name, Type: kind, Balance: openingBalance, UserID: ownerID, CreatedAt: time.Now()}
	f.accounts = append(f.accounts, a)
	return &a, nil
}

func (f *fakeGateway) CreateTransaction(_ context.Context, tx repository.NewTransaction) error {
	if f.createTransactionErr != nil {
		if err := f.createTransactionErr(tx); err != nil {
			return err
		}
	}
	f.transactions = append(f.transactions, tx)
	return nil
}

func (f *fakeGateway) ListTransactions(_ context.Context, _ repository.HouseholdFilter, _, _ time.Time) ([]repository.TransactionView, error) {
	return f.views, nil
}

func (f *fakeGateway) category(name string) *repository.Category {
	for i := range f.categories {
		if f.categories[i].Name == name {
			return &f.categories[i]
		}
	}
	return nil
}

func (f *fakeGateway) account(name string) *repository.Account {
	for i := range f.accounts {
		if f.accounts[i].Name == name {
			return &f.accounts[i]
		}
	}
	return nil
}

// sliceRows is a RowReader over prepared rows, optionally failing at the end.
type sliceRows struct {
	rows []parser.RawRow
	pos  int
	err  error
}

func newRows(rows ...parser.RawRow) *sliceRows {
	return &sliceRows{rows: rows}
}

func (r *sliceRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceRows) Row() parser.RawRow { return r.rows[r.pos-1] }
func (r *sliceRows) Err() error         { return r.err }
func (r *sliceRows) Close() error       { return nil }
func (r *sliceRows) Headers() []string  { return TemplateHeaders }

// rawRow builds the row at data index i (line i+2) from label/value pairs.
func rawRow(i int, cells map[string]string) parser.RawRow {
	return parser.RawRow{Line: i + parser.HeaderRows + 1, Cells: cells}
}

func exampleCells() map[string]string {
	return map[string]string{
		ColumnDate:        "2024-01-01 12:00:00",
		ColumnType:        "支出",
		ColumnAmount:      "50.00",
		ColumnCategory:    "餐饮",
		ColumnAccount:     "微信",
		ColumnDescription: "午餐",
		ColumnOwner:       "张三",
	}
}

func withCell(cells map[string]string, label, value string) map[string]string {
	out := make(map[string]string, len(cells))
	for k, v := range cells {
		out[k] = v
	}
	out[label] = value
	return out
}

// fakeRows generates n valid rows referencing the given account.
func fakeRows(faker *gofakeit.Faker, n int, account string) []parser.RawRow {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	rows := make([]parser.RawRow, n)
	for i := range rows {
		rows[i] = rawRow(i, map[string]string{
			ColumnDate:        faker.DateRange(start, end).Format("2006-01-02 15:04:05"),
			ColumnType:        faker.RandomString([]string{LabelIncome, LabelExpense}),
			ColumnAmount:      fmt.Sprintf("%.2f", faker.Price(1, 5000)),
			ColumnAccount:     account,
			ColumnDescription: faker.SentenceSimple(),
		})
	}
	return rows
}

func newActor(name string) repository.User {
	return repository.User{
		ID:    uuid.New(),
		Name:  name,
		Email: fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
	}
}

func newTestService(gw *fakeGateway) *ImportService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewImportService(gw, logger)
}

// recordingArchive is an UploadArchive keeping uploads in memory.
type recordingArchive struct {
	names []string
	data  [][]byte
	err   error
}

func (a *recordingArchive) Upload(_ context.Context, _ uuid.UUID, filename string, contentType string, r io.Reader) (*storage.FileInfo, error) {
	if a.err != nil {
		return nil, a.err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	a.names = append(a.names, filename)
	a.data = append(a.data, b)
	return &storage.FileInfo{ID: uuid.New(), Name: filename, Size: int64(len(b)), ContentType: contentType, CreatedAt: time.Now()}, nil
}

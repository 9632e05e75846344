package customer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/lo"

	"github.com/noah-isme/backend-invoice/internal/common"
	dbgen "github.com/noah-isme/backend-invoice/internal/db/gen"
)

// Queries is the subset of the generated querier used by the customer book.
type Queries interface {
	CreateCustomer(ctx context.Context, arg dbgen.CreateCustomerParams) (dbgen.Customer, error)
	GetCustomer(ctx context.Context, arg dbgen.GetCustomerParams) (dbgen.Customer, error)
	ListCustomers(ctx context.Context, arg dbgen.ListCustomersParams) ([]dbgen.Customer, error)
	CountCustomers(ctx context.Context, ownerID pgtype.UUID) (int64, error)
	UpdateCustomer(ctx context.Context, arg dbgen.UpdateCustomerParams) (dbgen.Customer, error)
	DeleteCustomer(ctx context.Context, arg dbgen.DeleteCustomerParams) (int64, error)
	CountInvoicesByCustomer(ctx context.Context, customerID pgtype.UUID) (int64, error)
}

// Invalidator drops cached per-owner aggregates after a write.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID string)
}

// Customer is the API view of a billed party.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email"`
	Phone     *string   `json:"phone"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Input carries the writable customer fields.
type Input struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Service manages the customers of one owner.
type Service struct {
	Q     Queries
	Cache Invalidator
}

// List returns one page of the owner's customers.
func (s *Service) List(ctx context.Context, ownerID string, page, perPage int) ([]Customer, int64, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Q.CountCustomers(ctx, owner)
	if err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}
	limit, offset := common.LimitOffset(page, perPage)
	rows, err := s.Q.ListCustomers(ctx, dbgen.ListCustomersParams{OwnerID: owner, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	return lo.Map(rows, func(c dbgen.Customer, _ int) Customer { return toCustomer(c) }), total, nil
}

// Get returns a single customer owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, id string) (Customer, error) {
	row, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Customer{}, err
	}
	return toCustomer(row), nil
}

// Load returns the stored row; used by collaborators that need the raw record.
func (s *Service) Load(ctx context.Context, ownerID, id string) (dbgen.Customer, error) {
	return s.load(ctx, ownerID, id)
}

// Create stores a new customer.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (Customer, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return Customer{}, err
	}
	row, err := s.Q.CreateCustomer(ctx, dbgen.CreateCustomerParams{
		OwnerID: owner,
		Name:    strings.TrimSpace(in.Name),
		Email:   common.Text(strings.ToLower(in.Email)),
		Phone:   common.Text(in.Phone),
		Address: common.Text(in.Address),
	})
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return toCustomer(row), nil
}

// Update replaces the writable fields of a customer.
func (s *Service) Update(ctx context.Context, ownerID, id string, in Input) (Customer, error) {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return Customer{}, err
	}
	row, err := s.Q.UpdateCustomer(ctx, dbgen.UpdateCustomerParams{
		ID:      current.ID,
		OwnerID: current.OwnerID,
		Name:    strings.TrimSpace(in.Name),
		Email:   common.Text(strings.ToLower(in.Email)),
		Phone:   common.Text(in.Phone),
		Address: common.Text(in.Address),
	})
	if err != nil {
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return toCustomer(row), nil
}

// Delete removes a customer that has no invoices.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	current, err := s.load(ctx, ownerID, id)
	if err != nil {
		return err
	}
	count, err := s.Q.CountInvoicesByCustomer(ctx, current.ID)
	if err != nil {
		return fmt.Errorf("count invoices: %w", err)
	}
	if count > 0 {
		return errInUse(count)
	}
	if _, err := s.Q.DeleteCustomer(ctx, dbgen.DeleteCustomerParams{ID: current.ID, OwnerID: current.OwnerID}); err != nil {
		if common.IsForeignKeyViolation(err) {
			return errInUse(1)
		}
		return fmt.Errorf("delete customer: %w", err)
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *Service) load(ctx context.Context, ownerID, id string) (dbgen.Customer, error) {
	owner, err := ownerUUID(ownerID)
	if err != nil {
		return dbgen.Customer{}, err
	}
	cid, err := common.ParseUUID(id)
	if err != nil {
		return dbgen.Customer{}, common.ErrNotFound("customer")
	}
	row, err := s.Q.GetCustomer(ctx, dbgen.GetCustomerParams{ID: cid, OwnerID: owner})
	if err != nil {
		if common.IsNoRows(err) {
			return dbgen.Customer{}, common.ErrNotFound("customer")
		}
		return dbgen.Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return row, nil
}

func (s *Service) invalidate(ctx context.Context, ownerID string) {
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, ownerID)
	}
}

func ownerUUID(ownerID string) (pgtype.UUID, error) {
	owner, err := common.ParseUUID(ownerID)
	if err != nil {
		return pgtype.UUID{}, common.ErrUnauthorized()
	}
	return owner, nil
}

func errInUse(count int64) *common.AppError {
	return common.NewAppError("CUSTOMER_IN_USE", "customer still has invoices", http.StatusConflict, nil).
		WithDetails(map[string]int64{"invoices": count})
}

func toCustomer(c dbgen.Customer) Customer {
	return Customer{
		ID:        common.UUIDString(c.ID),
		Name:      c.Name,
		Email:     common.TextValuePtr(c.Email),
		Phone:     common.TextValuePtr(c.Phone),
		Address:   common.TextValuePtr(c.Address),
		CreatedAt: common.TimeValue(c.CreatedAt),
		UpdatedAt: common.TimeValue(c.UpdatedAt),
	}
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	ledger "finbooks/internal/ledger/domain"
)

// AccountInput carries the caller-editable account fields.
type AccountInput struct {
	Code        string
	Name        string
	Type        ledger.AccountType
	ParentID    int64
	Description string
}

// ChartService handles chart-of-accounts use cases.
type ChartService struct {
	accounts ledger.AccountRepository
	logger   *log.Logger
}

// NewChartService constructs the service.
func NewChartService(accounts ledger.AccountRepository, logger *log.Logger) (*ChartService, error) {
	if accounts == nil {
		return nil, errors.New("chart service: nil account repository")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ChartService{accounts: accounts, logger: logger}, nil
}

// CreateAccount creates an account. An empty code is generated from the
// type prefix and a per-owner counter of accounts of that type.
func (s *ChartService) CreateAccount(ctx context.Context, ownerID int64, in AccountInput) (*ledger.Account, error) {
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidAccountType, in.Type)
	}
	if in.ParentID != 0 {
		if _, err := s.accounts.Get(ctx, ownerID, in.ParentID); err != nil {
			return nil, err
		}
	}

	code := strings.TrimSpace(in.Code)
	if code == "" {
		count, err := s.accounts.CountByType(ctx, ownerID, in.Type)
		if err != nil {
			return nil, err
		}
		code = fmt.Sprintf("%s%03d", in.Type.CodePrefix(), count+1)
	}

	account := &ledger.Account{
		Code:        code,
		Name:        in.Name,
		Type:        in.Type,
		ParentID:    in.ParentID,
		Description: in.Description,
		OwnerID:     ownerID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount loads one account.
func (s *ChartService) GetAccount(ctx context.Context, ownerID, id int64) (*ledger.Account, error) {
	return s.accounts.Get(ctx, ownerID, id)
}

// ListAccounts returns the owner's chart ordered by code.
func (s *ChartService) ListAccounts(ctx context.Context, ownerID int64) ([]ledger.Account, error) {
	return s.accounts.List(ctx, ownerID)
}

// ListBankAccounts returns asset accounts that look like bank accounts:
// code prefix 1002 or "bank" in the name.
func (s *ChartService) ListBankAccounts(ctx context.Context, ownerID int64) ([]ledger.Account, error) {
	all, err := s.accounts.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var out []ledger.Account
	for _, a := range all {
		if a.Type != ledger.AccountTypeAsset {
			continue
		}
		if strings.HasPrefix(a.Code, "1002") || strings.Contains(strings.ToLower(a.Name), "bank") {
			out = append(out, a)
		}
	}
	return out, nil
}

// UpdateAccount overwrites the caller-editable fields. Re-parenting walks
// the ancestor chain so an account can never become its own ancestor.
func (s *ChartService) UpdateAccount(ctx context.Context, ownerID, id int64, in AccountInput) (*ledger.Account, error) {
	account, err := s.accounts.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidAccountType, in.Type)
	}
	if in.ParentID != 0 {
		if in.ParentID == id {
			return nil, ledger.ErrParentCycle
		}
		if err := s.checkAncestry(ctx, ownerID, id, in.ParentID); err != nil {
			return nil, err
		}
	}

	if code := strings.TrimSpace(in.Code); code != "" {
		account.Code = code
	}
	account.Name = in.Name
	account.Type = in.Type
	account.ParentID = in.ParentID
	account.Description = in.Description
	if err := s.accounts.Update(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// checkAncestry rejects the re-parenting when id appears on the ancestor
// chain of parentID.
func (s *ChartService) checkAncestry(ctx context.Context, ownerID, id, parentID int64) error {
	seen := map[int64]bool{}
	for current := parentID; current != 0; {
		if current == id {
			return ledger.ErrParentCycle
		}
		if seen[current] {
			return ledger.ErrParentCycle
		}
		seen[current] = true
		parent, err := s.accounts.Get(ctx, ownerID, current)
		if err != nil {
			return err
		}
		current = parent.ParentID
	}
	return nil
}

// DeleteAccount removes an account.
func (s *ChartService) DeleteAccount(ctx context.Context, ownerID, id int64) error {
	return s.accounts.Delete(ctx, ownerID, id)
}

// EnsurePayableAccount returns the owner's lowest-coded account under the
// given code prefix, creating a zero-balance liability account when absent.
func (s *ChartService) EnsurePayableAccount(ctx context.Context, ownerID int64, codePrefix, name string) (*ledger.Account, error) {
	account, err := s.accounts.FirstByCodePrefix(ctx, ownerID, codePrefix)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &ledger.Account{
		Code:    codePrefix,
		Name:    name,
		Type:    ledger.AccountTypeLiability,
		OwnerID: ownerID,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	s.logger.Printf("chart: created payable account %s (%s) for owner %d", account.Code, account.Name, ownerID)
	return account, nil
}

// SeedDefaults populates an empty chart from the given seed. Owners that
// already have accounts are left untouched.
func (s *ChartService) SeedDefaults(ctx context.Context, ownerID int64, seed []SeedAccount) (int, error) {
	existing, err := s.accounts.List(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	idsByCode := make(map[string]int64, len(seed))
	created := 0
	for _, row := range seed {
		account := &ledger.Account{
			Code:        row.Code,
			Name:        row.Name,
			Type:        ledger.AccountType(row.Type),
			ParentID:    idsByCode[row.ParentCode],
			Description: row.Description,
			OwnerID:     ownerID,
		}
		if !account.Type.Valid() {
			return created, fmt.Errorf("%w: seed account %s has type %q", ledger.ErrInvalidAccountType, row.Code, row.Type)
		}
		if err := s.accounts.Create(ctx, account); err != nil {
			return created, err
		}
		idsByCode[row.Code] = account.ID
		created++
	}
	s.logger.Printf("chart: seeded %d accounts for owner %d", created, ownerID)
	return created, nil
}

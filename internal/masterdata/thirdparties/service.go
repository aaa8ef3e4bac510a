package thirdparties

import (
	"context"
	"fmt"
	"strings"

	"github.com/contaverde/contaverde/internal/masterdata/shared"
)

// ThirdPartyForm carries the fields accepted on create/update.
type ThirdPartyForm struct {
	CompanyID      int64        `json:"company_id" validate:"required"`
	Kind           Kind         `json:"kind" validate:"required,oneof=cliente proveedor ambos"`
	DocumentType   DocumentType `json:"document_type" validate:"required,oneof=CC CE TI PP NIT"`
	DocumentNumber string       `json:"document_number" validate:"required,numeric,min=6,max=20"`
	Name           string       `json:"name" validate:"required,max=200"`
	TradeName      string       `json:"trade_name" validate:"max=200"`
	Address        string       `json:"address" validate:"max=300"`
	City           string       `json:"city" validate:"max=100"`
	Phone          string       `json:"phone" validate:"max=20"`
	Email          string       `json:"email" validate:"omitempty,email"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]ThirdParty, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (ThirdParty, error) {
	if id <= 0 {
		return ThirdParty{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByDocument(ctx context.Context, companyID int64, documentNumber string) (ThirdParty, error) {
	return s.repo.GetByDocument(ctx, companyID, documentNumber)
}

func (s *Service) Create(ctx context.Context, form ThirdPartyForm) (ThirdParty, error) {
	if err := s.validate(form); err != nil {
		return ThirdParty{}, err
	}
	return s.repo.Create(ctx, fromForm(form))
}

func (s *Service) Update(ctx context.Context, id int64, form ThirdPartyForm) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(form); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, fromForm(form))
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Deactivate(ctx, id)
}

func (s *Service) validate(form ThirdPartyForm) error {
	if form.CompanyID <= 0 {
		return fmt.Errorf("%w: company_id", shared.ErrRequiredField)
	}
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	switch form.Kind {
	case KindCustomer, KindSupplier, KindBoth:
	default:
		return fmt.Errorf("%w: kind %q", shared.ErrValidation, form.Kind)
	}
	doc := strings.TrimSpace(form.DocumentNumber)
	if len(doc) < 6 || len(doc) > 20 {
		return fmt.Errorf("%w: document number must be 6-20 digits", shared.ErrValidation)
	}
	for _, r := range doc {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: document number must contain only digits", shared.ErrValidation)
		}
	}
	return nil
}

func fromForm(form ThirdPartyForm) ThirdParty {
	return ThirdParty{
		CompanyID:      form.CompanyID,
		Kind:           form.Kind,
		DocumentType:   form.DocumentType,
		DocumentNumber: strings.TrimSpace(form.DocumentNumber),
		Name:           form.Name,
		TradeName:      form.TradeName,
		Address:        form.Address,
		City:           form.City,
		Phone:          form.Phone,
		Email:          form.Email,
	}
}

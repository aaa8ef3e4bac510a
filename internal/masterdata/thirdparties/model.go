package thirdparties

import (
	"time"
)

// Kind classifies a third party's commercial role.
type Kind string

const (
	KindCustomer Kind = "cliente"
	KindSupplier Kind = "proveedor"
	KindBoth     Kind = "ambos"
)

// DocumentType enumerates Colombian identification document types.
type DocumentType string

const (
	DocCC  DocumentType = "CC"
	DocCE  DocumentType = "CE"
	DocTI  DocumentType = "TI"
	DocPP  DocumentType = "PP"
	DocNIT DocumentType = "NIT"
)

// ThirdParty is a tercero: a customer, supplier or both, scoped to a
// company. `(company, document number)` is unique.
type ThirdParty struct {
	ID             int64        `json:"id"`
	CompanyID      int64        `json:"company_id"`
	Kind           Kind         `json:"kind"`
	DocumentType   DocumentType `json:"document_type"`
	DocumentNumber string       `json:"document_number"`
	Name           string       `json:"name"`
	TradeName      string       `json:"trade_name"`
	Address        string       `json:"address"`
	City           string       `json:"city"`
	Phone          string       `json:"phone"`
	Email          string       `json:"email"`
	Active         bool         `json:"active"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// IsCustomer reports whether the third party can appear on invoices.
func (t ThirdParty) IsCustomer() bool { return t.Kind == KindCustomer || t.Kind == KindBoth }

// IsSupplier reports whether the third party can receive disbursements.
func (t ThirdParty) IsSupplier() bool { return t.Kind == KindSupplier || t.Kind == KindBoth }

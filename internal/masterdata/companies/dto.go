package companies

// CompanyForm carries the fields accepted when creating or updating a
// company. The NIT keeps its check digit as entered ("900123456-7").
type CompanyForm struct {
	NIT     string `json:"nit" validate:"required,max=20"`
	Name    string `json:"name" validate:"required,max=200"`
	Address string `json:"address" validate:"max=300"`
}

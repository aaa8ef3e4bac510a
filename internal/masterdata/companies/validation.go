package companies

import (
	"fmt"
	"strings"

	"github.com/contaverde/contaverde/internal/masterdata/shared"
)

func (s *Service) validate(form CompanyForm) error {
	if strings.TrimSpace(form.NIT) == "" {
		return fmt.Errorf("%w: nit", shared.ErrRequiredField)
	}
	if strings.TrimSpace(form.Name) == "" {
		return fmt.Errorf("%w: name", shared.ErrRequiredField)
	}
	for _, r := range form.NIT {
		if (r < '0' || r > '9') && r != '-' {
			return fmt.Errorf("%w: nit must be digits with optional check digit", shared.ErrValidation)
		}
	}
	return nil
}

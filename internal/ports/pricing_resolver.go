package ports

import "github.com/emiliopalmerini/mobserve/internal/domain"

// PricingResolver looks up per-million-token pricing for a model id.
type PricingResolver interface {
	Lookup(model string) (domain.ModelPricing, bool)
}

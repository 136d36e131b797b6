package capreg

import (
	"github.com/alpacahq/gocaptable/mailer"
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/service/conversion"
	"github.com/alpacahq/gocaptable/service/registry"
	"github.com/alpacahq/gocaptable/service/round"
	"github.com/alpacahq/gocaptable/service/security"
	"github.com/alpacahq/gocaptable/service/waterfall"
)

var Services registry.Registry

type capRegistry struct{}

func (r *capRegistry) CapTable() captable.CapTableService {
	return captable.Service()
}

func (r *capRegistry) Security() security.SecurityService {
	return security.Service()
}

func (r *capRegistry) Round() round.RoundService {
	return round.Service()
}

func (r *capRegistry) Conversion() conversion.ConversionService {
	return conversion.Service(mailer.SendConversion)
}

func (r *capRegistry) Waterfall() waterfall.WaterfallService {
	return waterfall.Service(r.CapTable())
}

func init() {
	Services = &capRegistry{}
}

package registry

import (
	"github.com/alpacahq/gocaptable/service/captable"
	"github.com/alpacahq/gocaptable/service/conversion"
	"github.com/alpacahq/gocaptable/service/round"
	"github.com/alpacahq/gocaptable/service/security"
	"github.com/alpacahq/gocaptable/service/waterfall"
)

type Registry interface {
	CapTable() captable.CapTableService
	Security() security.SecurityService
	Round() round.RoundService
	Conversion() conversion.ConversionService
	Waterfall() waterfall.WaterfallService
}

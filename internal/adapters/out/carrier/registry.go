package carrier

import (
	"fmt"
	"slices"
	"strings"

	"shipping/internal/core/ports"
	"shipping/internal/pkg/errs"
)

// Registry maps enabled carrier codes to their gateways.
type Registry struct {
	gateways map[string]ports.CarrierGateway
	codes    []string
}

func NewRegistry(gateways ...ports.CarrierGateway) (*Registry, error) {
	r := &Registry{gateways: make(map[string]ports.CarrierGateway, len(gateways))}
	for _, gw := range gateways {
		code := strings.ToLower(gw.Code())
		if _, dup := r.gateways[code]; dup {
			return nil, errs.NewValueIsInvalidErrorWithCause("carrier", fmt.Errorf("%q registered twice", code))
		}
		r.gateways[code] = gw
		r.codes = append(r.codes, code)
	}
	slices.Sort(r.codes)
	return r, nil
}

func (r *Registry) Get(code string) (ports.CarrierGateway, error) {
	gw, ok := r.gateways[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnknownCarrier, code)
	}
	return gw, nil
}

func (r *Registry) Enabled() []string {
	return slices.Clone(r.codes)
}

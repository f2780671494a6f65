package rate

import (
	"sort"

	"shipping/internal/core/domain/model/kernel"
)

// Source tells where an option's price came from.
type Source string

const (
	SourceLive       Source = "live"
	SourceFallback   Source = "fallback"
	SourceNoLiveRate Source = "no_live_rate"
)

// Option is one priced carrier service.
type Option struct {
	Carrier       string
	ServiceCode   string
	DisplayName   string
	Price         kernel.Money
	EstimatedDays int
	Source        Source
}

// Matches reports whether the option is the given carrier service.
func (o Option) Matches(carrier, serviceCode string) bool {
	return o.Carrier == carrier && o.ServiceCode == serviceCode
}

// SortOptions orders by carrier, then price ascending, then service code.
func SortOptions(options []Option) {
	sort.SliceStable(options, func(i, j int) bool {
		a, b := options[i], options[j]
		if a.Carrier != b.Carrier {
			return a.Carrier < b.Carrier
		}
		if c := a.Price.Amount().Cmp(b.Price.Amount()); c != 0 {
			return c < 0
		}
		return a.ServiceCode < b.ServiceCode
	})
}

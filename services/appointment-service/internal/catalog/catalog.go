// Package catalog provides the read-only service catalog the core consumes
// for service_type membership checks and display-name resolution.
package catalog

// Service is one offerable service type.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Provider is the injected catalog dependency. Implementations are expected
// to be immutable for the lifetime of a request.
type Provider interface {
	Services() []Service
	Has(id string) bool
	DisplayName(id string) (string, bool)
}

// Static is a fixed in-memory catalog.
type Static struct {
	services []Service
	byID     map[string]Service
}

func NewStatic(services ...Service) *Static {
	byID := make(map[string]Service, len(services))
	for _, s := range services {
		byID[s.ID] = s
	}
	return &Static{services: services, byID: byID}
}

func (c *Static) Services() []Service {
	out := make([]Service, len(c.services))
	copy(out, c.services)
	return out
}

func (c *Static) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

func (c *Static) DisplayName(id string) (string, bool) {
	s, ok := c.byID[id]
	return s.Name, ok
}

// Builtin returns the catalog of on-site services currently offered.
func Builtin() *Static {
	return NewStatic(
		Service{
			ID:          "pc-repair",
			Name:        "PC/Laptop Repair & Support",
			Description: "Complete hardware and software troubleshooting, virus removal, and system optimization.",
			Icon:        "🖥️",
		},
		Service{
			ID:          "networking",
			Name:        "Wi-Fi & Networking",
			Description: "Network setup, Wi-Fi optimization, router configuration, and connectivity solutions.",
			Icon:        "📶",
		},
		Service{
			ID:          "custom-builds",
			Name:        "Custom PC Builds",
			Description: "Custom computer builds tailored to your needs - gaming, business, or workstations.",
			Icon:        "⚙️",
		},
		Service{
			ID:          "business-support",
			Name:        "Business IT Support",
			Description: "Comprehensive IT support for small businesses including maintenance and consulting.",
			Icon:        "🏢",
		},
		Service{
			ID:          "general-consult",
			Name:        "General Consultation",
			Description: "Expert IT consultation and advice for your technology needs and planning.",
			Icon:        "💡",
		},
	)
}

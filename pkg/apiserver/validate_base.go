package apiserver

import (
	"fmt"
	"regexp"

	"github.com/Ghulam-Bahoo/Control-of-IPoWDM-sliced-Networks/pkg/model"
)

// validIDPattern matches safe resource identifiers: alphanumeric, dots,
// underscores, hyphens. Max 253 characters (DNS label limit). Rejects path
// traversal, null bytes, and newlines.
var validIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,253}$`)

// ValidateID checks that a resource ID is safe to use as a path parameter
// or store key.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if !validIDPattern.MatchString(id) {
		return fmt.Errorf("id %q contains invalid characters (allowed: a-z A-Z 0-9 . _ -)", id)
	}
	return nil
}

// ValidatePOP checks that a POP has valid fields.
func ValidatePOP(p *model.POP) error {
	if err := ValidateID(p.ID); err != nil {
		return fmt.Errorf("pop: %w", err)
	}
	return nil
}

// ValidateRouter checks that a Router has valid fields.
func ValidateRouter(r *model.Router) error {
	if err := ValidateID(r.ID); err != nil {
		return fmt.Errorf("router: %w", err)
	}
	if r.POPID == "" {
		return fmt.Errorf("router %q: pop_id is required", r.ID)
	}
	return nil
}

// ValidateLink checks that a Link has valid fields.
func ValidateLink(l *model.Link) error {
	if err := ValidateID(l.ID); err != nil {
		return fmt.Errorf("link: %w", err)
	}
	if l.POPA == "" || l.POPB == "" {
		return fmt.Errorf("link %q: pop_a and pop_b are required", l.ID)
	}
	if l.DistanceKm < 0 {
		return fmt.Errorf("link %q: distance_km must be non-negative", l.ID)
	}
	return nil
}

// ValidateInterface checks that an Interface has valid fields.
func ValidateInterface(i *model.Interface) error {
	if err := ValidateID(i.ID); err != nil {
		return fmt.Errorf("interface: %w", err)
	}
	if i.RouterID == "" {
		return fmt.Errorf("interface %q: router_id is required", i.ID)
	}
	return nil
}

// ValidateVOp checks that a VOp activation request has valid fields.
func ValidateVOp(v *model.VOp) error {
	if err := ValidateID(v.ID); err != nil {
		return fmt.Errorf("vop: %w", err)
	}
	if len(v.Interfaces) == 0 {
		return fmt.Errorf("vop %q: at least one interface assignment is required", v.ID)
	}
	for i, ref := range v.Interfaces {
		if ref.POPID == "" || ref.RouterID == "" || ref.InterfaceID == "" {
			return fmt.Errorf("vop %q: interface assignment[%d] is incomplete", v.ID, i)
		}
	}
	return nil
}

// ValidateConnection checks that a connection creation request has valid
// fields.
func ValidateConnection(c *model.Connection) error {
	if err := ValidateID(c.ID); err != nil {
		return fmt.Errorf("connection: %w", err)
	}
	if c.VOpID == "" {
		return fmt.Errorf("connection %q: vop_id is required", c.ID)
	}
	if c.SourcePOP == "" || c.DestPOP == "" {
		return fmt.Errorf("connection %q: source_pop and dest_pop are required", c.ID)
	}
	if c.BandwidthGbps <= 0 {
		return fmt.Errorf("connection %q: bandwidth_gbps must be positive", c.ID)
	}
	return nil
}

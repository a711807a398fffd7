package discovery

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/discovery-api/internal/model"
	"github.com/sells-group/discovery-api/pkg/google"
)

// ParseAddress turns Places address components into a structured address.
// Unrecognized components are ignored and missing ones stay empty. It never
// fails: any error yields the zero ParsedAddress.
func ParseAddress(components []google.AddressComponent) model.ParsedAddress {
	addr, err := parseAddress(components)
	if err != nil {
		return model.ParsedAddress{}
	}
	return addr
}

func parseAddress(components []google.AddressComponent) (addr model.ParsedAddress, err error) {
	defer func() {
		if r := recover(); r != nil {
			addr = model.ParsedAddress{}
			err = eris.New(fmt.Sprintf("discovery: parse address: %v", r))
		}
	}()

	for _, c := range components {
		switch {
		case hasType(c.Types, "street_number"):
			addr.StreetNumber = c.LongName
		case hasType(c.Types, "route"):
			addr.StreetName = c.LongName
		case hasType(c.Types, "locality"):
			addr.City = c.LongName
		case hasType(c.Types, "administrative_area_level_1"):
			addr.State = c.ShortName
		case hasType(c.Types, "postal_code"):
			addr.ZipCode = c.LongName
		case hasType(c.Types, "country"):
			addr.Country = c.ShortName
		}
	}

	parts := make([]string, 0, 2)
	for _, p := range []string{addr.StreetNumber, addr.StreetName} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	addr.Address = strings.Join(parts, " ")
	return addr, nil
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

package protocol

import "fmt"

// USB identity of the supported dongles.
const (
	VendorID uint16 = 0x3710

	ProductID1K uint16 = 0x5402
	ProductID8K uint16 = 0x5406
)

// Variant is the dongle class, which constrains the maximum polling rate.
type Variant int

const (
	Variant1K Variant = iota
	Variant8K
)

func (v Variant) String() string {
	switch v {
	case Variant1K:
		return "1K"
	case Variant8K:
		return "8K"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// MaxPollingRate returns the highest polling rate the variant supports, in Hz.
func (v Variant) MaxPollingRate() int {
	if v == Variant8K {
		return 8000
	}
	return 1000
}

// Descriptor identifies one attached dongle. It is resolved once when a
// session opens and is immutable afterwards.
type Descriptor struct {
	VendorID  uint16
	ProductID uint16
	Variant   Variant
}

// NewDescriptor derives a Descriptor from USB identity. Unknown product IDs
// are rejected rather than guessed at.
func NewDescriptor(vendorID, productID uint16) (Descriptor, error) {
	if vendorID != VendorID {
		return Descriptor{}, fmt.Errorf("protocol: unknown vendor id 0x%04x", vendorID)
	}
	d := Descriptor{VendorID: vendorID, ProductID: productID}
	switch productID {
	case ProductID1K:
		d.Variant = Variant1K
	case ProductID8K:
		d.Variant = Variant8K
	default:
		return Descriptor{}, fmt.Errorf("protocol: unknown product id 0x%04x", productID)
	}
	return d, nil
}

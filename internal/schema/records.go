package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Order type discriminator values.
const (
	OrderReadyMade = "ready_made"
	OrderCustom    = "custom"
)

// OrderTypes lists the closed type enum. Membership is a caller concern;
// the store itself accepts any string.
func OrderTypes() []string {
	return []string{OrderReadyMade, OrderCustom}
}

// Order lifecycle statuses. The store imposes no transition rules; any
// status may follow any other.
const (
	StatusPending   = "pending"
	StatusInOven    = "in_oven"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// Statuses lists the closed status enum in display order.
func Statuses() []string {
	return []string{StatusPending, StatusInOven, StatusReady, StatusDelivered, StatusCanceled}
}

// DateLayout is the calendar-date format for Order.DeliveryDate. No time of
// day, no timezone; an empty string means unscheduled.
const DateLayout = "2006-01-02"

// Record is one stored value of some kind. Key returns the primary-key field;
// uniqueness of that key per kind is the only invariant the store enforces
// (upsert semantics: same key overwrites).
type Record interface {
	Key() string
}

// Flavor is one catalog entry. Names are compared byte-for-byte at the
// storage layer; "Chocolate" and "chocolate" are two records.
type Flavor struct {
	Name       string  `json:"name"`
	PricePerKg float64 `json:"pricePerKg"`
}

// Key implements Record.
func (f *Flavor) Key() string { return f.Name }

// Validate checks key presence only.
func (f *Flavor) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("flavor name is required")
	}
	return nil
}

// Client is one customer record. The id is opaque and generated by the
// caller at creation time; the store never generates keys.
type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Key implements Record.
func (c *Client) Key() string { return c.ID }

// Validate checks key presence only.
func (c *Client) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("client id is required")
	}
	return nil
}

// Order is one cake order. ClientID/ClientName/ClientPhone are captured by
// value at sale time; ClientID is a weak reference and may dangle after the
// client is deleted.
type Order struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"`
	WeightKg float64 `json:"weightKg"`
	Flavor   string  `json:"flavor"`
	Filling  string  `json:"filling,omitempty"`
	Price    float64 `json:"price"`

	ClientID    string `json:"clientId,omitempty"`
	ClientName  string `json:"clientName,omitempty"`
	ClientPhone string `json:"clientPhone,omitempty"`

	// DeliveryDate is a DateLayout calendar date; empty means unscheduled.
	// Unscheduled orders are excluded from date-indexed lookups.
	DeliveryDate string    `json:"deliveryDate,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`

	Note       string  `json:"note,omitempty"`
	Decorated  bool    `json:"decorated,omitempty"`
	DecorPrice float64 `json:"decorPrice,omitempty"`
}

// Key implements Record.
func (o *Order) Key() string { return o.ID }

// Validate checks key presence only.
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	return nil
}

// ValidateRecord checks that rec is the right record type for kind and has a
// non-empty key. Backends call this before any write.
func ValidateRecord(kind Kind, rec Record) error {
	if rec == nil {
		return fmt.Errorf("nil record")
	}
	var ok bool
	switch kind {
	case KindFlavors:
		_, ok = rec.(*Flavor)
	case KindClients:
		_, ok = rec.(*Client)
	case KindOrders:
		_, ok = rec.(*Order)
	default:
		return fmt.Errorf("unknown record kind %q", kind)
	}
	if !ok {
		return fmt.Errorf("record type %T does not belong to kind %q", rec, kind)
	}
	if rec.Key() == "" {
		return fmt.Errorf("%s record has empty key", kind)
	}
	return nil
}

// DecodeList parses one serialized collection of the given kind. The input
// must be a JSON array of that kind's record shape.
func DecodeList(kind Kind, data []byte) ([]Record, error) {
	switch kind {
	case KindFlavors:
		var v []*Flavor
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse %s collection: %w", kind, err)
		}
		out := make([]Record, 0, len(v))
		for _, r := range v {
			out = append(out, r)
		}
		return out, nil
	case KindClients:
		var v []*Client
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse %s collection: %w", kind, err)
		}
		out := make([]Record, 0, len(v))
		for _, r := range v {
			out = append(out, r)
		}
		return out, nil
	case KindOrders:
		var v []*Order
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, fmt.Errorf("failed to parse %s collection: %w", kind, err)
		}
		out := make([]Record, 0, len(v))
		for _, r := range v {
			out = append(out, r)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}
}

// EncodeList serializes a collection for the flat backend. The result is a
// JSON array; an empty collection encodes as [].
func EncodeList(recs []Record) ([]byte, error) {
	if recs == nil {
		recs = []Record{}
	}
	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

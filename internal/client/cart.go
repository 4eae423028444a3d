package client

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// CartLine is one medicine from one pharmacy.
type CartLine struct {
	PharmacyID           string  `json:"pharmacyId"`
	MedicineID           int64   `json:"medicineId"`
	Name                 string  `json:"name"`
	PriceRWF             float64 `json:"priceRWF"`
	Quantity             int64   `json:"quantity"`
	RequiresPrescription bool    `json:"requiresPrescription"`
}

type cartKey struct {
	pharmacyID string
	medicineID int64
}

// Cart holds lines keyed by (pharmacy, medicine). A cart is not scoped to
// one pharmacy; checkout splits it per pharmacy. Safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []CartLine
	store Store
}

// NewCart returns an empty cart that is not persisted.
func NewCart() *Cart {
	return &Cart{}
}

// OpenCart restores the cart saved in store and persists every later
// change to it.
func OpenCart(store Store) (*Cart, error) {
	c := &Cart{store: store}
	var saved struct {
		Items []CartLine `json:"items"`
	}
	if _, err := store.Load(&saved); err != nil {
		return nil, err
	}
	for _, l := range saved.Items {
		if l.Quantity > 0 {
			c.lines = append(c.lines, l)
		}
	}
	return c, nil
}

func (c *Cart) find(k cartKey) int {
	for i, l := range c.lines {
		if l.PharmacyID == k.pharmacyID && l.MedicineID == k.medicineID {
			return i
		}
	}
	return -1
}

// Add puts line in the cart. Adding a (pharmacy, medicine) pair already
// present increases its quantity instead of adding a second line. A
// non-positive quantity counts as one.
func (c *Cart) Add(line CartLine) {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(cartKey{line.PharmacyID, line.MedicineID}); i >= 0 {
		c.lines[i].Quantity += line.Quantity
	} else {
		c.lines = append(c.lines, line)
	}
	c.persist()
}

func (c *Cart) Remove(pharmacyID string, medicineID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.find(cartKey{pharmacyID, medicineID}); i >= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		c.persist()
	}
}

// SetQuantity overwrites a line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(pharmacyID string, medicineID, quantity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.find(cartKey{pharmacyID, medicineID})
	if i < 0 {
		return
	}
	if quantity <= 0 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
	} else {
		c.lines[i].Quantity = quantity
	}
	c.persist()
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.persist()
}

// Total sums price times quantity over every line, whichever pharmacy
// owns it.
func (c *Cart) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total float64
	for _, l := range c.lines {
		total += l.PriceRWF * float64(l.Quantity)
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// Pharmacies lists the distinct pharmacies in the cart in first-appearance
// order, which is also the order checkout creates their orders in.
func (c *Cart) Pharmacies() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, l := range c.lines {
		if !seen[l.PharmacyID] {
			seen[l.PharmacyID] = true
			out = append(out, l.PharmacyID)
		}
	}
	return out
}

func (c *Cart) RequiresPrescription() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if l.RequiresPrescription {
			return true
		}
	}
	return false
}

// Checkout converts the cart into an order request.
func (c *Cart) Checkout(delivery bool, address, prescriptionRef string) PlaceOrderRequest {
	lines := c.Lines()
	req := PlaceOrderRequest{
		Items:           make([]OrderItem, 0, len(lines)),
		Delivery:        delivery,
		DeliveryAddress: address,
		PrescriptionRef: prescriptionRef,
	}
	for _, l := range lines {
		req.Items = append(req.Items, OrderItem{PharmacyID: l.PharmacyID, MedicineID: l.MedicineID, Quantity: l.Quantity})
	}
	return req
}

// persist must be called with mu held.
func (c *Cart) persist() {
	if c.store == nil {
		return
	}
	lines := c.lines
	if lines == nil {
		lines = []CartLine{}
	}
	if err := c.store.Save(map[string]any{"items": lines}); err != nil {
		log.Error().Err(err).Msg("unable to persist cart")
	}
}

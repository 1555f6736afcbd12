package cart

import "sort"

// PlatformGroupID is the synthetic supplier group for products the platform
// sells directly (no supplier row).
const PlatformGroupID = 0

type SupplierGroup struct {
	SupplierID int     `json:"supplierID"`
	Subtotal   float64 `json:"subtotal"`
	ItemCount  int     `json:"itemCount"`
}

type Totals struct {
	Subtotal      float64         `json:"subtotal"`
	DeliveryFee   float64         `json:"deliveryFee"`
	Total         float64         `json:"total"`
	ItemCount     int             `json:"itemCount"`
	SupplierCount int             `json:"supplierCount"`
	Groups        []SupplierGroup `json:"groups"`
}

// ComputeTotals is pure: it only reads the materialized cart (items with
// supplier ids already joined in). Groups come back sorted by supplier id so
// the output is deterministic.
func ComputeTotals(c Cart, deliveryFee float64) Totals {
	t := Totals{DeliveryFee: deliveryFee}
	groups := make(map[int]*SupplierGroup)

	for _, item := range c.Items {
		line := item.PriceSnapshot * float64(item.Quantity)
		t.Subtotal += line
		t.ItemCount += item.Quantity

		gid := PlatformGroupID
		if item.SupplierID != nil {
			gid = *item.SupplierID
		}
		g, ok := groups[gid]
		if !ok {
			g = &SupplierGroup{SupplierID: gid}
			groups[gid] = g
		}
		g.Subtotal += line
		g.ItemCount += item.Quantity
	}

	t.Groups = make([]SupplierGroup, 0, len(groups))
	for _, g := range groups {
		t.Groups = append(t.Groups, *g)
	}
	sort.Slice(t.Groups, func(i, j int) bool { return t.Groups[i].SupplierID < t.Groups[j].SupplierID })
	t.SupplierCount = len(t.Groups)
	t.Total = t.Subtotal + t.DeliveryFee
	return t
}

package domain

import "testing"

func TestCategorySlug(t *testing.T) {
	cases := map[string]string{
		"Organic veggies":  "organic-veggies",
		"Bakery & Breads":  "bakery-breads",
		"Grains & Cereals": "grains-cereals",
		"Chips":            "chips",
	}
	for name, want := range cases {
		if got := CategorySlug(name); got != want {
			t.Errorf("CategorySlug(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestAddress_MissingFields(t *testing.T) {
	addr := Address{FirstName: "Ada", Street: "1 Main St"}
	missing := addr.MissingFields()
	if len(missing) != 2 || missing[0] != "lastName" || missing[1] != "city" {
		t.Errorf("MissingFields = %v, want [lastName city]", missing)
	}
}

func TestAddress_OneLine(t *testing.T) {
	addr := Address{Street: "1 Main St", City: "Pune", Country: "India"}
	if got := addr.OneLine(); got != "1 Main St, Pune, India" {
		t.Errorf("OneLine = %q", got)
	}
}

func TestRole_Allows(t *testing.T) {
	if !RoleAdmin.Allows(RoleCustomer) {
		t.Error("admin should satisfy customer requirement")
	}
	if RoleCustomer.Allows(RoleAdmin) {
		t.Error("customer must not satisfy admin requirement")
	}
}

func TestCartSnapshot_CloneDropsNonPositive(t *testing.T) {
	snap := CartSnapshot{"Apple": 2, "Milk": 0, "Bread": -1}
	clone := snap.Clone()
	if len(clone) != 1 || clone["Apple"] != 2 {
		t.Errorf("Clone = %v", clone)
	}
	clone["Apple"] = 9
	if snap["Apple"] != 2 {
		t.Error("Clone must not alias the source map")
	}
	if clone.Count() != 9 {
		t.Errorf("Count = %d", clone.Count())
	}
}

package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveAllValidPairs(t *testing.T) {
	c := Default()

	for _, ct := range []ChallengeType{OneStep, TwoStep} {
		for _, amt := range []ChallengeAmount{Amount10K, Amount25K, Amount50K, Amount100K} {
			sel := c.Resolve(ct, amt, nil)
			if sel.MainProduct == nil {
				t.Fatalf("Resolve(%s, %s) returned nil main product", ct, amt)
			}
			if sel.MainProduct.ProductID == 0 {
				t.Errorf("Resolve(%s, %s) returned empty product id", ct, amt)
			}
			if sel.MainProduct.RulesKey == "" {
				t.Errorf("Resolve(%s, %s) returned empty rules key", ct, amt)
			}
			if len(sel.AllProductIDs) != 1 {
				t.Errorf("Resolve(%s, %s) expected 1 product id, got %d", ct, amt, len(sel.AllProductIDs))
			}
		}
	}
}

func TestResolveUnmappedPair(t *testing.T) {
	c := Default()

	sel := c.Resolve(ChallengeType("three-step"), Amount10K, nil)
	if sel.MainProduct != nil {
		t.Errorf("Expected nil main product for unmapped type, got %+v", sel.MainProduct)
	}
	if len(sel.AllProductIDs) != 0 {
		t.Errorf("Expected no product ids, got %v", sel.AllProductIDs)
	}

	sel = c.Resolve(OneStep, ChallengeAmount("500k"), nil)
	if sel.MainProduct != nil {
		t.Errorf("Expected nil main product for unmapped amount, got %+v", sel.MainProduct)
	}
}

func TestResolveFiltersUnknownAddons(t *testing.T) {
	c := Default()

	sel := c.Resolve(OneStep, Amount10K, []string{"reset-option", "bogus", "ea-support"})
	if len(sel.AddonProducts) != 2 {
		t.Fatalf("Expected 2 addon products, got %d", len(sel.AddonProducts))
	}
	// Input order preserved
	if sel.AddonProducts[0].ID != "reset-option" {
		t.Errorf("Expected first addon 'reset-option', got %q", sel.AddonProducts[0].ID)
	}
	if sel.AddonProducts[1].ID != "ea-support" {
		t.Errorf("Expected second addon 'ea-support', got %q", sel.AddonProducts[1].ID)
	}
	if len(sel.AllProductIDs) != 3 {
		t.Errorf("Expected 3 product ids, got %v", sel.AllProductIDs)
	}
	if sel.AllProductIDs[0] != sel.MainProduct.ProductID {
		t.Errorf("Expected main product id first, got %v", sel.AllProductIDs)
	}
}

func TestResolveOnlyUnknownAddons(t *testing.T) {
	c := Default()

	sel := c.Resolve(TwoStep, Amount50K, []string{"nope", "also-nope"})
	if len(sel.AddonProducts) != 0 {
		t.Errorf("Expected no addon products, got %d", len(sel.AddonProducts))
	}
	if len(sel.AllProductIDs) != 1 {
		t.Errorf("Expected only the main product id, got %v", sel.AllProductIDs)
	}
}

func TestGatewayLookup(t *testing.T) {
	c := Default()

	if _, ok := c.Gateway("stripe"); !ok {
		t.Error("Expected stripe gateway to exist")
	}
	if _, ok := c.Gateway("sofort"); ok {
		t.Error("Did not expect sofort gateway to exist")
	}
	if len(c.Gateways()) != 4 {
		t.Errorf("Expected 4 gateways, got %d", len(c.Gateways()))
	}
}

func TestLoadOverrides(t *testing.T) {
	src := `
challenge "one-step" "10k" {
  product_id = 9101
  rules_key  = "custom_one_step_10k"
}

addon "ea-support" {
  product_id = 9201
  name       = "EA Support Plus"
  price      = "29.50"
}

addon "news-trading" {
  product_id = 9204
  name       = "News Trading"
  price      = "20.00"
}
`
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	m, ok := c.Challenge(OneStep, Amount10K)
	if !ok {
		t.Fatal("Expected overridden challenge to exist")
	}
	if m.ProductID != 9101 || m.RulesKey != "custom_one_step_10k" {
		t.Errorf("Override not applied: %+v", m)
	}

	// Untouched entries keep defaults
	m, ok = c.Challenge(TwoStep, Amount100K)
	if !ok || m.ProductID != 108 {
		t.Errorf("Default entry lost: %+v ok=%v", m, ok)
	}

	addon, ok := c.Addon("ea-support")
	if !ok || addon.Name != "EA Support Plus" || addon.Price.String() != "29.5" {
		t.Errorf("Addon override not applied: %+v", addon)
	}
	if _, ok := c.Addon("news-trading"); !ok {
		t.Error("Expected new addon to be registered")
	}

	// Gateways untouched when the file has no gateway blocks
	if len(c.Gateways()) != 4 {
		t.Errorf("Expected default gateways, got %d", len(c.Gateways()))
	}
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	src := `
challenge "one-step" "1m" {
  product_id = 9
  rules_key  = "x"
}
`
	path := filepath.Join(t.TempDir(), "catalog.hcl")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for unknown challenge amount")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.hcl")); err == nil {
		t.Error("Expected error for missing catalog file")
	}
}

package catalog

import (
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"challenge-checkout/internal/errors"
)

// catalogFile is the HCL schema of a catalog override file:
//
//	challenge "one-step" "10k" {
//	  product_id = 101
//	  rules_key  = "one_step_10k"
//	}
//
//	addon "ea-support" {
//	  product_id = 201
//	  name       = "Expert Advisor Support"
//	  price      = "25.00"
//	}
type catalogFile struct {
	Challenges []challengeBlock `hcl:"challenge,block"`
	Addons     []addonBlock     `hcl:"addon,block"`
	Gateways   []gatewayBlock   `hcl:"gateway,block"`
}

type challengeBlock struct {
	Type      string `hcl:"type,label"`
	Amount    string `hcl:"amount,label"`
	ProductID int64  `hcl:"product_id"`
	RulesKey  string `hcl:"rules_key"`
}

type addonBlock struct {
	ID        string `hcl:"id,label"`
	ProductID int64  `hcl:"product_id"`
	Name      string `hcl:"name"`
	Price     string `hcl:"price"`
}

type gatewayBlock struct {
	ID          string `hcl:"id,label"`
	Title       string `hcl:"title"`
	Description string `hcl:"description,optional"`
}

// Load returns the built-in catalog with overrides from an HCL file applied
// on top. Challenge and addon blocks merge over the defaults; gateway blocks,
// when present, replace the default gateway list.
func Load(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Config("reading catalog file", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, path)
	if diags.HasErrors() {
		return nil, errors.Config("parsing catalog file", diags)
	}

	var parsed catalogFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, errors.Config("decoding catalog file", diags)
	}

	c := Default()

	for _, block := range parsed.Challenges {
		t := ChallengeType(block.Type)
		a := ChallengeAmount(block.Amount)
		if !t.Valid() {
			return nil, errors.Newf(errors.TypeConfig, "unknown challenge type %q in %s", block.Type, path)
		}
		if !a.Valid() {
			return nil, errors.Newf(errors.TypeConfig, "unknown challenge amount %q in %s", block.Amount, path)
		}
		c.RegisterChallenge(t, a, ProductMapping{ProductID: block.ProductID, RulesKey: block.RulesKey})
	}

	for _, block := range parsed.Addons {
		price, err := decimal.NewFromString(block.Price)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "invalid price for addon %q in %s", block.ID, path)
		}
		c.RegisterAddon(AddonMapping{
			ID:        block.ID,
			ProductID: block.ProductID,
			Name:      block.Name,
			Price:     price,
		})
	}

	if len(parsed.Gateways) > 0 {
		c.gateways = nil
		for _, block := range parsed.Gateways {
			c.RegisterGateway(PaymentGateway{ID: block.ID, Title: block.Title, Description: block.Description})
		}
	}

	return c, nil
}

package catalog

import "github.com/shopspring/decimal"

// Default returns the built-in catalog. Product ids are deployment-specific
// and usually overridden by an HCL catalog file (see Load).
func Default() *Catalog {
	c := New()

	c.RegisterChallenge(OneStep, Amount10K, ProductMapping{ProductID: 101, RulesKey: "one_step_10k"})
	c.RegisterChallenge(OneStep, Amount25K, ProductMapping{ProductID: 102, RulesKey: "one_step_25k"})
	c.RegisterChallenge(OneStep, Amount50K, ProductMapping{ProductID: 103, RulesKey: "one_step_50k"})
	c.RegisterChallenge(OneStep, Amount100K, ProductMapping{ProductID: 104, RulesKey: "one_step_100k"})
	c.RegisterChallenge(TwoStep, Amount10K, ProductMapping{ProductID: 105, RulesKey: "two_step_10k"})
	c.RegisterChallenge(TwoStep, Amount25K, ProductMapping{ProductID: 106, RulesKey: "two_step_25k"})
	c.RegisterChallenge(TwoStep, Amount50K, ProductMapping{ProductID: 107, RulesKey: "two_step_50k"})
	c.RegisterChallenge(TwoStep, Amount100K, ProductMapping{ProductID: 108, RulesKey: "two_step_100k"})

	c.RegisterAddon(AddonMapping{ID: "ea-support", ProductID: 201, Name: "Expert Advisor Support", Price: decimal.NewFromInt(25)})
	c.RegisterAddon(AddonMapping{ID: "weekend-hold", ProductID: 202, Name: "Weekend Holding", Price: decimal.NewFromInt(15)})
	c.RegisterAddon(AddonMapping{ID: "reset-option", ProductID: 203, Name: "One-Time Reset", Price: decimal.NewFromInt(35)})

	c.RegisterGateway(PaymentGateway{ID: "stripe", Title: "Credit Card", Description: "Pay securely with your credit card"})
	c.RegisterGateway(PaymentGateway{ID: "paypal", Title: "PayPal", Description: "Pay with your PayPal account"})
	c.RegisterGateway(PaymentGateway{ID: "razorpay", Title: "Razorpay", Description: "Credit/Debit Cards, UPI, Wallets"})
	c.RegisterGateway(PaymentGateway{ID: "bacs", Title: "Bank Transfer", Description: "Direct bank transfer"})

	return c
}

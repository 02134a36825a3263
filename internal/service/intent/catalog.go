package intent

import (
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

// Catalog is the immutable set of intents the engine scores against.
// Build it once at startup and share the pointer.
type Catalog struct {
	intents []domain.Intent
	byName  map[domain.IntentName]int
}

func NewCatalog(intents []domain.Intent) *Catalog {
	c := &Catalog{
		intents: make([]domain.Intent, len(intents)),
		byName:  make(map[domain.IntentName]int, len(intents)),
	}
	for i, in := range intents {
		in.Keywords = append([]string(nil), in.Keywords...)
		in.RequiredEntities = append([]domain.EntityType(nil), in.RequiredEntities...)
		c.intents[i] = in
		c.byName[in.Name] = i
	}
	return c
}

func (c *Catalog) Len() int {
	return len(c.intents)
}

// At returns the intent at catalog position i. Catalog order is the
// tie-break order for equal confidences.
func (c *Catalog) At(i int) *domain.Intent {
	return &c.intents[i]
}

func (c *Catalog) Get(name domain.IntentName) (*domain.Intent, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return nil, false
	}
	return &c.intents[idx], true
}

// ForAction returns the first intent tagged with the given action.
func (c *Catalog) ForAction(action domain.ActionType) (*domain.Intent, bool) {
	for i := range c.intents {
		if c.intents[i].Action == action {
			return &c.intents[i], true
		}
	}
	return nil, false
}

// DisplayName falls back to the raw intent name for unknown entries.
func (c *Catalog) DisplayName(name domain.IntentName) string {
	if in, ok := c.Get(name); ok && in.DisplayName != "" {
		return in.DisplayName
	}
	return name.String()
}

// DefaultCatalog returns the marketplace assistant's intent catalog.
// Keywords deliberately avoid stop-words so filler-only messages never score.
func DefaultCatalog() *Catalog {
	crop := []domain.EntityType{domain.EntityCrop}

	return NewCatalog([]domain.Intent{
		{
			Name:        domain.IntentPricePrediction,
			DisplayName: "Price prediction",
			Keywords: []string{
				"price", "prices", "cost", "pricing", "rate",
				"price prediction", "predict price", "future price", "selling price", "price forecast",
			},
			Weight:           1.5,
			Response:         "I can forecast market prices for your crops. Which crop would you like a price prediction for?",
			RequiredEntities: crop,
			Action:           domain.ActionPredictPrice,
		},
		{
			Name:        domain.IntentYieldPrediction,
			DisplayName: "Yield prediction",
			Keywords: []string{
				"yield", "harvest", "production", "output",
				"predict yield", "yield forecast", "expected harvest", "crop yield",
			},
			Weight:           1.5,
			Response:         "I can estimate expected yields. Which crop are you growing?",
			RequiredEntities: crop,
			Action:           domain.ActionPredictYield,
		},
		{
			Name:        domain.IntentDemandPrediction,
			DisplayName: "Demand prediction",
			Keywords: []string{
				"demand", "buyers", "market demand", "predict demand",
				"demand forecast", "sell quickly", "popular", "consumption",
			},
			Weight:           1.5,
			Response:         "I can predict market demand. Which crop should I look at?",
			RequiredEntities: crop,
			Action:           domain.ActionPredictDemand,
		},
		{
			Name:        domain.IntentExplanation,
			DisplayName: "Explain a prediction",
			Keywords: []string{
				"explain", "explanation", "reason", "reasons",
				"reasoning", "factors", "breakdown", "justify",
			},
			Weight:   1.6,
			Response: "Let me explain how the last prediction was made.",
			Action:   domain.ActionExplain,
		},
		{
			Name:        domain.IntentGreeting,
			DisplayName: "Greeting",
			Keywords: []string{
				"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "greetings",
			},
			Weight:   1.5,
			Response: "Hello! 👋 I'm the SmartAgriMarket assistant. I can predict crop prices, demand and yields, or help you find your way around the marketplace. How can I help you today?",
		},
		{
			Name:        domain.IntentHelp,
			DisplayName: "Help",
			Keywords: []string{
				"help", "assist", "assistance", "support", "guide", "features", "menu", "instructions",
			},
			Weight: 1.5,
			Response: "Here is what I can do:\n" +
				"• Predict crop prices (e.g. \"predict tomato price\")\n" +
				"• Forecast demand and yields\n" +
				"• Explain the last prediction\n" +
				"• Show your market dashboard\n" +
				"• Answer questions about products, orders and registration",
		},
		{
			Name:        domain.IntentBrowse,
			DisplayName: "Browse products",
			Keywords: []string{
				"browse", "products", "shop", "buy", "catalog", "listings", "available", "groceries",
			},
			Weight:   1.2,
			Response: "You can browse fresh produce from local farmers on the Products page. Use the filters to search by crop, district or price.",
		},
		{
			Name:        domain.IntentMarketTrends,
			DisplayName: "Market trends",
			Keywords: []string{
				"trend", "trends", "trending", "market trends",
				"market analysis", "market situation", "fluctuation", "overview",
			},
			Weight:   1.3,
			Response: "Market trends are summarised on the Insights page. Ask me for a price or demand prediction for a specific crop to get a forecast.",
		},
		{
			Name:        domain.IntentQualityInfo,
			DisplayName: "Quality information",
			Keywords: []string{
				"quality", "grade", "fresh", "freshness", "organic", "certified", "standards",
			},
			Weight:   1.2,
			Response: "Every listing shows its quality grade and certification. Farmers can upload harvest photos so buyers can check freshness before ordering.",
		},
		{
			Name:        domain.IntentOrderInfo,
			DisplayName: "Order information",
			Keywords: []string{
				"order", "orders", "delivery", "track", "shipping", "purchase", "cart", "checkout",
			},
			Weight:   1.2,
			Response: "You can track your orders from the Orders page. Delivery status is updated by the farmer once the order is dispatched.",
		},
		{
			Name:        domain.IntentFarmerRegistration,
			DisplayName: "Farmer registration",
			Keywords: []string{
				"register", "registration", "signup", "join",
				"farmer account", "become seller", "sell crops", "create account",
			},
			Weight:   1.3,
			Response: "To sell on SmartAgriMarket, choose \"Register as Farmer\" on the sign-up page and complete your farm profile. Your listings go live after verification.",
		},
		{
			Name:        domain.IntentGratitude,
			DisplayName: "Thanks",
			Keywords: []string{
				"thanks", "thank", "thankyou", "appreciate", "cheers", "grateful",
			},
			Weight:   1.3,
			Response: "You're welcome! Let me know if there is anything else I can help with. 🌱",
		},
		{
			Name:        domain.IntentFarewell,
			DisplayName: "Goodbye",
			Keywords: []string{
				"bye", "goodbye", "farewell", "later", "take care", "exit",
			},
			Weight:   1.3,
			Response: "Goodbye! Happy farming and good trading. 👋",
		},
		{
			Name:        domain.IntentModelAccuracy,
			DisplayName: "Model accuracy",
			Keywords: []string{
				"accuracy", "accurate", "model accuracy", "reliable",
				"reliability", "precision", "error rate", "trust",
			},
			Weight:   1.8,
			Response: "Our prediction models are validated on historical market data from Sri Lankan economic centres. Each prediction comes with a confidence score so you can judge how much to rely on it.",
		},
		{
			Name:        domain.IntentShowDashboard,
			DisplayName: "Dashboard",
			Keywords: []string{
				"dashboard", "analytics", "charts", "statistics", "stats", "insights", "show dashboard", "graphs",
			},
			Weight:   1.3,
			Response: "Opening your market dashboard. 📊",
			Action:   domain.ActionShowDashboard,
		},
	})
}

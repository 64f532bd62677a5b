package observability

import (
	"strconv"
	"strings"
)

// Pricing constants
const (
	tokensPerKilo       = 1000.0
	costFormatPrecision = 6

	gpt5MiniInputPrice  = 0.00025
	gpt5MiniOutputPrice = 0.002

	gpt5NanoInputPrice  = 0.00005
	gpt5NanoOutputPrice = 0.0004

	gpt5InputPrice  = 0.00125
	gpt5OutputPrice = 0.01

	geminiFlashInputPrice  = 0.0003
	geminiFlashOutputPrice = 0.0025
)

// ModelPricing contains pricing information per 1K tokens
type ModelPricing struct {
	InputPricePer1K  float64
	OutputPricePer1K float64
}

// PricingTable contains pricing for the models the NLP fallback may use
var PricingTable = map[string]ModelPricing{
	"gpt-5":            {InputPricePer1K: gpt5InputPrice, OutputPricePer1K: gpt5OutputPrice},
	"gpt-5-mini":       {InputPricePer1K: gpt5MiniInputPrice, OutputPricePer1K: gpt5MiniOutputPrice},
	"gpt-5-nano":       {InputPricePer1K: gpt5NanoInputPrice, OutputPricePer1K: gpt5NanoOutputPrice},
	"gemini-2.5-flash": {InputPricePer1K: geminiFlashInputPrice, OutputPricePer1K: geminiFlashOutputPrice},
}

// EstimateCost returns the USD cost of one call. Unknown models are priced
// as gpt-5-mini; dated snapshots match their base model.
func EstimateCost(modelName string, usage Usage) float64 {
	pricing, ok := PricingTable[modelName]
	if !ok {
		pricing = PricingTable["gpt-5-mini"]
		for name, p := range PricingTable {
			if strings.HasPrefix(modelName, name+"-20") {
				pricing = p
			}
		}
	}

	inputCost := (float64(usage.Input) / tokensPerKilo) * pricing.InputPricePer1K
	// reasoning tokens are billed as output
	outputCost := (float64(usage.Output+usage.Reasoning) / tokensPerKilo) * pricing.OutputPricePer1K
	return inputCost + outputCost
}

// FormatCost formats a cost value as a USD string
func FormatCost(cost float64) string {
	return "$" + strconv.FormatFloat(cost, 'f', costFormatPrecision, 64)
}

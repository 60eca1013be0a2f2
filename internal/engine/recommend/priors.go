package recommend

import "github.com/channeliq/channeliq/pkg/types/market"

// categoryPriors are the static per-marketplace category-strength keyword
// lists behind Tier B expansion.  They encode broad folk knowledge about
// where product categories historically perform, used only when no benchmark
// qualifies; keywords are compared against normalized cluster tokens.
var categoryPriors = map[market.Marketplace][]string{
	market.MarketplaceAmazon: {
		"wireless", "usb", "charger", "cable", "electronics", "phone",
		"kitchen", "home", "office", "fitness", "speaker", "headphones",
	},
	market.MarketplaceEbay: {
		"vintage", "parts", "collectible", "refurbished", "retro", "camera",
		"tool", "repair", "card", "coin",
	},
	market.MarketplaceEtsy: {
		"handmade", "ceramic", "craft", "custom", "gift", "knit", "art",
		"wedding", "jewelry", "mug", "candle", "print",
	},
	market.MarketplaceWalmart: {
		"household", "storage", "cleaning", "kitchen", "toy", "bottle",
		"towel", "basket", "organizer",
	},
	market.MarketplaceShopify: {
		"premium", "organic", "apparel", "skincare", "coffee", "bundle",
		"leather", "handmade",
	},
}

// priorMatches counts how many cluster tokens appear in a marketplace's
// category-strength list.
func priorMatches(mp market.Marketplace, tokens []string) int {
	prior := categoryPriors[mp]
	n := 0
	for _, tok := range tokens {
		for _, kw := range prior {
			if tok == kw {
				n++
				break
			}
		}
	}
	return n
}

package fields

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalizeKey lowercases, trims and collapses inner whitespace. All set
// membership checks in this package go through it.
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// placeholderStrings are junk values upstream extractors emit instead of
// admitting absence. They are never meaningful and never terminal.
var placeholderStrings = map[string]struct{}{
	"unknown":   {},
	"n/a":       {},
	"na":        {},
	"none":      {},
	"not found": {},
	"not_found": {},
	"notfound":  {},
	`n\a`:       {},
}

// sentinelStrings are the typed "confirmed withheld" markers. Unlike
// placeholders they can satisfy a location field, but only when the record
// carries the matching not_disclosed reason.
var sentinelStrings = map[string]struct{}{
	"not disclosed": {},
	"not_disclosed": {},
}

func isPlaceholder(s string) bool {
	_, ok := placeholderStrings[normalizeKey(s)]
	return ok
}

func isSentinel(s string) bool {
	_, ok := sentinelStrings[normalizeKey(s)]
	return ok
}

// meaningfulString trims and rejects placeholders; returns "" for junk.
func meaningfulString(s string) string {
	t := strings.TrimSpace(s)
	if t == "" || isPlaceholder(t) {
		return ""
	}
	return t
}

// Marketplace buckets are too generic to count as an industry.
var industryMarketplaceBuckets = map[string]struct{}{
	"home goods":  {},
	"home":        {},
	"food":        {},
	"electronics": {},
	"shopping":    {},
	"retail":      {},
	"marketplace": {},
}

// Navigation crumbs scraped off storefront menus.
var industryNavTerms = []string{
	"shop", "shop by", "bestsellers", "best sellers", "featured",
	"new arrivals", "new", "collections", "collection", "categories",
	"category", "accessories", "bundles", "bundle", "kits", "kit",
	"gift cards", "gift card", "kids", "kid", "children", "adults",
	"men", "women", "customer service", "support", "contact", "about",
	"blog", "careers", "privacy", "terms", "shipping", "returns", "faq",
}

// Short deterministic allowlist for industry-like values that the canonical
// map does not cover.
var industryAllowlist = []string{
	"oral care", "dental", "dental hygiene", "personal care",
	"bath & body", "bath and body", "soap", "skincare", "cosmetics",
	"home fragrance", "fragrance", "candle", "candles", "consumer goods",
	"manufacturing", "supplements", "healthcare", "medical",
	"pharmaceutical", "biotech", "technology", "computer hardware",
	"consumer electronics", "confectionery", "chocolate", "automotive",
	"industrial", "education", "toys & games",
}

type industryMapping struct {
	match     []string
	canonical string
}

// Controlled vocabulary mapping. First match wins, so the order encodes
// precedence (soap/bath before household cleaning).
var industryCanonicalMap = []industryMapping{
	{[]string{"supplement", "vitamin", "nutrition", "nutraceutical", "wellness"}, "Supplements"},
	{[]string{"oral care", "dental", "tooth", "teeth", "whitening", "mouth"}, "Oral Care"},
	{[]string{"skin", "skincare", "cosmetic", "beauty", "dermat"}, "Skincare"},
	{[]string{"personal care", "hygiene", "groom"}, "Personal Care"},
	{[]string{"soap", "bar soap", "hand soap", "handmade soap"}, "Soap"},
	{[]string{"bath", "bath & body", "bath and body", "body", "body wash", "shower", "shampoo", "conditioner"}, "Bath & Body"},
	{[]string{"home fragrance", "fragrance", "candle", "candles", "diffuser", "aromatherapy", "essential oil"}, "Home Fragrance"},
	{[]string{"household", "clean", "laundry", "disinfect", "detergent"}, "Household Cleaning"},
	{[]string{"pet", "veterinary", "dog", "cat"}, "Pet Care"},
	{[]string{"medical", "healthcare", "health care", "clinic", "pharma", "pharmaceutical"}, "Healthcare"},
	{[]string{"apparel", "clothing", "fashion"}, "Apparel"},
	{[]string{"furniture", "home decor", "homegoods", "home goods"}, "Home Goods"},
	{[]string{"outdoor", "sports", "fitness"}, "Sports & Fitness"},
	{[]string{"food", "beverage", "snack"}, "Food & Beverage"},
	{[]string{"technology", "tech", "software", "saas", "cloud"}, "Technology"},
	{[]string{"computer", "hardware", "peripheral", "accessory", "accessories"}, "Computer Hardware"},
	{[]string{"electronics", "consumer electronics", "audio", "video", "av"}, "Consumer Electronics"},
	{[]string{"chocolate", "confection", "candy", "sweets", "cocoa"}, "Confectionery"},
	{[]string{"automotive", "auto", "vehicle", "car"}, "Automotive"},
	{[]string{"industrial", "machinery", "equipment", "tools"}, "Industrial Equipment"},
	{[]string{"education", "edtech", "learning", "training"}, "Education"},
	{[]string{"toy", "toys", "games", "gaming"}, "Toys & Games"},
}

var (
	urlRe        = regexp.MustCompile(`(?i)https?://`)
	weirdTokenRe = regexp.MustCompile(`[<>|{}]`)
	letterRe     = regexp.MustCompile(`(?i)[a-z]`)
	digitRe      = regexp.MustCompile(`\d`)
)

var titleCaser = cases.Title(language.English)

func toTitleCase(s string) string {
	return titleCaser.String(strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " "))
}

// plausibleIndustry accepts industry-like free text that neither the
// canonical map nor the allowlist recognized.
func plausibleIndustry(key, raw string) bool {
	s := strings.TrimSpace(raw)
	if key == "" || s == "" {
		return false
	}
	if isPlaceholder(key) || isSentinel(key) {
		return false
	}
	if urlRe.MatchString(s) || weirdTokenRe.MatchString(s) {
		return false
	}
	words := strings.Fields(key)
	if len(words) == 0 || len(words) > 5 {
		return false
	}
	if len(key) < 3 || len(key) > 50 {
		return false
	}
	if !letterRe.MatchString(key) {
		return false
	}
	if len(digitRe.FindAllString(key, -1)) > 2 {
		return false
	}
	return true
}

// SanitizeIndustries drops navigation crumbs, marketplace buckets and junk,
// maps survivors onto the controlled vocabulary, and dedupes. The evaluator
// counts a record's industries as present only when this returns a non-empty
// slice.
func SanitizeIndustries(values []string) []string {
	seen := make(map[string]struct{})
	var valid []string

	for _, item := range values {
		item = meaningfulString(item)
		if item == "" {
			continue
		}
		key := normalizeKey(item)

		// "Baby" alone is too ambiguous; require a more specific label.
		if key == "baby" || key == "babies" {
			continue
		}
		if _, bucket := industryMarketplaceBuckets[key]; bucket {
			continue
		}
		if containsAny(key, industryNavTerms) {
			continue
		}

		candidate := ""
		mapped := false
		for _, m := range industryCanonicalMap {
			if containsAny(key, m.match) {
				candidate = m.canonical
				mapped = true
				break
			}
		}
		if !mapped {
			candidate = toTitleCase(item)
		}

		allow := mapped || containsAny(key, industryAllowlist) || plausibleIndustry(key, item)
		if !allow {
			continue
		}

		ck := normalizeKey(candidate)
		if ck == "" {
			continue
		}
		if _, dup := seen[ck]; dup {
			continue
		}
		seen[ck] = struct{}{}
		valid = append(valid, candidate)
	}
	return valid
}

func containsAny(key string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(key, normalizeKey(t)) {
			return true
		}
	}
	return false
}

// Keyword junk vocabulary: legal/policy pages, store navigation, support,
// account flows, social profiles and markup tokens.
var keywordDisallowTerms = []string{
	"unknown", "privacy", "terms", "policy", "cookie", "cookies",
	"shop", "shop all", "all products", "collections", "collection",
	"new", "new arrivals", "best sellers", "bestsellers", "featured",
	"sale", "clearance", "promotions", "promo", "gift", "gifts",
	"gift card", "gift cards", "bundles", "bundle", "subscription",
	"subscribe", "rewards", "loyalty", "store locator", "locator",
	"track order", "wishlist", "favorites",
	"shipping", "returns", "refund", "faq", "contact", "about", "careers",
	"login", "sign in", "signup", "sign up", "account", "cart",
	"checkout", "search", "menu", "sitemap",
	"instagram", "facebook", "tiktok", "pinterest", "youtube", "twitter",
	"blog", "press", "wholesale",
	"free", "matters", "product", "products", "why", "because", "what", "leave",
	"svg", "path", "stroke", "fill", "viewbox", "css", "tailwind",
	"javascript", "react",
}

// Tech acronyms that legitimately appear in ALL CAPS keyword lists and must
// survive the all-caps heuristic.
var productCapsAllowlist = map[string]struct{}{
	"USB": {}, "HDMI": {}, "LED": {}, "LCD": {}, "SSD": {}, "HDD": {},
	"NVMe": {}, "RGB": {}, "AC": {}, "DC": {}, "HD": {}, "4K": {},
	"VGA": {}, "DVI": {}, "AV": {}, "PC": {}, "TV": {}, "IOT": {},
	"GPS": {}, "CPU": {}, "GPU": {}, "RAM": {}, "LAN": {}, "WAN": {},
	"POE": {}, "OLED": {}, "AMOLED": {}, "UHD": {}, "HDR": {},
	"DAC": {}, "AMP": {},
}

var (
	cssUtilRe  = regexp.MustCompile(`(?i)^(w|h|px|py|pt|pb|pl|pr|m|mx|my|mt|mb|ml|mr)-\d+`)
	strokeRe   = regexp.MustCompile(`(?i)stroke-\d+`)
	textUtilRe = regexp.MustCompile(`(?i)^text-[a-z0-9-]+$`)
	iconRe     = regexp.MustCompile(`(?i)^icon[-_]`)
)

// KeywordJunk reports whether a candidate product keyword is scraped noise
// rather than a real product term.
func KeywordJunk(keyword string) bool {
	raw := strings.TrimSpace(keyword)
	key := normalizeKey(raw)
	if key == "" {
		return true
	}
	if isPlaceholder(key) {
		return true
	}
	if cssUtilRe.MatchString(key) || strokeRe.MatchString(key) || textUtilRe.MatchString(key) {
		return true
	}
	if iconRe.MatchString(key) || key == "close" || key == "view" || key == "order" {
		return true
	}
	if strings.Contains(key, "http://") || strings.Contains(key, "https://") {
		return true
	}
	if containsAny(key, keywordDisallowTerms) {
		return true
	}

	// ALL CAPS labels ("SHOP ALL", "BEST SELLERS") are rarely real product
	// names. Keep anything with digits (SKUs), known acronyms, or longer
	// descriptive phrases.
	hasDigits := digitRe.MatchString(raw)
	isAllCaps := raw != "" && raw == strings.ToUpper(raw) && strings.IndexFunc(raw, isUpperASCII) >= 0
	if isAllCaps && !hasDigits {
		words := strings.Fields(raw)
		acronym := false
		for _, w := range words {
			if _, ok := productCapsAllowlist[w]; ok {
				acronym = true
				break
			}
		}
		if !acronym && len(words) > 0 && len(words) <= 4 && len(raw) <= 30 {
			return true
		}
	}

	if len(key) < 3 {
		return true
	}
	if !letterRe.MatchString(key) {
		return true
	}
	return false
}

func isUpperASCII(r rune) bool { return r >= 'A' && r <= 'Z' }

// SanitizeKeywords normalizes, dedupes and junk-filters a keyword list.
func SanitizeKeywords(values []string) []string {
	seen := make(map[string]struct{})
	var sanitized []string
	for _, v := range values {
		v = meaningfulString(v)
		if v == "" {
			continue
		}
		v = strings.Join(strings.Fields(v), " ")
		if KeywordJunk(v) {
			continue
		}
		key := normalizeKey(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		sanitized = append(sanitized, v)
	}
	return sanitized
}

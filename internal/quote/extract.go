package quote

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/albapepper/pricewatch/internal/models"
)

// page collects the bits of a product page a quote is built from.
type page struct {
	meta   map[string]string // property / name / itemprop -> content
	title  string
	ldJSON []string
}

// Extract builds a quote from a product page. Structured data (JSON-LD)
// wins over meta tags, which win over the document title.
func Extract(body []byte) (models.Quote, error) {
	pg := scan(body)

	var q models.Quote
	for _, raw := range pg.ldJSON {
		var doc any
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			continue
		}
		if ld, ok := findProduct(doc); ok {
			q = ld
			break
		}
	}

	if q.Price <= 0 {
		for _, key := range []string{"product:price:amount", "og:price:amount", "price"} {
			if p, ok := ParsePrice(pg.meta[key]); ok && p > 0 {
				q.Price = p
				break
			}
		}
	}
	if q.Currency == "" {
		for _, key := range []string{"product:price:currency", "og:price:currency", "pricecurrency"} {
			if v := strings.TrimSpace(pg.meta[key]); v != "" {
				q.Currency = strings.ToUpper(v)
				break
			}
		}
	}
	if q.Title == "" {
		q.Title = strings.TrimSpace(pg.meta["og:title"])
	}
	if q.Title == "" {
		q.Title = strings.TrimSpace(pg.title)
	}

	if q.Price <= 0 {
		return models.Quote{}, ErrNoPrice
	}
	return q, nil
}

// scan tokenizes the document once and gathers meta tags, the title and
// JSON-LD blocks.
func scan(body []byte) page {
	pg := page{meta: make(map[string]string)}
	z := html.NewTokenizer(bytes.NewReader(body))

	var inTitle, inLD bool
	for {
		switch z.Next() {
		case html.ErrorToken:
			return pg

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			attrs := attrMap(tok.Attr)
			switch tok.Data {
			case "title":
				inTitle = pg.title == ""
			case "script":
				inLD = strings.EqualFold(attrs["type"], "application/ld+json")
			case "meta":
				key := attrs["property"]
				if key == "" {
					key = attrs["name"]
				}
				if key == "" {
					key = attrs["itemprop"]
				}
				if key != "" && attrs["content"] != "" {
					key = strings.ToLower(key)
					if _, seen := pg.meta[key]; !seen {
						pg.meta[key] = attrs["content"]
					}
				}
			default:
				// <span itemprop="price" content="1299">
				if ip := strings.ToLower(attrs["itemprop"]); (ip == "price" || ip == "pricecurrency") && attrs["content"] != "" {
					if _, seen := pg.meta[ip]; !seen {
						pg.meta[ip] = attrs["content"]
					}
				}
			}

		case html.TextToken:
			switch {
			case inTitle:
				pg.title += string(z.Text())
			case inLD:
				pg.ldJSON = append(pg.ldJSON, string(z.Text()))
			}

		case html.EndTagToken:
			inTitle, inLD = false, false
		}
	}
}

func attrMap(attrs []html.Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[strings.ToLower(a.Key)] = a.Val
	}
	return m
}

// findProduct walks a JSON-LD document (object, array or @graph) for a
// Product with an offer price.
func findProduct(doc any) (models.Quote, bool) {
	switch v := doc.(type) {
	case []any:
		for _, item := range v {
			if q, ok := findProduct(item); ok {
				return q, true
			}
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			if q, ok := findProduct(graph); ok {
				return q, true
			}
		}
		if !isType(v["@type"], "Product") {
			return models.Quote{}, false
		}
		q := models.Quote{}
		if name, ok := v["name"].(string); ok {
			q.Title = strings.TrimSpace(name)
		}
		price, cur, ok := offerPrice(v["offers"])
		if !ok {
			return models.Quote{}, false
		}
		q.Price, q.Currency = price, strings.ToUpper(cur)
		return q, true
	}
	return models.Quote{}, false
}

func isType(t any, want string) bool {
	switch v := t.(type) {
	case string:
		return v == want
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == want {
				return true
			}
		}
	}
	return false
}

// offerPrice extracts the price from an Offer, AggregateOffer or a list of
// offers. The first usable offer wins.
func offerPrice(offers any) (float64, string, bool) {
	switch v := offers.(type) {
	case []any:
		for _, o := range v {
			if p, c, ok := offerPrice(o); ok {
				return p, c, true
			}
		}
	case map[string]any:
		cur, _ := v["priceCurrency"].(string)
		for _, key := range []string{"price", "lowPrice"} {
			if p, ok := extractValue(v[key]); ok && p > 0 {
				return p, cur, true
			}
		}
		if spec, ok := v["priceSpecification"]; ok {
			return offerPrice(spec)
		}
	}
	return 0, "", false
}

// extractValue normalizes a price value from the shapes JSON-LD uses:
// numbers, localized strings, or nested objects.
func extractValue(val any) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		return ParsePrice(v)
	case map[string]any:
		for _, key := range []string{"price", "value", "amount"} {
			if inner, exists := v[key]; exists && inner != nil {
				return extractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ParsePrice reads a localized price string such as "1 299,00 ₽",
// "$1,299.99" or "1.299,50 €". When both separators occur the last one is
// the decimal point; a lone comma followed by one or two digits is a
// decimal comma, and a lone dot followed by exactly three digits groups
// thousands unless the integer part is zero.
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
digits:
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',':
			b.WriteRune(r)
		case unicode.IsSpace(r), r == '\'':
			// thousands separators
		default:
			// currency signs and words before the number are skipped,
			// anything after it ends the number
			if b.Len() > 0 {
				break digits
			}
		}
	}

	num := strings.Trim(b.String(), ".,")
	if num == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(num, ".")
	lastComma := strings.LastIndex(num, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			num = strings.ReplaceAll(num, ".", "")
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(num, ",") == 1 && len(num)-lastComma-1 <= 2 {
			num = strings.Replace(num, ",", ".", 1)
		} else {
			num = strings.ReplaceAll(num, ",", "")
		}
	case strings.Count(num, ".") > 1:
		num = strings.ReplaceAll(num, ".", "")
	case lastDot > 0 && len(num)-lastDot-1 == 3 && strings.TrimLeft(num[:lastDot], "0") != "":
		num = strings.Replace(num, ".", "", 1)
	}

	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

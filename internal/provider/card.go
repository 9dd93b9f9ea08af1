package provider

import (
	"encoding/json"
	"regexp"
	"strings"
)

// imageFileExtensionRE matches references that already point at a concrete
// image file, optionally followed by a query string.
var imageFileExtensionRE = regexp.MustCompile(`(?i)\.(?:png|jpe?g|webp|gif|svg)(?:\?.*)?$`)

// FlexString unmarshals JSON values that the provider serves either as a
// string or as a bare number (localId in particular).
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*f = FlexString(value)
		return nil
	}
	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return err
	}
	*f = FlexString(number.String())
	return nil
}

// String returns the underlying value.
func (f FlexString) String() string {
	return string(f)
}

// CardImages carries the resolved image variants for a card.
type CardImages struct {
	Small string `json:"small,omitempty"`
	Large string `json:"large,omitempty"`
	High  string `json:"high,omitempty"`
}

// CardSet identifies the set a card belongs to.
type CardSet struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// LegacyPriceEntry is one distribution channel in the legacy pricing shape.
type LegacyPriceEntry struct {
	Market *float64 `json:"market"`
}

// LegacyPricing is the flat pricing-by-channel shape served by older payloads.
type LegacyPricing struct {
	Prices map[string]LegacyPriceEntry `json:"prices"`
}

// Card is a provider card payload. Pricing stays raw because its nesting is
// arbitrary; it is resolved once at the metadata-store boundary.
type Card struct {
	ID          string          `json:"id"`
	Name        string          `json:"name,omitempty"`
	LocalID     FlexString      `json:"localId,omitempty"`
	Number      FlexString      `json:"number,omitempty"`
	Rarity      string          `json:"rarity,omitempty"`
	Set         *CardSet        `json:"set,omitempty"`
	SetName     string          `json:"setName,omitempty"`
	Image       string          `json:"image,omitempty"`
	ImageURL    string          `json:"imageUrl,omitempty"`
	ImageURLAlt string          `json:"imageURL,omitempty"`
	Images      *CardImages     `json:"images,omitempty"`
	TCGPlayer   *LegacyPricing  `json:"tcgplayer,omitempty"`
	Pricing     json.RawMessage `json:"pricing,omitempty"`
}

// SetCount reports card totals for a set.
type SetCount struct {
	Total    int `json:"total,omitempty"`
	Official int `json:"official,omitempty"`
}

// Set is a provider set summary.
type Set struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Logo      string    `json:"logo,omitempty"`
	Symbol    string    `json:"symbol,omitempty"`
	CardCount *SetCount `json:"cardCount,omitempty"`
}

// setDetail is the /sets/{id} payload; only the card list is consumed.
type setDetail struct {
	Set
	Cards []Card `json:"cards"`
}

// NormalizeCardNumber trims the raw number and keeps only the part before a
// "/" separator, so "17/102" filters as "17". Blank input yields "".
func NormalizeCardNumber(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	localID, _, _ := strings.Cut(trimmed, "/")
	return strings.TrimSpace(localID)
}

// resolveImageURL turns a provider image reference into a renderable URL for
// the requested quality. References that already name an image file are used
// verbatim; otherwise the quality suffix is appended to the base path.
func resolveImageURL(value, quality string) string {
	image := strings.TrimSpace(value)
	if image == "" {
		return ""
	}
	if imageFileExtensionRE.MatchString(image) {
		return image
	}
	return strings.TrimRight(image, "/") + "/" + quality + ".webp"
}

// withImageURLs fills in resolved low/high image variants on a card, keeping
// the first usable reference as the flat fallback fields.
func withImageURLs(card Card) Card {
	imageRef := firstNonEmpty(
		imagesField(card.Images, func(i *CardImages) string { return i.Small }),
		imagesField(card.Images, func(i *CardImages) string { return i.Large }),
		imagesField(card.Images, func(i *CardImages) string { return i.High }),
		card.Image,
		card.ImageURL,
		card.ImageURLAlt,
	)

	small := resolveImageURL(firstNonEmpty(imagesField(card.Images, func(i *CardImages) string { return i.Small }), imageRef), "low")
	large := resolveImageURL(firstNonEmpty(
		imagesField(card.Images, func(i *CardImages) string { return i.Large }),
		imagesField(card.Images, func(i *CardImages) string { return i.High }),
		imageRef,
	), "high")

	fallback := firstNonEmpty(small, large)
	if fallback != "" {
		card.Image = fallback
		card.ImageURL = fallback
		card.ImageURLAlt = fallback
	}

	images := CardImages{}
	if card.Images != nil {
		images = *card.Images
	}
	if small != "" {
		images.Small = small
	}
	if large != "" {
		images.Large = large
		images.High = large
	}
	if images != (CardImages{}) {
		card.Images = &images
	}

	return card
}

func imagesField(images *CardImages, pick func(*CardImages) string) string {
	if images == nil {
		return ""
	}
	return pick(images)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// DisplayNumber prefers the explicit number over the set-local id.
func (c Card) DisplayNumber() string {
	if value := strings.TrimSpace(c.Number.String()); value != "" {
		return value
	}
	return strings.TrimSpace(c.LocalID.String())
}

// DisplaySetName prefers the nested set name over the legacy flat field.
func (c Card) DisplaySetName() string {
	if c.Set != nil && strings.TrimSpace(c.Set.Name) != "" {
		return strings.TrimSpace(c.Set.Name)
	}
	return strings.TrimSpace(c.SetName)
}

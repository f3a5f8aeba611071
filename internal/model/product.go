// Package model defines data structures shared by the storefront engine:
// catalog snapshots, cart payloads and the API error taxonomy.
package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// === Catalog Types ===

// Product is an immutable snapshot of a product fetched from the catalog.
// Mirrors the storefront AJAX product payload (GET /products/<handle>.js).
type Product struct {
	ID            int64     `json:"id,omitempty"`
	Handle        string    `json:"handle"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Price         int64     `json:"price"` // Minor units (cents)
	FeaturedImage string    `json:"featured_image,omitempty"`
	Options       []string  `json:"-"` // Axis names, in axis order
	Variants      []Variant `json:"variants"`
	Media         []Media   `json:"media,omitempty"`
}

// AxisCount returns the number of option axes shared by all variants.
// Falls back to the widest variant when the product carries no option names.
func (p *Product) AxisCount() int {
	if len(p.Options) > 0 {
		return len(p.Options)
	}
	n := 0
	for _, v := range p.Variants {
		if len(v.Options) > n {
			n = len(v.Options)
		}
	}
	return n
}

// AxisPosition returns the 1-based position of the named axis, or 0.
// Comparison is case-insensitive on the option name.
func (p *Product) AxisPosition(name string) int {
	for i, opt := range p.Options {
		if strings.EqualFold(opt, name) {
			return i + 1
		}
	}
	return 0
}

// productOption accepts both option encodings used by storefronts:
// a bare name ("Color") or an object ({"name":"Color","position":1}).
type productOption struct {
	Name string
}

func (o *productOption) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		o.Name = name
		return nil
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	o.Name = obj.Name
	return nil
}

// UnmarshalJSON decodes the catalog payload, normalizing option names.
func (p *Product) UnmarshalJSON(data []byte) error {
	type alias Product
	aux := struct {
		*alias
		Options []productOption `json:"options"`
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Options = nil
	for _, o := range aux.Options {
		p.Options = append(p.Options, o.Name)
	}
	return nil
}

// MarshalJSON encodes option names alongside the snapshot.
func (p Product) MarshalJSON() ([]byte, error) {
	type alias Product
	return json.Marshal(struct {
		alias
		Options []string `json:"options,omitempty"`
	}{alias: alias(p), Options: p.Options})
}

// Variant is one purchasable combination of axis values.
// Options[i] is the value on axis i; a null value decodes to "".
type Variant struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title,omitempty"`
	Options       []string `json:"options"`
	Available     bool     `json:"available"`
	Price         int64    `json:"price,omitempty"`
	FeaturedMedia *Media   `json:"featured_media,omitempty"`
}

// MediaRef returns the identifier of the variant's featured media, or "".
func (v *Variant) MediaRef() string {
	if v.FeaturedMedia == nil {
		return ""
	}
	return v.FeaturedMedia.Ref()
}

// UnmarshalJSON maps null option slots to "" so they never match a selection.
func (v *Variant) UnmarshalJSON(data []byte) error {
	type alias Variant
	aux := struct {
		*alias
		Options []*string `json:"options"`
	}{alias: (*alias)(v)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	v.Options = make([]string, len(aux.Options))
	for i, o := range aux.Options {
		if o != nil {
			v.Options[i] = *o
		}
	}
	return nil
}

// Media is a gallery item reference.
type Media struct {
	ID  int64  `json:"id"`
	Src string `json:"src,omitempty"`
	Alt string `json:"alt,omitempty"`
}

// Ref returns the string form of the media identifier used for gallery lookups.
func (m Media) Ref() string {
	if m.ID == 0 {
		return ""
	}
	return strconv.FormatInt(m.ID, 10)
}

// === Cart Types ===

// CartAddRequest is the body of POST /cart/add.js.
type CartAddRequest struct {
	ID       int64 `json:"id"`
	Quantity int   `json:"quantity"`
}

// ShippingRate is one rate returned by the shipping estimator.
type ShippingRate struct {
	Name  string `json:"name"`
	Price string `json:"price"` // Decimal string as returned by the storefront
	Cents int64  `json:"cents"`
}

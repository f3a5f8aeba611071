package model

import (
	"encoding/json"
	"testing"
)

func TestProductUnmarshal(t *testing.T) {
	payload := `{
		"id": 42,
		"handle": "linen-shirt",
		"title": "Linen Shirt",
		"url": "/products/linen-shirt",
		"price": 4500,
		"featured_image": "//cdn.example.com/shirt.jpg",
		"options": ["Color", "Size"],
		"variants": [
			{"id": 1, "options": ["Red", "S"], "available": true, "featured_media": {"id": 900}},
			{"id": 2, "options": ["Red", null], "available": false}
		],
		"media": [{"id": 900, "src": "//cdn.example.com/red.jpg"}]
	}`

	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if p.Handle != "linen-shirt" {
		t.Errorf("Handle = %q, want linen-shirt", p.Handle)
	}
	if p.Price != 4500 {
		t.Errorf("Price = %d, want 4500", p.Price)
	}
	if len(p.Options) != 2 || p.Options[1] != "Size" {
		t.Errorf("Options = %v, want [Color Size]", p.Options)
	}
	if got := p.Variants[0].MediaRef(); got != "900" {
		t.Errorf("MediaRef() = %q, want 900", got)
	}
	if got := p.Variants[1].Options[1]; got != "" {
		t.Errorf("null option decoded as %q, want empty", got)
	}
	if got := p.Variants[1].MediaRef(); got != "" {
		t.Errorf("MediaRef() without media = %q, want empty", got)
	}
}

func TestProductUnmarshalObjectOptions(t *testing.T) {
	payload := `{"handle":"mug","options":[{"name":"Color","position":1,"values":["Blue"]}],"variants":[]}`

	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(p.Options) != 1 || p.Options[0] != "Color" {
		t.Errorf("Options = %v, want [Color]", p.Options)
	}
}

func TestProductAxes(t *testing.T) {
	tests := []struct {
		name      string
		product   Product
		wantCount int
	}{
		{
			name:      "named options",
			product:   Product{Options: []string{"Color", "Size"}},
			wantCount: 2,
		},
		{
			name: "derived from variants",
			product: Product{Variants: []Variant{
				{ID: 1, Options: []string{"Red"}},
				{ID: 2, Options: []string{"Red", "M", "Cotton"}},
			}},
			wantCount: 3,
		},
		{
			name:      "no axes",
			product:   Product{Variants: []Variant{{ID: 1}}},
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.product.AxisCount(); got != tt.wantCount {
				t.Errorf("AxisCount() = %d, want %d", got, tt.wantCount)
			}
		})
	}

	p := Product{Options: []string{"Color", "Size"}}
	if got := p.AxisPosition("size"); got != 2 {
		t.Errorf("AxisPosition(size) = %d, want 2", got)
	}
	if got := p.AxisPosition("material"); got != 0 {
		t.Errorf("AxisPosition(material) = %d, want 0", got)
	}
}

func TestProductMarshalKeepsOptions(t *testing.T) {
	p := Product{Handle: "mug", Options: []string{"Color"}}
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var back Product
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if len(back.Options) != 1 || back.Options[0] != "Color" {
		t.Errorf("Options after round trip = %v, want [Color]", back.Options)
	}
}

package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIndustries(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "canonical mapping",
			in:   []string{"handmade soap", "vitamins and supplements"},
			want: []string{"Soap", "Supplements"},
		},
		{
			name: "marketplace buckets dropped",
			in:   []string{"Home Goods", "Retail", "Shopping"},
			want: nil,
		},
		{
			name: "navigation crumbs dropped",
			in:   []string{"Shop By", "Best Sellers", "Gift Cards", "Customer Service"},
			want: nil,
		},
		{
			name: "placeholders dropped",
			in:   []string{"unknown", "n/a", "Not Disclosed"},
			want: nil,
		},
		{
			name: "dedupe after mapping",
			in:   []string{"dental hygiene", "teeth whitening"},
			want: []string{"Oral Care"},
		},
		{
			name: "plausible free text title-cased",
			in:   []string{"precision optics"},
			want: []string{"Precision Optics"},
		},
		{
			name: "urls and markup rejected",
			in:   []string{"https://acme.com/about", "<div>"},
			want: nil,
		},
		{
			name: "ambiguous baby label dropped",
			in:   []string{"Baby"},
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeIndustries(tt.in))
		})
	}
}

func TestKeywordJunk(t *testing.T) {
	junk := []string{
		"", "unknown", "SHOP ALL", "BEST SELLERS", "Gift Cards",
		"stroke-2", "w-10", "text-gray-500", "icon-close",
		"https://acme.com", "privacy policy", "instagram", "ab", "123",
	}
	for _, k := range junk {
		assert.True(t, KeywordJunk(k), "expected junk: %q", k)
	}

	real := []string{
		"bamboo toothbrush", "whitening strips", "USB HUB",
		"4K WEBCAM", "lavender soap bar", "MODEL X200",
	}
	for _, k := range real {
		assert.False(t, KeywordJunk(k), "expected real: %q", k)
	}
}

func TestSanitizeKeywords(t *testing.T) {
	in := []string{
		"bamboo  toothbrush", "Bamboo Toothbrush", "SHOP ALL",
		"whitening strips", "unknown", "",
	}
	got := SanitizeKeywords(in)
	assert.Equal(t, []string{"bamboo toothbrush", "whitening strips"}, got)
}

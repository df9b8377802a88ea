package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestProductAvailable(t *testing.T) {
	tests := []struct {
		name     string
		product  Product
		expected bool
	}{
		{"active unlimited", Product{IsActive: true, Stock: nil}, true},
		{"active with stock", Product{IsActive: true, Stock: intPtr(3)}, true},
		{"active zero stock", Product{IsActive: true, Stock: intPtr(0)}, false},
		{"inactive unlimited", Product{IsActive: false, Stock: nil}, false},
		{"inactive with stock", Product{IsActive: false, Stock: intPtr(5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.product.Available())
		})
	}
}

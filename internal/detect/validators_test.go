package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidPESEL(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid", "44051401359", true},
		{"check digit off by one", "44051401358", false},
		{"inner digit mutated", "44051401459", false},
		{"too short", "4405140135", false},
		{"too long", "440514013590", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidPESEL(tt.value))
		})
	}
}

func TestValidNIP(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid plain", "5260250274", true},
		{"valid with dashes", "526-025-02-74", true},
		{"check digit mutated", "5260250275", false},
		{"wrong length", "526025027", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidNIP(tt.value))
		})
	}
}

func TestValidREGON(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid 9 digits", "123456785", true},
		{"invalid 9 digits", "123456786", false},
		{"valid 14 digits", "12345678512347", true},
		{"invalid 14 digits", "12345678512340", false},
		{"wrong length", "12345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidREGON(tt.value))
		})
	}
}

func TestValidIBAN(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid with spaces", "PL61 1090 1014 0000 0712 1981 2874", true},
		{"valid compact", "PL61109010140000071219812874", true},
		{"mutated digit", "PL61 1090 1014 0000 0712 1981 2875", false},
		{"too short", "PL61 1090", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidIBAN(tt.value))
		})
	}
}

func TestValidLuhn(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid visa", "4532015112830366", true},
		{"valid with separators", "4111-1111-1111-1111", true},
		{"check digit mutated", "4532015112830367", false},
		{"too short", "45320151", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidLuhn(tt.value))
		})
	}
}

func TestValidDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"valid dotted", "12.05.2023", true},
		{"valid slashes", "01/01/1999", true},
		{"day out of range", "32.05.2023", false},
		{"month out of range", "12.13.2023", false},
		{"year out of range", "12.05.1899", false},
		{"wrong shape", "2023-05-12", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDate(tt.value))
		})
	}
}

func TestValidStreetName(t *testing.T) {
	assert.True(t, ValidStreetName("ul. Kwiatowa 15"))
	assert.True(t, ValidStreetName("aleja Róż 3/7"))
	assert.False(t, ValidStreetName("ul. kwiatowa 15"))
	assert.False(t, ValidStreetName("ul."))
}

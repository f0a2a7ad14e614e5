// Package palette assigns chart color schemes to widgets.
//
// The assignment is a pure function of the widget id so the same widget is
// drawn with the same colors everywhere, without storing the choice.
package palette

import (
	"math"
	"unicode/utf16"

	"github.com/lucasb-eyer/go-colorful"
)

const ShadeCount = 6

// brightnessStep is the lightness change applied per reuse cycle.
const brightnessStep = 0.10

type Scheme struct {
	Index   int                `json:"index"`
	Name    string             `json:"name"`
	Primary string             `json:"primary"`
	Shades  [ShadeCount]string `json:"shades"`
}

var schemes = []Scheme{
	{Name: "blue", Primary: "#2563eb", Shades: [ShadeCount]string{"#1e40af", "#2563eb", "#3b82f6", "#60a5fa", "#93c5fd", "#bfdbfe"}},
	{Name: "green", Primary: "#16a34a", Shades: [ShadeCount]string{"#166534", "#16a34a", "#22c55e", "#4ade80", "#86efac", "#bbf7d0"}},
	{Name: "orange", Primary: "#ea580c", Shades: [ShadeCount]string{"#9a3412", "#ea580c", "#f97316", "#fb923c", "#fdba74", "#fed7aa"}},
	{Name: "purple", Primary: "#9333ea", Shades: [ShadeCount]string{"#6b21a8", "#9333ea", "#a855f7", "#c084fc", "#d8b4fe", "#e9d5ff"}},
	{Name: "teal", Primary: "#0d9488", Shades: [ShadeCount]string{"#115e59", "#0d9488", "#14b8a6", "#2dd4bf", "#5eead4", "#99f6e4"}},
	{Name: "rose", Primary: "#e11d48", Shades: [ShadeCount]string{"#9f1239", "#e11d48", "#f43f5e", "#fb7185", "#fda4af", "#fecdd3"}},
	{Name: "amber", Primary: "#d97706", Shades: [ShadeCount]string{"#92400e", "#d97706", "#f59e0b", "#fbbf24", "#fcd34d", "#fde68a"}},
	{Name: "slate", Primary: "#475569", Shades: [ShadeCount]string{"#1e293b", "#475569", "#64748b", "#94a3b8", "#cbd5e1", "#e2e8f0"}},
}

func init() {
	for i := range schemes {
		schemes[i].Index = i
	}
}

// Hash is the polynomial string hash used for scheme selection: for every
// UTF-16 code unit c, h = h*31 + c, wrapping as a signed 32 bit integer.
func Hash(s string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	return h
}

// Index is abs(Hash(id)) mod the number of schemes.
func Index(id string) int {
	h := int64(Hash(id))
	if h < 0 {
		h = -h
	}
	return int(h % int64(len(schemes)))
}

// SelectScheme picks the scheme for a widget id.
func SelectScheme(widgetID string) Scheme {
	return schemes[Index(widgetID)]
}

// GenerateColors returns count colors for a series. Shades are reused
// cyclically; reuse cycle k darkens (odd k) or lightens (even k) by
// 10% * ceil(k/2) of lightness.
func GenerateColors(s Scheme, count int) []string {
	if count <= 0 {
		return nil
	}
	out := make([]string, 0, count)
	for i := 0; i < count; i++ {
		base := s.Shades[i%ShadeCount]
		cycle := i / ShadeCount
		if cycle == 0 {
			out = append(out, base)
			continue
		}
		out = append(out, adjust(base, cycleDelta(cycle)))
	}
	return out
}

func cycleDelta(cycle int) float64 {
	magnitude := brightnessStep * math.Ceil(float64(cycle)/2)
	if cycle%2 == 1 {
		return -magnitude
	}
	return magnitude
}

func adjust(hex string, delta float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		return hex
	}
	h, s, l := c.Hsl()
	l = math.Max(0, math.Min(1, l+delta))
	return colorful.Hsl(h, s, l).Clamped().Hex()
}

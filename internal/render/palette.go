package render

import (
	"image/color"

	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

// Palette maps fault type identifiers to box colors.
type Palette map[string]color.RGBA

// fallback is used for types outside the closed fault set.
var fallback = color.RGBA{R: 128, G: 128, B: 128, A: 255}

// DefaultPalette returns the fixed fault palette. Each enumerated type maps
// to exactly one color; unknown types fall back to neutral gray.
func DefaultPalette() Palette {
	return Palette{
		model.FaultPointOverloadFaulty:    {R: 220, G: 20, B: 60, A: 255},
		model.FaultPointOverloadPotential: {R: 255, G: 140, B: 0, A: 255},
		model.FaultWireOverload:           {R: 255, G: 69, B: 0, A: 255},
		model.FaultLooseJointFaulty:       {R: 199, G: 21, B: 133, A: 255},
		model.FaultLooseJointPotential:    {R: 255, G: 215, B: 0, A: 255},
		model.FaultFullWireOverload:       {R: 178, G: 34, B: 34, A: 255},
		model.FaultNormal:                 {R: 50, G: 205, B: 50, A: 255},
	}
}

// Color resolves a fault type to its palette color, or the fallback.
func (p Palette) Color(faultType string) color.RGBA {
	if c, ok := p[faultType]; ok {
		return c
	}
	return fallback
}

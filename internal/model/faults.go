package model

// Fault type identifiers as they appear in the `type` field of a detection.
// The set is closed; anything else renders with the Unknown fallback.
const (
	FaultPointOverloadFaulty    = "PointOverloadFaulty"
	FaultPointOverloadPotential = "PointOverloadPotential"
	FaultWireOverload           = "WireOverload"
	FaultLooseJointFaulty       = "LooseJointFaulty"
	FaultLooseJointPotential    = "LooseJointPotential"
	FaultFullWireOverload       = "FullWireOverload"
	FaultNormal                 = "Normal"
	FaultUnknown                = "Unknown"
)

// displayNames maps fault identifiers to the human-readable labels used in
// the `classification` field and in rendered annotations.
var displayNames = map[string]string{
	FaultPointOverloadFaulty:    "Point Overload (Faulty)",
	FaultPointOverloadPotential: "Point Overload (Potential)",
	FaultWireOverload:           "Wire Overload",
	FaultLooseJointFaulty:       "Loose Joint (Faulty)",
	FaultLooseJointPotential:    "Loose Joint (Potential)",
	FaultFullWireOverload:       "Full Wire Overload",
	FaultNormal:                 "Normal",
	FaultUnknown:                "Unknown",
}

// DisplayName returns the human-readable label for a fault type identifier.
// Unrecognized identifiers fall back to "Unknown".
func DisplayName(faultType string) string {
	if name, ok := displayNames[faultType]; ok {
		return name
	}
	return displayNames[FaultUnknown]
}

// KnownFault reports whether the identifier belongs to the closed fault set.
func KnownFault(faultType string) bool {
	_, ok := displayNames[faultType]
	return ok
}

// Classification derives the record-level label from a detection list: the
// display name of the highest-confidence detection, or "Normal" when the
// list is empty. Ties keep the earlier detection, so the result is stable
// for a given list order.
func Classification(detections []Detection) string {
	if len(detections) == 0 {
		return displayNames[FaultNormal]
	}
	best := detections[0]
	for _, d := range detections[1:] {
		if d.Confidence > best.Confidence {
			best = d
		}
	}
	return DisplayName(best.Type)
}

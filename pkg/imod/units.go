package imod

// UnitUnknown is the label for any unit code outside the table.
const UnitUnknown = "Unknown"

var unitLabels = map[int32]string{
	0:   "pix",
	3:   "km",
	1:   "m",
	-2:  "cm",
	-3:  "mm",
	-6:  "microns",
	-9:  "nm",
	-10: "Angstroms",
	-12: "pm",
}

var unitCodes = func() map[string]int32 {
	m := make(map[string]int32, len(unitLabels))
	for code, label := range unitLabels {
		m[label] = code
	}
	return m
}()

// UnitCodeToString maps a unit code from the model header to its label.
func UnitCodeToString(code int32) string {
	if s, ok := unitLabels[code]; ok {
		return s
	}
	return UnitUnknown
}

// UnitStringToCode is the inverse of UnitCodeToString.
func UnitStringToCode(label string) (int32, bool) {
	code, ok := unitCodes[label]
	return code, ok
}

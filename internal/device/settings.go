package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind is the value type of a camera setting
type Kind int

const (
	KindInt Kind = iota
	KindBool
)

// Setting describes one sensor control the firmware exposes
type Setting struct {
	Name  string
	Label string
	Group string
	Kind  Kind
}

// Setting groups, in page order
const (
	GroupExposure     = "Exposure & Light"
	GroupImageQuality = "Image Quality"
	GroupWhiteBalance = "White Balance"
	GroupCorrections  = "Corrections"
)

// Catalog lists the known settings in display order.
var Catalog = []Setting{
	{Name: "aec", Label: "Auto Exposure (AEC)", Group: GroupExposure, Kind: KindBool},
	{Name: "ae_level", Label: "AE Level", Group: GroupExposure, Kind: KindInt},
	{Name: "agc", Label: "Auto Gain (AGC)", Group: GroupExposure, Kind: KindBool},
	{Name: "gainceiling", Label: "Gain Ceiling", Group: GroupExposure, Kind: KindInt},
	{Name: "brightness", Label: "Brightness", Group: GroupImageQuality, Kind: KindInt},
	{Name: "contrast", Label: "Contrast", Group: GroupImageQuality, Kind: KindInt},
	{Name: "saturation", Label: "Saturation", Group: GroupImageQuality, Kind: KindInt},
	{Name: "sharpness", Label: "Sharpness", Group: GroupImageQuality, Kind: KindInt},
	{Name: "awb", Label: "Auto White Balance", Group: GroupWhiteBalance, Kind: KindBool},
	{Name: "wb_mode", Label: "WB Mode", Group: GroupWhiteBalance, Kind: KindInt},
	{Name: "awb_gain", Label: "AWB Gain", Group: GroupWhiteBalance, Kind: KindBool},
	{Name: "lenc", Label: "Lens Correction", Group: GroupCorrections, Kind: KindBool},
	{Name: "wpc", Label: "White Pixel Correction", Group: GroupCorrections, Kind: KindBool},
	{Name: "bpc", Label: "Black Pixel Correction", Group: GroupCorrections, Kind: KindBool},
	{Name: "raw_gma", Label: "Gamma Correction", Group: GroupCorrections, Kind: KindBool},
	{Name: "denoise", Label: "Denoise", Group: GroupCorrections, Kind: KindInt},
}

// Lookup finds a catalog entry by name
func Lookup(name string) (Setting, bool) {
	for _, s := range Catalog {
		if s.Name == name {
			return s, true
		}
	}
	return Setting{}, false
}

// Value is a setting value as reported by /api/values: a boolean, or anything
// else rendered verbatim (normally an integer).
type Value struct {
	isBool bool
	b      bool
	raw    string
}

// BoolValue builds a boolean value
func BoolValue(b bool) Value { return Value{isBool: true, b: b} }

// IntValue builds an integer value
func IntValue(n int) Value { return Value{raw: strconv.Itoa(n)} }

// Bool reports the boolean and whether the value is a boolean at all
func (v Value) Bool() (bool, bool) { return v.b, v.isBool }

// String renders the raw value
func (v Value) String() string {
	if v.isBool {
		return strconv.FormatBool(v.b)
	}
	return v.raw
}

// UnmarshalJSON implements json.Unmarshaler
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*v = BoolValue(true)
	case bytes.Equal(data, []byte("false")):
		*v = BoolValue(false)
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Value{raw: s}
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("unsupported setting value %s", data)
	default:
		*v = Value{raw: string(data)}
	}
	return nil
}

// MarshalJSON implements json.Marshaler
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isBool {
		return json.Marshal(v.b)
	}
	if _, err := strconv.ParseFloat(v.raw, 64); err == nil {
		return []byte(v.raw), nil
	}
	return json.Marshal(v.raw)
}

// Snapshot maps setting names to the values the device reported
type Snapshot map[string]Value

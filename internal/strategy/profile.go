package strategy

import "strings"

// Profile is a named timeframe and SMA-period preset.
type Profile struct {
	Name     string
	Duration string
	BarSize  string
	Fast     int
	Slow     int
}

const DefaultProfile = "position"

// Profiles lists the available presets by name.
var Profiles = map[string]Profile{
	"scalping": {Name: "scalping", Duration: "2 D", BarSize: "5 mins", Fast: 20, Slow: 50},
	"swing":    {Name: "swing", Duration: "30 D", BarSize: "1 hour", Fast: 20, Slow: 50},
	"position": {Name: "position", Duration: "12 M", BarSize: "1 day", Fast: 50, Slow: 200},
}

// ProfileFor returns the preset for name, falling back to the position preset.
func ProfileFor(name string) Profile {
	if p, ok := Profiles[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return Profiles[DefaultProfile]
}

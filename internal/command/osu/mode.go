package osu

import (
	"github.com/kapu/lolbot-go/internal/domain"
	"github.com/kapu/lolbot-go/internal/util"
)

var modeAliases = map[string]domain.OsuMode{
	"0":            domain.OsuModeStandard,
	"standard":     domain.OsuModeStandard,
	"osu!standard": domain.OsuModeStandard,
	"osu!":         domain.OsuModeStandard,

	"1":            domain.OsuModeCatch,
	"ctb":          domain.OsuModeCatch,
	"catchthebeat": domain.OsuModeCatch,
	"osu!catch":    domain.OsuModeCatch,
	"catch":        domain.OsuModeCatch,

	"2":         domain.OsuModeTaiko,
	"taiko":     domain.OsuModeTaiko,
	"osu!taiko": domain.OsuModeTaiko,

	"3":         domain.OsuModeMania,
	"mania":     domain.OsuModeMania,
	"osu!mania": domain.OsuModeMania,
}

// NormalizeMode maps the user's mode argument to a game mode. A missing
// argument means osu!standard; an unrecognised one, including an empty
// string, is OsuModeUnknown.
func NormalizeMode(arg string, given bool) domain.OsuMode {
	if !given {
		return domain.OsuModeStandard
	}
	if mode, ok := modeAliases[util.Normalize(arg)]; ok {
		return mode
	}
	return domain.OsuModeUnknown
}

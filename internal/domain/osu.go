package domain

import "strconv"

type OsuMode int

const (
	OsuModeUnknown OsuMode = iota - 1
	OsuModeStandard
	OsuModeTaiko
	OsuModeCatch
	OsuModeMania
)

func (m OsuMode) String() string {
	switch m {
	case OsuModeStandard:
		return "osu!standard"
	case OsuModeTaiko:
		return "osu!taiko"
	case OsuModeCatch:
		return "osu!catch"
	case OsuModeMania:
		return "osu!mania"
	default:
		return "unknown"
	}
}

// APIValue is the value of the osu! api "m" parameter.
func (m OsuMode) APIValue() string {
	return strconv.Itoa(int(m))
}

func (m OsuMode) IsValid() bool {
	return m >= OsuModeStandard && m <= OsuModeMania
}

// PlayerStats is a read-only snapshot of an osu! player.
type PlayerStats struct {
	UserID      string
	Username    string
	Country     string
	Count300    int64
	Count100    int64
	Count50     int64
	PlayCount   int64
	RankedScore int64
	TotalScore  int64
	GlobalRank  int64
	CountryRank int64
	Level       float64
	TotalPP     float64
	Accuracy    float64
	SSCount     int64
	SCount      int64
	ACount      int64
}

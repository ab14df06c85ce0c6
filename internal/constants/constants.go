package constants

// UserAgent is sent with every upstream request unless a caller overrides it.
const UserAgent = "lolbot (discordgo)"

// EmbedColor is the accent colour of every embed the bot sends.
const EmbedColor = 0x690E8

var FunEndpoints = struct {
	Cat      string
	Dog      string
	DogMedia string
	Neko     string
	Why      string
	HTTPCat  string
}{
	Cat:      "https://random.cat/meow",
	Dog:      "https://random.dog/woof",
	DogMedia: "https://random.dog/",
	Neko:     "https://nekos.life/api/lizard",
	Why:      "https://nekos.life/api/why",
	HTTPCat:  "https://http.cat/",
}

var OsuConfig = struct {
	APIBaseURL string
	FlagURL    string
	AvatarURL  string
}{
	APIBaseURL: "https://osu.ppy.sh/api",
	FlagURL:    "https://osu.ppy.sh/images/flags/%s.png",
	AvatarURL:  "https://a.ppy.sh/%s",
}

var PosterConfig = struct {
	DBLBaseURL   string
	DBotsBaseURL string
	DatadogHost  string
	MetricPrefix string
}{
	DBLBaseURL:   "https://discordbots.org/api",
	DBotsBaseURL: "https://bots.discord.pw/api",
	DatadogHost:  "https://api.%s",
	MetricPrefix: "lolbot.",
}

var StringLimits = struct {
	EmbedTitle       int
	EmbedDescription int
	EmbedFieldName   int
	EmbedFieldValue  int
	EmbedFooter      int
	MaxEmbedFields   int
	MessageContent   int
}{
	EmbedTitle:       256,
	EmbedDescription: 4096,
	EmbedFieldName:   256,
	EmbedFieldValue:  1024,
	EmbedFooter:      2048,
	MaxEmbedFields:   25,
	MessageContent:   2000,
}

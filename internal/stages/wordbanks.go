package stages

// Stage names, in pipeline order. The orchestrator owns the ordering;
// these constants only name the stages.
const (
	StagePlan     = "plan"
	StageStyle    = "style"
	StageLyrics   = "lyrics"
	StageProducer = "producer"
	StageCompose  = "compose"
)

type genreProfile struct {
	styleTags   []string
	instruments []string
	keys        []string
}

var genreProfiles = map[string]genreProfile{
	"synthwave": {
		styleTags:   []string{"Energy:High", "Texture:Analog", "Era:Retro"},
		instruments: []string{"analog synth", "drum machine", "bass synth", "electric guitar", "pads"},
		keys:        []string{"Am", "Fm", "Cm", "Dm"},
	},
	"folk": {
		styleTags:   []string{"Energy:Low", "Texture:Acoustic", "Mood:Warm"},
		instruments: []string{"acoustic guitar", "upright bass", "fiddle", "mandolin", "harmonica"},
		keys:        []string{"G", "C", "D", "Em"},
	},
	"hiphop": {
		styleTags:   []string{"Energy:High", "Texture:Sampled", "Mood:Confident"},
		instruments: []string{"drum machine", "sub bass", "sampler", "keys", "vinyl texture"},
		keys:        []string{"Fm", "Gm", "Bbm", "Ebm"},
	},
}

var fallbackProfile = genreProfile{
	styleTags:   []string{"Energy:Mid", "Texture:Clean"},
	instruments: []string{"drums", "bass", "guitar", "keys"},
	keys:        []string{"C", "G", "Am", "Em"},
}

func profileFor(genre string) genreProfile {
	if profile, ok := genreProfiles[genre]; ok {
		return profile
	}
	return fallbackProfile
}

// rhymeFamilies group end words sharing a rhyming suffix. Lines bound
// to the same scheme letter draw from one family so the rhyme metric
// can verify the scheme is honored.
var rhymeFamilies = [][]string{
	{"light", "night", "flight", "tonight"},
	{"fire", "wire", "desire", "entire"},
	{"rain", "again", "remain", "chain"},
	{"heart", "start", "apart", "restart"},
	{"road", "load", "unload", "crossroad"},
	{"run", "sun", "undone", "begun"},
	{"cold", "gold", "hold", "untold"},
	{"glow", "flow", "slow", "below"},
}

var lineStarters = []string{
	"we chase the",
	"holding every",
	"under borrowed",
	"counting silent",
	"beyond the last",
	"we carry our",
}

var lineConnectors = []string{
	"into the",
	"through the",
	"past the",
	"beneath the",
	"toward the",
}

var imageryNouns = []string{
	"shadows", "echoes", "signals", "horizons", "embers",
	"wires", "mirrors", "engines", "rivers", "statues",
}

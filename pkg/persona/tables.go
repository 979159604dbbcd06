package persona

// Band maps every score up to and including Max to Text.
type Band struct {
	Max  float64
	Text string
}

// Table is an ordered range-to-text lookup. Bands must be sorted by Max;
// the last band catches everything above the previous ones.
type Table []Band

func (t Table) Lookup(score float64) string {
	for _, b := range t {
		if score <= b.Max {
			return b.Text
		}
	}
	return t[len(t)-1].Text
}

var TemperTable = Table{
	{0.3, "You are calm and patient, rarely getting upset"},
	{0.7, "You have a moderate temperament and can get frustrated if pressured"},
	{1, "You have a quick temper and get irritated easily, especially with pushy salespeople"},
}

var KnowledgeTable = Table{
	{0.3, "You have limited knowledge about real estate transactions and rely on gut feelings"},
	{0.7, "You have some knowledge about property sales but aren't an expert"},
	{1, "You're well-informed about real estate markets and know your property's value"},
}

var ChattinessTable = Table{
	{0.3, "You tend to be quiet and give short, direct answers"},
	{0.7, "You're moderately talkative and share some personal details"},
	{1, "You're very talkative and love to share stories and details"},
}

var DecisionSpeedTable = Table{
	{0.3, "You take your time making decisions and don't like to be rushed"},
	{0.7, "You make decisions at a reasonable pace after considering options"},
	{1, "You make quick decisions and like to move fast in negotiations"},
}

// MotivationTable is looked up with the mean of urgency and financial desperation.
var MotivationTable = Table{
	{0.3, "You're not in a hurry to sell and will be very selective about offers. You can afford to wait for the right buyer."},
	{0.7, "You're interested in selling but want to make sure you get a fair deal. You're open to reasonable negotiations."},
	{1, "You're highly motivated to sell due to financial pressures or life circumstances. You're willing to negotiate significantly to close a deal quickly."},
}

var SkepticismTable = Table{
	{0.3, "You're generally trusting and open to new opportunities"},
	{0.7, "You're cautious but willing to listen to reasonable proposals"},
	{1, "You're naturally skeptical of investors and ask lots of probing questions"},
}

var AttachmentTable = Table{
	{0.3, "You view the property purely as a business transaction"},
	{0.7, "You have some attachment to the property but can be practical"},
	{1, "You have strong emotional ties to the property and may get sentimental"},
}

// Opening line buckets.
const (
	BucketCurt    = "curt"
	BucketGuarded = "guarded"
	BucketWarm    = "warm"
	BucketNeutral = "neutral"
)

const openingThreshold = 0.7

// OpeningLines holds the candidate first messages per bucket.
var OpeningLines = map[string][]string{
	BucketCurt: {
		"Yeah? Who's this?",
		"What do you want? I'm busy.",
		"Make it quick, I've got things to do.",
	},
	BucketGuarded: {
		"Hello... who am I speaking with?",
		"Hi. How did you get this number?",
		"Hello? If this is about the land, I'm not sure I'm interested.",
	},
	BucketWarm: {
		"Well hello there! How are you doing today?",
		"Oh hi! What a nice surprise, who's calling?",
		"Hello, hello! Good to hear a friendly voice, what can I do for you?",
	},
	BucketNeutral: {
		"Hello?",
		"Hi, this is {persona_name}.",
		"Hello, who's calling?",
	},
}

// OpeningBucket picks the opening-line bucket. Temper wins over skepticism,
// which wins over chattiness.
func OpeningBucket(temper, skepticism, chattiness float64) string {
	switch {
	case temper > openingThreshold:
		return BucketCurt
	case skepticism > openingThreshold:
		return BucketGuarded
	case chattiness > openingThreshold:
		return BucketWarm
	default:
		return BucketNeutral
	}
}

// Stock ElevenLabs voices chosen by the temper/chattiness quadrant.
const (
	VoiceBella  = "EXAVITQu4vr4xnSDxMaL"
	VoiceRachel = "21m00Tcm4TlvDq8ikWAM"
	VoiceAdam   = "pNInz6obpgDQGcFmaJgB"
	VoiceDomi   = "AZnzlk1XvdvUeBnXmlld"
)

// SelectVoice returns the stock voice for the persona's temper and chattiness.
func SelectVoice(temper, chattiness float64) string {
	switch {
	case temper > 0.7 && chattiness > 0.7:
		return VoiceBella
	case temper < 0.3 && chattiness > 0.7:
		return VoiceRachel
	case temper > 0.7 && chattiness < 0.3:
		return VoiceAdam
	case temper < 0.3 && chattiness < 0.3:
		return VoiceDomi
	default:
		return VoiceRachel
	}
}

package source

import "strings"

// keywordRule assigns label when any keyword occurs in the text.
type keywordRule struct {
	keywords []string
	label    string
}

// firstMatch scans rules in order and returns the first label whose keyword
// occurs in text. text is expected lower-cased.
func firstMatch(text string, rules []keywordRule) (string, bool) {
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(text, k) {
				return r.label, true
			}
		}
	}
	return "", false
}

var lagosSessionTypes = []keywordRule{
	{[]string{"keynote"}, "Keynote"},
	{[]string{"break", "lunch", "networking"}, "Break/Networking"},
	{[]string{"registration"}, "Admin/Opening"},
}

var nairobiRoomTracks = []keywordRule{
	{[]string{"malewa hall"}, "Track 1 (Malewa)"},
	{[]string{"main hall"}, "Track 2 (Main)"},
	{[]string{"turkwell hall"}, "Track 3 (Turkwell)"},
	{[]string{"rooftop hall"}, "Track 4 (Rooftop)"},
}

var nairobiTitleTracks = []keywordRule{
	{[]string{"ai", "gemini"}, "AI"},
	{[]string{"dsa", "problem-solving"}, "CS Fundamentals"},
	{[]string{"cloud"}, "Cloud"},
	{[]string{"web", "angular"}, "Web"},
	{[]string{"android"}, "Android"},
	{[]string{"flutter", "firebase"}, "Mobile/Firebase"},
}

var nairobiSessionTypes = []keywordRule{
	{[]string{"keynote"}, "Keynote"},
	{[]string{"workshop", "hands-on"}, "Workshop"},
	{[]string{"registration", "welcome", "intro"}, "Admin/Opening"},
	{[]string{"closing remarks"}, "Closing"},
	{[]string{"lunch", "networking", "photo session", "q&a"}, "General/Networking"},
	{[]string{"partner session"}, "Partner Session"},
}

func lagosSessionType(title string) string {
	if label, ok := firstMatch(strings.ToLower(title), lagosSessionTypes); ok {
		return label
	}
	return "General"
}

// nairobiTrack classifies by room first; a topic keyword in the title then
// overrides the room's track. Note "ai" is a plain substring match, so titles
// like "Main stage" also land in AI.
func nairobiTrack(room, title string) string {
	track := "General"
	if label, ok := firstMatch(strings.ToLower(room), nairobiRoomTracks); ok {
		track = label
	}
	if label, ok := firstMatch(strings.ToLower(title), nairobiTitleTracks); ok {
		track = label
	}
	return track
}

func nairobiSessionType(title string) string {
	if label, ok := firstMatch(strings.ToLower(title), nairobiSessionTypes); ok {
		return label
	}
	return "Talk"
}

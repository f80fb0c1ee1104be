package testguard

// blockedChords are the clipboard and select-all key combinations the
// test view swallows while an attempt is on screen. This is a deterrent
// UX affordance only, never a security control: any determined user can
// copy from the terminal by other means. The authoritative anti-cheat
// measures live server-side.
var blockedChords = map[string]bool{
	"ctrl+c":       true,
	"ctrl+x":       true,
	"ctrl+v":       true,
	"ctrl+a":       true,
	"ctrl+insert":  true,
	"shift+insert": true,
	"ctrl+shift+c": true,
	"ctrl+shift+v": true,
}

// BlockedChord reports whether the given key chord (in Bubble Tea's
// KeyMsg.String() form) must be suppressed inside the test view.
func BlockedChord(chord string) bool {
	return blockedChords[chord]
}

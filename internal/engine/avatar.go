package engine

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// avatarPalette is the fixed 8-color palette avatars are drawn from. Order
// matters: the color index is the name's rolling hash mod 8, so reordering
// would change every existing avatar.
var avatarPalette = [8]string{
	"#F44336", // red
	"#9C27B0", // purple
	"#3F51B5", // indigo
	"#03A9F4", // light blue
	"#009688", // teal
	"#8BC34A", // light green
	"#FF9800", // orange
	"#795548", // brown
}

// Avatar is a deterministically derived identicon for a display name.
type Avatar struct {
	Initials string `json:"initials"`
	Color    string `json:"color"`
	DataURI  string `json:"data_uri"`
}

// DeriveAvatar is a pure function of the name: the same name always yields
// the same initials, color and image.
func DeriveAvatar(name string) Avatar {
	initials := avatarInitials(name)
	color := avatarPalette[avatarHash(name)%uint32(len(avatarPalette))]

	svg := fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128"><rect width="128" height="128" rx="12" fill="%s"/><text x="64" y="64" dy=".35em" text-anchor="middle" font-family="Arial, sans-serif" font-size="52" fill="#FFFFFF">%s</text></svg>`,
		color, initials,
	)

	return Avatar{
		Initials: initials,
		Color:    color,
		DataURI:  "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg)),
	}
}

// avatarInitials takes the first letter of the first and last tokens, or the
// first two characters of a single-token name.
func avatarInitials(name string) string {
	tokens := strings.Fields(name)
	switch {
	case len(tokens) >= 2:
		first := []rune(tokens[0])
		last := []rune(tokens[len(tokens)-1])
		return strings.ToUpper(string(first[0]) + string(last[0]))
	case len(tokens) == 1:
		runes := []rune(tokens[0])
		if len(runes) > 2 {
			runes = runes[:2]
		}
		return strings.ToUpper(string(runes))
	default:
		return "?"
	}
}

func avatarHash(name string) uint32 {
	var h uint32
	for _, c := range name {
		h = h*31 + uint32(c)
	}
	return h
}

// ABOUTME: Platform scope definitions for the townday API surface
// ABOUTME: write scopes imply their read counterparts; admin implies all writes

package scope

// Platform scope names
const (
	ReadEvents   = "read:events"
	WriteEvents  = "write:events"
	ReadGroups   = "read:groups"
	WriteGroups  = "write:groups"
	ReadBadges   = "read:badges"
	ReadProfile  = "read:profile"
	WriteProfile = "write:profile"
	ReadRSVPs    = "read:rsvps"
	WriteRSVPs   = "write:rsvps"
	Admin        = "admin"
)

// PlatformCatalog returns the scope catalog used by the townday API.
// The definitions are fixed at build time; NewCatalog validates them,
// so a bad edit here fails the first test or server start.
func PlatformCatalog() *Catalog {
	c, err := NewCatalog([]Definition{
		{Name: ReadEvents, Description: "List and read events"},
		{Name: WriteEvents, Description: "Create and modify events", Implies: []string{ReadEvents}},
		{Name: ReadGroups, Description: "List and read groups"},
		{Name: WriteGroups, Description: "Create and modify groups", Implies: []string{ReadGroups}},
		{Name: ReadBadges, Description: "List badges and awards"},
		{Name: ReadProfile, Description: "Read the caller's profile"},
		{Name: WriteProfile, Description: "Update the caller's profile", Implies: []string{ReadProfile}},
		{Name: ReadRSVPs, Description: "Read RSVPs"},
		{Name: WriteRSVPs, Description: "Create and change RSVPs", Implies: []string{ReadRSVPs}},
		{Name: Admin, Description: "Full platform access",
			Implies: []string{WriteEvents, WriteGroups, WriteProfile, WriteRSVPs, ReadBadges}},
	})
	if err != nil {
		panic("invalid platform scope catalog: " + err.Error())
	}
	return c
}

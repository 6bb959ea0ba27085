// Package setting contains process-wide key/value configuration that can be
// changed at runtime from the admin surface.
package setting

import "context"

// Known setting keys.
const (
	// KeyEnforcementMode selects the enforcement policy branch.
	KeyEnforcementMode = "enforcement_mode"
	// KeyWelcomeMessage overrides the onboarding instructions text.
	KeyWelcomeMessage = "welcome_message"
	// KeyIntroExample overrides the example intro appended to the welcome.
	KeyIntroExample = "intro_example"
	// KeyMainGroupID overrides the main group identifier at startup.
	KeyMainGroupID = "main_group_id"
	// KeyIntroChannelID overrides the intro channel identifier at startup.
	KeyIntroChannelID = "intro_channel_id"
)

// EnforcementMode governs how messages from non-introduced members are
// handled in the main group.
type EnforcementMode string

const (
	// ModeMute - no in-the-moment action; the join-time restriction is the
	// sole enforcement mechanism.
	ModeMute EnforcementMode = "mute"
	// ModeAutoDelete - delete the offending message and post a reminder.
	ModeAutoDelete EnforcementMode = "auto_delete"
)

// IsValid checks that the mode is one of the known values.
func (m EnforcementMode) IsValid() bool {
	return m == ModeMute || m == ModeAutoDelete
}

// Store persists settings.
//
// Values are read-mostly but must never be cached across decisions: an
// admin's change takes effect on the very next read.
type Store interface {
	// Get returns the value for key.
	// Returns shared.ErrSettingNotFound if the key is not set.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value for key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error
}

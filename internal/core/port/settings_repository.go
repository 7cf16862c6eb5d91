package port

import "context"

// SettingsRepository reads system settings owned by an external collaborator.
type SettingsRepository interface {
	// Flag resolves a dotted path such as
	// "features.transactions.approveEnabled". The second return value is
	// false when no flag is configured at that path; an absent flag means
	// the feature is enabled.
	Flag(ctx context.Context, path string) (value bool, configured bool, err error)
}

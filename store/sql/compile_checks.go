package sqlstore

import "github.com/goliatone/go-quality-hooks/core"

var (
	_ core.DeliveryStore    = (*WebhookDeliveryStore)(nil)
	_ core.DeliveryReader   = (*WebhookDeliveryStore)(nil)
	_ core.ActivityReader   = (*ActivityStore)(nil)
	_ core.ActivityReader   = (*CachedActivityReader)(nil)
	_ core.ComponentReader  = (*ComponentStore)(nil)
	_ core.BranchReader     = (*BranchStore)(nil)
	_ core.SnapshotReader   = (*SnapshotStore)(nil)
	_ core.SettingsProvider = (*PropertyStore)(nil)
)

package profiles

import (
	"context"
	"strings"

	"github.com/joseph-ayodele/fieldquote-sync/internal/entity"
)

// SetDeliveryToken stores the push delivery token on the active profile.
func (s *Store) SetDeliveryToken(ctx context.Context, token string) (entity.BusinessProfile, error) {
	return s.Update(ctx, func(p entity.BusinessProfile) entity.BusinessProfile {
		p.DeliveryToken = entity.Ptr(token)
		return p
	})
}

// NotificationPreferences is a partial update; nil fields keep their value.
type NotificationPreferences struct {
	EnablePush        *bool
	EnableEmail       *bool
	EnableSms         *bool
	NotificationEmail *string
	NotificationPhone *string
}

// UpdateNotificationPreferences applies the non-nil preference fields.
func (s *Store) UpdateNotificationPreferences(ctx context.Context, prefs NotificationPreferences) (entity.BusinessProfile, error) {
	return s.Update(ctx, func(p entity.BusinessProfile) entity.BusinessProfile {
		if prefs.EnablePush != nil {
			p.EnablePushNotifications = *prefs.EnablePush
		}
		if prefs.EnableEmail != nil {
			p.EnableEmailNotifications = *prefs.EnableEmail
		}
		if prefs.EnableSms != nil {
			p.EnableSmsNotifications = *prefs.EnableSms
		}
		if prefs.NotificationEmail != nil {
			p.NotificationEmail = entity.Ptr(*prefs.NotificationEmail)
		}
		if prefs.NotificationPhone != nil {
			p.NotificationPhone = entity.Ptr(*prefs.NotificationPhone)
		}
		return p
	})
}

// UpdateServerConfig points the profile at another acceptance server. A nil
// apiKey removes the stored credential.
func (s *Store) UpdateServerConfig(ctx context.Context, serverURL string, apiKey *string) (entity.BusinessProfile, error) {
	return s.Update(ctx, func(p entity.BusinessProfile) entity.BusinessProfile {
		p.ServerURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
		if apiKey != nil {
			p.APIKey = entity.Ptr(*apiKey)
		} else {
			p.APIKey = nil
		}
		return p
	})
}

// MarkSynced records that the remote server has the current profile.
func (s *Store) MarkSynced(ctx context.Context) (entity.BusinessProfile, error) {
	return s.Update(ctx, func(p entity.BusinessProfile) entity.BusinessProfile {
		now := s.now().UTC().Truncate(timeResolution)
		p.LastSyncedAt = &now
		return p
	})
}

package notification

import "context"

// Repository defines the interface for device token storage.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// UpsertDeviceToken stores the token for the user, reassigning it if
	// another user registered the same device before.
	UpsertDeviceToken(ctx context.Context, params CreateDeviceTokenParams) (*DeviceToken, error)
	GetActiveTokensByUserID(ctx context.Context, userID int64) ([]*DeviceToken, error)
	DeactivateToken(ctx context.Context, token string) error
}

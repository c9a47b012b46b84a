package quota

import (
	"context"

	"github.com/google/uuid"
)

// StaticEntitlements is an EntitlementChecker backed by a fixed set of
// premium user IDs from configuration. A stand-in until the billing
// system exposes an entitlement API; lookups never fail.
type StaticEntitlements struct {
	premium map[uuid.UUID]struct{}
}

// Verify interface compliance at compile time
var _ EntitlementChecker = (*StaticEntitlements)(nil)

// NewStaticEntitlements builds a checker from the given premium user
// IDs. Unparseable entries are skipped.
func NewStaticEntitlements(userIDs []string) *StaticEntitlements {
	premium := make(map[uuid.UUID]struct{}, len(userIDs))
	for _, raw := range userIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		premium[id] = struct{}{}
	}
	return &StaticEntitlements{premium: premium}
}

// IsPremium implements EntitlementChecker.
func (s *StaticEntitlements) IsPremium(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := s.premium[userID]
	return ok, nil
}

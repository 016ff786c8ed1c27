// File: utils/constants.go
package utils

import "time"

// SlotLockPrefix is the prefix used for Redis slot lock keys.
const SlotLockPrefix = "slotlock:"

// SlotIndexPrefix is the prefix of the per-day set that lists lock keys.
const SlotIndexPrefix = "slotlock-idx:"

// DefaultSlotHold is the lock lifetime when none is configured.
const DefaultSlotHold = 5 * time.Minute

// RepoTimeout bounds every single storage round trip.
const RepoTimeout = 5 * time.Second

package models

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/wavecard/guard/pkg/constants"
)

// FeatureFlag is a configurable toggle with optional percentage rollout and
// equality conditions against an evaluation context.
type FeatureFlag struct {
	ID      uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Key     string `gorm:"type:varchar(128);not null;uniqueIndex:idx_flags_key" json:"key"`
	Enabled bool   `gorm:"not null;default:false" json:"enabled"`
	// RolloutPercentage gates enabled flags to a stable fraction of users,
	// 0-100. 100 means everyone.
	RolloutPercentage int             `gorm:"not null;default:100" json:"rollout_percentage"`
	Conditions        json.RawMessage `gorm:"type:jsonb" json:"conditions,omitempty"`
	Description       string          `gorm:"type:varchar(512)" json:"description,omitempty"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the database table name.
func (FeatureFlag) TableName() string {
	return constants.TableFeatureFlags
}

// RolloutBucket maps a flag/user pair to a stable bucket in [0, 100).
// The same pair always lands in the same bucket, so rollout decisions are
// deterministic per user.
func RolloutBucket(flagKey, userID string) int {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%s", flagKey, userID)
	return int(h.Sum32() % constants.RolloutBuckets)
}

// InRollout reports whether the user falls inside the flag's rollout fraction.
func (f *FeatureFlag) InRollout(userID string) bool {
	if f.RolloutPercentage >= constants.RolloutBuckets {
		return true
	}
	if f.RolloutPercentage <= 0 {
		return false
	}
	return RolloutBucket(f.Key, userID) < f.RolloutPercentage
}

// ConditionsMatch evaluates the flag's equality conditions against the
// evaluation context. A flag without conditions always matches.
func (f *FeatureFlag) ConditionsMatch(context map[string]interface{}) bool {
	if len(f.Conditions) == 0 {
		return true
	}
	var conditions map[string]interface{}
	if err := json.Unmarshal(f.Conditions, &conditions); err != nil {
		return false
	}
	for key, want := range conditions {
		got, ok := context[key]
		if !ok {
			return false
		}
		if stringify(got) != stringify(want) {
			return false
		}
	}
	return true
}

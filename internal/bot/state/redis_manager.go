package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vladimiradmaev/food-lens/internal/domain"
	"github.com/vladimiradmaev/food-lens/internal/logger"
)

// RedisManager manages user states using Redis, so several bot replicas share them
type RedisManager struct {
	client *redis.Client
}

// NewRedisManager creates a new Redis-based state manager
func NewRedisManager(redisHost, redisPort string) (*RedisManager, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", redisHost, redisPort),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisManager{client: client}, nil
}

func stateKey(userID int64) string {
	return fmt.Sprintf("user:%d:state", userID)
}

func profileKey(userID int64) string {
	return fmt.Sprintf("user:%d:profile", userID)
}

// SetUserState sets the state for a user with TTL
func (m *RedisManager) SetUserState(userID int64, state string) {
	ctx := context.Background()
	if state == None {
		m.client.Del(ctx, stateKey(userID))
		return
	}
	if err := m.client.Set(ctx, stateKey(userID), state, ProfileTTL).Err(); err != nil {
		logger.Warn("Failed to save user state", "user_id", userID, "error", err)
	}
}

// GetUserState gets the state for a user
func (m *RedisManager) GetUserState(userID int64) string {
	result := m.client.Get(context.Background(), stateKey(userID))
	if result.Err() != nil {
		return None
	}
	return result.Val()
}

// SetProfile stores the profile as JSON with TTL
func (m *RedisManager) SetProfile(userID int64, profile domain.UserProfile) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := m.client.Set(context.Background(), profileKey(userID), data, ProfileTTL).Err(); err != nil {
		logger.Warn("Failed to save profile", "user_id", userID, "error", err)
	}
}

// GetProfile loads the profile, treating any Redis or decode error as absent
func (m *RedisManager) GetProfile(userID int64) (domain.UserProfile, bool) {
	result := m.client.Get(context.Background(), profileKey(userID))
	if result.Err() == redis.Nil {
		return nil, false
	}
	if result.Err() != nil {
		logger.Warn("Failed to load profile", "user_id", userID, "error", result.Err())
		return nil, false
	}

	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(result.Val()), &profile); err != nil {
		return nil, false
	}
	return profile, true
}

// ClearProfile forgets the user's profile
func (m *RedisManager) ClearProfile(userID int64) {
	m.client.Del(context.Background(), profileKey(userID))
}

// Close closes the Redis connection
func (m *RedisManager) Close() error {
	return m.client.Close()
}

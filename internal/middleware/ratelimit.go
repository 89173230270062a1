package middleware

import (
	"os"
	"strconv"
)

// RateLimit holds the server's abuse limits
type RateLimit struct {
	MaxRoomSize       int
	MaxRooms          int
	MaxMessageSize    int64
	MessagesPerSecond float64
	BurstSize         int
	MaxPathPoints     int
	MaxImageBytes     int
}

// NewRateLimit: creates a RateLimit configuration
func NewRateLimit(maxRoomSize, maxRooms int, maxMessageSize int64, messagesPerSecond float64, burstSize, maxPathPoints, maxImageBytes int) *RateLimit {
	return &RateLimit{
		MaxRoomSize:       maxRoomSize,
		MaxRooms:          maxRooms,
		MaxMessageSize:    maxMessageSize,
		MessagesPerSecond: messagesPerSecond,
		BurstSize:         burstSize,
		MaxPathPoints:     maxPathPoints,
		MaxImageBytes:     maxImageBytes,
	}
}

// RateLimitFromEnv builds the configuration from environment variables,
// falling back to defaults
func RateLimitFromEnv() *RateLimit {
	return NewRateLimit(
		envInt("MAX_ROOM_SIZE", 12),
		envInt("MAX_ROOMS", 1000),
		int64(envInt("MAX_MESSAGE_SIZE", 1024*1024)),
		float64(envInt("MESSAGES_PER_SECOND", 60)),
		envInt("BURST_SIZE", 120),
		envInt("MAX_PATH_POINTS", 10000),
		envInt("MAX_IMAGE_BYTES", 4*1024*1024),
	)
}

// ValidateMessageSize: checks if a message is within the size limit
func (rl *RateLimit) ValidateMessageSize(msgSize int) bool {
	return int64(msgSize) <= rl.MaxMessageSize
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

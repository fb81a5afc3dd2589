package types

// PubSubType defines the type of pubsub implementation
type PubSubType string

const (
	// MemoryPubSub uses in-memory implementation
	MemoryPubSub PubSubType = "memory"

	// KafkaPubSub uses Kafka implementation
	KafkaPubSub PubSubType = "kafka"
)

// StoreType defines the backend holding progress records
type StoreType string

const (
	// MemoryStore keeps records in the process-local expiring cache
	MemoryStore StoreType = "memory"

	// RedisStore keeps records in redis so several API replicas can share them
	RedisStore StoreType = "redis"
)

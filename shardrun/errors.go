package shardrun

import "fmt"

// ConfigurationError is returned when a shard can not be set up. No attempt runs for such a shard.
type ConfigurationError struct {
	Shard  int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration for shard %d: %s", e.Shard, e.Reason)
}

package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewKSUID generates a new globally unique KSUID string.
func NewKSUID() string {
	return ksuid.New().String()
}

// NewSnowflakeID generates a snowflake ID string using a node ID from
// the environment variable SNOWFLAKE_NODE. The node is created once per
// process so that IDs minted in the same millisecond keep distinct sequence
// numbers. If node setup fails it falls back to a KSUID string.
func NewSnowflakeID() string {
	nodeOnce.Do(func() {
		node, _ = snowflake.NewNode(nodeIDFromEnv())
	})
	if node == nil {
		return NewKSUID()
	}
	return node.Generate().String()
}

func nodeIDFromEnv() int64 {
	nodeEnv := os.Getenv("SNOWFLAKE_NODE")
	if nodeEnv == "" {
		// default to node 1 when not provided so snowflake IDs are still produced
		return 1
	}
	nodeID, err := strconv.ParseInt(nodeEnv, 10, 64)
	if err != nil {
		return 1
	}
	return nodeID
}

package catalog

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pkg/errors"
)

// NewSnowflakeIDs returns a generator of time-ordered ids unique per node.
// Ids produced by one generator are strictly increasing.
func NewSnowflakeIDs(node int64) (func() string, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, errors.Wrapf(err, "snowflake node %d", node)
	}
	return func() string { return n.Generate().String() }, nil
}

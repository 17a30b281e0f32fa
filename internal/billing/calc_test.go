package billing

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func cylID(node *snowflake.Node) *snowflake.ID {
	id := node.Generate()
	return &id
}

func TestCost_EmptyAndAirOnly(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	assert.Equal(t, int64(0), Cost(nil))
	assert.Equal(t, int64(0), Cost([]PricedLineItem{}))

	// Air carries no storage cylinder and costs nothing even when the
	// pinned price is non-zero.
	airOnly := []PricedLineItem{
		{StorageCylinderID: nil, VolumeLitres: 0, PriceCents: 7},
	}
	assert.Equal(t, int64(0), Cost(airOnly))

	mixed := []PricedLineItem{
		{StorageCylinderID: nil, VolumeLitres: 0, PriceCents: 7},
		{StorageCylinderID: cylID(node), VolumeLitres: 100, PriceCents: 2},
	}
	assert.Equal(t, int64(200), Cost(mixed))
}

func TestCost_SumsVolumeTimesPrice(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	items := []PricedLineItem{
		{StorageCylinderID: cylID(node), VolumeLitres: 1000, PriceCents: 3},
		{StorageCylinderID: cylID(node), VolumeLitres: 250, PriceCents: 12},
	}
	assert.Equal(t, int64(3000+3000), Cost(items))
}

func TestCost_RoundsFractionalVolumes(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	items := []PricedLineItem{
		{StorageCylinderID: cylID(node), VolumeLitres: 33.4, PriceCents: 3},
	}
	// 100.2 rounds to 100 cents.
	assert.Equal(t, int64(100), Cost(items))
}

// A trimix fill: oxygen and helium drawn from storage, air as topup. The
// helium dominates the bill, the air contributes nothing.
func TestCost_TrimixFill(t *testing.T) {
	node, _ := snowflake.NewNode(1)

	air := PricedLineItem{StorageCylinderID: nil, VolumeLitres: 0, PriceCents: 0}
	oxygen := PricedLineItem{StorageCylinderID: cylID(node), VolumeLitres: 500, PriceCents: 1}
	helium := PricedLineItem{StorageCylinderID: cylID(node), VolumeLitres: 900, PriceCents: 5}

	items := []PricedLineItem{air, oxygen, helium}
	assert.Equal(t, int64(500+4500), Cost(items))
}

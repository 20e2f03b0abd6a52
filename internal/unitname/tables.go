package unitname

// 以下词表在包初始化时构建一次，之后只读。

// Townhalls 是各族主基地（含升级形态）。
var Townhalls = NewVocabulary(
	"Command Center",
	"Orbital Command",
	"Planetary Fortress",
	"Nexus",
	"Hatchery",
	"Lair",
	"Hive",
)

// TechBuildings 是建造序列中的“科技/生产”建筑。
// 注意：Hatchery 不在其中（虫族开矿只计入 general 序列）。
var TechBuildings = NewVocabulary(
	"Barracks",
	"Factory",
	"Starport",
	"Command Center",
	"Orbital Command",
	"Planetary Fortress",
	"Gateway",
	"Cybernetics Core",
	"Robotics Facility",
	"Stargate",
	"Twilight Council",
	"Templar Archives",
	"Dark Shrine",
	"Nexus",
	"Spawning Pool",
	"Roach Warren",
	"Baneling Nest",
	"Lair",
	"Hydralisk Den",
	"Spire",
	"Hive",
	"Infestation Pit",
)

// Buildings 是 proxy 检测关心的全部建筑（三族主基地 + 生产/科技/防御建筑）。
var Buildings = NewVocabulary(
	// Terran
	"Supply Depot",
	"Barracks",
	"Refinery",
	"Factory",
	"Starport",
	"Engineering Bay",
	"Bunker",
	"Missile Turret",
	"Armory",
	"Fusion Core",
	"Command Center",
	"Orbital Command",
	"Planetary Fortress",
	// Protoss
	"Pylon",
	"Gateway",
	"Assimilator",
	"Cybernetics Core",
	"Robotics Facility",
	"Stargate",
	"Twilight Council",
	"Templar Archives",
	"Dark Shrine",
	"Forge",
	"Photon Cannon",
	"Nexus",
	// Zerg
	"Spawning Pool",
	"Extractor",
	"Roach Warren",
	"Baneling Nest",
	"Lair",
	"Hydralisk Den",
	"Spire",
	"Hive",
	"Infestation Pit",
	"Evolution Chamber",
	"Spine Crawler",
	"Spore Crawler",
	"Ultralisk Cavern",
)

var workers = map[string]struct{}{
	"SCV":   {},
	"Probe": {},
	"Drone": {},
}

// IsWorker 判断原始类型名是否为农民（精确匹配，不做规范化）。
func IsWorker(typeName string) bool {
	_, ok := workers[typeName]
	return ok
}

package bot

// wordList replaces the system dictionary so games behave the same on
// every platform.
var wordList = []string{
	"anchor", "breeze", "candle", "dragon", "ember",
	"falcon", "glacier", "harbor", "island", "jigsaw",
	"kernel", "lantern", "meadow", "nebula", "orchard",
	"puzzle", "quiver", "ribbon", "saddle", "timber",
	"umbrella", "velvet", "walnut", "yonder", "zephyr",
	"basalt", "cobble", "drift", "fjord", "grove",
	"hollow", "ivory", "jungle", "kelp", "lagoon",
	"marble", "nectar", "onyx", "pebble", "quartz",
	"reef", "summit", "tundra", "valley", "willow",
}

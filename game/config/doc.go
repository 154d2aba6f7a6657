// Package config provides level management for the grid planner.
//
// The config package handles:
//   - Loading levels from JSON files and raw .txt maps
//   - Level validation
//   - Default level selection
//   - Level discovery and listing
//
// Level Format:
//
// A JSON level names the puzzle and carries its map rows:
//
//	{
//	  "name": "corridor",
//	  "description": "Push the box onto the target",
//	  "variant": "sokoban",
//	  "layout": ["#####", "#@$.#", "#####"],
//	  "horizon": 10
//	}
//
// The variant may be omitted, in which case any box makes the level Sokoban.
// A .txt file holds only the map rows and gets default settings.
//
// Usage:
//
//	manager, err := config.NewManager("levels")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	level, err := manager.LoadLevel("corridor")
//	defaultLevel := manager.GetDefault()
//	levels, err := manager.ListLevels()
package config

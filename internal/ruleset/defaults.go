package ruleset

import "fmt"

var (
	flatLand = []string{Grassland, Plains, Desert, Tundra}
	anyLand  = []string{Grassland, Plains, Desert, Tundra, Snow, Hills, Forest, Jungle, Marsh}
)

// Default returns the built-in ruleset, modeled on the classic hex 4X base game.
func Default() *Ruleset {
	terrains := []*Terrain{
		{Name: Grassland, Type: Land, Yield: Yield{Food: 2}},
		{Name: Plains, Type: Land, Yield: Yield{Food: 1, Production: 1}},
		{Name: Desert, Type: Land},
		{Name: Tundra, Type: Land, Yield: Yield{Food: 1}},
		{Name: Snow, Type: Land},
		{Name: Mountain, Type: Land, Impassable: true},
		{Name: Coast, Type: Water, Yield: Yield{Food: 1, Gold: 1}},
		{Name: Ocean, Type: Water, Yield: Yield{Food: 1, Gold: 1}},
	}

	features := []*Feature{
		{Name: Hills, Category: CategoryRelief, OccursOn: []string{Grassland, Plains, Desert, Tundra, Snow},
			Yield: Yield{Production: 2}, OverrideYield: true},
		{Name: Forest, Category: CategoryVegetation, OccursOn: []string{Grassland, Plains, Tundra},
			Yield: Yield{Food: 1, Production: 1}, OverrideYield: true},
		{Name: Jungle, Category: CategoryVegetation, OccursOn: []string{Grassland, Plains},
			Yield: Yield{Food: 1}, OverrideYield: true},
		{Name: Marsh, Category: CategoryWetland, OccursOn: []string{Grassland},
			Yield: Yield{Food: -1}},
		{Name: Oasis, Category: CategoryOasis, OccursOn: []string{Desert},
			Yield: Yield{Food: 3, Gold: 1}, OverrideYield: true},
		{Name: FloodPlains, Category: CategoryWetland, OccursOn: []string{Desert},
			Yield: Yield{Food: 2}},
		{Name: Ice, Category: CategoryIce, OccursOn: []string{Coast, Ocean},
			OverrideYield: true, Impassable: true},

		{Name: "Old Faithful", Category: CategoryWonder, OccursOn: []string{Grassland, Plains, Desert, Tundra},
			Yield: Yield{Production: 2, Gold: 3}, OverrideYield: true, Impassable: true},
		{Name: "Cerro de Potosi", Category: CategoryWonder, OccursOn: []string{Plains, Desert},
			Yield: Yield{Gold: 10}, OverrideYield: true, Impassable: true},
		{Name: "Mount Fuji", Category: CategoryWonder, OccursOn: []string{Grassland, Plains},
			Yield: Yield{Production: 3, Gold: 2}, OverrideYield: true, Impassable: true},
		{Name: "Barringer Crater", Category: CategoryWonder, OccursOn: []string{Desert, Tundra},
			Yield: Yield{Production: 2, Gold: 2}, OverrideYield: true, Impassable: true},
		{Name: "Grand Mesa", Category: CategoryWonder, OccursOn: []string{Plains, Desert},
			Yield: Yield{Production: 2, Gold: 3}, OverrideYield: true, Impassable: true},
	}

	resources := []*Resource{
		// Bonus
		{Name: Cattle, Type: Bonus, CanBeFoundOn: []string{Grassland}, Yield: Yield{Food: 1}, Frequency: 18},
		{Name: Sheep, Type: Bonus, CanBeFoundOn: []string{Hills, Desert}, Yield: Yield{Food: 1}, Frequency: 16},
		{Name: Deer, Type: Bonus, CanBeFoundOn: []string{Forest, Tundra}, Yield: Yield{Food: 1}, Frequency: 16},
		{Name: Wheat, Type: Bonus, CanBeFoundOn: []string{Plains, FloodPlains}, Yield: Yield{Food: 1}, Frequency: 16},
		{Name: "Bananas", Type: Bonus, CanBeFoundOn: []string{Jungle}, Yield: Yield{Food: 1}, Frequency: 10},
		{Name: "Fish", Type: Bonus, CanBeFoundOn: []string{Coast}, Yield: Yield{Food: 2}, Frequency: 10,
			Condition: `not HasFeature("Ice")`},
		{Name: "Stone", Type: Bonus, CanBeFoundOn: flatLand, Yield: Yield{Production: 1}, Frequency: 24},

		// Strategic
		{Name: "Horses", Type: Strategic, CanBeFoundOn: []string{Grassland, Plains, Tundra}, Yield: Yield{Production: 1},
			Frequency: 28, MajorAmount: 4, MinorAmount: 2, Condition: `not HasFeature("Marsh")`},
		{Name: "Iron", Type: Strategic, CanBeFoundOn: anyLand, Yield: Yield{Production: 1},
			Frequency: 30, MajorAmount: 6, MinorAmount: 2},
		{Name: "Coal", Type: Strategic, CanBeFoundOn: []string{Grassland, Plains, Hills}, Yield: Yield{Production: 1},
			Frequency: 40, MajorAmount: 6, MinorAmount: 2},
		{Name: "Oil", Type: Strategic, CanBeFoundOn: []string{Desert, Tundra, Snow, Marsh, Jungle, Coast}, Yield: Yield{Production: 1},
			Frequency: 40, MajorAmount: 6, MinorAmount: 3, Condition: `not IsTerrain("Coast") || (Latitude > 0.3 && not HasFeature("Ice"))`},
		{Name: "Aluminum", Type: Strategic, CanBeFoundOn: []string{Plains, Desert, Tundra, Hills}, Yield: Yield{Production: 1},
			Frequency: 50, MajorAmount: 6, MinorAmount: 3},
		{Name: "Uranium", Type: Strategic, CanBeFoundOn: anyLand, Yield: Yield{Production: 1},
			Frequency: 60, MajorAmount: 4, MinorAmount: 2},

		// Luxury
		{Name: "Gold Ore", Type: Luxury, CanBeFoundOn: []string{Grassland, Plains, Desert, Hills}, Yield: Yield{Gold: 2}},
		{Name: "Silver", Type: Luxury, CanBeFoundOn: []string{Tundra, Desert, Hills}, Yield: Yield{Gold: 2}},
		{Name: "Gems", Type: Luxury, CanBeFoundOn: []string{Grassland, Plains, Desert, Tundra, Hills, Jungle}, Yield: Yield{Gold: 3}},
		{Name: "Marble", Type: Luxury, CanBeFoundOn: []string{Grassland, Plains, Desert, Tundra, Hills}, Yield: Yield{Gold: 2}},
		{Name: "Ivory", Type: Luxury, CanBeFoundOn: []string{Plains}, Yield: Yield{Gold: 2}, Condition: `Latitude < 0.6`},
		{Name: "Furs", Type: Luxury, CanBeFoundOn: []string{Tundra, Forest}, Yield: Yield{Gold: 2}, Condition: `Latitude > 0.3`},
		{Name: "Dyes", Type: Luxury, CanBeFoundOn: []string{Forest, Jungle}, Yield: Yield{Gold: 2}},
		{Name: "Spices", Type: Luxury, CanBeFoundOn: []string{Jungle, Marsh}, Yield: Yield{Gold: 2}},
		{Name: "Silk", Type: Luxury, CanBeFoundOn: []string{Forest}, Yield: Yield{Gold: 2}},
		{Name: "Sugar", Type: Luxury, CanBeFoundOn: []string{FloodPlains, Marsh}, Yield: Yield{Gold: 2}},
		{Name: "Cotton", Type: Luxury, CanBeFoundOn: []string{Grassland, Plains, Desert}, Yield: Yield{Gold: 2}},
		{Name: "Wine", Type: Luxury, CanBeFoundOn: []string{Grassland, Plains}, Yield: Yield{Gold: 2}},
		{Name: "Incense", Type: Luxury, CanBeFoundOn: []string{Desert, Plains}, Yield: Yield{Gold: 2}},
		{Name: "Whales", Type: Luxury, CanBeFoundOn: []string{Coast}, Yield: Yield{Food: 1, Gold: 1},
			Condition: `not HasFeature("Ice")`},
		{Name: "Pearls", Type: Luxury, CanBeFoundOn: []string{Coast}, Yield: Yield{Gold: 2},
			Condition: `Latitude < 0.6 && not HasFeature("Ice")`},
	}

	improvements := []*Improvement{
		{Name: "Road", Road: true, MovementCost: 0.5},
		{Name: "Railroad", Road: true, MovementCost: 0.1},
		{Name: "Farm"},
		{Name: "Mine"},
	}

	rs, err := New("Default", terrains, features, resources, improvements)
	if err != nil {
		panic(fmt.Sprintf("default ruleset: %v", err))
	}
	return rs
}

package cards

import "path"

// Names of cards the ability rules refer to.
const (
	FireMage = "Fire Mage"
	IceMage  = "Ice Mage"
	Bandit   = "Bandit"
)

func asset(file string) string {
	return path.Join("assets", file)
}

var standardSet = []Definition{
	{Name: "Witcher", Power: 10, AllowedLines: []Line{LineFront}, ImagePath: asset("witcher.png")},
	{Name: "Chemist", Power: 4, AllowedLines: []Line{LineBack}, ImagePath: asset("chemist.png")},
	{Name: "Wise Oak", Power: 2, AllowedLines: []Line{LineBack}, Ability: AbilityAreaBuff, ImagePath: asset("oak.png")},
	{Name: "Frost", Power: 0, AllowedLines: []Line{LineFront}, Ability: AbilityNearDebuff, ImagePath: asset("frost.png")},
	{Name: "Gnome", Power: 1, AllowedLines: []Line{LineBack}, ImagePath: asset("gnome.png")},
	{Name: "Rock Golem", Power: 8, AllowedLines: []Line{LineFront}, ImagePath: asset("rockgolem.png")},
	{Name: "Elite Knight", Power: 5, AllowedLines: []Line{LineFront}, ImagePath: asset("knight.png")},
	{Name: "Archer", Power: 5, AllowedLines: []Line{LineBack}, ImagePath: asset("archer.png")},
	{Name: "Crossbowman", Power: 5, AllowedLines: []Line{LineBack}, ImagePath: asset("crossbowman.png")},
	{Name: "Engineer", Power: 1, AllowedLines: []Line{LineBack}, Ability: AbilityWeakestAllyBuff, ImagePath: asset("engineer.png")},
	{Name: "Bard", Power: 3, AllowedLines: []Line{LineFront}, Ability: AbilityAreaBuff, ImagePath: asset("bard.png")},
	{Name: FireMage, Power: 5, AllowedLines: []Line{LineBack}, Ability: AbilityPairedSynergy, ImagePath: asset("firemage.png")},
	{Name: IceMage, Power: 5, AllowedLines: []Line{LineBack}, Ability: AbilityPairedSynergy, ImagePath: asset("icemage.png")},
	{Name: "Dragon", Power: 8, AllowedLines: []Line{LineBack}, Ability: AbilityDestroyStrongest, ImagePath: asset("dragon.png")},
	{Name: "Fog", Power: 0, AllowedLines: []Line{LineBack}, Ability: AbilityFarDebuff, ImagePath: asset("fog.png")},
	{Name: "Peasant", Power: 6, AllowedLines: []Line{LineFront}, ImagePath: asset("countryman.png")},
	{Name: "Hunter", Power: 4, AllowedLines: []Line{LineFront}, ImagePath: asset("hunter.png")},
	{Name: "Sorceress", Power: 7, AllowedLines: []Line{LineBack}, ImagePath: asset("witch.png")},
	{Name: "Nordling", Power: 8, AllowedLines: []Line{LineFront}, ImagePath: asset("nordling.png")},
	{Name: "Tame Bear", Power: 8, AllowedLines: []Line{LineFront}, ImagePath: asset("bear.png")},
	{Name: "Drakkar", Power: 5, AllowedLines: []Line{LineFront}, ImagePath: asset("drakkar.png")},
	{Name: "Trebuchet", Power: 8, AllowedLines: []Line{LineBack}, ImagePath: asset("trebuchet.png")},
	{Name: "Tramp", Power: 3, AllowedLines: []Line{LineFront}, ImagePath: asset("tramp.png")},
	{Name: "Forest Guard", Power: 4, AllowedLines: []Line{LineBack}, ImagePath: asset("forestguard.png")},
	{Name: "Tribal Archer", Power: 3, AllowedLines: []Line{LineBack}, ImagePath: asset("plarch.png")},
	{Name: "Crow", Power: 4, AllowedLines: []Line{LineBack}, ImagePath: asset("crow.png")},
	{Name: "Moonface", Power: 6, AllowedLines: []Line{LineBack}, ImagePath: asset("moon.png")},
	{Name: Bandit, Power: 7, AllowedLines: []Line{LineFront}, ImagePath: asset("bandit.png")},
	{Name: "Chimera", Power: 4, AllowedLines: []Line{LineFront}, ImagePath: asset("chimere.png")},
	{Name: "Signal Lights", Power: 0, AllowedLines: []Line{LineFront}, Ability: AbilityAreaBuff, ImagePath: asset("signal_lights.png")},
}

// Standard returns a catalog populated with the base card set.
func Standard() *Catalog {
	c := NewCatalog()
	for _, def := range standardSet {
		if err := c.Define(def); err != nil {
			// The base set is static; a failure here is a programming error.
			panic(err)
		}
	}
	return c
}

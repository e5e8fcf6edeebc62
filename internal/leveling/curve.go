// Package leveling implements the XP accumulation curve and level
// progression. XP only ever increases; levels are derived from XP and never
// stored authoritatively.
package leveling

// xpStep is the base increment of the triangular XP curve: advancing from
// level n to n+1 costs n*xpStep XP.
const xpStep = 500

// XPForLevel returns the total XP required to hold the given level.
// Level 1 is the floor and costs nothing.
func XPForLevel(level int) int64 {
	if level <= 1 {
		return 0
	}
	n := int64(level - 1)
	return xpStep * n * (n + 1) / 2
}

// LevelForXP returns the level implied by a total XP amount.
func LevelForXP(xp int64) int {
	if xp < 0 {
		return 1
	}
	level := 1
	for XPForLevel(level+1) <= xp {
		level++
	}
	return level
}

// XPToNext returns how much XP is missing until the next level.
func XPToNext(xp int64) int64 {
	return XPForLevel(LevelForXP(xp)+1) - xp
}

package rank

import (
	"strings"

	"github.com/rushteam/wardrobe/core"
)

// DiversityTracker 记录已入选集合中各子类目 / 颜色的数量，O(1) 计算候选的多样性。
type DiversityTracker struct {
	n       int
	subCats map[string]int
	colours map[string]int
}

func NewDiversityTracker() *DiversityTracker {
	return &DiversityTracker{
		subCats: make(map[string]int),
		colours: make(map[string]int),
	}
}

// Score 返回候选相对已入选集合的多样性 ∈ [0,1]：
// 集合为空时为 1；否则为 (1 − 同子类目占比) 与 (1 − 同颜色占比) 的均值。
// 缺省属性不与任何物品视为相同。
func (d *DiversityTracker) Score(it *core.Item) float64 {
	if d.n == 0 {
		return 1
	}
	n := float64(d.n)
	subShare := float64(count(d.subCats, it.SubCategory)) / n
	colShare := float64(count(d.colours, it.BaseColour)) / n
	return ((1 - subShare) + (1 - colShare)) / 2
}

// Add 把物品加入已入选集合。
func (d *DiversityTracker) Add(it *core.Item) {
	d.n++
	if it.SubCategory != "" {
		d.subCats[strings.ToLower(it.SubCategory)]++
	}
	if it.BaseColour != "" {
		d.colours[strings.ToLower(it.BaseColour)]++
	}
}

// Len 返回已入选数量。
func (d *DiversityTracker) Len() int { return d.n }

func count(m map[string]int, v string) int {
	if v == "" {
		return 0
	}
	return m[strings.ToLower(v)]
}

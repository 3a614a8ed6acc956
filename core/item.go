package core

import "strings"

// Item 是目录中的一件服饰：类目属性 + 预计算的 embedding。
// 所有属性均可缺省（空字符串 / 0）；Embedding 在加载阶段校验一次，
// 不合法（长度不符、含 NaN/Inf）时会被置空，此后只读。
type Item struct {
	ID             int64     `json:"id" yaml:"id"`
	Gender         string    `json:"gender,omitempty" yaml:"gender,omitempty"`
	MasterCategory string    `json:"masterCategory,omitempty" yaml:"masterCategory,omitempty"`
	SubCategory    string    `json:"subCategory,omitempty" yaml:"subCategory,omitempty"`
	ArticleType    string    `json:"articleType,omitempty" yaml:"articleType,omitempty"`
	BaseColour     string    `json:"baseColour,omitempty" yaml:"baseColour,omitempty"`
	Season         string    `json:"season,omitempty" yaml:"season,omitempty"`
	Usage          string    `json:"usage,omitempty" yaml:"usage,omitempty"`
	Year           int       `json:"year,omitempty" yaml:"year,omitempty"`
	DisplayName    string    `json:"productDisplayName,omitempty" yaml:"productDisplayName,omitempty"`
	Embedding      []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty"`
}

// 属性名，与原始数据集列名一致，用于 DSL / 配置中引用属性。
const (
	AttrGender         = "gender"
	AttrMasterCategory = "masterCategory"
	AttrSubCategory    = "subCategory"
	AttrArticleType    = "articleType"
	AttrBaseColour     = "baseColour"
	AttrSeason         = "season"
	AttrUsage          = "usage"
	AttrDisplayName    = "productDisplayName"
)

// HasEmbedding 表示该物品可以参与相似度计算。
func (it *Item) HasEmbedding() bool {
	return it != nil && len(it.Embedding) > 0
}

// Attr 按属性名读取类目属性，未知属性返回空字符串。
func (it *Item) Attr(name string) string {
	if it == nil {
		return ""
	}
	switch name {
	case AttrGender:
		return it.Gender
	case AttrMasterCategory:
		return it.MasterCategory
	case AttrSubCategory:
		return it.SubCategory
	case AttrArticleType:
		return it.ArticleType
	case AttrBaseColour:
		return it.BaseColour
	case AttrSeason:
		return it.Season
	case AttrUsage:
		return it.Usage
	case AttrDisplayName:
		return it.DisplayName
	}
	return ""
}

// Attributes 返回属性的 map 形式（不含 embedding），供 DSL 与序列化使用。
func (it *Item) Attributes() map[string]any {
	return map[string]any{
		"id":               it.ID,
		AttrGender:         it.Gender,
		AttrMasterCategory: it.MasterCategory,
		AttrSubCategory:    it.SubCategory,
		AttrArticleType:    it.ArticleType,
		AttrBaseColour:     it.BaseColour,
		AttrSeason:         it.Season,
		AttrUsage:          it.Usage,
		"year":             int64(it.Year),
		AttrDisplayName:    it.DisplayName,
	}
}

// WithoutEmbedding 返回去掉 embedding 的浅拷贝，用于对外输出。
func (it *Item) WithoutEmbedding() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	cp.Embedding = nil
	return &cp
}

// SameAttr 判断两个属性值是否相同；任一方缺省时视为不同。
func SameAttr(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

package ebay

// CategoryTreeResp get_default_category_tree_id 响应
type CategoryTreeResp struct {
	CategoryTreeID      string `json:"categoryTreeId"`
	CategoryTreeVersion string `json:"categoryTreeVersion"`
}

// AspectsResp get_item_aspects_for_category 响应
type AspectsResp struct {
	CategoryID string   `json:"categoryId"`
	Aspects    []Aspect `json:"aspects"`
}

// Aspect 分类属性
type Aspect struct {
	LocalizedAspectName string           `json:"localizedAspectName"`
	AspectConstraint    AspectConstraint `json:"aspectConstraint"`
	AspectValues        []AspectValue    `json:"aspectValues"`
}

// AspectConstraint 属性约束
type AspectConstraint struct {
	AspectDataType          string `json:"aspectDataType"`
	AspectRequired          bool   `json:"aspectRequired"`
	AspectUsage             string `json:"aspectUsage"`
	AspectMode              string `json:"aspectMode"`
	ItemToAspectCardinality string `json:"itemToAspectCardinality"`
}

// AspectValue 可选值
type AspectValue struct {
	LocalizedValue string `json:"localizedValue"`
}

// CategorySubtreeResp get_category_subtree 响应（只取根节点名称）
type CategorySubtreeResp struct {
	CategorySubtreeNode struct {
		Category struct {
			CategoryID   string `json:"categoryId"`
			CategoryName string `json:"categoryName"`
		} `json:"category"`
	} `json:"categorySubtreeNode"`
}

// restErrorResp REST 错误
type restErrorResp struct {
	Errors []struct {
		ErrorID  int    `json:"errorId"`
		Message  string `json:"message"`
		Category string `json:"category"`
	} `json:"errors"`
}

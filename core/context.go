package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载一次推荐请求的用户/查询信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string

	// BookID 是 item-to-item 场景的种子书（按书找书时使用）
	BookID int64

	// Query 是搜索/浏览场景的原始查询串
	Query string

	// Limit 是期望返回的候选数上限；<= 0 时各 Node 使用自身默认值
	Limit int

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、重度读者、偏好某类别等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（device_type、scene 等），由边界层填充
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// Package bookrec 是一个书籍推荐引擎（Book Recommender Kit）。
//
// 设计要点：
// - 预计算相似度矩阵驱动：i2i / 用户协同 / 类别 / 混合四条打分路径 + 解释生成
// - 依赖显式注入：Catalog（只读书目 + 矩阵）与 UserStore（历史/收藏）在构造时传入
// - Pipeline 可组合：召回/过滤/重排均为可插拔 Node，支持 YAML 配置驱动
// - Fail soft：信号残缺时降级为空结果或通用文案，推荐面始终可用
package bookrec

import "github.com/rushteam/bookrec/pipeline"

// 轻量 facade：便于用户直接 import "bookrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindReRank = pipeline.KindReRank
)

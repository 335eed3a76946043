// Package eino 把 Eino 组件回调转成 trace 与 Prometheus 指标：
// 查询/入库 embedding 与候选裁决的 ChatModel 调用都经由这里观测。
package eino

import (
	"sync/atomic"

	einocallbacks "github.com/cloudwego/eino/callbacks"
	cbtemplate "github.com/cloudwego/eino/utils/callbacks"
)

var registered atomic.Bool

// Handler 组合 ChatModel 与 Embedding 的观测回调
func Handler() einocallbacks.Handler {
	return cbtemplate.NewHandlerHelper().
		ChatModel(newChatModelCallbackHandler()).
		Embedding(newEmbeddingCallbackHandler()).
		Handler()
}

// Init 注册为 Eino 全局回调，重复调用无效果
func Init() {
	if registered.CompareAndSwap(false, true) {
		einocallbacks.AppendGlobalHandlers(Handler())
	}
}

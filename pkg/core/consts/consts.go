package consts

type ctxKey string

// TraceKey 请求链路追踪ID在 context 中的键
const TraceKey ctxKey = "traceId"

// UserKey 当前操作人在 context 中的键
const UserKey ctxKey = "userId"

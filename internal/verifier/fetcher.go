package verifier

import "context"

// Outcome 单个来源一次查询的产出
type Outcome struct {
	Candidates []Candidate
	FactChecks []FactCheckHit
	// Checked 本来源实际检查过的条目数（过滤前）
	Checked int
	// Err 来源整体失败；已在来源内部隔离，只用于记录
	Err error
}

// Fetcher 抽象每一类外部来源。实现必须自行捕获错误，
// 单个子来源失败只算作零结果，不影响其他来源。
type Fetcher interface {
	Name() string
	// Method 写入 details.verification_method 的名字
	Method() string
	Fetch(ctx context.Context, headline string, keywords []string) Outcome
}

// Package classifier 实现面试助手的消息分类与回复选择。
// 流程为 Tokenize → Score → Select，整个过程无状态，可被任意数量的请求并发调用。
package classifier

// Category 表示一条消息所属的面试话题类别。
type Category string

const (
	General    Category = "general"
	Technical  Category = "technical"
	Behavioral Category = "behavioral"
	HR         Category = "hr"
)

// Categories 按声明顺序返回全部类别。
func Categories() []Category {
	return []Category{General, Technical, Behavioral, HR}
}

// Valid 判断类别是否属于固定的枚举集合。
func (c Category) Valid() bool {
	switch c {
	case General, Technical, Behavioral, HR:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

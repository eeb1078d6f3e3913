package classifier

import (
	"fmt"
	"slices"
)

// DefaultFollowUpProbability 是技术/行为类问题返回追问的默认概率。
const DefaultFollowUpProbability = 0.30

// DefaultFallbackResponse 用于类别没有任何模板时。
const DefaultFallbackResponse = "I'm here to help with your interview preparation. What would you like to know?"

// ErrorResponse 是分类过程出现意外错误时返回的固定致歉回复。
const ErrorResponse = "I'm sorry, I encountered an error processing your message."

// CategorySpec 描述一个类别的触发关键词、回复模板和追问。
type CategorySpec struct {
	Name      Category `mapstructure:"name" json:"name"`
	Keywords  []string `mapstructure:"keywords" json:"keywords"`
	Templates []string `mapstructure:"templates" json:"templates"`
	FollowUps []string `mapstructure:"follow_ups" json:"followUps"`
}

// ConfidenceTable 是默认置信度策略使用的分值表。
type ConfidenceTable struct {
	Greeting float64 `mapstructure:"greeting" json:"greeting"`
	Topic    float64 `mapstructure:"topic" json:"topic"`
	Prep     float64 `mapstructure:"prep" json:"prep"`
	Fallback float64 `mapstructure:"fallback" json:"fallback"`
}

// Config 是分类器的全部可配置项，与 config.yaml 中的 classifier 段对应。
// Categories 的顺序即类别的声明顺序。
type Config struct {
	Categories          []CategorySpec  `mapstructure:"categories" json:"categories"`
	Greetings           []string        `mapstructure:"greetings" json:"greetings"`
	FollowUpProbability float64         `mapstructure:"follow_up_probability" json:"followUpProbability"`
	Confidence          ConfidenceTable `mapstructure:"confidence" json:"confidence"`
	FallbackResponse    string          `mapstructure:"fallback_response" json:"fallbackResponse"`
}

// DefaultConfig 返回内置的关键词、模板与追问表。
func DefaultConfig() Config {
	return Config{
		Categories: []CategorySpec{
			{
				Name:     General,
				Keywords: []string{"interview", "prepare", "question", "answer", "resume", "cv", "job", "career"},
				Templates: []string{
					"I can help you prepare for your interview. What specific aspect would you like to focus on?",
					"Great question about interviews! Would you like tips on common questions, body language, or something else?",
					"I have plenty of interview preparation advice. What would you like to know more about?",
				},
			},
			{
				Name:     Technical,
				Keywords: []string{"technical", "coding", "programming", "algorithm", "code", "debug", "test"},
				Templates: []string{
					"I can help you with technical interview preparation. What specific topic would you like to focus on?",
					"Technical interviews can be challenging. Would you like to practice coding problems or system design?",
					"I can help you prepare for technical questions. What programming language or concept would you like to discuss?",
				},
				FollowUps: []string{
					"Would you like to practice a coding problem?",
					"Do you want to discuss system design concepts?",
					"Would you like to review data structures and algorithms?",
				},
			},
			{
				Name:     Behavioral,
				Keywords: []string{"behavioral", "experience", "situation", "team", "conflict", "challenge"},
				Templates: []string{
					"Behavioral interviews focus on your past experiences. What type of situation would you like to prepare for?",
					"I can help you with behavioral questions. Would you like to practice STAR method responses?",
					"Let's prepare for behavioral questions. What specific scenario would you like to discuss?",
				},
				FollowUps: []string{
					"Can you tell me about a time you faced a challenge?",
					"How do you handle working in a team?",
					"Describe a situation where you showed leadership",
				},
			},
			{
				Name:     HR,
				Keywords: []string{"salary", "benefits", "company", "culture", "work", "environment"},
				Templates: []string{
					"I can help you with HR-related questions. What would you like to know about the company or role?",
					"HR interviews are important. Would you like to discuss salary negotiation or company culture?",
					"I can help you prepare for HR questions. What specific aspect would you like to focus on?",
				},
			},
		},
		Greetings:           []string{"hello", "hi", "hey"},
		FollowUpProbability: DefaultFollowUpProbability,
		Confidence: ConfidenceTable{
			Greeting: 0.9,
			Topic:    0.85,
			Prep:     0.8,
			Fallback: 0.7,
		},
		FallbackResponse: DefaultFallbackResponse,
	}
}

// WithDefaults 用 DefaultConfig 补齐未设置的字段。
// 零值的 FollowUpProbability 视为未设置；需要关闭追问时请使用负数。
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if len(c.Categories) == 0 {
		c.Categories = def.Categories
	}
	if !slices.ContainsFunc(c.Categories, func(s CategorySpec) bool { return s.Name == General }) {
		c.Categories = append([]CategorySpec{def.Categories[0]}, c.Categories...)
	}
	if c.Greetings == nil {
		c.Greetings = def.Greetings
	}
	if c.FollowUpProbability == 0 {
		c.FollowUpProbability = def.FollowUpProbability
	}
	if c.Confidence.Greeting == 0 {
		c.Confidence.Greeting = def.Confidence.Greeting
	}
	if c.Confidence.Topic == 0 {
		c.Confidence.Topic = def.Confidence.Topic
	}
	if c.Confidence.Prep == 0 {
		c.Confidence.Prep = def.Confidence.Prep
	}
	if c.Confidence.Fallback == 0 {
		c.Confidence.Fallback = def.Confidence.Fallback
	}
	if c.FallbackResponse == "" {
		c.FallbackResponse = def.FallbackResponse
	}
	return c
}

// Validate 检查类别表只包含固定枚举中的类别，且每个类别至多出现一次。
func (c Config) Validate() error {
	seen := make(map[Category]struct{}, len(c.Categories))
	for _, spec := range c.Categories {
		if !spec.Name.Valid() {
			return fmt.Errorf("未知的类别 %q，可选值为 %v", spec.Name, Categories())
		}
		if _, ok := seen[spec.Name]; ok {
			return fmt.Errorf("类别 %q 重复配置", spec.Name)
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}

// knownCategories 丢弃未知类别以及重复出现的类别（保留第一次出现的配置）。
func (c Config) knownCategories() Config {
	seen := make(map[Category]struct{}, len(c.Categories))
	kept := make([]CategorySpec, 0, len(c.Categories))
	for _, spec := range c.Categories {
		if _, ok := seen[spec.Name]; ok || !spec.Name.Valid() {
			continue
		}
		seen[spec.Name] = struct{}{}
		kept = append(kept, spec)
	}
	c.Categories = kept
	return c
}

// clone 深拷贝配置，保证分类器持有的表不会被调用方修改。
func (c Config) clone() Config {
	out := c
	out.Categories = make([]CategorySpec, len(c.Categories))
	for i, spec := range c.Categories {
		out.Categories[i] = CategorySpec{
			Name:      spec.Name,
			Keywords:  slices.Clone(spec.Keywords),
			Templates: slices.Clone(spec.Templates),
			FollowUps: slices.Clone(spec.FollowUps),
		}
	}
	out.Greetings = slices.Clone(c.Greetings)
	return out
}

package classifier

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// RandomSource 是回复选择使用的随机源。*rand.Rand 天然满足该接口，
// 测试中可注入固定序列的实现以得到确定的输出。
type RandomSource interface {
	Float64() float64
	IntN(n int) int
}

// ConfidenceFunc 根据最终类别与命中的关键词计算置信度。
type ConfidenceFunc func(category Category, matched []string) float64

// Result 是一次分类的结果。
type Result struct {
	Category   Category `json:"category"`
	Response   string   `json:"response"`
	Confidence float64  `json:"confidence"`
	FollowUp   bool     `json:"followUp"`
	Matched    []string `json:"matched,omitempty"`
}

// Score 是单个类别的命中关键词数。
type Score struct {
	Category Category
	Count    int
}

// Classifier 持有不可变的关键词/模板表。
type Classifier struct {
	cfg        Config
	keywords   map[Category]map[string]struct{}
	greetings  map[string]struct{}
	specs      map[Category]CategorySpec
	confidence ConfidenceFunc
	rng        RandomSource
}

// Option 用于定制 Classifier。
type Option func(*Classifier)

// WithConfidenceFunc 替换默认的置信度策略。
func WithConfidenceFunc(fn ConfidenceFunc) Option {
	return func(c *Classifier) {
		if fn != nil {
			c.confidence = fn
		}
	}
}

// WithRandomSource 设置 Classify 使用的默认随机源。
func WithRandomSource(rng RandomSource) Option {
	return func(c *Classifier) {
		if rng != nil {
			c.rng = rng
		}
	}
}

// New 基于配置创建分类器，配置会被深拷贝并补齐默认值。
// 未知或重复的类别会被忽略，需要报错时先调用 Config.Validate。
func New(cfg Config, opts ...Option) *Classifier {
	cfg = cfg.knownCategories().WithDefaults().clone()
	c := &Classifier{
		cfg:       cfg,
		keywords:  make(map[Category]map[string]struct{}, len(cfg.Categories)),
		greetings: toSet(cfg.Greetings),
		specs:     make(map[Category]CategorySpec, len(cfg.Categories)),
		rng:       globalSource{},
	}
	for _, spec := range cfg.Categories {
		c.keywords[spec.Name] = toSet(spec.Keywords)
		c.specs[spec.Name] = spec
	}
	c.confidence = cfg.Confidence.Func(cfg.Greetings)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config 返回分类器配置的副本。
func (c *Classifier) Config() Config {
	return c.cfg.clone()
}

// Classify 使用分类器的默认随机源对消息分类。
func (c *Classifier) Classify(message string) Result {
	return c.ClassifyWith(message, c.rng)
}

// ClassifyWith 使用指定的随机源对消息分类。
func (c *Classifier) ClassifyWith(message string, rng RandomSource) Result {
	if rng == nil {
		rng = c.rng
	}
	tokens := Tokenize(message)
	scores := c.Score(tokens)
	category := Select(scores)
	response, followUp := c.Respond(category, rng)
	matched := c.matched(tokens)
	return Result{
		Category:   category,
		Response:   response,
		Confidence: clamp(c.confidence(category, matched)),
		FollowUp:   followUp,
		Matched:    matched,
	}
}

// Score 按声明顺序统计每个类别命中的关键词数，同一关键词最多计一次。
func (c *Classifier) Score(tokens []string) []Score {
	present := toSet(tokens)
	scores := make([]Score, 0, len(c.cfg.Categories))
	for _, spec := range c.cfg.Categories {
		count := 0
		for kw := range c.keywords[spec.Name] {
			if _, ok := present[kw]; ok {
				count++
			}
		}
		scores = append(scores, Score{Category: spec.Name, Count: count})
	}
	return scores
}

// Select 选出命中数严格最高的类别。全部为零或最高分并列时返回 General。
func Select(scores []Score) Category {
	best := General
	top := 0
	tied := false
	for _, s := range scores {
		switch {
		case s.Count > top:
			top = s.Count
			best = s.Category
			tied = false
		case s.Count == top && top > 0:
			tied = true
		}
	}
	if top == 0 || tied {
		return General
	}
	return best
}

// Respond 为类别挑选回复。有追问的类别以 FollowUpProbability 的概率返回追问。
func (c *Classifier) Respond(category Category, rng RandomSource) (response string, followUp bool) {
	spec, ok := c.specs[category]
	if !ok {
		spec = c.specs[General]
	}
	if len(spec.FollowUps) > 0 && rng.Float64() < c.cfg.FollowUpProbability {
		return spec.FollowUps[rng.IntN(len(spec.FollowUps))], true
	}
	templates := spec.Templates
	if len(templates) == 0 {
		templates = c.specs[General].Templates
	}
	if len(templates) == 0 {
		return c.cfg.FallbackResponse, false
	}
	return templates[rng.IntN(len(templates))], false
}

// matched 返回消息中出现的所有关键词与问候语，已排序去重。
func (c *Classifier) matched(tokens []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		hit := false
		if _, ok := c.greetings[tok]; ok {
			hit = true
		}
		for _, set := range c.keywords {
			if _, ok := set[tok]; ok {
				hit = true
				break
			}
		}
		if hit {
			seen[tok] = struct{}{}
			out = append(out, tok)
		}
	}
	slices.Sort(out)
	return out
}

// Func 将分值表转换为置信度策略：问候语优先，其次按是否命中关键词及类别取值。
func (t ConfidenceTable) Func(greetings []string) ConfidenceFunc {
	greet := toSet(greetings)
	return func(category Category, matched []string) float64 {
		for _, m := range matched {
			if _, ok := greet[m]; ok {
				return t.Greeting
			}
		}
		switch {
		case len(matched) == 0:
			return t.Fallback
		case category == General:
			return t.Prep
		default:
			return t.Topic
		}
	}
}

// Fallback 是分类出现意外错误时使用的兜底结果。
func Fallback() Result {
	return Result{Category: General, Response: ErrorResponse, Confidence: 0}
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return set
}

func clamp(v float64) float64 {
	if v < 0 || v != v {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// globalSource 使用 math/rand/v2 的顶层函数，可安全并发使用。
type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }
func (globalSource) IntN(n int) int   { return rand.IntN(n) }

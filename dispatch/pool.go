package dispatch

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/lemconn/exbridge/errs"
)

// IndexPlaceholder 模板中被替换为区间内序号的占位符
const IndexPlaceholder = "{index}"

// Rand 随机数来源；*rand.Rand 满足该接口
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// ProxyRange 一段连续编号的中继地址，Min 与 Max 都包含在内
type ProxyRange struct {
	URLTemplate        string `mapstructure:"url" json:"url"`
	CredentialTemplate string `mapstructure:"credential" json:"credential"`
	Min                int    `mapstructure:"min" json:"min"`
	Max                int    `mapstructure:"max" json:"max"`
}

func (r ProxyRange) size() int {
	return r.Max - r.Min + 1
}

// Selection 一次抽取的结果
type Selection struct {
	URL        string
	Credential string
	Index      int
}

// Pool 中继地址池，构建后只读，可并发使用
type Pool struct {
	ranges []ProxyRange
	size   int
}

// NewPool 校验区间（Min <= Max，互不重叠）并创建地址池
func NewPool(ranges []ProxyRange) (*Pool, error) {
	if len(ranges) == 0 {
		return nil, fmt.Errorf("%w: proxy pool has no ranges", errs.ErrInvalidConfig)
	}
	p := &Pool{ranges: make([]ProxyRange, len(ranges))}
	copy(p.ranges, ranges)
	for _, r := range p.ranges {
		if r.URLTemplate == "" {
			return nil, fmt.Errorf("%w: proxy range %d-%d has no url template", errs.ErrInvalidConfig, r.Min, r.Max)
		}
		if r.Min < 0 || r.Min > r.Max {
			return nil, fmt.Errorf("%w: invalid proxy range %d-%d", errs.ErrInvalidConfig, r.Min, r.Max)
		}
		p.size += r.size()
	}

	sorted := make([]ProxyRange, len(p.ranges))
	copy(sorted, p.ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Min <= sorted[i-1].Max {
			return nil, fmt.Errorf("%w: proxy ranges %d-%d and %d-%d overlap", errs.ErrInvalidConfig,
				sorted[i-1].Min, sorted[i-1].Max, sorted[i].Min, sorted[i].Max)
		}
	}
	return p, nil
}

// Size 地址总数
func (p *Pool) Size() int {
	return p.size
}

// Select 在 [0, Size) 上均匀抽取一个位置并解析到对应区间
func (p *Pool) Select(rng Rand) (Selection, error) {
	if p == nil || p.size == 0 {
		return Selection{}, fmt.Errorf("%w: empty proxy pool", errs.ErrInvalidConfig)
	}
	if rng == nil {
		rng = globalRand{}
	}
	return p.Resolve(rng.IntN(p.size))
}

// Resolve 将位置 [0, Size) 映射到区间并格式化模板
func (p *Pool) Resolve(slot int) (Selection, error) {
	if slot < 0 || slot >= p.size {
		return Selection{}, fmt.Errorf("slot %d out of range [0,%d)", slot, p.size)
	}
	for _, r := range p.ranges {
		if slot < r.size() {
			index := r.Min + slot
			return Selection{
				URL:        format(r.URLTemplate, index),
				Credential: format(r.CredentialTemplate, index),
				Index:      index,
			}, nil
		}
		slot -= r.size()
	}
	return Selection{}, fmt.Errorf("slot %d not resolved", slot)
}

func format(template string, index int) string {
	if template == "" {
		return ""
	}
	return strings.ReplaceAll(template, IndexPlaceholder, strconv.Itoa(index))
}

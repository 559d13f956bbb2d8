package eventbus

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	pkgif "github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
)

var logger = log.Logger("core/eventbus")

// ============================================================================
// 错误定义
// ============================================================================

var (
	// ErrClosed 事件总线或发射器已关闭
	ErrClosed = errors.New("eventbus: closed")
	// ErrInvalidEventType 无效的事件类型
	ErrInvalidEventType = errors.New("eventbus: invalid event type")
	// ErrNonPointerType 非指针类型
	ErrNonPointerType = errors.New("eventbus: event type must be a pointer")
	// ErrTypeMismatch 发射的事件与发射器类型不一致
	ErrTypeMismatch = errors.New("eventbus: event type mismatch")
)

// DefaultBuffer 默认订阅缓冲区大小
const DefaultBuffer = 16

// 确保实现了接口
var _ pkgif.EventBus = (*Bus)(nil)

// ============================================================================
// Bus 实现
// ============================================================================

// Bus 事件总线
type Bus struct {
	mu     sync.RWMutex
	nodes  map[reflect.Type]*node
	closed bool
}

// node 事件类型节点
type node struct {
	lk        sync.Mutex
	typ       reflect.Type
	sinks     []*Subscription
	nEmitters atomic.Int32
	dropCount atomic.Int64
}

// NewBus 创建事件总线
func NewBus() *Bus {
	return &Bus{
		nodes: make(map[reflect.Type]*node),
	}
}

// elemType 由指针零值取事件元素类型
func elemType(eventType interface{}) (reflect.Type, error) {
	if eventType == nil {
		return nil, ErrInvalidEventType
	}
	typ := reflect.TypeOf(eventType)
	if typ.Kind() != reflect.Ptr {
		return nil, ErrNonPointerType
	}
	return typ.Elem(), nil
}

// Subscribe 订阅事件
func (b *Bus) Subscribe(eventType interface{}, opts ...pkgif.SubscriptionOpt) (pkgif.Subscription, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	settings := pkgif.SubscriptionSettings{Buffer: DefaultBuffer}
	for _, opt := range opts {
		opt(&settings)
	}
	if settings.Buffer < 0 {
		settings.Buffer = 0
	}

	sub := &Subscription{
		bus: b,
		typ: typ,
		out: make(chan interface{}, settings.Buffer),
	}

	if err := b.withNode(typ, func(n *node) {
		n.sinks = append(n.sinks, sub)
	}); err != nil {
		return nil, err
	}
	return sub, nil
}

// Emitter 获取发射器
func (b *Bus) Emitter(eventType interface{}) (pkgif.Emitter, error) {
	typ, err := elemType(eventType)
	if err != nil {
		return nil, err
	}

	var n *node
	if err := b.withNode(typ, func(nd *node) {
		n = nd
		n.nEmitters.Add(1)
	}); err != nil {
		return nil, err
	}

	return &Emitter{bus: b, node: n, typ: typ}, nil
}

// Dropped 返回事件类型累计丢弃数
func (b *Bus) Dropped(eventType interface{}) int64 {
	typ, err := elemType(eventType)
	if err != nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n, ok := b.nodes[typ]; ok {
		return n.dropCount.Load()
	}
	return 0
}

// Close 关闭总线，关闭所有订阅的通道
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true

	var subs []*Subscription
	for _, n := range b.nodes {
		n.lk.Lock()
		subs = append(subs, n.sinks...)
		n.lk.Unlock()
	}
	b.mu.Unlock()

	for _, s := range subs {
		_ = s.Close()
	}
	return nil
}

// ============================================================================
// 内部方法
// ============================================================================

// withNode 在节点上执行操作
func (b *Bus) withNode(typ reflect.Type, cb func(*node)) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}

	n, ok := b.nodes[typ]
	if !ok {
		n = &node{typ: typ}
		b.nodes[typ] = n
	}

	n.lk.Lock()
	b.mu.Unlock()

	cb(n)
	n.lk.Unlock()
	return nil
}

// tryDropNode 无订阅者和发射器时删除节点
func (b *Bus) tryDropNode(typ reflect.Type) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, ok := b.nodes[typ]
	if !ok {
		return
	}

	n.lk.Lock()
	idle := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if idle {
		delete(b.nodes, typ)
	}
}

// removeSub 移除订阅
func (b *Bus) removeSub(sub *Subscription) {
	b.mu.Lock()
	n, ok := b.nodes[sub.typ]
	if !ok {
		b.mu.Unlock()
		return
	}

	n.lk.Lock()
	b.mu.Unlock()

	for i, s := range n.sinks {
		if s == sub {
			n.sinks = append(n.sinks[:i], n.sinks[i+1:]...)
			break
		}
	}
	idle := len(n.sinks) == 0 && n.nEmitters.Load() == 0
	n.lk.Unlock()

	if idle {
		b.tryDropNode(sub.typ)
	}
}

// emit 发射事件到所有订阅者
func (n *node) emit(event interface{}) error {
	if reflect.TypeOf(event) != n.typ {
		return fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, event, n.typ)
	}

	n.lk.Lock()
	defer n.lk.Unlock()

	for _, sub := range n.sinks {
		select {
		case sub.out <- event:
		default:
			dropped := n.dropCount.Add(1)

			// 每丢弃 100 个事件警告一次
			if dropped%100 == 1 {
				logger.Warn("slow subscriber",
					"dropped", dropped,
					"type", n.typ.String(),
					"reason", "subscriber buffer full")
			}
		}
	}
	return nil
}

package interfaces

// EventBus 事件总线
//
// 事件类型以指针零值标识，例如 new(types.EvtConnectionStaged)。
// 发射永不阻塞：订阅者缓冲区满时事件被丢弃。
type EventBus interface {
	// Subscribe 订阅事件类型
	Subscribe(eventType interface{}, opts ...SubscriptionOpt) (Subscription, error)

	// Emitter 获取事件类型的发射器
	Emitter(eventType interface{}) (Emitter, error)
}

// Subscription 订阅
type Subscription interface {
	// Out 返回事件通道，Close 后关闭
	Out() <-chan interface{}

	// Close 取消订阅
	Close() error
}

// Emitter 发射器
type Emitter interface {
	// Emit 发射事件（值类型，与注册时的元素类型一致）
	Emit(event interface{}) error

	// Close 关闭发射器
	Close() error
}

// SubscriptionOpt 订阅选项
type SubscriptionOpt func(*SubscriptionSettings)

// SubscriptionSettings 订阅设置
type SubscriptionSettings struct {
	Buffer int
}

// BufSize 设置订阅缓冲区大小
func BufSize(size int) SubscriptionOpt {
	return func(s *SubscriptionSettings) {
		s.Buffer = size
	}
}

// Package eventbus 实现进程内事件总线
//
// 提供类型安全的事件发布/订阅机制：
//
//   - 事件类型以指针零值标识：bus.Subscribe(new(types.EvtConnectionStaged))
//   - 发射永不阻塞，订阅者缓冲区满时事件被丢弃并计数
//   - 发射器按类型引用计数，无订阅者也无发射器时节点被回收
//
// # 快速开始
//
//	bus := eventbus.NewBus()
//
//	sub, _ := bus.Subscribe(new(types.EvtConnectionStaged))
//	defer sub.Close()
//
//	go func() {
//	    for evt := range sub.Out() {
//	        e := evt.(types.EvtConnectionStaged)
//	        // 处理事件
//	    }
//	}()
//
//	em, _ := bus.Emitter(new(types.EvtConnectionStaged))
//	defer em.Close()
//	em.Emit(types.EvtConnectionStaged{...})
//
// 接纳路径在释放对端索引的锁之后才发射事件。
package eventbus

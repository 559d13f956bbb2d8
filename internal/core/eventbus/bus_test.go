package eventbus

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dep2p/go-bgpd/pkg/interfaces"
	"github.com/dep2p/go-bgpd/pkg/types"
)

type testEvent struct {
	Value int
}

// ============================================================================
// 基础功能测试
// ============================================================================

// TestBus_NewBus 测试创建事件总线
func TestBus_NewBus(t *testing.T) {
	bus := NewBus()
	if bus == nil {
		t.Fatal("NewBus() returned nil")
	}
	if bus.nodes == nil {
		t.Error("NewBus() nodes map is nil")
	}
}

// TestBus_InvalidTypes 测试无效事件类型
func TestBus_InvalidTypes(t *testing.T) {
	bus := NewBus()

	if _, err := bus.Subscribe(nil); !errors.Is(err, ErrInvalidEventType) {
		t.Errorf("Subscribe(nil) err = %v, want ErrInvalidEventType", err)
	}
	if _, err := bus.Subscribe(testEvent{}); !errors.Is(err, ErrNonPointerType) {
		t.Errorf("Subscribe(value) err = %v, want ErrNonPointerType", err)
	}
	if _, err := bus.Emitter(testEvent{}); !errors.Is(err, ErrNonPointerType) {
		t.Errorf("Emitter(value) err = %v, want ErrNonPointerType", err)
	}
}

// TestBus_EmitReceive 测试发射与接收
func TestBus_EmitReceive(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(new(types.EvtConnectionStaged))
	if err != nil {
		t.Fatalf("Subscribe() failed: %v", err)
	}
	defer sub.Close()

	em, err := bus.Emitter(new(types.EvtConnectionStaged))
	if err != nil {
		t.Fatalf("Emitter() failed: %v", err)
	}
	defer em.Close()

	want := types.EvtConnectionStaged{
		PeerID:   1,
		Address:  types.MustParseAddress("10.0.0.1"),
		StagedID: "abc",
	}
	if err := em.Emit(want); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	select {
	case evt := <-sub.Out():
		got, ok := evt.(types.EvtConnectionStaged)
		if !ok {
			t.Fatalf("event type = %T", evt)
		}
		if got != want {
			t.Errorf("event = %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

// TestBus_TypeIsolation 测试不同事件类型互不干扰
func TestBus_TypeIsolation(t *testing.T) {
	bus := NewBus()

	sub, _ := bus.Subscribe(new(types.EvtPeerRegistered))
	defer sub.Close()

	em, _ := bus.Emitter(new(testEvent))
	defer em.Close()

	if err := em.Emit(testEvent{Value: 1}); err != nil {
		t.Fatalf("Emit() failed: %v", err)
	}

	select {
	case evt := <-sub.Out():
		t.Fatalf("unexpected event %v", evt)
	default:
	}
}

// TestEmitter_TypeMismatch 测试发射错误类型
func TestEmitter_TypeMismatch(t *testing.T) {
	bus := NewBus()
	em, _ := bus.Emitter(new(testEvent))
	defer em.Close()

	if err := em.Emit(&testEvent{}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Emit(pointer) err = %v, want ErrTypeMismatch", err)
	}
	if err := em.Emit("x"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Emit(string) err = %v, want ErrTypeMismatch", err)
	}
}

// TestEmitter_Closed 测试关闭后发射
func TestEmitter_Closed(t *testing.T) {
	bus := NewBus()
	em, _ := bus.Emitter(new(testEvent))

	_ = em.Close()
	_ = em.Close()

	if err := em.Emit(testEvent{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Emit() after Close err = %v, want ErrClosed", err)
	}
}

// TestBus_DropWhenFull 测试缓冲区满时丢弃
func TestBus_DropWhenFull(t *testing.T) {
	bus := NewBus()

	sub, _ := bus.Subscribe(new(testEvent), interfaces.BufSize(2))
	defer sub.Close()
	em, _ := bus.Emitter(new(testEvent))
	defer em.Close()

	for i := 0; i < 5; i++ {
		if err := em.Emit(testEvent{Value: i}); err != nil {
			t.Fatalf("Emit() failed: %v", err)
		}
	}

	if got := len(sub.Out()); got != 2 {
		t.Errorf("buffered = %d, want 2", got)
	}
	if got := bus.Dropped(new(testEvent)); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
}

// TestSubscription_Close 测试取消订阅
func TestSubscription_Close(t *testing.T) {
	bus := NewBus()

	sub, _ := bus.Subscribe(new(testEvent))
	_ = sub.Close()
	_ = sub.Close()

	if _, ok := <-sub.Out(); ok {
		t.Error("channel open after Close")
	}

	bus.mu.RLock()
	n := len(bus.nodes)
	bus.mu.RUnlock()
	if n != 0 {
		t.Errorf("nodes = %d after last subscriber closed, want 0", n)
	}
}

// TestBus_Close 测试关闭总线
func TestBus_Close(t *testing.T) {
	bus := NewBus()
	sub, _ := bus.Subscribe(new(testEvent))

	if err := bus.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if _, ok := <-sub.Out(); ok {
		t.Error("subscription open after bus Close")
	}
	if _, err := bus.Subscribe(new(testEvent)); !errors.Is(err, ErrClosed) {
		t.Errorf("Subscribe() after Close err = %v, want ErrClosed", err)
	}
	if err := bus.Close(); err != nil {
		t.Errorf("second Close() failed: %v", err)
	}
}

// ============================================================================
// 并发测试
// ============================================================================

// TestBus_Concurrent 测试并发订阅、发射与取消
func TestBus_Concurrent(t *testing.T) {
	bus := NewBus()
	em, _ := bus.Emitter(new(testEvent))
	defer em.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub, err := bus.Subscribe(new(testEvent), interfaces.BufSize(1))
			if err != nil {
				t.Errorf("Subscribe() failed: %v", err)
				return
			}
			time.Sleep(time.Millisecond)
			_ = sub.Close()
		}()
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = em.Emit(testEvent{Value: i*50 + j})
			}
		}(i)
	}
	wg.Wait()
}
